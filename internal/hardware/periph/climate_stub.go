//go:build !(linux && cgo)

package periph

import (
	"fmt"

	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
)

// OpenClimate is unavailable without cgo on linux.
func OpenClimate(cfg config.ClimateConfig) (*Climate, error) {
	return nil, fmt.Errorf("%w: %s sensor needs linux with cgo", ErrUnsupported, cfg.Type)
}

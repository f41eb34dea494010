package hardware_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/nerrad567/gray-logic-node/internal/hardware"
	"github.com/nerrad567/gray-logic-node/internal/hardware/hardwaretest"
)

func TestLightSensor_RawCounts(t *testing.T) {
	sensor := hardware.NewLightSensor(hardwaretest.NewADC(1234))

	got, err := sensor.Sample(context.Background())
	if err != nil {
		t.Fatalf("Sample() error = %v", err)
	}
	if got != 1234 {
		t.Errorf("Sample() = %d, want 1234", got)
	}
}

func TestLightSensor_ConversionFailure(t *testing.T) {
	adc := hardwaretest.NewADC(0)
	adc.SetError(errors.New("i2c nack"))
	sensor := hardware.NewLightSensor(adc)

	_, err := sensor.Sample(context.Background())
	if !errors.Is(err, hardware.ErrConversion) {
		t.Fatalf("Sample() error = %v, want ErrConversion", err)
	}
	if hardware.IsFatal(err) {
		t.Error("conversion failure reported as fatal")
	}
	if adc.Calls() != 1 {
		t.Errorf("adc calls = %d, want 1 (no retry)", adc.Calls())
	}
}

func TestLightSensor_CancelledContext(t *testing.T) {
	adc := hardwaretest.NewADC(1)
	sensor := hardware.NewLightSensor(adc)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sensor.Sample(ctx); !errors.Is(err, hardware.ErrConversion) {
		t.Errorf("Sample() error = %v, want ErrConversion", err)
	}
	if adc.Calls() != 0 {
		t.Errorf("adc read despite cancelled context")
	}
}

func TestLightSensor_ConcurrentSamplesDoNotOverlap(t *testing.T) {
	adc := hardwaretest.NewADC(42)
	sensor := hardware.NewLightSensor(adc)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = sensor.Sample(context.Background())
		}()
	}
	wg.Wait()

	if adc.Overlapped() {
		t.Error("adc saw overlapping conversions")
	}
}

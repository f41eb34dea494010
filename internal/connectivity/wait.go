package connectivity

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Wait defaults.
const (
	DefaultTimeout      = 60 * time.Second
	defaultPollInterval = 500 * time.Millisecond
)

var (
	// ErrTimeout indicates the interface had no usable address before the deadline.
	ErrTimeout = errors.New("network not ready")
)

// AddrFunc lists the addresses currently assigned to an interface.
type AddrFunc func(iface string) ([]net.Addr, error)

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// Waiter polls an interface until it has a usable address.
type Waiter struct {
	Interface string
	Timeout   time.Duration // default 60s
	Poll      time.Duration // default 500ms
	Addrs     AddrFunc      // default InterfaceAddrs
	Logger    Logger        // optional
}

// Wait blocks until iface has a usable address, timeout elapses or ctx ends.
// An empty iface returns immediately.
func Wait(ctx context.Context, iface string, timeout time.Duration, logger Logger) (net.IP, error) {
	w := &Waiter{Interface: iface, Timeout: timeout, Logger: logger}
	return w.Wait(ctx)
}

// Wait runs the poll loop. It returns the first usable address found.
func (w *Waiter) Wait(ctx context.Context) (net.IP, error) {
	if w.Interface == "" {
		return nil, nil
	}

	timeout := w.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	poll := w.Poll
	if poll <= 0 {
		poll = defaultPollInterval
	}
	addrs := w.Addrs
	if addrs == nil {
		addrs = InterfaceAddrs
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if w.Logger != nil {
		w.Logger.Info("waiting for network", "interface", w.Interface, "timeout", timeout.String())
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	var lastErr error
	for {
		list, err := addrs(w.Interface)
		if err != nil {
			lastErr = err
		} else if ip := usableAddr(list); ip != nil {
			if w.Logger != nil {
				w.Logger.Info("network ready", "interface", w.Interface, "address", ip.String())
			}
			return ip, nil
		}
		if w.Logger != nil {
			w.Logger.Debug("network not ready yet", "interface", w.Interface, "error", err)
		}

		select {
		case <-ctx.Done():
			if lastErr != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrTimeout, w.Interface, lastErr)
			}
			return nil, fmt.Errorf("%w: %s: %w", ErrTimeout, w.Interface, ctx.Err())
		case <-ticker.C:
		}
	}
}

// InterfaceAddrs returns the addresses of iface, or none while it is down.
func InterfaceAddrs(iface string) ([]net.Addr, error) {
	ifi, err := net.InterfaceByName(iface)
	if err != nil {
		return nil, fmt.Errorf("looking up interface %s: %w", iface, err)
	}
	if ifi.Flags&net.FlagUp == 0 {
		return nil, nil
	}
	return ifi.Addrs()
}

// usableAddr returns the first address that is neither loopback, link-local
// nor unspecified.
func usableAddr(addrs []net.Addr) net.IP {
	for _, a := range addrs {
		var ip net.IP
		switch v := a.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		default:
			continue
		}
		if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsUnspecified() {
			continue
		}
		return ip
	}
	return nil
}

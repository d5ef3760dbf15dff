package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/navtree"
)

const (
	// DefaultTimeout is how long WaitForRoot waits for the root tree.
	DefaultTimeout = 2 * time.Second
	// DefaultPollInterval is the delay between root fetch attempts.
	DefaultPollInterval = 16 * time.Millisecond
)

// ErrUnavailable is returned when the root tree did not appear in time.
var ErrUnavailable = errors.New("loader: navigation tree unavailable")

// WaitForRoot polls src until the root array yields NAVTREE[0][2] as a list,
// and returns that list. It gives up after timeout with ErrUnavailable,
// wrapping the last fetch error. Zero values select the defaults.
func WaitForRoot(ctx context.Context, src RootFetcher, timeout, interval time.Duration) ([]*navtree.Node, error) {
	defer metrics.Timer(metrics.RootWait)()

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	var last error
	for {
		root, err := src.FetchRoot(ctx)
		if err == nil {
			if tree, ok := DefaultTree(root); ok {
				return tree, nil
			}
			err = fmt.Errorf("%w: %s[0][2] is not a list", ErrChunkShape, RootGlobal)
		}
		if !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
			last = err
		}

		select {
		case <-ctx.Done():
			if last == nil {
				last = ctx.Err()
			}
			return nil, fmt.Errorf("%w after %v: %w", ErrUnavailable, time.Since(start).Round(time.Millisecond), last)
		case <-ticker.C:
		}
	}
}

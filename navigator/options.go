package navigator

import (
	"fmt"
	"log/slog"
	"time"
)

// Option configures a Navigator.
type Option func(*Navigator) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(n *Navigator) error {
		if logger == nil {
			logger = slog.Default()
		}
		n.logger = logger.With("component", "navigator")
		return nil
	}
}

// WithNodeBudget sets the maximum number of nodes visited per search.
// Default is DefaultNodeBudget.
func WithNodeBudget(budget int) Option {
	return func(n *Navigator) error {
		if budget < 1 {
			return fmt.Errorf("node budget must be positive, got %d", budget)
		}
		n.nodeBudget = budget
		return nil
	}
}

// WithPoolSize sets how many oracle calls may run at once.
// The pool is shared by every search on the navigator. Values below 1 become 1.
func WithPoolSize(size int) Option {
	return func(n *Navigator) error {
		if size < 1 {
			size = 1
		}
		n.poolSize = size
		return nil
	}
}

// WithPolicy sets the confidence policy.
func WithPolicy(policy Policy) Option {
	return func(n *Navigator) error {
		if err := policy.Validate(); err != nil {
			return err
		}
		n.policy = policy
		return nil
	}
}

// WithOracleTimeout bounds each oracle call. Zero disables the bound.
func WithOracleTimeout(timeout time.Duration) Option {
	return func(n *Navigator) error {
		if timeout < 0 {
			return fmt.Errorf("oracle timeout cannot be negative, got %s", timeout)
		}
		n.oracleTimeout = timeout
		return nil
	}
}

// WithMonitor attaches a monitor to every search run by the navigator.
func WithMonitor(monitor TraversalMonitor) Option {
	return func(n *Navigator) error {
		n.monitor = monitor
		return nil
	}
}

// WithMetrics records every search in Prometheus metrics.
func WithMetrics(metrics *Metrics) Option {
	return func(n *Navigator) error {
		n.metrics = metrics
		return nil
	}
}

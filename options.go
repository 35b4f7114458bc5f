package fiber

import (
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/logiface"
)

// runtimeOptions holds configuration resolved at Runtime construction.
type runtimeOptions struct {
	stackSize       int
	maxFDs          int
	logger          *logiface.Logger[logiface.Event]
	spawnLimiter    *catrate.Limiter
	metricsEnabled  bool
	debugAssertions bool
}

// RuntimeOption configures a Runtime created by New.
type RuntimeOption interface {
	applyRuntime(*runtimeOptions)
}

type runtimeOptionFunc func(*runtimeOptions)

func (f runtimeOptionFunc) applyRuntime(o *runtimeOptions) { f(o) }

// WithStackSize sets the size, in bytes, of each fiber's backing stack
// region. Rounded up to the nearest page by the stack allocator. Defaults
// to 256 KiB.
func WithStackSize(n int) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.stackSize = n })
}

// WithMaxFDs bounds the poller's direct-indexed fd table. Defaults to
// 65536.
func WithMaxFDs(n int) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.maxFDs = n })
}

// WithLogger installs a structured logger for scheduler lifecycle events.
// The zero value logs nothing (LevelDisabled).
func WithLogger(l *logiface.Logger[logiface.Event]) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.logger = l })
}

// WithMetrics enables the lightweight Metrics snapshot returned by
// Runtime.Metrics. Disabled by default, since it adds a handful of
// increments per scheduler tick that most callers don't need.
func WithMetrics(enabled bool) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.metricsEnabled = enabled })
}

// WithSpawnRateLimit installs a github.com/joeycumines/go-catrate sliding
// window limiter guarding Go: exceeding the configured rate(s) returns
// ErrOom instead of spawning, modeling stack-exhaustion back-pressure
// deterministically. See catrate.NewLimiter for the rates map shape
// (duration -> max events in that window).
func WithSpawnRateLimit(rates map[time.Duration]int) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) {
		o.spawnLimiter = catrate.NewLimiter(rates)
	})
}

// WithDebugAssertions enables panics for undefined programmer errors, such
// as closing a channel while waiters remain parked on it (without it, those
// waiters are woken with ErrPipe). Off by default.
func WithDebugAssertions(enabled bool) RuntimeOption {
	return runtimeOptionFunc(func(o *runtimeOptions) { o.debugAssertions = enabled })
}

func resolveRuntimeOptions(opts []RuntimeOption) *runtimeOptions {
	cfg := &runtimeOptions{
		stackSize: 256 * 1024,
		maxFDs:    65536,
		logger:    disabledLogger(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.applyRuntime(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = disabledLogger()
	}
	return cfg
}

package fiber

// Metrics is a point-in-time scheduler snapshot: a small, dependency-free
// struct rather than a full percentile-tracking facility, since nothing
// in this runtime has per-task latency to track. Populated only when a
// Runtime is built with WithMetrics(true).
type Metrics struct {
	ReadyLen     int // fibers currently on the ready queue
	BlockedCount int // fibers parked in the wait engine
	TimerCount   int // pending entries in the timer heap
	PollCount    uint64
	SpawnCount   uint64
}

// Metrics returns a snapshot of the current scheduler state, or the zero
// value if the Runtime was not built with WithMetrics(true).
func (rt *Runtime) Metrics() Metrics {
	if rt.metrics == nil {
		return Metrics{}
	}
	return Metrics{
		ReadyLen:     len(rt.ready),
		BlockedCount: rt.countBlocked(),
		TimerCount:   rt.timers.Len(),
		PollCount:    rt.metrics.PollCount,
		SpawnCount:   rt.spawnCount,
	}
}

package fiber

// Log points for scheduler lifecycle events: small, named helper methods
// around the package logger rather than inline .Debug() calls scattered
// through the hot path.

func (rt *Runtime) logSpawn(h FiberHandle) {
	rt.opts.logger.Debug().Log("fiber spawned")
}

func (rt *Runtime) logFinish(h FiberHandle) {
	rt.opts.logger.Debug().Log("fiber finished")
}

func (rt *Runtime) logOomRejected() {
	rt.opts.logger.Warning().Log("spawn rejected: rate limit exceeded")
}

func (rt *Runtime) logCanceled(h FiberHandle) {
	rt.opts.logger.Debug().Log("fiber canceled")
}

func (rt *Runtime) logPollErr(err error) {
	rt.opts.logger.Err().Err(err).Log("poller wait failed")
}

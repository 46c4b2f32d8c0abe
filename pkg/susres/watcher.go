package susres

import "time"

// watcher is the timeout companion thread. It owns no session state: the
// orchestrator hands it a deadline at session start, it polls the hardware
// time source until the deadline elapses, then sends exactly one timeout
// message back. It fires unconditionally and lets the orchestrator decide
// relevance, which tolerates the race where the session already finished.
type watcher struct {
	readTime func() uint64
	fire     func()
	poll     time.Duration

	arm  chan uint64
	stop chan struct{}
}

// newWatcher creates a watcher. readTime is the hardware millisecond time
// source; fire enqueues the timeout message.
func newWatcher(readTime func() uint64, fire func(), poll time.Duration) *watcher {
	return &watcher{
		readTime: readTime,
		fire:     fire,
		poll:     poll,
		arm:      make(chan uint64, 1),
		stop:     make(chan struct{}),
	}
}

// Run arms the watcher with an absolute deadline in hardware time.
// The orchestrator only arms at session start and never re-arms before the
// previous deadline fired, so the buffered channel never blocks.
func (w *watcher) Run(deadline uint64) {
	select {
	case w.arm <- deadline:
	case <-w.stop:
	}
}

// Start launches the watcher goroutine.
func (w *watcher) Start() {
	go w.loop()
}

// Close stops the watcher.
func (w *watcher) Close() {
	close(w.stop)
}

func (w *watcher) loop() {
	for {
		select {
		case <-w.stop:
			return
		case deadline := <-w.arm:
			if !w.await(deadline) {
				return
			}
			w.fire()
		}
	}
}

// await polls the time source until deadline. Returns false on shutdown.
func (w *watcher) await(deadline uint64) bool {
	for w.readTime() < deadline {
		select {
		case <-w.stop:
			return false
		case <-time.After(w.poll):
		}
	}
	return true
}

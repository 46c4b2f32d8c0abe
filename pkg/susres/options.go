package susres

import (
	"log/slog"
	"time"

	"github.com/haven-os/susres-go/pkg/log"
)

// Orchestrator defaults.
const (
	// DefaultTimeout bounds a whole suspend cycle. Sized for the
	// worst-case bounded external operation a subscriber depends on,
	// such as resetting a co-processor.
	DefaultTimeout = 5000 * time.Millisecond

	// DefaultPollInterval is how often the timeout watcher samples the
	// hardware time source while a deadline is armed.
	DefaultPollInterval = time.Millisecond

	// DefaultQueueDepth is the orchestrator inbox capacity. It only
	// needs to absorb the messages that arrive while the loop is parked
	// inside the hardware engine.
	DefaultQueueDepth = 64
)

// Option configures the orchestrator.
type Option func(*Orchestrator)

// WithTimeout sets the suspend-cycle deadline.
func WithTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		o.timeout = uint64(d / time.Millisecond)
	}
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithTraceLogger sets the event trace logger.
func WithTraceLogger(trace log.Logger) Option {
	return func(o *Orchestrator) { o.trace = trace }
}

// WithPollInterval sets the timeout watcher's polling interval.
func WithPollInterval(d time.Duration) Option {
	return func(o *Orchestrator) { o.pollInterval = d }
}

// WithQueueDepth sets the orchestrator inbox capacity.
func WithQueueDepth(n int) Option {
	return func(o *Orchestrator) { o.queueDepth = n }
}

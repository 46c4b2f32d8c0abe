package susres

import "github.com/haven-os/susres-go/pkg/wire"

// NotifyFunc is a subscriber's callback target: the orchestrator invokes it
// (on its own goroutine) when the subscriber's tranche is notified that
// suspension is imminent. The subscriber quiesces and then calls
// SuspendReady with its token.
type NotifyFunc func(token wire.Token)

// subscriber is one registration record. It lives for the subscriber's
// process lifetime; the ready/notified flags are per-session scratch, the
// failed flag persists until the next session clears it so that
// WasSuspendClean can report on the most recently concluded cycle.
type subscriber struct {
	token    wire.Token
	order    wire.Order
	notify   NotifyFunc
	ready    bool
	notified bool
	failed   bool
}

// subscriberTable owns all registrations. Tokens are dense slice indexes.
// Only the orchestrator goroutine touches it.
type subscriberTable struct {
	subs []*subscriber
}

// add registers a subscriber and assigns the next dense token.
func (t *subscriberTable) add(order wire.Order, notify NotifyFunc) *subscriber {
	s := &subscriber{
		token:  wire.Token(len(t.subs)),
		order:  order,
		notify: notify,
	}
	t.subs = append(t.subs, s)
	return s
}

// byToken returns the subscriber for a token, or nil if never registered.
func (t *subscriberTable) byToken(token wire.Token) *subscriber {
	if int(token) >= len(t.subs) {
		return nil
	}
	return t.subs[token]
}

// clearFlags resets every per-session flag, including failed: a new session
// starts with a clean slate and WasSuspendClean reports on it from then on.
func (t *subscriberTable) clearFlags() {
	for _, s := range t.subs {
		s.ready = false
		s.notified = false
		s.failed = false
	}
}

// inTranche returns the subscribers registered in one tranche.
func (t *subscriberTable) inTranche(order wire.Order) []*subscriber {
	var out []*subscriber
	for _, s := range t.subs {
		if s.order == order {
			out = append(out, s)
		}
	}
	return out
}

// allReady reports whether every subscriber in the set is ready.
func allReady(subs []*subscriber) bool {
	for _, s := range subs {
		if !s.ready {
			return false
		}
	}
	return true
}

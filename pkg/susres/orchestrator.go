package susres

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/haven-os/susres-go/pkg/hal"
	"github.com/haven-os/susres-go/pkg/log"
	"github.com/haven-os/susres-go/pkg/wire"
)

// ErrClosed is returned when an operation is submitted after Close.
var ErrClosed = errors.New("susres: orchestrator closed")

// envelope carries one message through the orchestrator queue, together
// with the in-process payload a wire message cannot express: the reply
// channel of a blocking caller and the callback of a registration.
type envelope struct {
	msg      wire.Message
	notify   NotifyFunc
	reply    chan wire.Result
	shutdown bool
}

// session is one in-flight suspend cycle. At most one exists at a time.
type session struct {
	id        string
	tranche   wire.Order
	requester chan wire.Result
	gated     []chan wire.Result
}

// Orchestrator is the suspend/resume service. All state below the inbox is
// owned by the loop goroutine; public methods only enqueue messages and
// wait for replies.
type Orchestrator struct {
	engine       hal.Engine
	logger       *slog.Logger
	trace        log.Logger
	timeout      uint64 // ms
	pollInterval time.Duration
	queueDepth   int

	inbox   chan envelope
	done    chan struct{}
	startWG sync.WaitGroup
	watcher *watcher

	// Loop-owned state. Never touched outside the loop goroutine.
	table        subscriberTable
	allowed      bool
	timeoutArmed bool
	sess         *session
	rebootArmed  bool
	rebootVector uint32
}

// New creates an orchestrator bound to the hardware engine. Call Start
// before submitting operations.
func New(engine hal.Engine, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		engine:       engine,
		trace:        log.NoopLogger{},
		timeout:      uint64(DefaultTimeout / time.Millisecond),
		pollInterval: DefaultPollInterval,
		queueDepth:   DefaultQueueDepth,
		allowed:      true,
	}
	for _, opt := range opts {
		opt(o)
	}

	o.inbox = make(chan envelope, o.queueDepth)
	o.done = make(chan struct{})
	o.watcher = newWatcher(engine.ReadTime, o.fireTimeout, o.pollInterval)
	return o
}

// Start launches the orchestrator loop and its timeout watcher.
func (o *Orchestrator) Start() {
	o.startWG.Add(1)
	o.watcher.Start()
	go func() {
		defer o.startWG.Done()
		o.run()
	}()
}

// Close shuts the service down. A pending session is abandoned: the
// requester is answered with failure and gated callers are released.
// Close blocks until the loop has drained.
func (o *Orchestrator) Close() {
	select {
	case o.inbox <- envelope{shutdown: true}:
		<-o.done
	case <-o.done:
	}
	o.startWG.Wait()
}

// fireTimeout enqueues the watcher's timeout message. The send blocks only
// while the loop is parked inside the hardware engine, in which case the
// message is consumed - and ignored - right after resume.
func (o *Orchestrator) fireTimeout() {
	select {
	case o.inbox <- envelope{msg: wire.Message{Opcode: wire.OpSuspendTimeout}}:
	case <-o.done:
	}
}

// submit enqueues a message and, when a reply channel is given, waits for
// the answer. Both waits abort if the service shuts down.
func (o *Orchestrator) submit(env envelope) (wire.Result, error) {
	select {
	case o.inbox <- env:
	case <-o.done:
		return wire.Result{}, ErrClosed
	}
	if env.reply == nil {
		return wire.Result{Status: wire.StatusSuccess}, nil
	}
	select {
	case r := <-env.reply:
		return r, nil
	case <-o.done:
		return wire.Result{}, ErrClosed
	}
}

// Register adds a suspend subscriber and returns its token. Registration
// always succeeds while the service is running. notify may be nil for
// subscribers that learn about suspension through other means and only
// call SuspendReady.
func (o *Orchestrator) Register(order wire.Order, notify NotifyFunc) (wire.Token, error) {
	r, err := o.submit(envelope{
		msg:    wire.Message{Opcode: wire.OpRegister, Order: order},
		notify: notify,
		reply:  make(chan wire.Result, 1),
	})
	if err != nil {
		return 0, err
	}
	if !r.IsSuccess() {
		return 0, errors.New("susres: registration refused: " + r.Status.String())
	}
	return r.Token, nil
}

// RequestSuspend asks for a full suspend cycle and blocks until it
// resolves: true after a completed suspend/resume, false when the request
// was denied or the cycle timed out.
func (o *Orchestrator) RequestSuspend() bool {
	r, err := o.submit(envelope{
		msg:   wire.Message{Opcode: wire.OpRequestSuspend},
		reply: make(chan wire.Result, 1),
	})
	return err == nil && r.IsSuccess()
}

// SuspendingNow parks the caller across the power transition. It returns
// immediately when no suspend cycle is active (a benign, late call);
// otherwise it returns only after resume or after the cycle is abandoned.
func (o *Orchestrator) SuspendingNow() {
	_, _ = o.submit(envelope{
		msg:   wire.Message{Opcode: wire.OpSuspendingNow},
		reply: make(chan wire.Result, 1),
	})
}

// SuspendReady marks the subscriber ready for power removal.
func (o *Orchestrator) SuspendReady(token wire.Token) {
	_, _ = o.submit(envelope{
		msg: wire.Message{Opcode: wire.OpSuspendReady, Token: token},
	})
}

// WasSuspendClean reports whether the subscriber answered in time during
// the most recently concluded suspend cycle.
func (o *Orchestrator) WasSuspendClean(token wire.Token) bool {
	r, err := o.submit(envelope{
		msg:   wire.Message{Opcode: wire.OpWasSuspendClean, Token: token},
		reply: make(chan wire.Result, 1),
	})
	return err == nil && r.IsSuccess() && r.Clean
}

// SuspendAllow re-enables acceptance of suspend requests.
func (o *Orchestrator) SuspendAllow() {
	_, _ = o.submit(envelope{msg: wire.Message{Opcode: wire.OpSuspendAllow}})
}

// SuspendDeny disables acceptance of suspend requests.
func (o *Orchestrator) SuspendDeny() {
	_, _ = o.submit(envelope{msg: wire.Message{Opcode: wire.OpSuspendDeny}})
}

// PowerOff forces an immediate power-down, bypassing the subscriber
// handshake. On hardware this never returns control; the method itself
// only enqueues the command.
func (o *Orchestrator) PowerOff() {
	_, _ = o.submit(envelope{msg: wire.Message{Opcode: wire.OpPowerOff}})
}

// RebootRequest arms a reboot. One of the confirm calls must follow.
func (o *Orchestrator) RebootRequest() {
	_, _ = o.submit(envelope{msg: wire.Message{Opcode: wire.OpRebootRequest}})
}

// RebootCpuConfirm executes a CPU-only reboot if one is armed.
func (o *Orchestrator) RebootCpuConfirm() {
	_, _ = o.submit(envelope{msg: wire.Message{Opcode: wire.OpRebootCpuConfirm}})
}

// RebootSocConfirm executes a whole-SoC reboot if one is armed.
func (o *Orchestrator) RebootSocConfirm() {
	_, _ = o.submit(envelope{msg: wire.Message{Opcode: wire.OpRebootSocConfirm}})
}

// SetRebootVector stores the address the CPU vectors to after reboot.
func (o *Orchestrator) SetRebootVector(addr uint32) {
	_, _ = o.submit(envelope{msg: wire.Message{Opcode: wire.OpRebootVector, Vector: addr}})
}

// Submit delivers a raw wire message and returns the orchestrator's
// answer. This is the entry point for scenario replay and for callers
// holding encoded messages; the typed methods above are wrappers over the
// same queue.
func (o *Orchestrator) Submit(msg wire.Message) wire.Result {
	r, err := o.submit(envelope{msg: msg, reply: make(chan wire.Result, 1)})
	if err != nil {
		return wire.Result{Status: wire.StatusDenied}
	}
	return r
}

// run is the orchestrator loop: the single mutator of session state.
func (o *Orchestrator) run() {
	for env := range o.inbox {
		if env.shutdown {
			o.shutdown()
			return
		}
		o.dispatch(env)
	}
}

// dispatch matches the opcode exhaustively. Blocking operations answer
// through env.reply, either here or when the session resolves.
func (o *Orchestrator) dispatch(env envelope) {
	msg := env.msg
	switch msg.Opcode {
	case wire.OpRegister:
		o.handleRegister(env)
	case wire.OpRequestSuspend:
		o.handleRequestSuspend(env)
	case wire.OpSuspendingNow:
		o.handleSuspendingNow(env)
	case wire.OpSuspendReady:
		o.handleSuspendReady(msg.Token)
	case wire.OpSuspendTimeout:
		o.handleSuspendTimeout()
	case wire.OpWasSuspendClean:
		o.handleWasSuspendClean(env)
	case wire.OpSuspendAllow:
		o.allowed = true
		o.reply(env, wire.Result{Status: wire.StatusSuccess})
	case wire.OpSuspendDeny:
		o.allowed = false
		o.reply(env, wire.Result{Status: wire.StatusSuccess})
	case wire.OpPowerOff:
		o.handlePowerOff()
	case wire.OpRebootRequest:
		o.rebootArmed = true
		o.reply(env, wire.Result{Status: wire.StatusSuccess})
	case wire.OpRebootCpuConfirm:
		o.handleRebootConfirm(env, hal.RebootCPU)
	case wire.OpRebootSocConfirm:
		o.handleRebootConfirm(env, hal.RebootSoC)
	case wire.OpRebootVector:
		o.rebootVector = msg.Vector
		o.reply(env, wire.Result{Status: wire.StatusSuccess})
	default:
		if o.logger != nil {
			o.logger.Error("unknown opcode", "opcode", uint8(msg.Opcode))
		}
		o.traceError("unknown opcode", msg.Opcode.String())
		o.reply(env, wire.Result{Status: wire.StatusUnknownOpcode})
	}
}

// reply answers a blocking caller. Reply channels are buffered, so the
// loop never blocks here; fire-and-forget envelopes have no channel.
func (o *Orchestrator) reply(env envelope, r wire.Result) {
	if env.reply != nil {
		env.reply <- r
	}
}

func (o *Orchestrator) handleRegister(env envelope) {
	if !env.msg.Order.IsValid() {
		o.reply(env, wire.Result{Status: wire.StatusInvalidParameter})
		return
	}
	s := o.table.add(env.msg.Order, env.notify)
	if o.logger != nil {
		o.logger.Debug("subscriber registered",
			"token", uint32(s.token),
			"order", s.order.String())
	}
	o.traceMessage(env.msg, wire.StatusSuccess)
	o.reply(env, wire.Result{Status: wire.StatusSuccess, Token: s.token})
}

func (o *Orchestrator) handleRequestSuspend(env envelope) {
	if !o.allowed || o.timeoutArmed || o.sess != nil {
		if o.logger != nil {
			o.logger.Info("suspend request denied",
				"allowed", o.allowed,
				"timeoutPending", o.timeoutArmed,
				"sessionActive", o.sess != nil)
		}
		o.traceMessage(env.msg, wire.StatusDenied)
		o.reply(env, wire.Result{Status: wire.StatusDenied})
		return
	}

	o.table.clearFlags()
	o.sess = &session{
		id:        uuid.New().String(),
		tranche:   wire.OrderEarly,
		requester: env.reply,
	}

	now := o.engine.ReadTime()
	o.timeoutArmed = true
	o.watcher.Run(now + o.timeout)

	if o.logger != nil {
		o.logger.Info("suspend cycle started",
			"session", o.sess.id,
			"deadline", now+o.timeout)
	}
	o.traceState("IDLE", "QUIESCING", "request accepted", nil)
	o.progress()
}

func (o *Orchestrator) handleSuspendingNow(env envelope) {
	if o.sess == nil {
		// Benign, late call: the cycle this caller heard about has
		// already resolved.
		o.reply(env, wire.Result{Status: wire.StatusSuccess})
		return
	}
	if env.reply != nil {
		o.sess.gated = append(o.sess.gated, env.reply)
	}
}

func (o *Orchestrator) handleSuspendReady(token wire.Token) {
	s := o.table.byToken(token)
	if s == nil {
		o.traceError("SUSPEND_READY with unregistered token", "")
		return
	}
	s.ready = true
	if o.sess != nil {
		o.progress()
	}
}

// progress drives the tranche barrier: it skips empty and fully-ready
// tranches, notifies the first tranche still quiescing, and enters the
// hardware engine once the Last tranche is ready.
func (o *Orchestrator) progress() {
	for {
		members := o.table.inTranche(o.sess.tranche)
		if len(members) == 0 || allReady(members) {
			if o.sess.tranche == wire.OrderLast {
				o.executeSuspend()
				return
			}
			o.sess.tranche++
			continue
		}
		o.notifyTranche(members)
		return
	}
}

// notifyTranche tells every not-yet-notified subscriber in the tranche
// that suspension is imminent. Callbacks run on their own goroutines;
// within a tranche there is no ordering guarantee.
func (o *Orchestrator) notifyTranche(members []*subscriber) {
	for _, s := range members {
		if s.notified {
			continue
		}
		s.notified = true
		if s.notify != nil {
			go s.notify(s.token)
		}
	}
}

// executeSuspend enters the hardware engine. The call does not return
// until wake and low-level resume (marker consumption, timer re-arm) have
// completed; the loop is parked here for the whole power transition.
func (o *Orchestrator) executeSuspend() {
	o.traceState("QUIESCING", "SUSPENDING", "all tranches ready", nil)
	if o.logger != nil {
		o.logger.Info("entering hardware suspend", "session", o.sess.id)
	}

	if err := o.engine.Suspend(false); err != nil {
		if o.logger != nil {
			o.logger.Error("hardware suspend failed", "error", err)
		}
		o.traceError(err.Error(), "hardware suspend entry")
		o.resolve(wire.StatusEngineFault, "SUSPENDING", "ABORTED")
		return
	}

	resumed := o.engine.Resume()
	if o.logger != nil {
		o.logger.Info("resumed from suspend",
			"session", o.sess.id,
			"cleanResume", resumed)
	}
	o.resolve(wire.StatusSuccess, "SUSPENDING", "RESUMED")
}

func (o *Orchestrator) handleSuspendTimeout() {
	// The watcher fires unconditionally at every armed deadline; this is
	// where a new request becomes admissible again.
	o.timeoutArmed = false

	if o.sess == nil {
		// The session already resolved; stale timeout.
		return
	}

	tranche := o.sess.tranche
	failed := 0
	for _, s := range o.table.inTranche(tranche) {
		if !s.ready {
			s.failed = true
			failed++
		}
	}
	if o.logger != nil {
		o.logger.Warn("suspend cycle timed out",
			"session", o.sess.id,
			"tranche", tranche.String(),
			"nonResponders", failed)
	}
	o.traceState("QUIESCING", "ABORTED", "timeout", &tranche)
	o.resolve(wire.StatusTimeout, "", "")
}

// resolve concludes the session: gated callers are released, the
// requester is answered, and the session is destroyed. No ordering
// guarantee among released callers.
func (o *Orchestrator) resolve(status wire.Status, from, to string) {
	if from != "" {
		o.traceState(from, to, "", nil)
	}
	for _, gate := range o.sess.gated {
		gate <- wire.Result{Status: status}
	}
	if o.sess.requester != nil {
		o.sess.requester <- wire.Result{Status: status}
	}
	o.sess = nil
}

func (o *Orchestrator) handleWasSuspendClean(env envelope) {
	s := o.table.byToken(env.msg.Token)
	if s == nil {
		o.reply(env, wire.Result{Status: wire.StatusInvalidToken})
		return
	}
	o.reply(env, wire.Result{Status: wire.StatusSuccess, Clean: !s.failed})
}

// handlePowerOff loops issuing the power-down command until power is
// actually cut. Irrecoverable by design; this never returns.
func (o *Orchestrator) handlePowerOff() {
	if o.logger != nil {
		o.logger.Warn("forced power-off requested")
	}
	o.traceMessage(wire.Message{Opcode: wire.OpPowerOff}, wire.StatusSuccess)
	for {
		o.engine.ForcePowerOff()
	}
}

func (o *Orchestrator) handleRebootConfirm(env envelope, kind hal.RebootKind) {
	if !o.rebootArmed {
		if o.logger != nil {
			o.logger.Warn("reboot confirm without armed request", "kind", kind.String())
		}
		o.reply(env, wire.Result{Status: wire.StatusDenied})
		return
	}
	o.rebootArmed = false
	if o.logger != nil {
		o.logger.Info("rebooting", "kind", kind.String(), "vector", o.rebootVector)
	}
	o.engine.Reboot(kind, o.rebootVector)
	o.reply(env, wire.Result{Status: wire.StatusSuccess})
}

// shutdown abandons any pending session and stops the watcher.
func (o *Orchestrator) shutdown() {
	if o.sess != nil {
		o.resolve(wire.StatusDenied, "QUIESCING", "ABORTED")
	}
	o.watcher.Close()
	close(o.done)
}

// Trace helpers. The trace logger is never nil (NoopLogger by default).

func (o *Orchestrator) traceMessage(msg wire.Message, status wire.Status) {
	ev := log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryMessage,
		HWTime:    o.engine.ReadTime(),
		Message:   &log.MessageEvent{Opcode: msg.Opcode, Status: &status},
	}
	if o.sess != nil {
		ev.SessionID = o.sess.id
	}
	if msg.Opcode == wire.OpRegister {
		order := msg.Order
		ev.Message.Order = &order
	}
	if msg.Opcode == wire.OpSuspendReady || msg.Opcode == wire.OpWasSuspendClean {
		token := msg.Token
		ev.Message.Token = &token
	}
	o.trace.Log(ev)
}

func (o *Orchestrator) traceState(from, to, reason string, tranche *wire.Order) {
	ev := log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryState,
		HWTime:    o.engine.ReadTime(),
		StateChange: &log.StateChangeEvent{
			OldState: from,
			NewState: to,
			Reason:   reason,
			Tranche:  tranche,
		},
	}
	if o.sess != nil {
		ev.SessionID = o.sess.id
	}
	o.trace.Log(ev)
}

func (o *Orchestrator) traceError(msg, context string) {
	ev := log.Event{
		Timestamp: time.Now(),
		Category:  log.CategoryError,
		Error:     &log.ErrorEventData{Message: msg, Context: context},
	}
	if o.sess != nil {
		ev.SessionID = o.sess.id
	}
	o.trace.Log(ev)
}

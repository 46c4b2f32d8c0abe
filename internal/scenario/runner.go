package scenario

import (
	"fmt"
	"strings"

	"github.com/haven-os/susres-go/internal/mockhw"
	"github.com/haven-os/susres-go/pkg/susres"
	"github.com/haven-os/susres-go/pkg/wire"
)

// Runner replays scenarios against a live orchestrator and its mock
// hardware. Subscribers registered by a scenario are addressed by name;
// their tokens live only inside the runner.
type Runner struct {
	orch   *susres.Orchestrator
	engine *mockhw.Engine
	tokens map[string]wire.Token
}

// NewRunner creates a runner bound to an orchestrator and the mock engine
// behind it. The orchestrator must already be started.
func NewRunner(orch *susres.Orchestrator, engine *mockhw.Engine) *Runner {
	return &Runner{
		orch:   orch,
		engine: engine,
		tokens: make(map[string]wire.Token),
	}
}

// Run executes every step of the scenario in order. It stops at the first
// failing step and returns a StepError describing it.
func (r *Runner) Run(sc *Scenario) error {
	for i, step := range sc.Steps {
		if err := r.runStep(&step); err != nil {
			return &StepError{
				ScenarioID: sc.ID,
				Index:      i,
				Action:     step.Action,
				Message:    err.Error(),
			}
		}
	}
	return nil
}

func (r *Runner) runStep(step *Step) error {
	switch step.Action {
	case "register":
		return r.doRegister(step)
	case "request":
		return r.doRequest(step)
	case "ready":
		return r.doReady(step)
	case "clean":
		return r.doClean(step)
	case "allow":
		r.orch.SuspendAllow()
		return nil
	case "deny":
		r.orch.SuspendDeny()
		return nil
	case "advance_time":
		return r.doAdvanceTime(step)
	case "auto_advance":
		return r.doAutoAdvance(step)
	case "set_vector":
		return r.doSetVector(step)
	case "reboot_request":
		r.orch.RebootRequest()
		return nil
	case "reboot_confirm":
		return r.doRebootConfirm(step)
	default:
		return fmt.Errorf("unknown action %q", step.Action)
	}
}

// doRegister adds a named subscriber. With auto_ready the subscriber
// answers SUSPEND_READY as soon as it is notified, so a later blocking
// "request" step can complete without an external driver.
func (r *Runner) doRegister(step *Step) error {
	name, err := stringParam(step.Params, "name")
	if err != nil {
		return err
	}
	if _, exists := r.tokens[name]; exists {
		return fmt.Errorf("subscriber %q already registered", name)
	}

	order, err := parseOrder(step.Params)
	if err != nil {
		return err
	}

	var notify susres.NotifyFunc
	if getBool(step.Params, "auto_ready") {
		notify = func(token wire.Token) { r.orch.SuspendReady(token) }
	}

	token, err := r.orch.Register(order, notify)
	if err != nil {
		return err
	}
	r.tokens[name] = token

	if want, ok := getInt(step.Expect, "token"); ok && wire.Token(want) != token {
		return fmt.Errorf("expected token %d, got %d", want, token)
	}
	return nil
}

// doRequest runs a full blocking suspend cycle and checks its outcome
// against the step's expectations.
func (r *Runner) doRequest(step *Step) error {
	got := r.orch.RequestSuspend()

	if want, ok := step.Expect["result"].(bool); ok && got != want {
		return fmt.Errorf("expected result %v, got %v", want, got)
	}

	if want, ok := getString(step.Expect, "marker"); ok {
		verdict := r.engine.LastReport().Verdict.String()
		if !strings.EqualFold(want, verdict) {
			return fmt.Errorf("expected marker verdict %s, got %s", want, verdict)
		}
	}

	if want, ok := getInt(step.Expect, "resume_pid"); ok {
		if pid := r.engine.LastReport().ResumePID; pid != uint32(want) {
			return fmt.Errorf("expected resume pid %d, got %d", want, pid)
		}
	}

	if want, ok := getInt(step.Expect, "suspend_calls"); ok {
		if n := len(r.engine.SuspendCalls()); n != want {
			return fmt.Errorf("expected %d suspend calls, got %d", want, n)
		}
	}
	return nil
}

func (r *Runner) doReady(step *Step) error {
	token, err := r.lookup(step.Params)
	if err != nil {
		return err
	}
	r.orch.SuspendReady(token)
	return nil
}

func (r *Runner) doClean(step *Step) error {
	token, err := r.lookup(step.Params)
	if err != nil {
		return err
	}
	got := r.orch.WasSuspendClean(token)
	if want, ok := step.Expect["clean"].(bool); ok && got != want {
		return fmt.Errorf("expected clean %v, got %v", want, got)
	}
	return nil
}

func (r *Runner) doAdvanceTime(step *Step) error {
	ms, err := intParam(step.Params, "ms")
	if err != nil {
		return err
	}
	r.engine.AdvanceTime(uint64(ms))
	return nil
}

func (r *Runner) doAutoAdvance(step *Step) error {
	stepMS, err := intParam(step.Params, "step")
	if err != nil {
		return err
	}
	r.engine.SetAutoAdvance(uint64(stepMS))
	return nil
}

func (r *Runner) doSetVector(step *Step) error {
	addr, err := intParam(step.Params, "addr")
	if err != nil {
		return err
	}
	r.orch.SetRebootVector(uint32(addr))
	return nil
}

// doRebootConfirm submits the confirm as a raw message so the status can
// be checked; the typed confirm methods discard it.
func (r *Runner) doRebootConfirm(step *Step) error {
	opcode := wire.OpRebootCpuConfirm
	if kind, ok := getString(step.Params, "kind"); ok && strings.EqualFold(kind, "soc") {
		opcode = wire.OpRebootSocConfirm
	}

	result := r.orch.Submit(wire.Message{Opcode: opcode})

	if want, ok := getString(step.Expect, "status"); ok {
		if !strings.EqualFold(want, result.Status.String()) {
			return fmt.Errorf("expected status %s, got %s", want, result.Status.String())
		}
	}
	if want, ok := getInt(step.Expect, "reboots"); ok {
		if n := len(r.engine.Reboots()); n != want {
			return fmt.Errorf("expected %d reboots, got %d", want, n)
		}
	}
	return nil
}

func (r *Runner) lookup(params map[string]interface{}) (wire.Token, error) {
	name, err := stringParam(params, "name")
	if err != nil {
		return 0, err
	}
	token, ok := r.tokens[name]
	if !ok {
		return 0, fmt.Errorf("unknown subscriber %q", name)
	}
	return token, nil
}

func parseOrder(params map[string]interface{}) (wire.Order, error) {
	s, ok := getString(params, "order")
	if !ok {
		return wire.OrderNormal, nil
	}
	switch strings.ToLower(s) {
	case "early":
		return wire.OrderEarly, nil
	case "normal":
		return wire.OrderNormal, nil
	case "last":
		return wire.OrderLast, nil
	default:
		return 0, fmt.Errorf("invalid order %q", s)
	}
}

func stringParam(params map[string]interface{}, key string) (string, error) {
	s, ok := getString(params, key)
	if !ok {
		return "", fmt.Errorf("missing param %q", key)
	}
	return s, nil
}

func getString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func getBool(params map[string]interface{}, key string) bool {
	if v, ok := params[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

func intParam(params map[string]interface{}, key string) (int, error) {
	n, ok := getInt(params, key)
	if !ok {
		return 0, fmt.Errorf("missing or non-integer param %q", key)
	}
	return n, nil
}

// getInt handles the integer types the YAML parser produces.
func getInt(m map[string]interface{}, key string) (int, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

package scenario_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/haven-os/susres-go/internal/mockhw"
	"github.com/haven-os/susres-go/internal/scenario"
	"github.com/haven-os/susres-go/pkg/susres"
)

// TestParseBasic tests basic YAML scenario parsing.
func TestParseBasic(t *testing.T) {
	yaml := `
id: SC-TEST-001
name: Basic Scenario
description: A simple scenario
steps:
  - action: register
    params:
      name: kbd
      order: early
`
	sc, err := scenario.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	if sc.ID != "SC-TEST-001" {
		t.Errorf("ID mismatch: expected SC-TEST-001, got %s", sc.ID)
	}
	if sc.Name != "Basic Scenario" {
		t.Errorf("Name mismatch: expected 'Basic Scenario', got %s", sc.Name)
	}
	if len(sc.Steps) != 1 {
		t.Fatalf("Expected 1 step, got %d", len(sc.Steps))
	}
	if sc.Steps[0].Action != "register" {
		t.Errorf("Step action mismatch: expected register, got %s", sc.Steps[0].Action)
	}
	if sc.Steps[0].Params["name"] != "kbd" {
		t.Errorf("Step param mismatch: expected kbd, got %v", sc.Steps[0].Params["name"])
	}
}

// TestParseMissingID tests that a scenario without an ID is rejected.
func TestParseMissingID(t *testing.T) {
	yaml := `
name: No ID
steps:
  - action: request
`
	_, err := scenario.Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Expected error for missing ID")
	}
	var le *scenario.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected LoadError, got %T", err)
	}
}

// TestParseNoSteps tests that a scenario without steps is rejected.
func TestParseNoSteps(t *testing.T) {
	yaml := `
id: SC-EMPTY-001
name: Empty
`
	if _, err := scenario.Parse([]byte(yaml)); err == nil {
		t.Fatal("Expected error for missing steps")
	}
}

// TestParseStepWithoutAction tests that actionless steps are rejected.
func TestParseStepWithoutAction(t *testing.T) {
	yaml := `
id: SC-BAD-001
steps:
  - params:
      name: kbd
`
	if _, err := scenario.Parse([]byte(yaml)); err == nil {
		t.Fatal("Expected error for step without action")
	}
}

// TestParseInvalidYAML tests that malformed YAML is rejected.
func TestParseInvalidYAML(t *testing.T) {
	_, err := scenario.Parse([]byte("id: [unclosed"))
	if err == nil {
		t.Fatal("Expected error for invalid YAML")
	}
}

// TestLoadFile tests loading a scenario from disk.
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "suspend.yaml")
	content := `
id: SC-FILE-001
name: From File
steps:
  - action: request
    expect:
      result: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write scenario file: %v", err)
	}

	sc, err := scenario.Load(path)
	if err != nil {
		t.Fatalf("Failed to load scenario: %v", err)
	}
	if sc.ID != "SC-FILE-001" {
		t.Errorf("ID mismatch: got %s", sc.ID)
	}
}

// TestLoadMissingFile tests the error path for a missing file.
func TestLoadMissingFile(t *testing.T) {
	_, err := scenario.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Expected error for missing file")
	}
	var le *scenario.LoadError
	if !errors.As(err, &le) {
		t.Fatalf("Expected LoadError, got %T", err)
	}
	if le.File == "" {
		t.Error("LoadError should carry the file path")
	}
}

// TestLoadDirectory tests loading all scenarios from a directory,
// skipping non-YAML files.
func TestLoadDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"a.yaml": "id: SC-A\nsteps:\n  - action: request\n",
		"b.yml":  "id: SC-B\nsteps:\n  - action: deny\n",
		"c.txt":  "not a scenario",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}

	scenarios, err := scenario.LoadDirectory(dir)
	if err != nil {
		t.Fatalf("Failed to load directory: %v", err)
	}
	if len(scenarios) != 2 {
		t.Fatalf("Expected 2 scenarios, got %d", len(scenarios))
	}
}

func newService(t *testing.T) (*susres.Orchestrator, *mockhw.Engine) {
	t.Helper()
	engine := mockhw.NewEngine(mockhw.WithResumePID(3))
	orch := susres.New(engine)
	orch.Start()
	t.Cleanup(orch.Close)
	return orch, engine
}

// TestRunnerSuspendCycle replays a full suspend cycle with auto-ready
// subscribers in all three tranches.
func TestRunnerSuspendCycle(t *testing.T) {
	yaml := `
id: SC-CYCLE-001
name: Full suspend cycle
steps:
  - action: register
    params: {name: kbd, order: early, auto_ready: true}
    expect: {token: 0}
  - action: register
    params: {name: net, order: normal, auto_ready: true}
    expect: {token: 1}
  - action: register
    params: {name: gfx, order: last, auto_ready: true}
    expect: {token: 2}
  - action: request
    expect: {result: true, marker: clean, resume_pid: 3, suspend_calls: 1}
  - action: clean
    params: {name: kbd}
    expect: {clean: true}
  - action: clean
    params: {name: gfx}
    expect: {clean: true}
`
	sc, err := scenario.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	orch, engine := newService(t)
	if err := scenario.NewRunner(orch, engine).Run(sc); err != nil {
		t.Fatalf("Scenario failed: %v", err)
	}
}

// TestRunnerDenyBlocksRequest replays the deny/allow gate.
func TestRunnerDenyBlocksRequest(t *testing.T) {
	yaml := `
id: SC-DENY-001
name: Deny blocks suspend
steps:
  - action: deny
  - action: request
    expect: {result: false, suspend_calls: 0}
  - action: allow
  - action: request
    expect: {result: true, suspend_calls: 1}
`
	sc, err := scenario.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	orch, engine := newService(t)
	if err := scenario.NewRunner(orch, engine).Run(sc); err != nil {
		t.Fatalf("Scenario failed: %v", err)
	}
}

// TestRunnerRebootHandshake replays the two-phase reboot and checks that
// a confirm without an armed request is refused.
func TestRunnerRebootHandshake(t *testing.T) {
	yaml := `
id: SC-REBOOT-001
name: Reboot handshake
steps:
  - action: reboot_confirm
    params: {kind: cpu}
    expect: {status: denied, reboots: 0}
  - action: set_vector
    params: {addr: 541065216}
  - action: reboot_request
  - action: reboot_confirm
    params: {kind: cpu}
    expect: {status: success, reboots: 1}
`
	sc, err := scenario.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	orch, engine := newService(t)
	if err := scenario.NewRunner(orch, engine).Run(sc); err != nil {
		t.Fatalf("Scenario failed: %v", err)
	}
}

// TestRunnerTimeoutCycle replays a cycle that times out because one
// subscriber never answers.
func TestRunnerTimeoutCycle(t *testing.T) {
	yaml := `
id: SC-TIMEOUT-001
name: Timeout on silent subscriber
steps:
  - action: register
    params: {name: good, order: early, auto_ready: true}
  - action: register
    params: {name: stuck, order: normal}
  - action: auto_advance
    params: {step: 200}
  - action: request
    expect: {result: false, suspend_calls: 0}
  - action: clean
    params: {name: good}
    expect: {clean: true}
  - action: clean
    params: {name: stuck}
    expect: {clean: false}
`
	sc, err := scenario.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	orch, engine := newService(t)
	if err := scenario.NewRunner(orch, engine).Run(sc); err != nil {
		t.Fatalf("Scenario failed: %v", err)
	}
}

// TestRunnerStepErrorDetails checks that a failing expectation is
// reported with scenario and step context.
func TestRunnerStepErrorDetails(t *testing.T) {
	yaml := `
id: SC-FAIL-001
steps:
  - action: deny
  - action: request
    expect: {result: true}
`
	sc, err := scenario.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Failed to parse scenario: %v", err)
	}

	orch, engine := newService(t)
	err = scenario.NewRunner(orch, engine).Run(sc)
	if err == nil {
		t.Fatal("Expected scenario to fail")
	}
	var se *scenario.StepError
	if !errors.As(err, &se) {
		t.Fatalf("Expected StepError, got %T", err)
	}
	if se.ScenarioID != "SC-FAIL-001" || se.Index != 1 || se.Action != "request" {
		t.Errorf("StepError context mismatch: %+v", se)
	}
}

// TestRunnerUnknownAction checks the error path for unrecognized actions.
func TestRunnerUnknownAction(t *testing.T) {
	sc := &scenario.Scenario{
		ID:    "SC-BADACT-001",
		Steps: []scenario.Step{{Action: "levitate"}},
	}

	orch, engine := newService(t)
	if err := scenario.NewRunner(orch, engine).Run(sc); err == nil {
		t.Fatal("Expected error for unknown action")
	}
}

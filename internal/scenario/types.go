// Package scenario provides YAML scenario loading and replay against the
// suspend/resume service. Scenarios drive the orchestrator through named
// subscribers and check outcomes step by step, so protocol sequences can be
// written as data instead of Go code.
package scenario

import "fmt"

// Scenario represents a single suspend/resume sequence loaded from YAML.
type Scenario struct {
	// ID is the unique scenario identifier (e.g., "SC-SUSPEND-001").
	ID string `yaml:"id"`

	// Name is a human-readable name for the scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description"`

	// Steps are the actions to execute in order.
	Steps []Step `yaml:"steps"`

	// Tags for categorizing scenarios.
	Tags []string `yaml:"tags,omitempty"`
}

// Step represents a single action in a scenario.
type Step struct {
	// Action is the action to perform (e.g., "register", "request").
	Action string `yaml:"action"`

	// Params are parameters for the action.
	Params map[string]interface{} `yaml:"params,omitempty"`

	// Expect defines expected outcomes after the action.
	Expect map[string]interface{} `yaml:"expect,omitempty"`

	// Description explains what this step does.
	Description string `yaml:"description,omitempty"`
}

// LoadError provides details about a scenario loading error.
type LoadError struct {
	// File is the path to the file that failed to load.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	if e.File != "" {
		return e.File + ": " + e.Message
	}
	return e.Message
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// StepError reports a failed scenario step.
type StepError struct {
	// ScenarioID identifies the scenario that failed.
	ScenarioID string

	// Index is the zero-based step number.
	Index int

	// Action is the step's action name.
	Action string

	// Message describes the failure.
	Message string
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s step %d (%s): %s", e.ScenarioID, e.Index, e.Action, e.Message)
}

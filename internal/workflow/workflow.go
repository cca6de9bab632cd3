package workflow

import (
	"fmt"
	"sync"
)

// StepID identifies one of the four fixed workflow stages.
type StepID string

const (
	StepFetch    StepID = "fetch"
	StepGenerate StepID = "generate"
	StepPost     StepID = "post"
	StepComplete StepID = "complete"
)

// Status is the lifecycle status of a single step.
type Status string

const (
	StatusPending   Status = "pending"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Step is one stage of the workflow as shown to the user.
type Step struct {
	ID     StepID
	Title  string
	Status Status
}

var stepOrder = []StepID{StepFetch, StepGenerate, StepPost, StepComplete}

var stepTitles = map[StepID]string{
	StepFetch:    "Fetch Latest Tech News",
	StepGenerate: "Generate Cinematic Content",
	StepPost:     "Preview & Schedule Posts",
	StepComplete: "Workflow Complete",
}

// Machine holds the four ordered workflow steps and owns their statuses.
// Progression is strictly forward; at most one step is active at a time.
type Machine struct {
	mu    sync.Mutex
	steps []Step
}

// NewMachine creates a machine in the initial state: fetch active, rest pending.
func NewMachine() *Machine {
	m := &Machine{}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.steps = make([]Step, len(stepOrder))
	for i, id := range stepOrder {
		status := StatusPending
		if i == 0 {
			status = StatusActive
		}
		m.steps[i] = Step{ID: id, Title: stepTitles[id], Status: status}
	}
}

// Steps returns a copy of the current steps in order.
func (m *Machine) Steps() []Step {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Step, len(m.steps))
	copy(out, m.steps)
	return out
}

// Status returns the status of the given step.
func (m *Machine) Status(id StepID) Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.steps {
		if s.ID == id {
			return s.Status
		}
	}
	return StatusPending
}

// Active returns the currently active step ID, or "" if none is active.
func (m *Machine) Active() StepID {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.steps {
		if s.Status == StatusActive {
			return s.ID
		}
	}
	return ""
}

// Advance marks the active step id as completed and activates the next step.
// The final step stays active on completion of its predecessor.
func (m *Machine) Advance(id StepID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, err := m.activeIndex(id)
	if err != nil {
		return err
	}
	m.steps[idx].Status = StatusCompleted
	if idx+1 < len(m.steps) {
		m.steps[idx+1].Status = StatusActive
	}
	return nil
}

// Fail marks the active step id as errored. The attempt is terminal; the user
// must reactivate the step to retry.
func (m *Machine) Fail(id StepID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx, err := m.activeIndex(id)
	if err != nil {
		return err
	}
	m.steps[idx].Status = StatusError
	return nil
}

// Reactivate returns an errored step to active for a user-initiated retry.
func (m *Machine) Reactivate(id StepID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.steps {
		if s.ID == id {
			if s.Status != StatusError {
				return fmt.Errorf("workflow: step %s is %s, not error", id, s.Status)
			}
			m.steps[i].Status = StatusActive
			return nil
		}
	}
	return fmt.Errorf("workflow: unknown step %s", id)
}

// Reset returns the machine to the initial state.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reset()
}

func (m *Machine) activeIndex(id StepID) (int, error) {
	for i, s := range m.steps {
		if s.ID == id {
			if s.Status != StatusActive {
				return 0, fmt.Errorf("workflow: step %s is %s, not active", id, s.Status)
			}
			return i, nil
		}
	}
	return 0, fmt.Errorf("workflow: unknown step %s", id)
}

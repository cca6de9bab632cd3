package workflow

import "testing"

func TestInitialState(t *testing.T) {
	m := NewMachine()

	steps := m.Steps()
	if len(steps) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(steps))
	}
	if steps[0].ID != StepFetch || steps[0].Status != StatusActive {
		t.Errorf("expected fetch active first, got %s/%s", steps[0].ID, steps[0].Status)
	}
	for _, s := range steps[1:] {
		if s.Status != StatusPending {
			t.Errorf("expected %s pending, got %s", s.ID, s.Status)
		}
	}
	if m.Active() != StepFetch {
		t.Errorf("expected active step fetch, got %s", m.Active())
	}
}

func TestAdvanceProgression(t *testing.T) {
	m := NewMachine()

	if err := m.Advance(StepFetch); err != nil {
		t.Fatalf("advance fetch: %v", err)
	}
	if m.Status(StepFetch) != StatusCompleted {
		t.Errorf("expected fetch completed, got %s", m.Status(StepFetch))
	}
	if m.Active() != StepGenerate {
		t.Errorf("expected generate active, got %s", m.Active())
	}

	if err := m.Advance(StepGenerate); err != nil {
		t.Fatalf("advance generate: %v", err)
	}
	if err := m.Advance(StepPost); err != nil {
		t.Fatalf("advance post: %v", err)
	}
	if m.Active() != StepComplete {
		t.Errorf("expected complete active, got %s", m.Active())
	}
}

func TestAdvanceRequiresActive(t *testing.T) {
	m := NewMachine()

	if err := m.Advance(StepPost); err == nil {
		t.Error("expected error advancing a pending step")
	}
	if err := m.Advance(StepFetch); err != nil {
		t.Fatalf("advance fetch: %v", err)
	}
	// Advancing the same step twice must fail.
	if err := m.Advance(StepFetch); err == nil {
		t.Error("expected error advancing a completed step")
	}
}

func TestFailAndReactivate(t *testing.T) {
	m := NewMachine()

	if err := m.Fail(StepFetch); err != nil {
		t.Fatalf("fail fetch: %v", err)
	}
	if m.Status(StepFetch) != StatusError {
		t.Errorf("expected fetch errored, got %s", m.Status(StepFetch))
	}
	if m.Active() != "" {
		t.Errorf("expected no active step, got %s", m.Active())
	}

	if err := m.Reactivate(StepFetch); err != nil {
		t.Fatalf("reactivate fetch: %v", err)
	}
	if m.Active() != StepFetch {
		t.Errorf("expected fetch active again, got %s", m.Active())
	}
}

func TestReactivateRequiresError(t *testing.T) {
	m := NewMachine()
	if err := m.Reactivate(StepFetch); err == nil {
		t.Error("expected error reactivating an active step")
	}
	if err := m.Reactivate(StepPost); err == nil {
		t.Error("expected error reactivating a pending step")
	}
}

func TestReset(t *testing.T) {
	m := NewMachine()
	m.Advance(StepFetch)
	m.Advance(StepGenerate)

	m.Reset()

	if m.Active() != StepFetch {
		t.Errorf("expected fetch active after reset, got %s", m.Active())
	}
	for _, s := range m.Steps()[1:] {
		if s.Status != StatusPending {
			t.Errorf("expected %s pending after reset, got %s", s.ID, s.Status)
		}
	}
}

func TestStepTitles(t *testing.T) {
	m := NewMachine()
	steps := m.Steps()
	if steps[0].Title != "Fetch Latest Tech News" {
		t.Errorf("unexpected fetch title %q", steps[0].Title)
	}
	if steps[3].Title != "Workflow Complete" {
		t.Errorf("unexpected complete title %q", steps[3].Title)
	}
}

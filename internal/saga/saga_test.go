package saga

import (
	"context"
	"errors"
	"testing"
)

func TestRunAllSteps(t *testing.T) {
	var order []string
	err := Run(context.Background(),
		Step{Name: "first", Do: func(context.Context) error { order = append(order, "first"); return nil }},
		Step{Name: "second", Do: func(context.Context) error { order = append(order, "second"); return nil }},
	)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("expected ordered execution, got %v", order)
	}
}

func TestUndoRunsInReverseOrder(t *testing.T) {
	var undone []string
	boom := errors.New("boom")

	err := Run(context.Background(),
		Step{
			Name: "a",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { undone = append(undone, "a"); return nil },
		},
		Step{
			Name: "b",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { undone = append(undone, "b"); return nil },
		},
		Step{Name: "c", Do: func(context.Context) error { return boom }},
	)
	if !errors.Is(err, boom) {
		t.Fatalf("expected cause preserved, got %v", err)
	}
	if len(undone) != 2 || undone[0] != "b" || undone[1] != "a" {
		t.Fatalf("expected reverse-order undo, got %v", undone)
	}
}

func TestUndoFailureReportedNotRetried(t *testing.T) {
	undoCalls := 0
	err := Run(context.Background(),
		Step{
			Name: "write",
			Do:   func(context.Context) error { return nil },
			Undo: func(context.Context) error { undoCalls++; return errors.New("undo broken") },
		},
		Step{Name: "commit", Do: func(context.Context) error { return errors.New("commit failed") }},
	)

	var sagaErr *Error
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected *saga.Error, got %v", err)
	}
	if sagaErr.Step != "commit" {
		t.Fatalf("expected failing step commit, got %q", sagaErr.Step)
	}
	if len(sagaErr.UndoFailures) != 1 || sagaErr.UndoFailures[0].Step != "write" {
		t.Fatalf("expected one undo failure for write, got %+v", sagaErr.UndoFailures)
	}
	if undoCalls != 1 {
		t.Fatalf("expected undo attempted exactly once, got %d", undoCalls)
	}
}

func TestNilUndoSkipped(t *testing.T) {
	err := Run(context.Background(),
		Step{Name: "check", Do: func(context.Context) error { return nil }},
		Step{Name: "fail", Do: func(context.Context) error { return errors.New("nope") }},
	)
	var sagaErr *Error
	if !errors.As(err, &sagaErr) {
		t.Fatalf("expected *saga.Error, got %v", err)
	}
	if len(sagaErr.UndoFailures) != 0 {
		t.Fatalf("expected no undo failures, got %+v", sagaErr.UndoFailures)
	}
}

package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/reconkit/orgscan/internal/model"
)

// fakeStage is a scriptable stage for runner tests.
type fakeStage struct {
	name     string
	requires []model.IDKey
	run      func(ctx context.Context, report *model.OrgReport) error
}

func (s *fakeStage) Name() string            { return s.name }
func (s *fakeStage) Requires() []model.IDKey { return s.requires }
func (s *fakeStage) Run(ctx context.Context, report *model.OrgReport) error {
	return s.run(ctx, report)
}

// okStage returns a stage that always succeeds.
func okStage(name string, requires ...model.IDKey) *fakeStage {
	return &fakeStage{
		name:     name,
		requires: requires,
		run:      func(context.Context, *model.OrgReport) error { return nil },
	}
}

// TestRunnerExecute tests stage sequencing, skipping, and outcomes.
func TestRunnerExecute(t *testing.T) {
	t.Parallel()

	t.Run("all stages succeeding yields done", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.AddStages(
			&fakeStage{name: "discovery", run: func(_ context.Context, rep *model.OrgReport) error {
				rep.SetID(model.IDRegistry, "1")
				return nil
			}},
			okStage("detail", model.IDRegistry),
			okStage("icp", model.IDRegistry),
		)

		report := model.NewOrgReport("Example Corp")
		if err := r.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Outcome != model.OutcomeDone {
			t.Errorf("expected done, got %s", report.Outcome)
		}
		if len(report.Stages) != 3 {
			t.Fatalf("expected 3 stage outcomes, got %d", len(report.Stages))
		}
		for i, name := range []string{"discovery", "detail", "icp"} {
			if report.Stages[i].Stage != name || report.Stages[i].Status != model.StageSuccess {
				t.Errorf("stage %d: unexpected outcome %+v", i, report.Stages[i])
			}
		}
	})

	t.Run("failed discovery skips dependents and fails the run", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.AddStages(
			&fakeStage{name: "discovery", run: func(context.Context, *model.OrgReport) error {
				return model.NewFailure(model.FailureBlockedByTarget, "challenge page")
			}},
			okStage("detail", model.IDRegistry),
			okStage("icp", model.IDRegistry),
		)

		report := model.NewOrgReport("Example Corp")
		if err := r.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Outcome != model.OutcomeFailed {
			t.Errorf("expected failed, got %s", report.Outcome)
		}
		if report.Stages[0].Status != model.StageFailed || report.Stages[0].Kind != model.FailureBlockedByTarget {
			t.Errorf("unexpected discovery outcome: %+v", report.Stages[0])
		}
		for _, s := range report.Stages[1:] {
			if s.Status != model.StageSkipped || s.Kind != model.FailureMissingDependency {
				t.Errorf("expected dependents skipped on missing id, got %+v", s)
			}
		}
	})

	t.Run("one failed later stage yields partial", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.AddStages(
			&fakeStage{name: "discovery", run: func(_ context.Context, rep *model.OrgReport) error {
				rep.SetID(model.IDRegistry, "1")
				return nil
			}},
			&fakeStage{name: "icp", requires: []model.IDKey{model.IDRegistry},
				run: func(context.Context, *model.OrgReport) error {
					return model.NewFailure(model.FailureMalformedPayload, "bad listing")
				}},
			okStage("apps", model.IDRegistry),
		)

		report := model.NewOrgReport("Example Corp")
		if err := r.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Outcome != model.OutcomePartial {
			t.Errorf("expected partial, got %s", report.Outcome)
		}
		if report.Stages[2].Status != model.StageSuccess {
			t.Errorf("later stage should still run, got %+v", report.Stages[2])
		}
	})

	t.Run("missing-dependency failures record as skipped", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.AddStages(
			okStage("discovery"),
			&fakeStage{name: "whois", run: func(context.Context, *model.OrgReport) error {
				return model.NewFailure(model.FailureMissingDependency, "no filed domain to look up")
			}},
		)

		report := model.NewOrgReport("Example Corp")
		if err := r.Execute(context.Background(), report); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Stages[1].Status != model.StageSkipped {
			t.Errorf("expected skipped, got %+v", report.Stages[1])
		}
	})

	t.Run("configuration failure aborts the target", func(t *testing.T) {
		t.Parallel()

		r := New()
		r.AddStages(
			&fakeStage{name: "discovery", run: func(context.Context, *model.OrgReport) error {
				return model.NewFailure(model.FailureConfiguration, "no session for service")
			}},
			okStage("detail"),
		)

		report := model.NewOrgReport("Example Corp")
		err := r.Execute(context.Background(), report)
		var f *model.Failure
		if !errors.As(err, &f) || f.Kind != model.FailureConfiguration {
			t.Fatalf("expected configuration failure, got %v", err)
		}
		if len(report.Stages) != 1 {
			t.Errorf("expected run to stop after failing stage, got %d outcomes", len(report.Stages))
		}
		if report.Outcome != model.OutcomeFailed {
			t.Errorf("expected failed, got %s", report.Outcome)
		}
	})

	t.Run("cancellation is honored between stages", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())

		ran := 0
		r := New()
		r.AddStages(
			&fakeStage{name: "discovery", run: func(context.Context, *model.OrgReport) error {
				ran++
				cancel()
				return nil
			}},
			&fakeStage{name: "detail", run: func(context.Context, *model.OrgReport) error {
				ran++
				return nil
			}},
		)

		report := model.NewOrgReport("Example Corp")
		if err := r.Execute(ctx, report); !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if ran != 1 {
			t.Errorf("expected only the first stage to run, got %d", ran)
		}
	})
}

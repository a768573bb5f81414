package pipeline

import (
	"context"
	"errors"
	"log/slog"

	"github.com/reconkit/orgscan/internal/model"
)

// Stage is one unit of the collection run. Stages carry their own
// configuration state and run against the shared accumulator.
type Stage interface {
	// Name identifies the stage in logs and stage outcomes.
	Name() string

	// Requires lists the identifiers that must be present on the
	// accumulator before the stage can run. An empty list means the
	// stage is always runnable.
	Requires() []model.IDKey

	// Run executes the stage, merging collected fields into the report.
	// Failures are returned as *model.Failure so the runner can decide
	// between recording, skipping, and aborting.
	Run(ctx context.Context, report *model.OrgReport) error
}

// Runner executes stages in the order they were added.
type Runner struct {
	stages []Stage
	logger *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// New creates a Runner. Stages are added with AddStages.
func New(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	return r
}

// AddStages appends stages in execution order.
func (r *Runner) AddStages(stages ...Stage) {
	r.stages = append(r.stages, stages...)
}

// StageNames returns the names of all stages in execution order.
func (r *Runner) StageNames() []string {
	names := make([]string, len(r.stages))
	for i, s := range r.stages {
		names[i] = s.Name()
	}
	return names
}

// Execute runs every stage against the report and finalizes its
// outcome. A failed stage does not stop the run: later stages either
// still have what they need or skip on a missing identifier. The two
// exceptions are context cancellation, checked between stages, and
// configuration failures, which would fail every remaining stage the
// same way and therefore abort the target.
func (r *Runner) Execute(ctx context.Context, report *model.OrgReport) error {
	for _, stage := range r.stages {
		select {
		case <-ctx.Done():
			r.logger.Warn("collection cancelled",
				"company", report.Company,
				"stage", stage.Name(),
			)
			report.Finalize()
			return ctx.Err()
		default:
		}

		if key, ok := missingRequirement(report, stage); ok {
			r.logger.Info("stage skipped",
				"company", report.Company,
				"stage", stage.Name(),
				"missing", string(key),
			)
			report.RecordStage(model.SkippedStage(stage.Name(), model.FailureMissingDependency,
				"missing identifier: "+string(key)))
			continue
		}

		r.logger.Info("running stage",
			"company", report.Company,
			"stage", stage.Name(),
		)

		err := stage.Run(ctx, report)
		if err == nil {
			report.RecordStage(model.SucceededStage(stage.Name(), 1))
			continue
		}

		var failure *model.Failure
		if !errors.As(err, &failure) {
			failure = model.WrapFailure(model.FailureMalformedPayload, "stage failed", err)
		}

		switch failure.Kind {
		case model.FailureConfiguration:
			// Every remaining stage would fail identically; stop now so
			// the caller can prompt for a credential refresh.
			report.RecordStage(model.FailedStage(stage.Name(), failure.Kind, failure.Message, 1))
			report.Finalize()
			return failure
		case model.FailureMissingDependency:
			report.RecordStage(model.SkippedStage(stage.Name(), failure.Kind, failure.Message))
		default:
			r.logger.Warn("stage failed",
				"company", report.Company,
				"stage", stage.Name(),
				"kind", string(failure.Kind),
				"error", failure.Message,
			)
			report.RecordStage(model.FailedStage(stage.Name(), failure.Kind, failure.Message, 1))
		}
	}

	report.Finalize()
	return nil
}

// missingRequirement returns the first identifier a stage needs that
// the report does not carry.
func missingRequirement(report *model.OrgReport, stage Stage) (model.IDKey, bool) {
	for _, key := range stage.Requires() {
		if _, ok := report.ID(key); !ok {
			return key, true
		}
	}
	return "", false
}

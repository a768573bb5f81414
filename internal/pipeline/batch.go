package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/reconkit/orgscan/internal/model"
)

// Inter-target courtesy delay band. This is on top of per-host
// throttling; a batch sweep should read as a person working down a
// list, not a burst.
const (
	DefaultTargetDelayMin = 1 * time.Second
	DefaultTargetDelayMax = 3 * time.Second
)

// Batch processes targets strictly one at a time through a Runner.
type Batch struct {
	runner   *Runner
	logger   *slog.Logger
	progress chan<- model.ProgressEvent
	delayMin time.Duration
	delayMax time.Duration

	// sleep and randFloat are swappable for tests.
	sleep     func(ctx context.Context, d time.Duration) error
	randFloat func() float64
}

// BatchOption configures a Batch.
type BatchOption func(*Batch)

// WithBatchLogger sets a custom logger.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *Batch) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithProgress sets the channel progress events are emitted on. Sends
// never block: when the channel is full the event is dropped, because a
// slow consumer must not stall collection.
func WithProgress(ch chan<- model.ProgressEvent) BatchOption {
	return func(b *Batch) {
		b.progress = ch
	}
}

// WithTargetDelay sets the randomized courtesy delay between targets.
func WithTargetDelay(minDelay, maxDelay time.Duration) BatchOption {
	return func(b *Batch) {
		if minDelay >= 0 && maxDelay >= minDelay {
			b.delayMin = minDelay
			b.delayMax = maxDelay
		}
	}
}

// NewBatch creates a Batch around a configured Runner.
func NewBatch(runner *Runner, opts ...BatchOption) *Batch {
	b := &Batch{
		runner:    runner,
		delayMin:  DefaultTargetDelayMin,
		delayMax:  DefaultTargetDelayMax,
		sleep:     sleepContext,
		randFloat: rand.Float64,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// sleepContext blocks for d or until the context is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Run processes every target in submission order and returns the
// aggregate report. Cancellation is honored between targets and between
// stages; a target that was mid-run when the context fell keeps
// whatever it had collected, and the remaining targets are never
// started. Per-target failures do not touch later targets.
func (b *Batch) Run(ctx context.Context, targets []model.Target) *model.BatchReport {
	startedAt := time.Now()
	outcomes := make([]model.TargetOutcome, 0, len(targets))
	cancelled := false

	b.logger.Info("batch started", "targets", len(targets))

	for i, target := range targets {
		select {
		case <-ctx.Done():
			cancelled = true
		default:
		}
		if cancelled {
			break
		}

		if i > 0 {
			if err := b.sleep(ctx, b.targetDelay()); err != nil {
				cancelled = true
				break
			}
		}

		b.emit(model.ProgressEvent{
			Index:   i + 1,
			Total:   len(targets),
			Message: "collecting " + target.Name,
		})

		report := model.NewOrgReport(target.Name)
		err := b.runner.Execute(ctx, report)

		outcome := model.TargetOutcome{
			Target: target,
			Status: report.Outcome,
			Report: report,
		}
		switch {
		case err == nil:
			outcome.Message = fmt.Sprintf("%s: %s", target.Name, report.Outcome)
		case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
			outcome.Message = target.Name + ": interrupted"
			cancelled = true
		default:
			outcome.Message = fmt.Sprintf("%s: %v", target.Name, err)
		}
		outcomes = append(outcomes, outcome)

		b.emit(model.ProgressEvent{
			Index:   i + 1,
			Total:   len(targets),
			Message: outcome.Message,
		})
	}

	reportOut := model.NewBatchReport(len(targets), outcomes, cancelled, startedAt)
	b.logger.Info("batch finished",
		"total", reportOut.Total,
		"done", reportOut.Done,
		"partial", reportOut.Partial,
		"failed", reportOut.Failed,
		"cancelled", reportOut.Cancelled,
	)
	return reportOut
}

// targetDelay picks a randomized delay within the configured band.
func (b *Batch) targetDelay() time.Duration {
	band := float64(b.delayMax - b.delayMin)
	return b.delayMin + time.Duration(b.randFloat()*band)
}

// emit sends a progress event without ever blocking.
func (b *Batch) emit(ev model.ProgressEvent) {
	if b.progress == nil {
		return
	}
	select {
	case b.progress <- ev:
	default:
	}
}

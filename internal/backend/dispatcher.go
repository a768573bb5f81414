package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/reconkit/orgscan/internal/model"
	"github.com/reconkit/orgscan/internal/query"
	"github.com/reconkit/orgscan/internal/throttle"
)

// Dispatcher fans one unified query out to several backends. Backends
// are queried sequentially in registration order so repeated runs with
// the same input produce results in the same order.
type Dispatcher struct {
	backends []Backend
	throttle *throttle.Throttle
	logger   *slog.Logger
	progress chan<- model.ProgressEvent
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatcherThrottle sets a custom throttle.
func WithDispatcherThrottle(t *throttle.Throttle) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.throttle = t
		}
	}
}

// WithDispatcherLogger sets a custom logger.
func WithDispatcherLogger(logger *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithDispatcherProgress sets the channel progress events are sent to.
// Sends never block; an event nobody is ready for is dropped.
func WithDispatcherProgress(ch chan<- model.ProgressEvent) DispatcherOption {
	return func(d *Dispatcher) {
		d.progress = ch
	}
}

// NewDispatcher creates a dispatcher over the given backends.
func NewDispatcher(backends []Backend, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{backends: backends}
	for _, opt := range opts {
		opt(d)
	}
	if d.throttle == nil {
		d.throttle = throttle.New()
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// Search translates the query for each backend and executes it,
// requesting up to limit rows per backend. One backend's failure is
// recorded in its result and never aborts the others. The returned
// error is non-nil only when the context ends the run early, in which
// case the results gathered so far are still returned.
func (d *Dispatcher) Search(ctx context.Context, q query.Unified, limit int) ([]*model.BackendResult, error) {
	results := make([]*model.BackendResult, 0, len(d.backends))
	for i, b := range d.backends {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		translation := query.Translate(q, b.Dialect())
		for _, warning := range translation.Warnings {
			d.logger.Warn("query term dropped in translation",
				"backend", b.Name(), "detail", warning)
		}

		if _, err := d.throttle.Wait(ctx, b.Name()); err != nil {
			return results, err
		}

		entries, total, err := b.Search(ctx, translation.Query, limit)
		if err != nil {
			var failure *model.Failure
			if errors.As(err, &failure) && failure.Kind == model.FailureBlockedByTarget {
				d.throttle.Escalate(b.Name())
			}
			d.logger.Warn("backend query failed",
				"backend", b.Name(), "error", err)
			results = append(results, model.FailedBackendResult(b.Name(), translation.Query, err.Error()))
			d.emit(i+1, b.Name(), err.Error())
			continue
		}

		d.throttle.Success(b.Name())
		results = append(results, &model.BackendResult{
			Backend: b.Name(),
			Query:   translation.Query,
			Success: true,
			Entries: entries,
			Total:   total,
		})
		d.emit(i+1, b.Name(), fmt.Sprintf("%d entries (total %d)", len(entries), total))
	}
	return results, nil
}

// emit sends a progress event without ever blocking the search.
func (d *Dispatcher) emit(index int, stage, message string) {
	if d.progress == nil {
		return
	}
	select {
	case d.progress <- model.ProgressEvent{
		Index:   index,
		Total:   len(d.backends),
		Stage:   stage,
		Message: message,
	}:
	default:
	}
}

package backend

import (
	"context"
	"log/slog"

	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/metrics"
	"github.com/ggonsajang/comcard/internal/store"
)

// Fallback sends every operation to the primary store and re-issues it
// against the secondary one when the primary fails. The two stores are
// not synchronized.
type Fallback struct {
	primary   store.ExpenseStore
	secondary store.ExpenseStore
	logger    *slog.Logger
}

var _ store.ExpenseStore = (*Fallback)(nil)

func NewFallback(primary, secondary store.ExpenseStore, logger *slog.Logger) *Fallback {
	if logger == nil {
		logger = slog.Default()
	}
	return &Fallback{primary: primary, secondary: secondary, logger: logger}
}

func (f *Fallback) failed(ctx context.Context, op string, err error) {
	metrics.StoreFallbacksTotal.WithLabelValues(op).Inc()
	f.logger.WarnContext(ctx, "Remote store failed, falling back to local store",
		"operation", op, "error", err)
}

func (f *Fallback) List(ctx context.Context) ([]core.Expense, error) {
	items, err := f.primary.List(ctx)
	if err == nil {
		return items, nil
	}
	f.failed(ctx, "list", err)
	return f.secondary.List(ctx)
}

func (f *Fallback) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e, err := f.primary.Create(ctx, in)
	if err == nil {
		return e, nil
	}
	f.failed(ctx, "create", err)
	return f.secondary.Create(ctx, in)
}

func (f *Fallback) Update(ctx context.Context, e core.Expense) error {
	err := f.primary.Update(ctx, e)
	if err == nil {
		return nil
	}
	f.failed(ctx, "update", err)
	return f.secondary.Update(ctx, e)
}

func (f *Fallback) Delete(ctx context.Context, id string) error {
	err := f.primary.Delete(ctx, id)
	if err == nil {
		return nil
	}
	f.failed(ctx, "delete", err)
	return f.secondary.Delete(ctx, id)
}

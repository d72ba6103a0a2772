// Package store defines the persistence gateway for expense records.
package store

import (
	"context"

	"github.com/ggonsajang/comcard/internal/core"
)

// Lister is the read side of the gateway. Implementations return expenses
// ordered by date, newest first.
type Lister interface {
	List(ctx context.Context) ([]core.Expense, error)
}

// ExpenseStore is the full persistence gateway.
type ExpenseStore interface {
	Lister

	// Create assigns ID and CreatedAt and stores the new expense.
	Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error)

	// Update replaces the expense with the same ID. ID and CreatedAt of the
	// stored record win over the ones in e. Unknown IDs are ignored.
	Update(ctx context.Context, e core.Expense) error

	// Delete removes the expense with the given ID. Unknown IDs are ignored.
	Delete(ctx context.Context, id string) error
}

// Package local persists the whole expense collection as one JSON array in
// a key-value store.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/kv"
	"github.com/ggonsajang/comcard/internal/store"
)

// StorageKey is the key holding the serialized collection.
const StorageKey = "comcard_expenses_v1"

type Store struct {
	mu     sync.Mutex
	kv     kv.Store
	key    string
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

var _ store.ExpenseStore = (*Store)(nil)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the ID source.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// WithLogger sets the logger used for read failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func New(kvs kv.Store, opts ...Option) *Store {
	s := &Store{
		kv:     kvs,
		key:    StorageKey,
		now:    time.Now,
		newID:  func() string { return uuid.NewString() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// load never fails: unreadable or corrupted data is logged and treated as
// an empty collection.
func (s *Store) load(ctx context.Context) []core.Expense {
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read expenses", "key", s.key, "error", err)
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	var items []core.Expense
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		s.logger.ErrorContext(ctx, "Stored expenses are corrupted, treating as empty", "key", s.key, "error", err)
		return nil
	}
	return items
}

func (s *Store) save(ctx context.Context, items []core.Expense) error {
	if items == nil {
		items = []core.Expense{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode expenses: %w", err)
	}
	if err := s.kv.Set(ctx, s.key, string(raw), 0); err != nil {
		return fmt.Errorf("write expenses: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	items := s.load(ctx)
	s.mu.Unlock()

	core.SortByDateDesc(items)
	return items, nil
}

func (s *Store) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := core.Expense{
		ID:           s.newID(),
		ExpenseInput: in.Normalize(),
		CreatedAt:    s.now().UnixMilli(),
	}
	items := append([]core.Expense{e}, s.load(ctx)...)
	if err := s.save(ctx, items); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}

func (s *Store) Update(ctx context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load(ctx)
	for i := range items {
		if items[i].ID != e.ID {
			continue
		}
		items[i].ExpenseInput = e.ExpenseInput.Normalize()
		return s.save(ctx, items)
	}
	s.logger.DebugContext(ctx, "Update of unknown expense ignored", "expense_id", e.ID)
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.load(ctx)
	kept := items[:0]
	for _, e := range items {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(items) {
		return nil
	}
	return s.save(ctx, kept)
}

// Package remote stores expenses in a PostgreSQL table.
package remote

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/store"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const selectColumns = `id, date, category, amount, work_type, project_name, participants, remarks, receipt_image, created_at`

// Config locates the remote database. Key is the access secret; it is
// used as the connection password when URL carries none.
type Config struct {
	URL string
	Key string
}

// IsPlaceholder reports whether a URL or key still holds a template value.
func IsPlaceholder(v string) bool {
	v = strings.ToLower(strings.TrimSpace(v))
	return v == "" || strings.Contains(v, "placeholder")
}

// Configured reports whether both URL and key are set to real values.
func (c Config) Configured() bool {
	return !IsPlaceholder(c.URL) && !IsPlaceholder(c.Key)
}

// DSN returns the connection string with the key filled in as password.
func (c Config) DSN() (string, error) {
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse remote database url: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported remote database scheme %q", u.Scheme)
	}
	if u.User == nil {
		u.User = url.UserPassword("postgres", c.Key)
	} else if _, hasPassword := u.User.Password(); !hasPassword {
		u.User = url.UserPassword(u.User.Username(), c.Key)
	}
	return u.String(), nil
}

type Store struct {
	db    *sql.DB
	now   func() time.Time
	newID func() string
}

var _ store.ExpenseStore = (*Store)(nil)

// Open connects, applies the schema and returns a ready Store.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open remote database: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping remote database: %w", err)
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return New(db), nil
}

// New wraps an open database whose schema is already in place.
func New(db *sql.DB) *Store {
	return &Store{
		db:    db,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
}

func migrateUp(db *sql.DB) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create postgres driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate remote schema: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+selectColumns+` FROM expenses ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var items []core.Expense
	for rows.Next() {
		var (
			e       core.Expense
			date    time.Time
			receipt sql.NullString
		)
		if err := rows.Scan(&e.ID, &date, &e.Category, &e.Amount, &e.WorkType,
			&e.ProjectName, &e.Participants, &e.Remarks, &receipt, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Date = core.AsLocal(date)
		if receipt.Valid {
			r := receipt.String
			e.ReceiptImage = &r
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return items, nil
}

func (s *Store) Create(ctx context.Context, in core.ExpenseInput) (core.Expense, error) {
	e := core.Expense{
		ID:           s.newID(),
		ExpenseInput: in.Normalize(),
		CreatedAt:    s.now().UnixMilli(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO expenses (`+selectColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		e.ID, e.Date.Format(core.LocalTimeLayout), string(e.Category), e.Amount, string(e.WorkType),
		e.ProjectName, e.Participants, e.Remarks, nullable(e.ReceiptImage), e.CreatedAt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}
	return e, nil
}

func (s *Store) Update(ctx context.Context, e core.Expense) error {
	in := e.ExpenseInput.Normalize()
	_, err := s.db.ExecContext(ctx,
		`UPDATE expenses SET date = $2, category = $3, amount = $4, work_type = $5,
			project_name = $6, participants = $7, remarks = $8, receipt_image = $9
		WHERE id = $1`,
		e.ID, in.Date.Format(core.LocalTimeLayout), string(in.Category), in.Amount, string(in.WorkType),
		in.ProjectName, in.Participants, in.Remarks, nullable(in.ReceiptImage))
	if err != nil {
		return fmt.Errorf("update expense %s: %w", e.ID, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete expense %s: %w", id, err)
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

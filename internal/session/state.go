// Package session holds the small per-user state: the login flag and the
// last values used in the expense form.
package session

import (
	"context"
	"fmt"

	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/kv"
)

// Storage keys.
const (
	AuthKeyPrefix       = "comcard_auth:"
	LastProjectKey      = "comcard_last_project"
	LastParticipantsKey = "comcard_last_participants"
	LastWorkTypeKey     = "comcard_last_work_type"
)

// FormDefaults pre-fill a new expense.
type FormDefaults struct {
	ProjectName  string        `json:"projectName"`
	Participants string        `json:"participants"`
	WorkType     core.WorkType `json:"workType"`
}

// State reads and writes the form defaults.
type State struct {
	kv kv.Store
}

func NewState(kvs kv.Store) *State {
	return &State{kv: kvs}
}

// Defaults returns the last saved form values. The work type falls back to
// 감리 when none was saved.
func (s *State) Defaults(ctx context.Context) (FormDefaults, error) {
	var d FormDefaults
	var err error
	if d.ProjectName, err = s.get(ctx, LastProjectKey); err != nil {
		return FormDefaults{}, err
	}
	if d.Participants, err = s.get(ctx, LastParticipantsKey); err != nil {
		return FormDefaults{}, err
	}
	wt, err := s.get(ctx, LastWorkTypeKey)
	if err != nil {
		return FormDefaults{}, err
	}
	d.WorkType = core.WorkType(wt)
	if !d.WorkType.IsValid() {
		d.WorkType = core.WorkTypeSupervise
	}
	return d, nil
}

// SaveDefaults remembers the values of a submitted form.
func (s *State) SaveDefaults(ctx context.Context, d FormDefaults) error {
	values := map[string]string{
		LastProjectKey:      d.ProjectName,
		LastParticipantsKey: d.Participants,
		LastWorkTypeKey:     string(d.WorkType),
	}
	for key, v := range values {
		if err := s.kv.Set(ctx, key, v, 0); err != nil {
			return fmt.Errorf("save %s: %w", key, err)
		}
	}
	return nil
}

// DefaultsFrom extracts the remembered fields of an expense.
func DefaultsFrom(in core.ExpenseInput) FormDefaults {
	return FormDefaults{ProjectName: in.ProjectName, Participants: in.Participants, WorkType: in.WorkType}
}

func (s *State) get(ctx context.Context, key string) (string, error) {
	v, _, err := s.kv.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}

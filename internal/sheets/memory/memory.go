// Package memory is an in-process Publisher used when no spreadsheet is
// configured and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/sheets"
)

type Publisher struct {
	mu     sync.Mutex
	sheets map[string][][]string
	order  []string
	err    error
}

var _ sheets.Publisher = (*Publisher)(nil)

func New() *Publisher {
	return &Publisher{sheets: make(map[string][][]string)}
}

// Fail makes every later Publish return err.
func (p *Publisher) Fail(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *Publisher) Name() string { return "memory" }

func (p *Publisher) Publish(_ context.Context, r report.Report) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	if _, ok := p.sheets[r.Title]; !ok {
		p.order = append(p.order, r.Title)
	}
	p.sheets[r.Title] = r.Table()
	return nil
}

// Sheet returns the published table for title.
func (p *Publisher) Sheet(title string) ([][]string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	t, ok := p.sheets[title]
	return t, ok
}

// Titles returns the published sheet titles in first-publish order.
func (p *Publisher) Titles() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.order...)
}

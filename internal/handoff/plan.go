package handoff

import (
	"context"
	"fmt"
	"time"

	"github.com/ggonsajang/comcard/internal/artifact"
)

// Download is a delivered artifact waiting to be fetched.
type Download struct {
	Key  string `json:"key"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Plan records the side effects of a request so the HTTP client can carry
// them out: it downloads each file, waits the delay and then navigates to
// the link.
type Plan struct {
	store   artifact.Store
	baseURL string

	Downloads   []Download `json:"downloads"`
	Link        string     `json:"mailLink,omitempty"`
	LinkDelayMs int64      `json:"mailDelayMs,omitempty"`
	Notices     []string   `json:"notices"`
}

var _ Handoff = (*Plan)(nil)

// NewPlan stores artifacts in store; download URLs are baseURL + "/" + key.
func NewPlan(store artifact.Store, baseURL string) *Plan {
	return &Plan{store: store, baseURL: baseURL, Downloads: []Download{}, Notices: []string{}}
}

func (p *Plan) Deliver(ctx context.Context, a artifact.Artifact) error {
	key, err := p.store.Put(ctx, a)
	if err != nil {
		return fmt.Errorf("store %s: %w", a.Name, err)
	}
	p.Downloads = append(p.Downloads, Download{Key: key, Name: a.Name, URL: p.baseURL + "/" + key})
	return nil
}

func (p *Plan) Open(_ context.Context, link string, after time.Duration) error {
	p.Link = link
	p.LinkDelayMs = after.Milliseconds()
	return nil
}

func (p *Plan) Notify(_ context.Context, msg string) {
	p.Notices = append(p.Notices, msg)
}

// Package handoff performs the user-facing side effects of an export:
// delivering the file, opening a mail link after a delay and showing a
// notice.
package handoff

import (
	"context"
	"time"

	"github.com/ggonsajang/comcard/internal/artifact"
)

// Handoff receives the side effects of one export or backup run.
type Handoff interface {
	// Deliver hands the generated file to the user.
	Deliver(ctx context.Context, a artifact.Artifact) error
	// Open navigates to link once after has elapsed. The delay is a
	// best-effort wait for the delivery to start.
	Open(ctx context.Context, link string, after time.Duration) error
	// Notify shows a message to the user.
	Notify(ctx context.Context, msg string)
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package sheets

import (
	"context"

	"github.com/ggonsajang/comcard/internal/report"
)

// Publisher copies a rendered report to an external spreadsheet. Each
// report title gets its own sheet; publishing the same title again
// replaces its content.
type Publisher interface {
	Name() string
	Publish(ctx context.Context, r report.Report) error
}

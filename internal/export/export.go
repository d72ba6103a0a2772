// Package export runs the interactive report export and the automatic
// month backup that follows every write.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ggonsajang/comcard/internal/artifact"
	"github.com/ggonsajang/comcard/internal/handoff"
	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/mail"
	"github.com/ggonsajang/comcard/internal/metrics"
	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/sheets"
	"github.com/ggonsajang/comcard/internal/store"
)

// DefaultMailDelay lets the download start before the mail draft opens.
const DefaultMailDelay = time.Second

// NoDelay turns off a wait. A zero delay in the options means the default.
const NoDelay time.Duration = -1

func resolveDelay(d, def time.Duration) time.Duration {
	switch {
	case d == 0:
		return def
	case d < 0:
		return 0
	}
	return d
}

// ErrNoData is returned when the selected period holds no records.
var ErrNoData = errors.New("no records in the selected period")

// Filename is the export file name for a report title.
func Filename(title, ext string) string {
	return fmt.Sprintf("법인카드_%s.%s", title, ext)
}

// LegacyFilename is the dated name used by the single "export all" action.
func LegacyFilename(now time.Time) string {
	return fmt.Sprintf("법인카드내역_%s.xlsx", now.Format("2006-01-02"))
}

// Options configure a Dispatcher.
type Options struct {
	Format        report.Format
	ApproverEmail string
	MailTransport mail.Transport
	MailDelay     time.Duration
	Publishers    []sheets.Publisher
	Clock         func() time.Time
	Logger        *slog.Logger
}

// Dispatcher runs interactive exports.
type Dispatcher struct {
	lister  store.Lister
	encoder report.Encoder
	opts    Options
}

// Result describes a finished export.
type Result struct {
	Period   report.Period `json:"period"`
	Title    string        `json:"title"`
	Filename string        `json:"filename"`
	Count    int           `json:"count"`
	Total    int64         `json:"total"`
	MailLink string        `json:"mailLink,omitempty"`
}

func NewDispatcher(lister store.Lister, opts Options) (*Dispatcher, error) {
	if opts.Format == "" {
		opts.Format = report.FormatXLSX
	}
	enc, err := report.EncoderFor(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.MailTransport == "" {
		opts.MailTransport = mail.TransportMailto
	}
	opts.MailDelay = resolveDelay(opts.MailDelay, DefaultMailDelay)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{lister: lister, encoder: enc, opts: opts}, nil
}

// Export renders period p, delivers the file through h and, when alsoMail
// is set, opens a mail draft to the approver after the mail delay. An empty
// period notifies the user and returns ErrNoData without producing a file.
func (d *Dispatcher) Export(ctx context.Context, p report.Period, alsoMail bool, h handoff.Handoff) (*Result, error) {
	logger := d.opts.Logger.With(
		log.FieldOperation, log.OpExport,
		log.FieldPeriod, p.String(),
		log.FieldFormat, d.encoder.Extension())
	res, err := d.export(ctx, p, alsoMail, h, logger)

	switch {
	case err == nil:
		metrics.ExportsTotal.WithLabelValues(p.String(), d.encoder.Extension(), metrics.ResultOK).Inc()
	case errors.Is(err, ErrNoData):
		metrics.ExportsTotal.WithLabelValues(p.String(), d.encoder.Extension(), metrics.ResultEmpty).Inc()
		h.Notify(ctx, mail.NoticeNoData)
	default:
		metrics.ExportsTotal.WithLabelValues(p.String(), d.encoder.Extension(), metrics.ResultError).Inc()
		logger.ErrorContext(ctx, "Export failed", log.NewFields().WithError(err).ToSlice()...)
		h.Notify(ctx, mail.NoticeExportFailed)
	}
	return res, err
}

func (d *Dispatcher) export(ctx context.Context, p report.Period, alsoMail bool, h handoff.Handoff, logger *slog.Logger) (*Result, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %q", report.ErrInvalidPeriod, p)
	}
	items, err := d.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	now := d.opts.Clock()
	r := report.Render(items, p, now)
	if r.Empty() {
		return nil, ErrNoData
	}

	data, err := d.encoder.Encode(r)
	if err != nil {
		return nil, fmt.Errorf("encode report: %w", err)
	}
	res := &Result{
		Period:   p,
		Title:    r.Title,
		Filename: Filename(r.Title, d.encoder.Extension()),
		Count:    r.Count,
		Total:    r.Total,
	}
	if err := h.Deliver(ctx, artifact.Artifact{
		Name:        res.Filename,
		ContentType: d.encoder.ContentType(),
		Data:        data,
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("deliver %s: %w", res.Filename, err)
	}
	logger.InfoContext(ctx, "Report exported",
		append(log.NewFields().WithReport(r.Title, r.Count, r.Total).ToSlice(), log.FieldFilename, res.Filename)...)

	d.publish(ctx, r, logger)

	if !alsoMail {
		h.Notify(ctx, mail.NoticeDownloaded)
		return res, nil
	}

	msg := mail.Submission(d.opts.ApproverEmail, r, res.Filename)
	res.MailLink = msg.Link(d.opts.MailTransport)
	if err := h.Open(ctx, res.MailLink, d.opts.MailDelay); err != nil {
		return nil, fmt.Errorf("open mail draft: %w", err)
	}
	h.Notify(ctx, mail.NoticeAttachReminder)
	return res, nil
}

// publish copies the report to every configured sheet. Failures never
// fail the export.
func (d *Dispatcher) publish(ctx context.Context, r report.Report, logger *slog.Logger) {
	for _, pub := range d.opts.Publishers {
		if err := pub.Publish(ctx, r); err != nil {
			metrics.PublishFailuresTotal.WithLabelValues(pub.Name()).Inc()
			logger.WarnContext(ctx, "Report publication failed", log.FieldSink, pub.Name(), log.FieldError, err)
		}
	}
}

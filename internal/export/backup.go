package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ggonsajang/comcard/internal/artifact"
	"github.com/ggonsajang/comcard/internal/handoff"
	"github.com/ggonsajang/comcard/internal/log"
	"github.com/ggonsajang/comcard/internal/mail"
	"github.com/ggonsajang/comcard/internal/metrics"
	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/store"
)

const (
	// DefaultBackupDelay lets the triggering write land before re-reading.
	DefaultBackupDelay = 500 * time.Millisecond
	// BackupMailDelay separates the backup file from the mail draft.
	BackupMailDelay = 300 * time.Millisecond
)

// BackupFilename names the month backup file.
func BackupFilename(year int, month time.Month, ext string) string {
	return fmt.Sprintf("법인카드_%d년%d월_백업.%s", year, int(month), ext)
}

// Queue hands backup runs to a separate worker.
type Queue interface {
	PublishBackupRequest(ctx context.Context, requestedAt time.Time) error
}

// BackupOptions configure a Backup.
type BackupOptions struct {
	Format    report.Format
	Transport mail.Transport
	Recipient string
	Delay     time.Duration
	MailDelay time.Duration
	// Queue, when set, receives backup requests instead of running them
	// in-process.
	Queue  Queue
	Clock  func() time.Time
	Logger *slog.Logger
}

// Backup exports the current month after every write. It never reports
// failures to the caller; they are logged and counted.
type Backup struct {
	lister  store.Lister
	encoder report.Encoder
	handoff handoff.Handoff
	opts    BackupOptions
	wg      sync.WaitGroup
}

// BackupResult describes a finished backup run.
type BackupResult struct {
	Filename string `json:"filename"`
	Count    int    `json:"count"`
	Total    int64  `json:"total"`
	MailLink string `json:"mailLink,omitempty"`
}

func NewBackup(lister store.Lister, h handoff.Handoff, opts BackupOptions) (*Backup, error) {
	if opts.Format == "" {
		opts.Format = report.FormatCSV
	}
	enc, err := report.EncoderFor(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.Transport == "" {
		opts.Transport = mail.TransportWebmail
	}
	opts.Delay = resolveDelay(opts.Delay, DefaultBackupDelay)
	opts.MailDelay = resolveDelay(opts.MailDelay, BackupMailDelay)
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	opts.Logger = opts.Logger.With(log.FieldOperation, log.OpBackup, log.FieldFormat, enc.Extension())
	return &Backup{lister: lister, encoder: enc, handoff: h, opts: opts}, nil
}

// Trigger schedules a backup and returns immediately. The run outlives
// ctx's cancellation but keeps its values.
func (b *Backup) Trigger(ctx context.Context) {
	if b.opts.Queue != nil {
		err := b.opts.Queue.PublishBackupRequest(ctx, b.opts.Clock())
		if err == nil {
			metrics.BackupsTotal.WithLabelValues(metrics.ResultQueued).Inc()
			return
		}
		b.opts.Logger.WarnContext(ctx, "Failed to queue backup, running in-process", log.FieldError, err)
	}

	runCtx := context.WithoutCancel(ctx)
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		if err := handoff.Sleep(runCtx, b.opts.Delay); err != nil {
			return
		}
		_, _ = b.Run(runCtx)
	}()
}

// Wait blocks until all in-process backups started by Trigger finish.
func (b *Backup) Wait() {
	b.wg.Wait()
}

// Run backs up the current month synchronously. A month without records
// is a silent no-op reported as ErrNoData.
func (b *Backup) Run(ctx context.Context) (*BackupResult, error) {
	res, err := b.run(ctx)
	switch {
	case err == nil:
		metrics.BackupsTotal.WithLabelValues(metrics.ResultOK).Inc()
		b.opts.Logger.InfoContext(ctx, "Backup completed",
			log.FieldFilename, res.Filename, log.FieldCount, res.Count, log.FieldTotal, res.Total)
	case errors.Is(err, ErrNoData):
		metrics.BackupsTotal.WithLabelValues(metrics.ResultEmpty).Inc()
		b.opts.Logger.InfoContext(ctx, "No records this month, backup skipped")
	default:
		metrics.BackupsTotal.WithLabelValues(metrics.ResultError).Inc()
		b.opts.Logger.ErrorContext(ctx, "Backup failed", log.NewFields().WithError(err).ToSlice()...)
	}
	return res, err
}

func (b *Backup) run(ctx context.Context) (*BackupResult, error) {
	items, err := b.lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	now := b.opts.Clock()
	year, month, _ := report.ReferenceMonth(report.PeriodCurrent, now)
	r := report.Render(items, report.PeriodCurrent, now)
	if r.Empty() {
		return nil, ErrNoData
	}

	data, err := b.encoder.Encode(r)
	if err != nil {
		return nil, fmt.Errorf("encode backup: %w", err)
	}
	res := &BackupResult{
		Filename: BackupFilename(year, month, b.encoder.Extension()),
		Count:    r.Count,
		Total:    r.Total,
	}
	if err := b.handoff.Deliver(ctx, artifact.Artifact{
		Name:        res.Filename,
		ContentType: b.encoder.ContentType(),
		Data:        data,
		CreatedAt:   now,
	}); err != nil {
		return nil, fmt.Errorf("deliver %s: %w", res.Filename, err)
	}

	if b.opts.Recipient == "" {
		return res, nil
	}
	res.MailLink = mail.Backup(b.opts.Recipient, year, month, r, res.Filename).Link(b.opts.Transport)
	if err := b.handoff.Open(ctx, res.MailLink, b.opts.MailDelay); err != nil {
		return nil, fmt.Errorf("open backup mail draft: %w", err)
	}
	return res, nil
}

package export

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggonsajang/comcard/internal/artifact"
	"github.com/ggonsajang/comcard/internal/core"
	"github.com/ggonsajang/comcard/internal/kv"
	"github.com/ggonsajang/comcard/internal/mail"
	"github.com/ggonsajang/comcard/internal/report"
	"github.com/ggonsajang/comcard/internal/sheets"
	"github.com/ggonsajang/comcard/internal/sheets/memory"
	"github.com/ggonsajang/comcard/internal/store/local"
)

// recorder is a Handoff that keeps everything it is asked to do.
type recorder struct {
	mu         sync.Mutex
	delivered  []artifact.Artifact
	links      []string
	delays     []time.Duration
	notices    []string
	deliverErr error
}

func (r *recorder) Deliver(_ context.Context, a artifact.Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deliverErr != nil {
		return r.deliverErr
	}
	r.delivered = append(r.delivered, a)
	return nil
}

func (r *recorder) Open(_ context.Context, link string, after time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.links = append(r.links, link)
	r.delays = append(r.delays, after)
	return nil
}

func (r *recorder) Notify(_ context.Context, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, msg)
}

type failingLister struct{ err error }

func (f failingLister) List(context.Context) ([]core.Expense, error) { return nil, f.err }

var fixedNow = time.Date(2025, time.December, 30, 10, 0, 0, 0, time.Local)

func clock() time.Time { return fixedNow }

func seededStore(t *testing.T, inputs ...core.ExpenseInput) *local.Store {
	t.Helper()
	s := local.New(kv.NewMemory())
	for _, in := range inputs {
		_, err := s.Create(context.Background(), in)
		require.NoError(t, err)
	}
	return s
}

func lunch(y int, m time.Month, d int, amount int64) core.ExpenseInput {
	return core.ExpenseInput{
		Date:         core.NewLocalTime(y, m, d, 12, 30, 0),
		Category:     core.CategoryLunch,
		Amount:       amount,
		WorkType:     core.WorkTypeSupervise,
		ProjectName:  "서울역 감리",
		Participants: "김철수, 이영희",
	}
}

func TestExportEmptyPeriodProducesNoArtifact(t *testing.T) {
	s := seededStore(t, lunch(2025, time.October, 1, 9000))
	d, err := NewDispatcher(s, Options{Clock: clock})
	require.NoError(t, err)

	rec := &recorder{}
	res, err := d.Export(context.Background(), report.PeriodCurrent, true, rec)

	assert.ErrorIs(t, err, ErrNoData)
	assert.Nil(t, res)
	assert.Empty(t, rec.delivered)
	assert.Empty(t, rec.links)
	assert.Equal(t, []string{mail.NoticeNoData}, rec.notices)
}

func TestExportDownloadOnly(t *testing.T) {
	s := seededStore(t,
		lunch(2025, time.December, 1, 9000),
		lunch(2025, time.December, 29, 12000),
		lunch(2025, time.November, 29, 5000),
	)
	pub := memory.New()
	d, err := NewDispatcher(s, Options{Clock: clock, Publishers: []sheets.Publisher{pub}})
	require.NoError(t, err)

	rec := &recorder{}
	res, err := d.Export(context.Background(), report.PeriodCurrent, false, rec)
	require.NoError(t, err)

	assert.Equal(t, "법인카드_2025년12월_내역.xlsx", res.Filename)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, int64(21000), res.Total)
	assert.Empty(t, res.MailLink)

	require.Len(t, rec.delivered, 1)
	assert.Equal(t, res.Filename, rec.delivered[0].Name)
	assert.True(t, strings.HasPrefix(string(rec.delivered[0].Data), "PK"), "xlsx is a zip container")
	assert.Empty(t, rec.links)
	assert.Equal(t, []string{mail.NoticeDownloaded}, rec.notices)

	table, ok := pub.Sheet("2025년12월_내역")
	require.True(t, ok)
	assert.Len(t, table, 3)
}

func TestExportWithMail(t *testing.T) {
	s := seededStore(t, lunch(2025, time.November, 3, 8000))
	d, err := NewDispatcher(s, Options{
		Clock:         clock,
		ApproverEmail: "approver@example.com",
		Format:        report.FormatCSV,
	})
	require.NoError(t, err)

	rec := &recorder{}
	res, err := d.Export(context.Background(), report.PeriodPrevious, true, rec)
	require.NoError(t, err)

	assert.Equal(t, "법인카드_2025년11월_내역.csv", res.Filename)
	require.Len(t, rec.links, 1)
	assert.Equal(t, res.MailLink, rec.links[0])
	assert.Equal(t, []time.Duration{DefaultMailDelay}, rec.delays)
	assert.Equal(t, []string{mail.NoticeAttachReminder}, rec.notices)

	u, err := url.Parse(res.MailLink)
	require.NoError(t, err)
	assert.Equal(t, "mailto", u.Scheme)
	assert.Equal(t, "approver@example.com", u.Opaque)
	assert.Equal(t, "법인카드 사용내역 송부 (2025년11월_내역)", u.Query().Get("subject"))
	assert.Contains(t, u.Query().Get("body"), "법인카드_2025년11월_내역.csv")
}

func TestExportMailDelayOff(t *testing.T) {
	s := seededStore(t, lunch(2025, time.November, 3, 8000))
	d, err := NewDispatcher(s, Options{Clock: clock, ApproverEmail: "approver@example.com", MailDelay: NoDelay})
	require.NoError(t, err)

	rec := &recorder{}
	_, err = d.Export(context.Background(), report.PeriodPrevious, true, rec)
	require.NoError(t, err)
	assert.Equal(t, []time.Duration{0}, rec.delays)
}

func TestExportLogsOperationFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	s := seededStore(t, lunch(2025, time.December, 3, 8000))
	d, err := NewDispatcher(s, Options{Clock: clock, Format: report.FormatCSV, Logger: logger})
	require.NoError(t, err)

	_, err = d.Export(context.Background(), report.PeriodCurrent, false, &recorder{})
	require.NoError(t, err)

	out := buf.String()
	for _, want := range []string{"operation=export", "period=current", "format=csv", "count=1", "total=8000", "filename="} {
		assert.Contains(t, out, want)
	}
}

func TestExportPublisherFailureIsNotFatal(t *testing.T) {
	s := seededStore(t, lunch(2025, time.December, 2, 1000))
	pub := memory.New()
	pub.Fail(errors.New("sheets quota exceeded"))
	d, err := NewDispatcher(s, Options{Clock: clock, Publishers: []sheets.Publisher{pub}})
	require.NoError(t, err)

	rec := &recorder{}
	_, err = d.Export(context.Background(), report.PeriodAll, false, rec)
	require.NoError(t, err)
	assert.Len(t, rec.delivered, 1)
}

func TestExportFailuresAreSurfaced(t *testing.T) {
	boom := errors.New("disk full")

	t.Run("list", func(t *testing.T) {
		d, err := NewDispatcher(failingLister{err: boom}, Options{Clock: clock})
		require.NoError(t, err)
		rec := &recorder{}
		_, err = d.Export(context.Background(), report.PeriodAll, false, rec)
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, []string{mail.NoticeExportFailed}, rec.notices)
	})

	t.Run("deliver", func(t *testing.T) {
		d, err := NewDispatcher(seededStore(t, lunch(2025, time.December, 2, 1000)), Options{Clock: clock})
		require.NoError(t, err)
		rec := &recorder{deliverErr: boom}
		_, err = d.Export(context.Background(), report.PeriodAll, true, rec)
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, rec.links, "no mail draft without a file")
		assert.Equal(t, []string{mail.NoticeExportFailed}, rec.notices)
	})
}

func TestNewDispatcherRejectsUnknownFormat(t *testing.T) {
	_, err := NewDispatcher(seededStore(t), Options{Format: "pdf"})
	assert.ErrorIs(t, err, report.ErrUnknownFormat)
}

func TestFilenames(t *testing.T) {
	assert.Equal(t, "법인카드_전체내역.xlsx", Filename("전체내역", "xlsx"))
	assert.Equal(t, "법인카드내역_2025-12-30.xlsx", LegacyFilename(fixedNow))
	assert.Equal(t, "법인카드_2026년1월_백업.csv", BackupFilename(2026, time.January, "csv"))
}

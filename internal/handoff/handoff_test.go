package handoff

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ggonsajang/comcard/internal/artifact"
)

func TestDirDeliverAndNotify(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	d := NewDir(filepath.Join(t.TempDir(), "exports"), nil, &out, nil)

	require.NoError(t, d.Deliver(ctx, artifact.Artifact{Name: "법인카드_전체내역.csv", Data: []byte("a,b\n")}))
	d.Notify(ctx, "엑셀 파일이 다운로드되었습니다.")

	written := d.Written()
	require.Len(t, written, 1)
	data, err := os.ReadFile(written[0])
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))
	assert.Contains(t, out.String(), "엑셀 파일이 다운로드되었습니다.")
}

func TestDirDeliverStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	d := NewDir(dir, nil, nil, nil)
	require.NoError(t, d.Deliver(context.Background(), artifact.Artifact{Name: "../../escape.csv"}))
	assert.Equal(t, []string{filepath.Join(dir, "escape.csv")}, d.Written())
}

func TestDirOpenWaitsThenOpens(t *testing.T) {
	var opened string
	start := time.Now()
	d := NewDir(t.TempDir(), func(_ context.Context, link string) error {
		opened = link
		return nil
	}, nil, nil)

	require.NoError(t, d.Open(context.Background(), "mailto:a@example.com", 20*time.Millisecond))
	assert.Equal(t, "mailto:a@example.com", opened)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestDirOpenHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	d := NewDir(t.TempDir(), func(context.Context, string) error { called = true; return nil }, nil, nil)

	err := d.Open(ctx, "mailto:a@example.com", time.Hour)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.False(t, called)
}

func TestDirOpenWithoutOpenerPrintsLink(t *testing.T) {
	var out bytes.Buffer
	d := NewDir(t.TempDir(), nil, &out, nil)
	require.NoError(t, d.Open(context.Background(), "https://mail.google.com/mail/?view=cm", 0))
	assert.Equal(t, "https://mail.google.com/mail/?view=cm\n", out.String())
}

func TestPlan(t *testing.T) {
	ctx := context.Background()
	store := artifact.NewMemory(4, time.Minute)
	p := NewPlan(store, "/api/exports")

	require.NoError(t, p.Deliver(ctx, artifact.Artifact{Name: "법인카드_전체내역.xlsx", Data: []byte("PK")}))
	require.NoError(t, p.Open(ctx, "mailto:boss@example.com", time.Second))
	p.Notify(ctx, "notice")

	require.Len(t, p.Downloads, 1)
	dl := p.Downloads[0]
	assert.Equal(t, "/api/exports/"+dl.Key, dl.URL)
	assert.Equal(t, int64(1000), p.LinkDelayMs)
	assert.Equal(t, []string{"notice"}, p.Notices)

	got, err := store.Get(ctx, dl.Key)
	require.NoError(t, err)
	assert.Equal(t, []byte("PK"), got.Data)
}

package artifact

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(name string) Artifact {
	return Artifact{
		Name:        name,
		ContentType: "text/csv; charset=utf-8",
		Data:        []byte("\xEF\xBB\xBF결제일자,사용 구분\n"),
		CreatedAt:   time.Date(2025, 12, 29, 13, 0, 0, 0, time.UTC),
	}
}

func TestMemoryPutGet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(4, time.Minute)
	defer m.Close()

	key, err := m.Put(ctx, sample("법인카드_전체내역.csv"))
	require.NoError(t, err)
	require.NotEmpty(t, key)

	got, err := m.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, sample("법인카드_전체내역.csv"), got)

	_, err = m.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 12, 29, 13, 0, 0, 0, time.UTC)
	m := NewMemory(4, time.Minute)
	m.now = func() time.Time { return now }

	a, err := m.Put(ctx, sample("a"))
	require.NoError(t, err)
	now = now.Add(30 * time.Second)
	b, err := m.Put(ctx, sample("b"))
	require.NoError(t, err)

	now = now.Add(45 * time.Second)
	_, err = m.Get(ctx, a)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, b)
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, m.CleanExpired())
	assert.Equal(t, 0, m.Len())
}

func TestMemoryEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	m := NewMemory(2, time.Hour)

	a, _ := m.Put(ctx, sample("a"))
	b, _ := m.Put(ctx, sample("b"))
	_, err := m.Get(ctx, a)
	require.NoError(t, err)
	_, _ = m.Put(ctx, sample("c"))

	_, err = m.Get(ctx, b)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = m.Get(ctx, a)
	assert.NoError(t, err)
	assert.Equal(t, 2, m.Len())
}

func TestMemoryCleanupLoop(t *testing.T) {
	m := NewMemory(2, time.Nanosecond)
	_, _ = m.Put(context.Background(), sample("a"))
	m.StartCleanup(5 * time.Millisecond)

	require.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())
}

func TestRedisPutGet(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	r := NewRedis(client, "comcard:", time.Minute)
	key, err := r.Put(ctx, sample("법인카드_2025년12월_내역.xlsx"))
	require.NoError(t, err)
	assert.True(t, mr.Exists("comcard:artifact:"+key))

	got, err := r.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, sample("법인카드_2025년12월_내역.xlsx").Data, got.Data)
	assert.Equal(t, "법인카드_2025년12월_내역.xlsx", got.Name)
	assert.True(t, got.CreatedAt.Equal(sample("").CreatedAt))

	mr.FastForward(2 * time.Minute)
	_, err = r.Get(ctx, key)
	assert.True(t, errors.Is(err, ErrNotFound))
}

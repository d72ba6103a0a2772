package artifact

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process LRU store with a per-entry TTL. When full, the
// least recently used artifact is evicted.
type Memory struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
	now     func() time.Time
	newKey  func() string

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

type memoryEntry struct {
	key       string
	artifact  Artifact
	expiresAt time.Time
}

var _ Store = (*Memory)(nil)

func NewMemory(maxSize int, ttl time.Duration) *Memory {
	if maxSize < 1 {
		maxSize = 1
	}
	return &Memory{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
		now:     time.Now,
		newKey:  uuid.NewString,
	}
}

func (m *Memory) Put(_ context.Context, a Artifact) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	key := m.newKey()
	m.items[key] = m.lru.PushFront(&memoryEntry{key: key, artifact: a, expiresAt: now.Add(m.ttl)})

	for m.lru.Len() > m.maxSize {
		m.remove(m.lru.Back())
	}
	return key, nil
}

func (m *Memory) Get(_ context.Context, key string) (Artifact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	elem, ok := m.items[key]
	if !ok {
		return Artifact{}, ErrNotFound
	}
	entry := elem.Value.(*memoryEntry)
	if m.now().After(entry.expiresAt) {
		m.remove(elem)
		return Artifact{}, ErrNotFound
	}
	m.lru.MoveToFront(elem)
	return entry.artifact, nil
}

func (m *Memory) remove(elem *list.Element) {
	entry := elem.Value.(*memoryEntry)
	delete(m.items, entry.key)
	m.lru.Remove(elem)
}

// CleanExpired drops expired artifacts and returns how many were removed.
func (m *Memory) CleanExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for elem := m.lru.Front(); elem != nil; {
		next := elem.Next()
		if now.After(elem.Value.(*memoryEntry).expiresAt) {
			m.remove(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// Len returns the number of stored artifacts, expired ones included.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// StartCleanup runs CleanExpired every interval until Close is called.
func (m *Memory) StartCleanup(interval time.Duration) {
	m.mu.Lock()
	if m.stopCleanup != nil {
		m.mu.Unlock()
		return
	}
	m.stopCleanup = make(chan struct{})
	m.cleanupDone = make(chan struct{})
	stop, done := m.stopCleanup, m.cleanupDone
	m.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				m.CleanExpired()
			case <-stop:
				return
			}
		}
	}()
}

// Close stops the cleanup goroutine, if any.
func (m *Memory) Close() error {
	m.mu.Lock()
	stop, done := m.stopCleanup, m.cleanupDone
	m.stopCleanup = nil
	m.mu.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	return nil
}

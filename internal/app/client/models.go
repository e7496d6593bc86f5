package client

import (
	"sort"
	"sync"

	"voicedrop/internal/app/client/playback"
)

// Storage is the offline inbox cache.
type Storage interface {
	SaveInbox(owner string, items []playback.Item) error
	LoadInbox(owner string) ([]playback.Item, error)
	Close() error
}

// MemoryStorage is used when the sqlite cache cannot be opened.
type MemoryStorage struct {
	mu    sync.Mutex
	inbox map[string][]playback.Item
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{inbox: make(map[string][]playback.Item)}
}

func (m *MemoryStorage) SaveInbox(owner string, items []playback.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inbox[owner] = append([]playback.Item(nil), items...)
	return nil
}

func (m *MemoryStorage) LoadInbox(owner string) ([]playback.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := append([]playback.Item(nil), m.inbox[owner]...)
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].ID > items[j].ID
		}
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	return items, nil
}

func (m *MemoryStorage) Close() error {
	return nil
}

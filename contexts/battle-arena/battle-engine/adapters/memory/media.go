package memory

import (
	"context"
	"io"
	"strings"
	"sync"

	"reelrivals/contexts/battle-arena/battle-engine/ports"
)

// MediaStore keeps uploaded bytes in memory and serves URLs under BaseURL.
type MediaStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

var _ ports.MediaStore = (*MediaStore)(nil)

func NewMediaStore(baseURL string) *MediaStore {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = "memory://media"
	}
	return &MediaStore{
		objects: make(map[string][]byte),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (m *MediaStore) Store(ctx context.Context, object ports.MediaObject) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := io.ReadAll(object.Body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.objects[object.Key] = data
	m.mu.Unlock()
	return m.baseURL + "/" + object.Key, nil
}

func (m *MediaStore) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}

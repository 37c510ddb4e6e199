package cache

import (
	"context"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Memory is the embedded cache backend built on ristretto.
type Memory struct {
	c *ristretto.Cache
}

// NewMemory creates an in-memory TTL cache sized for the stock catalog.
func NewMemory() (*Memory, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     1 << 26, // 64MB
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Memory{c: c}, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := m.c.Get(key)
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.c.SetWithTTL(key, value, int64(len(value)), ttl)
	// Ristretto admits writes asynchronously; wait so a read-after-write in
	// the same request sees the entry.
	m.c.Wait()
	return nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.c.Del(key)
	return nil
}

func (m *Memory) Close() error {
	m.c.Close()
	return nil
}

var _ Cache = (*Memory)(nil)

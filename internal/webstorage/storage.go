// Package webstorage is a small key/value store with the shape of the
// browser's localStorage: string keys, string values, whole-value writes.
package webstorage

import (
	"context"
	"errors"
	"sync"
	"unicode/utf16"
)

var ErrQuotaExceeded = errors.New("webstorage: quota exceeded")

// Storage は GetItem / SetItem のみ。キーが無い場合は ok=false。
type Storage interface {
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	SetItem(ctx context.Context, key, value string) error
}

// Memory is a process-local Storage.
type Memory struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

func (m *Memory) GetItem(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok, nil
}

func (m *Memory) SetItem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

type quota struct {
	Storage
	max int
}

// WithQuota rejects writes whose key plus value exceed max UTF-16 code units,
// the unit browsers count localStorage quota in. max <= 0 disables the check.
func WithQuota(s Storage, max int) Storage {
	if max <= 0 {
		return s
	}
	return &quota{Storage: s, max: max}
}

func (q *quota) SetItem(ctx context.Context, key, value string) error {
	if UTF16Len(key)+UTF16Len(value) > q.max {
		return ErrQuotaExceeded
	}
	return q.Storage.SetItem(ctx, key, value)
}

// UTF16Len counts UTF-16 code units of s.
func UTF16Len(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		}
	}
	return n
}

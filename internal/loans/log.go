package loans

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"biblioteca-backend/internal/webstorage"
)

var (
	ErrStorageRead  = errors.New("loan log: storage read failed")
	ErrStorageWrite = errors.New("loan log: storage write failed")
	ErrCorrupt      = errors.New("loan log: stored value is not a loan list")
)

// Log is the persisted, append-only LoanLog: a JSON array under one key.
type Log struct {
	store webstorage.Storage
	key   string
}

func NewLog(store webstorage.Storage, key string) *Log {
	if key == "" {
		key = StorageKey
	}
	return &Log{store: store, key: key}
}

func (l *Log) Key() string { return l.key }

// Read returns the stored records. The slice is never nil: a missing key
// reads as empty, and a failed or undecodable read also yields an empty
// slice together with an error wrapping ErrStorageRead or ErrCorrupt.
func (l *Log) Read(ctx context.Context) ([]Record, error) {
	raw, ok, err := l.store.GetItem(ctx, l.key)
	if err != nil {
		return []Record{}, fmt.Errorf("%w: %w", ErrStorageRead, err)
	}
	if !ok || len(bytes.TrimSpace([]byte(raw))) == 0 {
		return []Record{}, nil
	}

	var out []Record
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return []Record{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if out == nil { // "null"
		out = []Record{}
	}
	return out, nil
}

// Append reads the log, appends rec and writes it back. A corrupt value is
// replaced by a list holding only rec. When the backend read itself fails
// nothing is written (0, ErrStorageRead) so the stored history survives.
// Otherwise it returns the length written and the joined read/write errors.
func (l *Log) Append(ctx context.Context, rec Record) (int, error) {
	list, readErr := l.Read(ctx)
	if errors.Is(readErr, ErrStorageRead) {
		return 0, readErr
	}
	list = append(list, rec)

	buf, err := json.Marshal(list)
	if err != nil {
		return len(list), errors.Join(readErr, fmt.Errorf("%w: %w", ErrStorageWrite, err))
	}
	if err := l.store.SetItem(ctx, l.key, string(buf)); err != nil {
		return len(list), errors.Join(readErr, fmt.Errorf("%w: %w", ErrStorageWrite, err))
	}
	return len(list), readErr
}

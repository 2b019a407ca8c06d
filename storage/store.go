package storage

import (
	"context"
	"io"
)

type PutResult struct {
	Key      string
	Location string
	ETag     string
}

// ObjectStore keeps immutable artifacts such as archived standings snapshots.
type ObjectStore interface {
	Put(ctx context.Context, key string, contentType string, body io.Reader) (*PutResult, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// Noop is used when no bucket is configured.
type Noop struct{}

func (Noop) Put(_ context.Context, key string, _ string, _ io.Reader) (*PutResult, error) {
	return &PutResult{Key: key}, nil
}

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) PublicURL(string) string { return "" }

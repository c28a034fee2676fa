// Package storage is the object store behind report photo uploads.
package storage

import (
	"context"
	"io"
)

// PutObjectOptions describe an upload. Size is the exact byte count, or -1
// when unknown so the backend streams in parts.
type PutObjectOptions struct {
	Size         int64
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// ObjectInfo is what the store reports back after a Put.
type ObjectInfo struct {
	Key         string
	Size        int64
	ETag        string
	ContentType string
}

// Storage is an S3-compatible object store whose objects are publicly readable by URL.
type Storage interface {
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	Delete(ctx context.Context, key string) error
	// URL returns the durable public URL of an object.
	URL(key string) string
}

// Package blobstore stores and serves binary image payloads behind a small
// interface so the backend (local disk, S3, in-memory) stays pluggable.
package blobstore

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Store stores, deletes and addresses image blobs. Put returns the stable
// public URL for the stored key.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewFromEnv creates a Store implementation based on the BLOB_STORE env
// var: "filesystem" (default), "s3" or "memory".
func NewFromEnv(ctx context.Context) (Store, error) {
	switch os.Getenv("BLOB_STORE") {
	case "", "filesystem":
		dir := os.Getenv("BLOB_DIR")
		if dir == "" {
			dir = "static/menupics"
		}
		return NewFileSystemStore(dir, publicBaseURL())
	case "s3":
		bucket := os.Getenv("S3_BUCKET")
		if bucket == "" {
			return nil, fmt.Errorf("s3 blob store requires S3_BUCKET to be set")
		}
		return NewS3Store(ctx, bucket, os.Getenv("S3_REGION"))
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown blob store type: %s", os.Getenv("BLOB_STORE"))
	}
}

func publicBaseURL() string {
	if v := os.Getenv("PUBLIC_BASE_URL"); v != "" {
		return v
	}
	return "http://localhost:4000"
}

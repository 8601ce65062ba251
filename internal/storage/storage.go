package storage

import (
	"context"
	"io"
	"time"

	"archiveapi/internal/model"
)

// Package storage contains the object storage gateway abstraction for
// S3-compatible backends. Implementations must avoid local disk and rely on
// streaming I/O only.

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; if unknown, set to -1 and
// the implementation will buffer/chunk as supported by the backend.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is a reusable, S3-compatible object storage gateway. It is safe for
// concurrent use; one client is opened per process lifetime.
//
// The multipart methods implement the three-phase direct-to-storage protocol:
// a session is opened with CreateMultipartUpload, the client uploads each part
// itself against URLs minted by PresignPart, and the object is assembled
// server-side by CompleteMultipartUpload. The backend validates ETags and part
// ordering during assembly; an incomplete or mismatched part set must be
// rejected there.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that can be used to download the object without credentials.
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)

	// CreateMultipartUpload opens a multipart session for key and returns the
	// backend's opaque upload ID.
	CreateMultipartUpload(ctx context.Context, key string) (string, error)
	// PresignPart returns a time-limited URL for uploading one part of the
	// session directly to storage.
	PresignPart(ctx context.Context, key, uploadID string, partNumber int, expiry time.Duration) (string, error)
	// CompleteMultipartUpload assembles the object from the client-supplied
	// part list and returns info about the assembled object.
	CompleteMultipartUpload(ctx context.Context, key, uploadID string, parts []model.Part) (ObjectInfo, error)
	// AbortMultipartUpload releases backend resources held by an unfinished
	// session.
	AbortMultipartUpload(ctx context.Context, key, uploadID string) error
}

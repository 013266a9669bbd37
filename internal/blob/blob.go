// Package blob provides a thin object-storage abstraction used for
// snapshot backups. Filesystem is the default driver; S3 covers hosted
// deployments and memory backs tests.
package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"
)

// Driver identifies a concrete blob backend implementation.
type Driver string

const (
	DriverFilesystem Driver = "fs"     // local filesystem (default)
	DriverS3         Driver = "s3"     // S3 / MinIO compatible
	DriverMemory     Driver = "memory" // in-memory (tests)
)

// Info describes a stored blob.
type Info struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size_bytes"`
	ContentType  string    `json:"content_type,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store is the surface the transfer layer writes backups through.
// Put fails when the key already exists; backup keys embed timestamps
// so collisions indicate a caller bug rather than a retry.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Open selects a Store implementation using environment variables.
//
//	BOXSHIP_BLOB_DRIVER: fs|s3|memory (default fs)
//	BOXSHIP_BLOB_FS_ROOT: directory root when driver=fs (default ./boxship_backups)
//	(S3 specific variables documented in s3.go)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("BOXSHIP_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("BOXSHIP_BLOB_FS_ROOT")
		return NewFilesystem(root)
	case DriverS3:
		return OpenS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

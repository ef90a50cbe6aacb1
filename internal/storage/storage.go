// Package storage reads objects from S3-compatible object stores.
package storage

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"time"
)

// Scheme prefixes object URLs understood by ParseObjectURL.
const Scheme = "s3"

var ErrInvalidObjectURL = errors.New("storage: object url must look like s3://bucket/key")

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Bucket       string
	Key          string
	Size         int64
	ETag         string
	LastModified time.Time
}

// Storage is a read-only view of an S3-compatible store.
type Storage interface {
	// Get retrieves an object's content as a streaming reader alongside its info.
	// The caller closes the reader.
	Get(ctx context.Context, bucket, key string) (io.ReadCloser, ObjectInfo, error)
}

// IsObjectURL reports whether src uses the s3:// scheme.
func IsObjectURL(src string) bool {
	return strings.HasPrefix(src, Scheme+"://")
}

// ParseObjectURL splits s3://bucket/path/to/key into bucket and key.
func ParseObjectURL(src string) (bucket, key string, err error) {
	u, err := url.Parse(src)
	if err != nil || u.Scheme != Scheme {
		return "", "", ErrInvalidObjectURL
	}
	key = strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return "", "", ErrInvalidObjectURL
	}
	return u.Host, key, nil
}

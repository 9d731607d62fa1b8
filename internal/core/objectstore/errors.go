package objectstore

import "errors"

var (
	// ErrBucketRequired is returned when no bucket name is configured
	ErrBucketRequired = errors.New("bucket name is required")

	// ErrInvalidFile is returned when an upload or delete has no usable key
	ErrInvalidFile = errors.New("file has no usable object key")
)

package signedurl

import "errors"

var (
	// ErrEmptyReference is returned when no file reference was supplied.
	ErrEmptyReference = errors.New("file reference is required")

	// ErrInvalidReference is returned when no storage key can be extracted from a reference.
	ErrInvalidReference = errors.New("could not extract file key from reference")

	// ErrPresignFailed is returned when the object storage provider fails to presign a URL.
	ErrPresignFailed = errors.New("failed to generate signed URL")

	// ErrNilDependency is returned when a required dependency is nil.
	ErrNilDependency = errors.New("required dependency is nil")
)

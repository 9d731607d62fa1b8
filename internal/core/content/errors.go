package content

import "errors"

var (
	// ErrNotFound indicates the requested record doesn't exist
	ErrNotFound = errors.New("record not found")

	// ErrInvalidID indicates a missing or malformed record identifier
	ErrInvalidID = errors.New("record ID is required")
)

// IsNotFound checks if an error is a not-found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

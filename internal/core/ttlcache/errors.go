package ttlcache

import "errors"

// ErrInvalidTTL is returned when the provided TTL is not positive
var ErrInvalidTTL = errors.New("invalid TTL: must be positive")

package signedurl

import (
	"net/url"
	"strings"
)

// ExtractKey normalizes a stored file reference into an object key.
//
// The storage layer hands out either bare keys ("foo.png", "/foo.png") or full
// URLs ("https://host/bucket/foo.png") depending on which code path produced the
// reference. References without an http(s) scheme are treated as paths and lose
// a single leading slash. URLs are parsed, lose the leading slash of their path
// and, when the path starts with "<bucket>/", that segment too. A URL that fails
// to parse is treated as a bare key.
//
// For bare keys, single-slash paths and http(s) URLs, feeding the output back in
// returns the same key. A reference with several leading slashes loses one per call.
func ExtractKey(reference, bucket string) string {
	if reference == "" {
		return ""
	}

	if !strings.HasPrefix(reference, "http://") && !strings.HasPrefix(reference, "https://") {
		return strings.TrimPrefix(reference, "/")
	}

	u, err := url.Parse(reference)
	if err != nil {
		return strings.TrimPrefix(reference, "/")
	}

	key := strings.TrimPrefix(u.Path, "/")
	if bucket != "" && strings.HasPrefix(key, bucket+"/") {
		key = key[len(bucket)+1:]
	}

	return key
}

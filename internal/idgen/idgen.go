// Package idgen generates short, URL-safe request identifiers backed by nanoid.
package idgen

import (
	"fmt"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// RequestPrefix is prepended to every request ID.
const RequestPrefix = "req-"

// alphabet is the character set of the random portion.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// length is the number of random characters, excluding the prefix.
const length = 12

// RequestID returns a new identifier for an inbound HTTP request.
func RequestID() (string, error) {
	id, err := nanoid.Generate(alphabet, length)
	if err != nil {
		return "", fmt.Errorf("idgen: %w", err)
	}
	return RequestPrefix + id, nil
}

// MustRequestID is RequestID for callers that cannot handle an error; it
// falls back to the bare prefix, which still groups log lines by request.
func MustRequestID() string {
	id, err := RequestID()
	if err != nil {
		return RequestPrefix + "unknown"
	}
	return id
}

package tool

import (
	"strings"

	"github.com/google/uuid"
)

// NewID returns a time-ordered UUIDv7 string for primary keys.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewTraceID returns a random UUIDv4 string for request correlation.
func NewTraceID() string {
	return uuid.NewString()
}

// JoinKey joins non-empty parts with ":" after trimming them. Used to build
// idempotency and cache keys.
func JoinKey(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ":")
}

package models

import (
	"fmt"
	"strings"
)

// KeyPrefix represents the type of admission key.
type KeyPrefix string

const (
	KeyPrefixWindow    KeyPrefix = "rate_limit"
	KeyPrefixViolation KeyPrefix = "violations"
)

// AdmissionKey is a value object encapsulating quota key construction.
// It centralizes key format and sanitization so user-controlled identities
// containing ':' cannot collide with adjacent buckets.
type AdmissionKey struct {
	prefix   KeyPrefix
	identity string
	action   Action // empty for violation keys
}

// NewWindowKey creates the sliding-window key for (identity, action).
func NewWindowKey(identity string, action Action) AdmissionKey {
	return AdmissionKey{
		prefix:   KeyPrefixWindow,
		identity: sanitizeKeySegment(identity),
		action:   action,
	}
}

// NewViolationKey creates the violation-counter key for an identity.
// Violations are tracked per identity across actions, so one abusive
// caller cannot reset the penalty clock by switching endpoints.
func NewViolationKey(identity string) AdmissionKey {
	return AdmissionKey{
		prefix:   KeyPrefixViolation,
		identity: sanitizeKeySegment(identity),
	}
}

// String returns the formatted key for storage lookup.
func (k AdmissionKey) String() string {
	if k.action == "" {
		return fmt.Sprintf("%s:%s", k.prefix, k.identity)
	}
	return fmt.Sprintf("%s:%s:%s", k.prefix, k.action, k.identity)
}

// sanitizeKeySegment escapes delimiter characters in key segments.
//
// Escape rules (order matters):
//  1. Escape '_' to '__' (escape the escape character first)
//  2. Escape ':' to '_c' (escape the delimiter)
//
// No two distinct inputs produce the same sanitized output, preventing
// key collision attacks.
func sanitizeKeySegment(s string) string {
	s = strings.ReplaceAll(s, "_", "__")
	s = strings.ReplaceAll(s, ":", "_c")
	return s
}

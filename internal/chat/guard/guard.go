// Package guard sanitizes raw user input before it reaches any prompt.
package guard

import (
	"strings"

	apperrors "ledger-assistant/internal/common/errors"
)

// MaxMessageLength is the cap applied to every incoming message, in runes.
const MaxMessageLength = 500

// Patterns that indicate an attempt to override the system prompt.
// Matched case-insensitively against the whole message.
var injectionPatterns = []string{
	"ignore previous instructions",
	"ignore all previous",
	"disregard the above",
	"you are now",
	"act as",
	"system:",
	"new instructions:",
}

// Sanitize trims and truncates the message, then rejects it when it
// matches a known prompt-injection pattern. Callers absorb the error into
// the safe default classification; it is never user-visible.
func Sanitize(raw string) (string, error) {
	msg := strings.TrimSpace(raw)

	if runes := []rune(msg); len(runes) > MaxMessageLength {
		msg = string(runes[:MaxMessageLength])
	}

	lowered := strings.ToLower(msg)
	for _, pattern := range injectionPatterns {
		if strings.Contains(lowered, pattern) {
			return "", apperrors.NewInvalidInputError("message matches injection pattern: " + pattern)
		}
	}

	return msg, nil
}

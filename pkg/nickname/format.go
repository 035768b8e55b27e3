// Package nickname builds the standardized "<First Name> | <University>"
// display nicknames and validates the raw input they are built from.
package nickname

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxNicknameLength is Discord's limit for guild nicknames, in characters.
	MaxNicknameLength = 32

	// Separator joins the name and the institution.
	Separator = " | "

	MinNameLength        = 2
	MaxNameLength        = 29
	MinInstitutionLength = 3
	MaxInstitutionLength = 15
)

// Format trims both inputs and joins them as "<name> | <institution>",
// truncating the name from the end so the result fits in MaxNicknameLength.
// The institution is never truncated; when it alone leaves no room the name
// is dropped entirely. Callers are expected to run Validate first.
func Format(name, institution string) string {
	name = strings.TrimSpace(name)
	institution = strings.TrimSpace(institution)

	limit := MaxNicknameLength - utf8.RuneCountInString(Separator) - utf8.RuneCountInString(institution)
	return truncateRunes(name, limit) + Separator + institution
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}

// ValidationError reports input that cannot be turned into a nickname.
// Message is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Validate checks the invariants Format relies on. Raw length bounds are
// enforced by Discord on the form and on command options; this only looks
// at the trimmed values.
func Validate(name, institution string) error {
	name = strings.TrimSpace(name)
	institution = strings.TrimSpace(institution)

	if name == "" {
		return &ValidationError{Field: "name", Message: "Please enter your first name."}
	}
	if institution == "" {
		return &ValidationError{Field: "university", Message: "Please enter your university."}
	}
	if n := utf8.RuneCountInString(institution); n > MaxInstitutionLength {
		return &ValidationError{
			Field:   "university",
			Message: fmt.Sprintf("University must be at most %d characters (got %d).", MaxInstitutionLength, n),
		}
	}
	return nil
}

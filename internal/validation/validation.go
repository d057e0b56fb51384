package validation

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperengineering/questboard/internal/types"
)

// MaxNoteLength bounds the note text accepted for an activity record.
const MaxNoteLength = 10000

// ValidationError represents a single field validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements error.
func (e ValidationError) Error() string {
	return e.Field + " " + e.Message
}

// Collector accumulates validation errors without failing on first.
type Collector struct {
	errors []ValidationError
}

// Add appends a validation error to the collector if non-nil.
func (c *Collector) Add(err *ValidationError) {
	if err != nil {
		c.errors = append(c.errors, *err)
	}
}

// HasErrors returns true if the collector has accumulated any errors.
func (c *Collector) HasErrors() bool {
	return len(c.errors) > 0
}

// Errors returns all accumulated validation errors.
func (c *Collector) Errors() []ValidationError {
	return c.errors
}

// ValidateMaxLength returns an error if the value exceeds max runes.
func ValidateMaxLength(field, value string, max int) *ValidationError {
	if utf8.RuneCountInString(value) > max {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("exceeds maximum length of %d characters", max),
		}
	}
	return nil
}

// ValidateRequired returns an error if the value is empty or whitespace-only.
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: "is required",
		}
	}
	return nil
}

// ValidateStatus returns an error unless status is Active or Inactive.
func ValidateStatus(field string, status types.PlayerStatus) *ValidationError {
	if !status.Valid() {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("must be one of: %s, %s", types.StatusActive, types.StatusInactive),
		}
	}
	return nil
}

// ValidateRecordID rejects ids that cannot be used as a single URL path
// segment. Empty values are left to ValidateRequired.
func ValidateRecordID(field, value string) *ValidationError {
	for _, r := range value {
		if r == '/' || r == '?' || r == '#' || r == '%' || unicode.IsSpace(r) || unicode.IsControl(r) {
			return &ValidationError{
				Field:   field,
				Message: "must be a record identifier",
			}
		}
	}
	return nil
}

// ValidateVerifyRequest checks a players-verify body.
func ValidateVerifyRequest(req types.VerifyRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("playerId", req.PlayerID))
	c.Add(ValidateRecordID("playerId", req.PlayerID))
	c.Add(ValidateRequired("password", req.Password))
	return c.Errors()
}

// ValidateUpdateStatusRequest checks a players-update body. Missing fields
// are reported before an unknown status.
func ValidateUpdateStatusRequest(req types.UpdateStatusRequest) []ValidationError {
	var c Collector
	c.Add(ValidateRequired("playerId", req.PlayerID))
	c.Add(ValidateRecordID("playerId", req.PlayerID))
	c.Add(ValidateRequired("desiredStatus", string(req.DesiredStatus)))
	c.Add(ValidateRequired("password", req.Password))
	if !c.HasErrors() {
		c.Add(ValidateStatus("desiredStatus", req.DesiredStatus))
	}
	return c.Errors()
}

// ValidateActivityEvent checks an activity body. Every field is optional;
// only the note length is enforced.
func ValidateActivityEvent(ev types.ActivityEvent) []ValidationError {
	var c Collector
	if ev.Note != nil {
		c.Add(ValidateMaxLength("note", *ev.Note, MaxNoteLength))
	}
	return c.Errors()
}

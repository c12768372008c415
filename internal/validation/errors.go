// Package validation centralises input checks for every entry point that accepts emails or profile URLs.
package validation

import "fmt"

// Error is an input validation failure. Message is safe to show to the caller verbatim.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

// Messages returned to callers. The candidate form matches on these strings.
const (
	MsgMissingRequired      = "Missing required fields"
	MsgTokenRequired        = "Token is required"
	MsgProfileRequired      = "At least one professional profile is required"
	MsgInvalidLinkedIn      = "Invalid LinkedIn URL format"
	MsgInvalidStackOverflow = "Invalid Stack Overflow URL format"
	MsgInvalidPortfolio     = "Invalid portfolio URL format"
	MsgInvalidAdditional    = "Invalid additional profile URL format"
)

package enums

import "fmt"

// ResponseStatus tracks the delivery state of a generated reply.
// Legal transitions: pending -> sent, pending -> edited,
// pending -> needs_attention (outbound delivery failed).
type ResponseStatus string

const (
	ResponseStatusPending        ResponseStatus = "pending"
	ResponseStatusSent           ResponseStatus = "sent"
	ResponseStatusEdited         ResponseStatus = "edited"
	ResponseStatusNeedsAttention ResponseStatus = "needs_attention"
)

var validResponseStatuses = []ResponseStatus{
	ResponseStatusPending,
	ResponseStatusSent,
	ResponseStatusEdited,
	ResponseStatusNeedsAttention,
}

// String implements fmt.Stringer.
func (r ResponseStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is known.
func (r ResponseStatus) IsValid() bool {
	for _, candidate := range validResponseStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// ParseResponseStatus converts raw input into a ResponseStatus.
func ParseResponseStatus(value string) (ResponseStatus, error) {
	for _, candidate := range validResponseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid response status %q", value)
}

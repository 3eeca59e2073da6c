package enums

import "fmt"

// SenderType distinguishes who authored a message.
type SenderType string

const (
	SenderTypeCustomer SenderType = "customer"
	SenderTypeUser     SenderType = "user"
	SenderTypeAI       SenderType = "ai"
)

var validSenderTypes = []SenderType{
	SenderTypeCustomer,
	SenderTypeUser,
	SenderTypeAI,
}

// String implements fmt.Stringer.
func (s SenderType) String() string {
	return string(s)
}

// IsValid reports whether the value is known.
func (s SenderType) IsValid() bool {
	for _, candidate := range validSenderTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSenderType converts raw input into a SenderType.
func ParseSenderType(value string) (SenderType, error) {
	for _, candidate := range validSenderTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sender type %q", value)
}

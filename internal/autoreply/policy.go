package autoreply

import "github.com/angelmondragon/dmpilot-backend/pkg/enums"

// PolicyInput is everything the gate needs, already loaded by the caller.
type PolicyInput struct {
	ConversationAutoReply bool
	SubscriptionAllows    bool
	QuotaExceeded         bool
}

// Decision is the outcome of the auto-reply gate. A denial is a normal
// outcome: the customer message is already persisted, we just stay silent.
type Decision struct {
	Allowed bool
	Reason  enums.DenyReason
}

// EvaluatePolicy applies the deny checks in a fixed order so the reported
// reason is stable when several apply at once: the per-conversation switch
// first, then subscription standing, then quota.
func EvaluatePolicy(input PolicyInput) Decision {
	if !input.ConversationAutoReply {
		return Decision{Reason: enums.DenyReasonAutoReplyDisabled}
	}
	if !input.SubscriptionAllows {
		return Decision{Reason: enums.DenyReasonSubscriptionInactive}
	}
	if input.QuotaExceeded {
		return Decision{Reason: enums.DenyReasonQuotaExceeded}
	}
	return Decision{Allowed: true}
}

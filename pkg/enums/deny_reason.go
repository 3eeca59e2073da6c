package enums

// DenyReason explains why the auto-reply policy refused to generate a reply.
// A denial is a normal outcome, never an error.
type DenyReason string

const (
	DenyReasonAutoReplyDisabled    DenyReason = "auto_reply_disabled"
	DenyReasonSubscriptionInactive DenyReason = "subscription_inactive"
	DenyReasonQuotaExceeded        DenyReason = "quota_exceeded"
)

// String implements fmt.Stringer.
func (d DenyReason) String() string {
	return string(d)
}

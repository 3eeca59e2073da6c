package autoreply

import (
	"regexp"
	"strings"
)

const (
	minReplyLen = 10
	maxReplyLen = 500

	validThreshold = 50
)

type bannedPattern struct {
	label string
	re    *regexp.Regexp
}

// bannedPatterns catch content that must never go out to a customer,
// whatever the tone: model self-reference, unfilled template placeholders,
// outcome guarantees, profanity, hard-sell pressure and requests for
// credentials or payment data.
var bannedPatterns = []bannedPattern{
	{"ai self-reference", regexp.MustCompile(`(?i)\bas an ai\b|\blanguage model\b`)},
	{"template placeholder", regexp.MustCompile(`(?i)\[(name|customer|insert|product)[^\]]*\]`)},
	{"guaranteed results", regexp.MustCompile(`(?i)\bguaranteed?\b.{0,30}\b(results?|weight ?loss|income|gains)\b`)},
	{"profanity", regexp.MustCompile(`(?i)\b(fuck\w*|shit\w*|bitch\w*|asshole|bastard)\b`)},
	{"hard-sell pressure", regexp.MustCompile(`(?i)\b(act now|buy now|limited[- ]time offer|don'?t miss out|last chance|once[- ]in[- ]a[- ]lifetime)\b`)},
	{"credential request", regexp.MustCompile(`(?i)\b(password|credit card|card number|cvv|social security)\b`)},
}

var secondPersonRe = regexp.MustCompile(`(?i)\b(you|your|you're|yours)\b`)

// Validation scores a generated reply. Issues mark disqualifying findings;
// the score also degrades for soft signals like never addressing the
// customer directly.
type Validation struct {
	Score  int
	Issues []string
}

// IsValid reports whether the reply can be sent as-is.
func (v Validation) IsValid() bool {
	return len(v.Issues) == 0 && v.Score >= validThreshold
}

// ValidateReply scores reply content starting from 100.
func ValidateReply(content string) Validation {
	v := Validation{Score: 100}
	trimmed := strings.TrimSpace(content)

	if len(trimmed) < minReplyLen {
		v.Score -= 30
		v.Issues = append(v.Issues, "reply too short")
	}
	if len(trimmed) > maxReplyLen {
		v.Score -= 20
		v.Issues = append(v.Issues, "reply too long")
	}
	for _, pattern := range bannedPatterns {
		if pattern.re.MatchString(trimmed) {
			v.Score -= 25
			v.Issues = append(v.Issues, "banned content: "+pattern.label)
		}
	}
	if !secondPersonRe.MatchString(trimmed) {
		v.Score -= 10
	}
	if v.Score < 0 {
		v.Score = 0
	}
	return v
}

// truncateReply cuts content to the reply limit at a word boundary.
func truncateReply(content string) string {
	if len(content) <= maxReplyLen {
		return content
	}
	cut := content[:maxReplyLen]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimRight(cut, " ,;:-")
}

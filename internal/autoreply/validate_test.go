package autoreply

import (
	"strings"
	"testing"
)

func TestValidateReplyCleanContent(t *testing.T) {
	v := ValidateReply("Thanks for reaching out! I'd love to help you pick the right program.")
	if !v.IsValid() {
		t.Fatalf("clean reply should be valid: %+v", v)
	}
	if v.Score != 100 {
		t.Fatalf("score = %d, want 100", v.Score)
	}
}

func TestValidateReplyTooShort(t *testing.T) {
	v := ValidateReply("ok")
	if v.IsValid() {
		t.Fatalf("short reply must be invalid")
	}
	if v.Score != 60 {
		// -30 short, -10 no second person
		t.Fatalf("score = %d, want 60", v.Score)
	}
}

func TestValidateReplyTooLong(t *testing.T) {
	v := ValidateReply("you " + strings.Repeat("word ", 120))
	if v.IsValid() {
		t.Fatalf("overlong reply must be invalid")
	}
	if v.Score != 80 {
		t.Fatalf("score = %d, want 80", v.Score)
	}
}

func TestValidateReplyBannedContent(t *testing.T) {
	cases := map[string]string{
		"ai self-reference":    "As an AI, I think your plan looks great and you should continue.",
		"template placeholder": "Hi [name], thanks so much for your message about the program!",
		"guaranteed results":   "You will see guaranteed results in two weeks with your plan!",
		"profanity":            "Honestly this shit works and you should just try the program.",
		"hard-sell pressure":   "Act now! This offer won't be waiting around for you next week.",
		"credential request":   "Can you send me your credit card so I can set up your account?",
	}
	for label, content := range cases {
		v := ValidateReply(content)
		if v.IsValid() {
			t.Errorf("%s: reply must be invalid", label)
		}
		if len(v.Issues) == 0 {
			t.Errorf("%s: expected an issue", label)
		}
	}
}

func TestValidateReplyMissingSecondPersonOnlyDegrades(t *testing.T) {
	v := ValidateReply("The program starts Monday and spots are still open.")
	if !v.IsValid() {
		t.Fatalf("missing second person alone must not invalidate: %+v", v)
	}
	if v.Score != 90 {
		t.Fatalf("score = %d, want 90", v.Score)
	}
}

func TestValidateReplyStackedIssuesFloorAtZero(t *testing.T) {
	v := ValidateReply("[name] as an AI I can guarantee results with your credit card " + strings.Repeat("x", 500))
	if v.Score < 0 {
		t.Fatalf("score must not go negative: %d", v.Score)
	}
	if v.IsValid() {
		t.Fatalf("reply with stacked issues must be invalid")
	}
}

func TestTruncateReplyWordBoundary(t *testing.T) {
	long := strings.Repeat("hello there ", 60)
	got := truncateReply(long)
	if len(got) > maxReplyLen {
		t.Fatalf("truncated length = %d, want <= %d", len(got), maxReplyLen)
	}
	if strings.HasSuffix(got, "hel") || strings.HasSuffix(got, "ther") {
		t.Fatalf("truncation must not cut mid-word: %q", got[len(got)-10:])
	}
}

func TestTruncateReplyShortContentUntouched(t *testing.T) {
	content := "short and sweet"
	if got := truncateReply(content); got != content {
		t.Fatalf("short content must pass through, got %q", got)
	}
}

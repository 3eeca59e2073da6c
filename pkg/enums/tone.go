package enums

import "fmt"

// Tone selects the AI persona applied to generated replies.
type Tone string

const (
	ToneFriendly             Tone = "friendly"
	ToneProfessional         Tone = "professional"
	ToneCasual               Tone = "casual"
	ToneGirlfriendExperience Tone = "girlfriend_experience"
)

var validTones = []Tone{
	ToneFriendly,
	ToneProfessional,
	ToneCasual,
	ToneGirlfriendExperience,
}

// Tones returns every known tone.
func Tones() []Tone {
	return append([]Tone(nil), validTones...)
}

// String implements fmt.Stringer.
func (t Tone) String() string {
	return string(t)
}

// IsValid reports whether the value is known.
func (t Tone) IsValid() bool {
	for _, candidate := range validTones {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTone converts raw input into a Tone.
func ParseTone(value string) (Tone, error) {
	for _, candidate := range validTones {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid tone %q", value)
}

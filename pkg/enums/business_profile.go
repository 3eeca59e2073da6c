package enums

import "fmt"

// BusinessProfile frames generated replies for a vertical.
type BusinessProfile string

const (
	BusinessProfileFitlifeCoaching BusinessProfile = "fitlife_coaching"
	BusinessProfileOnlyfansModel   BusinessProfile = "onlyfans_model"
	BusinessProfileProductSales    BusinessProfile = "product_sales"
)

var validBusinessProfiles = []BusinessProfile{
	BusinessProfileFitlifeCoaching,
	BusinessProfileOnlyfansModel,
	BusinessProfileProductSales,
}

// BusinessProfiles returns every known profile.
func BusinessProfiles() []BusinessProfile {
	return append([]BusinessProfile(nil), validBusinessProfiles...)
}

// String implements fmt.Stringer.
func (b BusinessProfile) String() string {
	return string(b)
}

// IsValid reports whether the value is known.
func (b BusinessProfile) IsValid() bool {
	for _, candidate := range validBusinessProfiles {
		if candidate == b {
			return true
		}
	}
	return false
}

// ParseBusinessProfile converts raw input into a BusinessProfile.
func ParseBusinessProfile(value string) (BusinessProfile, error) {
	for _, candidate := range validBusinessProfiles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid business profile %q", value)
}

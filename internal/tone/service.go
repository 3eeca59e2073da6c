package tone

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/dmpilot-backend/pkg/errors"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

const maxCustomInstructionsLen = 1000

// Profile is the resolved persona replies are generated with. It is always
// internally consistent: either the account's full saved configuration or the
// full default, never a mix of the two.
type Profile struct {
	Tone               enums.Tone            `json:"tone"`
	BusinessProfile    enums.BusinessProfile `json:"business_profile"`
	CustomInstructions string                `json:"custom_instructions,omitempty"`
	IsDefault          bool                  `json:"is_default"`
}

// DefaultProfile is what accounts reply with before saving any configuration.
func DefaultProfile() Profile {
	return Profile{
		Tone:            enums.ToneFriendly,
		BusinessProfile: enums.BusinessProfileFitlifeCoaching,
		IsDefault:       true,
	}
}

// SaveParams carries a full replacement configuration.
type SaveParams struct {
	AccountID          uuid.UUID
	Tone               enums.Tone
	BusinessProfile    enums.BusinessProfile
	CustomInstructions string
}

// Service manages per-account reply personas.
type Service interface {
	Resolve(ctx context.Context, accountID uuid.UUID) Profile
	Get(ctx context.Context, accountID uuid.UUID) (Profile, error)
	Save(ctx context.Context, params SaveParams) (Profile, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires tone dependencies.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tone repository required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "tone logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

// Resolve never fails: a missing, unreadable or corrupt configuration falls
// back to the complete default so reply generation is not blocked on settings.
func (s *service) Resolve(ctx context.Context, accountID uuid.UUID) Profile {
	if accountID == uuid.Nil {
		return DefaultProfile()
	}

	config, err := s.repo.Get(ctx, accountID)
	if err != nil {
		s.logg.Error(s.logg.WithAccountID(ctx, accountID.String()), "load tone configuration", err)
		return DefaultProfile()
	}
	if config == nil {
		return DefaultProfile()
	}
	if !config.Tone.IsValid() || !config.BusinessProfile.IsValid() {
		s.logg.Warn(s.logg.WithAccountID(ctx, accountID.String()), "stored tone configuration has unknown values, using defaults")
		return DefaultProfile()
	}

	profile := Profile{
		Tone:            config.Tone,
		BusinessProfile: config.BusinessProfile,
	}
	if config.CustomInstructions != nil {
		profile.CustomInstructions = *config.CustomInstructions
	}
	return profile
}

func (s *service) Get(ctx context.Context, accountID uuid.UUID) (Profile, error) {
	if accountID == uuid.Nil {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}

	config, err := s.repo.Get(ctx, accountID)
	if err != nil {
		return Profile{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load tone configuration")
	}
	if config == nil || !config.Tone.IsValid() || !config.BusinessProfile.IsValid() {
		return DefaultProfile(), nil
	}

	profile := Profile{
		Tone:            config.Tone,
		BusinessProfile: config.BusinessProfile,
	}
	if config.CustomInstructions != nil {
		profile.CustomInstructions = *config.CustomInstructions
	}
	return profile, nil
}

// Save replaces the whole configuration in one write.
func (s *service) Save(ctx context.Context, params SaveParams) (Profile, error) {
	if params.AccountID == uuid.Nil {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "account id required")
	}
	if !params.Tone.IsValid() {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown tone").WithDetails(params.Tone.String())
	}
	if !params.BusinessProfile.IsValid() {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown business profile").WithDetails(params.BusinessProfile.String())
	}

	instructions := strings.TrimSpace(params.CustomInstructions)
	if len(instructions) > maxCustomInstructionsLen {
		return Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "custom instructions too long")
	}

	config := &models.ToneConfiguration{
		AccountID:       params.AccountID,
		Tone:            params.Tone,
		BusinessProfile: params.BusinessProfile,
	}
	if instructions != "" {
		config.CustomInstructions = &instructions
	}

	if err := s.repo.Upsert(ctx, config); err != nil {
		return Profile{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save tone configuration")
	}

	return Profile{
		Tone:               params.Tone,
		BusinessProfile:    params.BusinessProfile,
		CustomInstructions: instructions,
	}, nil
}

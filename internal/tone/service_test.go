package tone

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/enums"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type stubRepo struct {
	config    *models.ToneConfiguration
	getErr    error
	upserted  *models.ToneConfiguration
	upsertErr error
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Get(ctx context.Context, accountID uuid.UUID) (*models.ToneConfiguration, error) {
	return s.config, s.getErr
}

func (s *stubRepo) Upsert(ctx context.Context, config *models.ToneConfiguration) error {
	s.upserted = config
	return s.upsertErr
}

func newTestService(t *testing.T, repo Repository) Service {
	t.Helper()
	svc, err := NewService(repo, logger.New(logger.Options{Level: zerolog.ErrorLevel}))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestResolveMissingConfigUsesFullDefault(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	profile := svc.Resolve(context.Background(), uuid.New())
	if profile.Tone != enums.ToneFriendly || profile.BusinessProfile != enums.BusinessProfileFitlifeCoaching {
		t.Fatalf("default profile = %+v", profile)
	}
	if !profile.IsDefault {
		t.Fatalf("missing config must report default")
	}
}

func TestResolveRepoErrorFallsBackToDefault(t *testing.T) {
	svc := newTestService(t, &stubRepo{getErr: errors.New("db down")})

	profile := svc.Resolve(context.Background(), uuid.New())
	if !profile.IsDefault {
		t.Fatalf("repo error must fall back to default, got %+v", profile)
	}
}

func TestResolveCorruptConfigNeverMixes(t *testing.T) {
	custom := "always mention the discount code"
	svc := newTestService(t, &stubRepo{config: &models.ToneConfiguration{
		AccountID:          uuid.New(),
		Tone:               enums.Tone("sarcastic"),
		BusinessProfile:    enums.BusinessProfileProductSales,
		CustomInstructions: &custom,
	}})

	profile := svc.Resolve(context.Background(), uuid.New())
	if !profile.IsDefault {
		t.Fatalf("corrupt config must resolve to the complete default")
	}
	if profile.CustomInstructions != "" {
		t.Fatalf("default profile must not keep stored custom instructions")
	}
}

func TestResolveStoredConfig(t *testing.T) {
	custom := "keep replies short"
	svc := newTestService(t, &stubRepo{config: &models.ToneConfiguration{
		AccountID:          uuid.New(),
		Tone:               enums.ToneProfessional,
		BusinessProfile:    enums.BusinessProfileProductSales,
		CustomInstructions: &custom,
	}})

	profile := svc.Resolve(context.Background(), uuid.New())
	if profile.Tone != enums.ToneProfessional {
		t.Fatalf("tone = %s, want professional", profile.Tone)
	}
	if profile.CustomInstructions != custom {
		t.Fatalf("custom instructions = %q", profile.CustomInstructions)
	}
	if profile.IsDefault {
		t.Fatalf("stored config must not report default")
	}
}

func TestSaveValidatesEnums(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	_, err := svc.Save(context.Background(), SaveParams{
		AccountID:       uuid.New(),
		Tone:            enums.Tone("shouty"),
		BusinessProfile: enums.BusinessProfileProductSales,
	})
	if err == nil {
		t.Fatalf("expected validation error for unknown tone")
	}

	_, err = svc.Save(context.Background(), SaveParams{
		AccountID:       uuid.New(),
		Tone:            enums.ToneCasual,
		BusinessProfile: enums.BusinessProfile("bakery"),
	})
	if err == nil {
		t.Fatalf("expected validation error for unknown business profile")
	}
}

func TestSaveRejectsOversizedInstructions(t *testing.T) {
	svc := newTestService(t, &stubRepo{})

	_, err := svc.Save(context.Background(), SaveParams{
		AccountID:          uuid.New(),
		Tone:               enums.ToneCasual,
		BusinessProfile:    enums.BusinessProfileProductSales,
		CustomInstructions: strings.Repeat("x", maxCustomInstructionsLen+1),
	})
	if err == nil {
		t.Fatalf("expected validation error for oversized instructions")
	}
}

func TestSaveUpsertsTrimmedInstructions(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	accountID := uuid.New()
	profile, err := svc.Save(context.Background(), SaveParams{
		AccountID:          accountID,
		Tone:               enums.ToneGirlfriendExperience,
		BusinessProfile:    enums.BusinessProfileOnlyfansModel,
		CustomInstructions: "  use pet names sparingly  ",
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if repo.upserted == nil || repo.upserted.AccountID != accountID {
		t.Fatalf("upsert not called with account row")
	}
	if repo.upserted.CustomInstructions == nil || *repo.upserted.CustomInstructions != "use pet names sparingly" {
		t.Fatalf("instructions not trimmed: %+v", repo.upserted.CustomInstructions)
	}
	if profile.Tone != enums.ToneGirlfriendExperience {
		t.Fatalf("returned profile tone = %s", profile.Tone)
	}
}

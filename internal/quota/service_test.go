package quota

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/angelmondragon/dmpilot-backend/pkg/db/models"
	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type stubRepo struct {
	counter    *models.UsageCounter
	recorded   []int
	recordResp bool
	email      string
	emailErr   error
	accountIDs []uuid.UUID
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) GetOrCreate(ctx context.Context, accountID uuid.UUID, periodStart time.Time, defaultLimit int) (*models.UsageCounter, error) {
	if s.counter == nil {
		s.counter = &models.UsageCounter{
			ID:          uuid.New(),
			AccountID:   accountID,
			PeriodStart: periodStart,
			QuotaLimit:  defaultLimit,
		}
	}
	return s.counter, nil
}

func (s *stubRepo) Increment(ctx context.Context, accountID uuid.UUID, periodStart time.Time, defaultLimit int) (*models.UsageCounter, error) {
	if _, err := s.GetOrCreate(ctx, accountID, periodStart, defaultLimit); err != nil {
		return nil, err
	}
	s.counter.CurrentUsage++
	return s.counter, nil
}

func (s *stubRepo) RecordWarning(ctx context.Context, counterID uuid.UUID, threshold int) (bool, error) {
	s.recorded = append(s.recorded, threshold)
	if s.recordResp {
		s.counter.WarningsSent = append(s.counter.WarningsSent, int64(threshold))
	}
	return s.recordResp, nil
}

func (s *stubRepo) AccountEmail(ctx context.Context, accountID uuid.UUID) (string, error) {
	return s.email, s.emailErr
}

func (s *stubRepo) AccountIDs(ctx context.Context) ([]uuid.UUID, error) {
	return s.accountIDs, nil
}

type stubNotifier struct {
	sent []int
	err  error
}

func (s *stubNotifier) SendQuotaWarning(ctx context.Context, email string, percentage, current, limit int) error {
	s.sent = append(s.sent, percentage)
	return s.err
}

func newTestService(t *testing.T, repo *stubRepo, notifier *stubNotifier) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:                 repo,
		Notifier:             notifier,
		Logger:               logger.New(logger.Options{Level: zerolog.ErrorLevel}),
		DefaultLimit:         500,
		NotificationsEnabled: notifier != nil,
		Now:                  func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestPeriodStartTruncatesToMonth(t *testing.T) {
	at := time.Date(2025, 6, 15, 23, 45, 0, 0, time.FixedZone("CST", -6*3600))
	got := PeriodStart(at)
	want := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("period start = %v, want %v", got, want)
	}
}

func TestGetUsageCreatesCounterWithDefaultLimit(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo, nil)

	usage, err := svc.GetUsage(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if usage.QuotaLimit != 500 {
		t.Fatalf("quota limit = %d, want 500", usage.QuotaLimit)
	}
	if usage.CurrentUsage != 0 || usage.Percentage != 0 || usage.Exceeded {
		t.Fatalf("fresh usage should be empty: %+v", usage)
	}
	if usage.Remaining != 500 {
		t.Fatalf("remaining = %d, want 500", usage.Remaining)
	}
}

func TestConsumeReportsRoundTrip(t *testing.T) {
	repo := &stubRepo{counter: &models.UsageCounter{
		ID:           uuid.New(),
		AccountID:    uuid.New(),
		CurrentUsage: 10,
		QuotaLimit:   500,
	}}
	svc := newTestService(t, repo, nil)

	usage, err := svc.Consume(context.Background(), repo.counter.AccountID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if usage.CurrentUsage != 11 || usage.QuotaLimit != 500 {
		t.Fatalf("usage = %d/%d, want 11/500", usage.CurrentUsage, usage.QuotaLimit)
	}
	if usage.Percentage != 2 {
		t.Fatalf("percentage = %d, want 2", usage.Percentage)
	}
}

func TestGetUsagePercentageRoundsHalfUp(t *testing.T) {
	repo := &stubRepo{counter: &models.UsageCounter{
		ID:           uuid.New(),
		AccountID:    uuid.New(),
		CurrentUsage: 749,
		QuotaLimit:   1000,
	}}
	svc := newTestService(t, repo, nil)

	usage, err := svc.GetUsage(context.Background(), repo.counter.AccountID)
	if err != nil {
		t.Fatalf("get usage: %v", err)
	}
	if usage.Percentage != 75 {
		t.Fatalf("percentage = %d, want 75", usage.Percentage)
	}
}

func TestConsumeNotifiesHighestNewThresholdOnly(t *testing.T) {
	// 459/500 -> 460/500 = 92%: crosses 75, 85 and 90 at once, only 90 fires.
	repo := &stubRepo{
		counter: &models.UsageCounter{
			ID:           uuid.New(),
			AccountID:    uuid.New(),
			CurrentUsage: 459,
			QuotaLimit:   500,
		},
		recordResp: true,
		email:      "owner@example.com",
	}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, notifier)

	if _, err := svc.Consume(context.Background(), repo.counter.AccountID); err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(notifier.sent) != 1 || notifier.sent[0] != 90 {
		t.Fatalf("notified thresholds = %v, want [90]", notifier.sent)
	}
	if len(repo.recorded) != 1 || repo.recorded[0] != 90 {
		t.Fatalf("recorded thresholds = %v, want [90]", repo.recorded)
	}
}

func TestConsumeSkipsAlreadyRecordedThresholds(t *testing.T) {
	repo := &stubRepo{
		counter: &models.UsageCounter{
			ID:           uuid.New(),
			AccountID:    uuid.New(),
			CurrentUsage: 459,
			QuotaLimit:   500,
			WarningsSent: pq.Int64Array{75, 85, 90},
		},
		recordResp: true,
		email:      "owner@example.com",
	}
	notifier := &stubNotifier{}
	svc := newTestService(t, repo, notifier)

	if _, err := svc.Consume(context.Background(), repo.counter.AccountID); err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(notifier.sent) != 0 {
		t.Fatalf("no thresholds should fire, got %v", notifier.sent)
	}
}

func TestConsumeNotifierFailureDoesNotFailConsume(t *testing.T) {
	repo := &stubRepo{
		counter: &models.UsageCounter{
			ID:           uuid.New(),
			AccountID:    uuid.New(),
			CurrentUsage: 374,
			QuotaLimit:   500,
		},
		recordResp: true,
		email:      "owner@example.com",
	}
	notifier := &stubNotifier{err: context.DeadlineExceeded}
	svc := newTestService(t, repo, notifier)

	usage, err := svc.Consume(context.Background(), repo.counter.AccountID)
	if err != nil {
		t.Fatalf("consume should not fail on notifier error: %v", err)
	}
	if usage.CurrentUsage != 375 {
		t.Fatalf("current usage = %d, want 375", usage.CurrentUsage)
	}
}

func TestConsumeMarksExceededAtLimit(t *testing.T) {
	repo := &stubRepo{
		counter: &models.UsageCounter{
			ID:           uuid.New(),
			AccountID:    uuid.New(),
			CurrentUsage: 499,
			QuotaLimit:   500,
			WarningsSent: pq.Int64Array{75, 85, 90, 95},
		},
	}
	svc := newTestService(t, repo, nil)

	usage, err := svc.Consume(context.Background(), repo.counter.AccountID)
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if !usage.Exceeded {
		t.Fatalf("usage at limit must report exceeded")
	}
	if usage.Remaining != 0 {
		t.Fatalf("remaining = %d, want 0", usage.Remaining)
	}
}

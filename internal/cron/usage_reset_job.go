package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

type usageQuotaService interface {
	AccountIDs(ctx context.Context) ([]uuid.UUID, error)
	EnsureCurrentPeriod(ctx context.Context, accountID uuid.UUID) error
}

// UsageResetJobParams configure the period rollover job.
type UsageResetJobParams struct {
	Logger *logger.Logger
	Quota  usageQuotaService
}

// NewUsageResetJob builds the job that rolls usage counters into the current
// billing period. Counters are per-period rows, so "resetting" means making
// sure every account has a fresh zero row once the month ticks over.
func NewUsageResetJob(params UsageResetJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Quota == nil {
		return nil, fmt.Errorf("quota service required")
	}
	return &usageResetJob{
		logg:  params.Logger,
		quota: params.Quota,
	}, nil
}

type usageResetJob struct {
	logg  *logger.Logger
	quota usageQuotaService
}

func (j *usageResetJob) Name() string { return "usage-reset" }

func (j *usageResetJob) Run(ctx context.Context) error {
	accountIDs, err := j.quota.AccountIDs(ctx)
	if err != nil {
		return fmt.Errorf("usage reset: %w", err)
	}

	failures := 0
	for _, accountID := range accountIDs {
		if err := j.quota.EnsureCurrentPeriod(ctx, accountID); err != nil {
			failures++
			j.logg.Error(j.logg.WithAccountID(ctx, accountID.String()), "ensure usage period", err)
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"accounts": len(accountIDs),
		"failures": failures,
	})
	j.logg.Info(logCtx, "usage period rollover complete")

	if failures > 0 {
		return fmt.Errorf("usage reset: %d of %d accounts failed", failures, len(accountIDs))
	}
	return nil
}

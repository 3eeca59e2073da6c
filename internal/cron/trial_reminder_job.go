package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/dmpilot-backend/pkg/logger"
)

const defaultReminderWindowDays = 3

type trialReminderService interface {
	SendExpiryReminders(ctx context.Context, withinDays int) (int, error)
}

// TrialReminderJobParams configure the trial expiry reminder job.
type TrialReminderJobParams struct {
	Logger     *logger.Logger
	Trials     trialReminderService
	WindowDays int
}

// NewTrialReminderJob builds the job that emails accounts whose trial is
// about to expire.
func NewTrialReminderJob(params TrialReminderJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Trials == nil {
		return nil, fmt.Errorf("trials service required")
	}
	windowDays := params.WindowDays
	if windowDays <= 0 {
		windowDays = defaultReminderWindowDays
	}
	return &trialReminderJob{
		logg:       params.Logger,
		trials:     params.Trials,
		windowDays: windowDays,
	}, nil
}

type trialReminderJob struct {
	logg       *logger.Logger
	trials     trialReminderService
	windowDays int
}

func (j *trialReminderJob) Name() string { return "trial-reminder" }

func (j *trialReminderJob) Run(ctx context.Context) error {
	sent, err := j.trials.SendExpiryReminders(ctx, j.windowDays)
	if err != nil {
		return fmt.Errorf("trial reminders: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"window_days":    j.windowDays,
		"reminders_sent": sent,
	})
	j.logg.Info(logCtx, "trial reminder sweep complete")
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// UsageCounter tracks AI replies consumed by an account within one billing
// period. CurrentUsage only ever grows inside a period; the period-rollover
// job is the single place that resets it and clears WarningsSent.
type UsageCounter struct {
	ID           uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID    uuid.UUID     `gorm:"column:account_id;type:uuid;not null;index:idx_usage_counters_period,unique"`
	PeriodStart  time.Time     `gorm:"column:period_start;not null;index:idx_usage_counters_period,unique"`
	CurrentUsage int           `gorm:"column:current_usage;not null;default:0"`
	QuotaLimit   int           `gorm:"column:quota_limit;not null"`
	WarningsSent pq.Int64Array `gorm:"column:warnings_sent;type:integer[]"`
	CreatedAt    time.Time     `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time     `gorm:"column:updated_at;autoUpdateTime"`
}

// WarningRecorded reports whether the given threshold was already notified
// this period.
func (u *UsageCounter) WarningRecorded(threshold int) bool {
	for _, sent := range u.WarningsSent {
		if int(sent) == threshold {
			return true
		}
	}
	return false
}

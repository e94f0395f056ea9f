package models

import (
	"time"

	"github.com/google/uuid"
)

// MetricsSnapshot is a versioned record of computed health metrics. Versions
// increase monotonically per user; historical versions are retained so
// acknowledgments can always be matched against the snapshot they referred to.
type MetricsSnapshot struct {
	ID         uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID     uuid.UUID `gorm:"type:varchar(36);not null;index:idx_metrics_user_version,unique,priority:1" json:"user_id"`
	Version    int       `gorm:"not null;index:idx_metrics_user_version,unique,priority:2" json:"version"`
	BMI        float64   `gorm:"not null" json:"bmi"`
	BMR        float64   `gorm:"not null" json:"bmr"`
	TDEE       float64   `gorm:"not null" json:"tdee"`
	ComputedAt time.Time `gorm:"not null" json:"computed_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (MetricsSnapshot) TableName() string {
	return "metrics_snapshots"
}

// MetricsAcknowledgment records that a user reviewed a specific metrics
// version. At most one row per (user, version); AcknowledgedAt is written once
// and never updated.
type MetricsAcknowledgment struct {
	ID             uuid.UUID `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID         uuid.UUID `gorm:"type:varchar(36);not null;index:idx_ack_user_version,unique,priority:1" json:"user_id"`
	Version        int       `gorm:"not null;index:idx_ack_user_version,unique,priority:2" json:"version"`
	AcknowledgedAt time.Time `gorm:"not null" json:"acknowledged_at"`
	CreatedAt      time.Time `json:"created_at"`
}

func (MetricsAcknowledgment) TableName() string {
	return "metrics_acknowledgments"
}

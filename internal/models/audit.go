package models

import (
	"time"

	"gorm.io/gorm"
)

// ProfileChangeAudit records one changed field per row for every profile edit,
// with before/after values and whether the edit triggered target regeneration.
type ProfileChangeAudit struct {
	gorm.Model
	UserID         string    `gorm:"index;not null"`
	Field          string    `gorm:"not null"`
	OldValue       string    `gorm:"type:text"`
	NewValue       string    `gorm:"type:text"`
	TriggeredRegen bool      `gorm:"not null;default:false"`
	CaloriesBefore *float64
	CaloriesAfter  *float64
	ProteinBefore  *float64
	ProteinAfter   *float64
	IPAddress      string    `gorm:"size:45"`
	UserAgent      string    `gorm:"size:255"`
	ChangedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for ProfileChangeAudit
func (ProfileChangeAudit) TableName() string {
	return "profile_change_audits"
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// UserSettings holds the demographic and goal inputs collected during
// onboarding plus the most recently computed nutrition targets. One row per
// user; target fields are rewritten on every successful metrics computation
// or plan generation.
type UserSettings struct {
	ID                  uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID              uuid.UUID  `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	DateOfBirth         *time.Time `json:"date_of_birth"`
	Sex                 string     `gorm:"size:10" json:"sex"`
	HeightCM            *float64   `json:"height_cm"`
	WeightKG            *float64   `json:"weight_kg"`
	TargetWeightKG      *float64   `json:"target_weight_kg"`
	ActivityLevel       string     `gorm:"size:30" json:"activity_level"`
	PrimaryGoal         string     `gorm:"size:30" json:"primary_goal"`
	TargetDate          *time.Time `json:"target_date"`
	DietaryPreferences  string     `gorm:"type:text" json:"dietary_preferences"`
	Allergies           string     `gorm:"type:text" json:"allergies"`
	OnboardingCompleted bool       `gorm:"not null;default:false" json:"onboarding_completed"`

	// Last computed targets.
	BMR            float64 `json:"bmr"`
	TDEE           float64 `json:"tdee"`
	CalorieTarget  float64 `json:"calorie_target"`
	ProteinTargetG float64 `json:"protein_target_g"`
	WaterTargetML  float64 `json:"water_target_ml"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (UserSettings) TableName() string {
	return "user_settings"
}

// Age derives whole years from DateOfBirth as of the given instant.
// Returns 0 when no date of birth is recorded.
func (s *UserSettings) Age(now time.Time) int {
	if s.DateOfBirth == nil {
		return 0
	}
	age := now.Year() - s.DateOfBirth.Year()
	if now.Before(s.DateOfBirth.AddDate(age, 0, 0)) {
		age--
	}
	if age < 0 {
		return 0
	}
	return age
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan statuses.
const (
	PlanStatusActive    = "active"
	PlanStatusCompleted = "completed"
	PlanStatusArchived  = "archived"
)

// Plan is one generated weekly plan. Plans are never mutated after creation;
// superseding targets means inserting a new row. No uniqueness constraint on
// (user_id, start_date): concurrent generation can produce duplicate weeks,
// the freshness check runs before the transaction and is the only guard.
type Plan struct {
	ID          uuid.UUID      `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID      uuid.UUID      `gorm:"type:varchar(36);not null;index" json:"user_id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Status      string         `gorm:"size:20;not null;default:'active'" json:"status"`
	StartDate   time.Time      `gorm:"not null;index" json:"start_date"`
	EndDate     time.Time      `gorm:"not null" json:"end_date"`
	TotalTasks  int            `gorm:"not null;default:0" json:"total_tasks"`
	DoneTasks   int            `gorm:"not null;default:0" json:"done_tasks"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Plan) TableName() string {
	return "plans"
}

// InitialPlanSnapshot captures the weight/goal state at the moment of the most
// recent plan generation or significant recompute. One row per user, upserted.
type InitialPlanSnapshot struct {
	ID                      uuid.UUID  `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID                  uuid.UUID  `gorm:"type:varchar(36);not null;uniqueIndex" json:"user_id"`
	StartWeightKG           float64    `gorm:"not null" json:"start_weight_kg"`
	TargetWeightKG          *float64   `json:"target_weight_kg"`
	WeeklyRateKG            float64    `gorm:"not null" json:"weekly_rate_kg"`
	EstimatedWeeks          *int       `json:"estimated_weeks"`
	ProjectedCompletionDate *time.Time `json:"projected_completion_date"`
	CalorieTarget           float64    `gorm:"not null" json:"calorie_target"`
	ProteinTargetG          float64    `gorm:"not null" json:"protein_target_g"`
	WaterTargetML           float64    `gorm:"not null" json:"water_target_ml"`
	CreatedAt               time.Time  `json:"created_at"`
	UpdatedAt               time.Time  `json:"updated_at"`
}

func (InitialPlanSnapshot) TableName() string {
	return "initial_plan_snapshots"
}

package types

import "time"

// RegisterRequest is the payload for user registration.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for user login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// GeneratePlanRequest is the payload for plan generation.
type GeneratePlanRequest struct {
	ForceRecompute bool `json:"force_recompute"`
}

// AcknowledgeMetricsRequest confirms the user reviewed a metrics snapshot.
// MetricsComputedAt arrives as an ISO-8601 instant; clients may truncate
// sub-second precision, so matching happens at second granularity.
type AcknowledgeMetricsRequest struct {
	Version           int       `json:"version" binding:"required,gt=0"`
	MetricsComputedAt time.Time `json:"metrics_computed_at" binding:"required"`
}

// UpdateProfileRequest carries profile edits; nil fields are left untouched.
type UpdateProfileRequest struct {
	DateOfBirth        *time.Time `json:"date_of_birth"`
	Sex                *string    `json:"sex"`
	HeightCM           *float64   `json:"height_cm"`
	WeightKG           *float64   `json:"weight_kg"`
	TargetWeightKG     *float64   `json:"target_weight_kg"`
	ActivityLevel      *string    `json:"activity_level"`
	PrimaryGoal        *string    `json:"primary_goal"`
	TargetDate         *time.Time `json:"target_date"`
	DietaryPreferences *string    `json:"dietary_preferences"`
	Allergies          *string    `json:"allergies"`
}

package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/habitloop/habitloop-backend/internal/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.UserSettings{},
		&models.MetricsSnapshot{},
		&models.MetricsAcknowledgment{},
		&models.Plan{},
		&models.InitialPlanSnapshot{},
		&models.ProfileChangeAudit{},
	)
	if err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func floatPtr(v float64) *float64 { return &v }

// seedSettings creates a user with a complete, onboarded profile and returns
// the user id.
func seedSettings(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	dob := time.Date(1990, 6, 15, 0, 0, 0, 0, time.UTC)
	settings := models.UserSettings{
		ID:                  uuid.New(),
		UserID:              userID,
		DateOfBirth:         &dob,
		Sex:                 "male",
		HeightCM:            floatPtr(180),
		WeightKG:            floatPtr(80),
		TargetWeightKG:      floatPtr(72),
		ActivityLevel:       "moderately_active",
		PrimaryGoal:         "lose_weight",
		OnboardingCompleted: true,
	}
	if err := db.Create(&settings).Error; err != nil {
		t.Fatalf("Failed to seed settings: %v", err)
	}
	return userID
}

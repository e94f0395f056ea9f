package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/habitloop/habitloop-backend/internal/models"
)

func newPlanService(db *gorm.DB) (*PlanService, *MetricsService) {
	metricsService := NewMetricsService(db, nil)
	return NewPlanService(db, metricsService), metricsService
}

func TestGeneratePlanNoSettings(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newPlanService(db)

	_, err := svc.GeneratePlan(context.Background(), uuid.New(), false)
	assert.ErrorIs(t, err, ErrSettingsNotFound)
}

func TestGeneratePlanOnboardingIncomplete(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newPlanService(db)

	userID := uuid.New()
	settings := models.UserSettings{
		ID:     uuid.New(),
		UserID: userID,
	}
	require.NoError(t, db.Create(&settings).Error)

	_, err := svc.GeneratePlan(context.Background(), userID, false)
	assert.ErrorIs(t, err, ErrOnboardingIncomplete)
}

func TestGeneratePlanCreatesFirstPlan(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newPlanService(db)
	userID := seedSettings(t, db)

	// No snapshot exists yet: the user must not be blocked on
	// acknowledgment.
	result, err := svc.GeneratePlan(context.Background(), userID, false)
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.False(t, result.Recomputed)
	assert.Nil(t, result.PreviousTargets)
	assert.Equal(t, models.PlanStatusActive, result.Plan.Status)
	assert.Equal(t, time.Monday, result.Plan.StartDate.Weekday())
	assert.Equal(t, time.Sunday, result.Plan.EndDate.Weekday())
	assert.Contains(t, result.Plan.Name, "Week of")
	assert.Greater(t, result.Targets.CalorieTarget, 0.0)
	assert.NotEmpty(t, result.WhyItWorks.TDEE)

	// Settings now carry the freshly computed targets.
	var settings models.UserSettings
	require.NoError(t, db.Where("user_id = ?", userID).First(&settings).Error)
	assert.Equal(t, result.Targets.CalorieTarget, settings.CalorieTarget)
	assert.Equal(t, result.Targets.BMR, settings.BMR)

	// Initial plan snapshot was upserted with the same targets.
	var snap models.InitialPlanSnapshot
	require.NoError(t, db.Where("user_id = ?", userID).First(&snap).Error)
	assert.Equal(t, 80.0, snap.StartWeightKG)
	assert.Equal(t, result.Targets.CalorieTarget, snap.CalorieTarget)
	require.NotNil(t, snap.EstimatedWeeks)
	assert.Equal(t, 16, *snap.EstimatedWeeks)
}

func TestGeneratePlanReturnsFreshPlan(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newPlanService(db)
	userID := seedSettings(t, db)

	first, err := svc.GeneratePlan(context.Background(), userID, false)
	require.NoError(t, err)

	second, err := svc.GeneratePlan(context.Background(), userID, false)
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.False(t, second.Recomputed)
	assert.Equal(t, first.Plan.ID, second.Plan.ID)

	var count int64
	require.NoError(t, db.Model(&models.Plan{}).Where("user_id = ?", userID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestGeneratePlanForceCreatesNewPlan(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newPlanService(db)
	userID := seedSettings(t, db)

	first, err := svc.GeneratePlan(context.Background(), userID, false)
	require.NoError(t, err)

	// Stored targets before the forced run are what previousTargets must
	// echo back.
	var before models.UserSettings
	require.NoError(t, db.Where("user_id = ?", userID).First(&before).Error)

	forced, err := svc.GeneratePlan(context.Background(), userID, true)
	require.NoError(t, err)

	assert.True(t, forced.Created)
	assert.True(t, forced.Recomputed)
	assert.NotEqual(t, first.Plan.ID, forced.Plan.ID)
	require.NotNil(t, forced.PreviousTargets)
	assert.Equal(t, before.CalorieTarget, forced.PreviousTargets.CalorieTarget)
	assert.Equal(t, before.ProteinTargetG, forced.PreviousTargets.ProteinTargetG)
	assert.Equal(t, before.BMR, forced.PreviousTargets.BMR)
}

func TestGeneratePlanAcknowledgmentGatePrecedesFreshness(t *testing.T) {
	db := setupTestDB(t)
	svc, metricsService := newPlanService(db)
	userID := seedSettings(t, db)

	first, err := svc.GeneratePlan(context.Background(), userID, false)
	require.NoError(t, err)

	// A snapshot now exists and is unacknowledged. Even though a fresh
	// plan is sitting right there, generation must fail on the gate.
	snapshot, err := metricsService.ComputeAndStore(context.Background(), userID, true)
	require.NoError(t, err)

	_, err = svc.GeneratePlan(context.Background(), userID, false)
	assert.ErrorIs(t, err, ErrMetricsUnacknowledged)

	// Acknowledging unblocks and the fresh plan comes back unchanged.
	_, err = metricsService.Acknowledge(context.Background(), userID, snapshot.Version, snapshot.ComputedAt)
	require.NoError(t, err)

	result, err := svc.GeneratePlan(context.Background(), userID, false)
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, first.Plan.ID, result.Plan.ID)
}

func TestGeneratePlanMissingProfileFields(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newPlanService(db)

	userID := uuid.New()
	settings := models.UserSettings{
		ID:                  uuid.New(),
		UserID:              userID,
		OnboardingCompleted: true,
		// no weight/height
	}
	require.NoError(t, db.Create(&settings).Error)

	_, err := svc.GeneratePlan(context.Background(), userID, false)
	assert.ErrorIs(t, err, ErrMissingProfileFields)
}

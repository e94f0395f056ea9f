package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/habitloop/habitloop-backend/internal/models"
	"github.com/habitloop/habitloop-backend/internal/types"
)

func newProfileService(db *gorm.DB) (*ProfileService, *AuditService) {
	audit := NewAuditService(db)
	return NewProfileService(db, NewRecomputeService(db), audit), audit
}

func strPtr(v string) *string { return &v }

func TestGetSettingsNotFound(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newProfileService(db)

	_, err := svc.GetSettings(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSettingsNotFound)
}

func TestUpdateProfileNoChanges(t *testing.T) {
	db := setupTestDB(t)
	svc, audit := newProfileService(db)
	userID := seedSettings(t, db)

	// Submitting the already-stored weight is a no-op.
	result, err := svc.UpdateProfile(context.Background(), userID, &types.UpdateProfileRequest{
		WeightKG: floatPtr(80),
	}, EditMeta{})
	require.NoError(t, err)
	audit.Flush()

	assert.Nil(t, result.Recompute)

	var count int64
	require.NoError(t, db.Model(&models.ProfileChangeAudit{}).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestUpdateProfileImpactfulChangeRecomputes(t *testing.T) {
	db := setupTestDB(t)
	svc, audit := newProfileService(db)
	userID := seedSettings(t, db)

	// Seeded settings carry zero targets, so any real weight edit clears
	// the significance thresholds.
	result, err := svc.UpdateProfile(context.Background(), userID, &types.UpdateProfileRequest{
		WeightKG: floatPtr(76),
	}, EditMeta{IPAddress: "198.51.100.4", UserAgent: "habitloop-web/1.0"})
	require.NoError(t, err)
	audit.Flush()

	require.NotNil(t, result.Recompute)
	assert.True(t, result.Recompute.Updated)
	require.NotNil(t, result.Settings.WeightKG)
	assert.Equal(t, 76.0, *result.Settings.WeightKG)

	var settings models.UserSettings
	require.NoError(t, db.Where("user_id = ?", userID).First(&settings).Error)
	assert.Greater(t, settings.CalorieTarget, 0.0)
	assert.Equal(t, result.Recompute.CaloriesAfter, settings.CalorieTarget)

	var rows []models.ProfileChangeAudit
	require.NoError(t, db.Where("user_id = ?", userID.String()).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "weight_kg", rows[0].Field)
	assert.Equal(t, "80", rows[0].OldValue)
	assert.Equal(t, "76", rows[0].NewValue)
	assert.True(t, rows[0].TriggeredRegen)
	assert.Equal(t, "198.51.100.4", rows[0].IPAddress)
	require.NotNil(t, rows[0].CaloriesAfter)
	assert.Equal(t, settings.CalorieTarget, *rows[0].CaloriesAfter)
}

func TestUpdateProfilePreferenceChangeSkipsRecompute(t *testing.T) {
	db := setupTestDB(t)
	svc, audit := newProfileService(db)
	userID := seedSettings(t, db)

	result, err := svc.UpdateProfile(context.Background(), userID, &types.UpdateProfileRequest{
		DietaryPreferences: strPtr("vegetarian"),
	}, EditMeta{})
	require.NoError(t, err)
	audit.Flush()

	assert.Nil(t, result.Recompute)

	var row models.ProfileChangeAudit
	require.NoError(t, db.Where("user_id = ?", userID.String()).First(&row).Error)
	assert.Equal(t, "dietary_preferences", row.Field)
	assert.False(t, row.TriggeredRegen)
}

func TestUpdateProfileInsignificantDeltaNoTargetWrite(t *testing.T) {
	db := setupTestDB(t)
	svc, audit := newProfileService(db)
	userID := seedSettings(t, db)

	// Align stored targets with the current computation, then nudge weight
	// by 100 g: calorie delta stays inside 50 kcal and protein inside 10 g.
	expected := expectedTargets(t, db, userID)
	require.NoError(t, db.Model(&models.UserSettings{}).
		Where("user_id = ?", userID).
		Updates(map[string]interface{}{
			"calorie_target":   expected.CalorieTarget,
			"protein_target_g": expected.ProteinTargetG,
		}).Error)

	result, err := svc.UpdateProfile(context.Background(), userID, &types.UpdateProfileRequest{
		WeightKG: floatPtr(79.9),
	}, EditMeta{})
	require.NoError(t, err)
	audit.Flush()

	require.NotNil(t, result.Recompute)
	assert.False(t, result.Recompute.Updated)

	var settings models.UserSettings
	require.NoError(t, db.Where("user_id = ?", userID).First(&settings).Error)
	assert.Equal(t, expected.CalorieTarget, settings.CalorieTarget)

	var row models.ProfileChangeAudit
	require.NoError(t, db.Where("user_id = ?", userID.String()).First(&row).Error)
	assert.False(t, row.TriggeredRegen)
	assert.Nil(t, row.CaloriesBefore)
}

func TestUpdateProfileRejectsInvalidValues(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newProfileService(db)
	userID := seedSettings(t, db)

	cases := []struct {
		name string
		req  types.UpdateProfileRequest
	}{
		{"bad goal", types.UpdateProfileRequest{PrimaryGoal: strPtr("get_swole")}},
		{"bad sex", types.UpdateProfileRequest{Sex: strPtr("other")}},
		{"bad activity", types.UpdateProfileRequest{ActivityLevel: strPtr("couch_potato")}},
		{"non-positive weight", types.UpdateProfileRequest{WeightKG: floatPtr(0)}},
		{"non-positive height", types.UpdateProfileRequest{HeightCM: floatPtr(-180)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UpdateProfile(context.Background(), userID, &tc.req, EditMeta{})
			assert.ErrorIs(t, err, ErrInvalidProfileValue)
		})
	}

	// None of the rejected edits touched the row.
	var settings models.UserSettings
	require.NoError(t, db.Where("user_id = ?", userID).First(&settings).Error)
	assert.Equal(t, "lose_weight", settings.PrimaryGoal)
	assert.Equal(t, "male", settings.Sex)
	assert.Equal(t, "moderately_active", settings.ActivityLevel)
	require.NotNil(t, settings.WeightKG)
	assert.Equal(t, 80.0, *settings.WeightKG)
}

func TestCompleteOnboarding(t *testing.T) {
	db := setupTestDB(t)
	svc, _ := newProfileService(db)

	userID := uuid.New()
	settings := models.UserSettings{ID: uuid.New(), UserID: userID}
	require.NoError(t, db.Create(&settings).Error)

	require.NoError(t, svc.CompleteOnboarding(context.Background(), userID))

	var got models.UserSettings
	require.NoError(t, db.Where("user_id = ?", userID).First(&got).Error)
	assert.True(t, got.OnboardingCompleted)

	assert.ErrorIs(t, svc.CompleteOnboarding(context.Background(), uuid.New()), ErrSettingsNotFound)
}

package service

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/habitloop/habitloop-backend/internal/models"
)

func TestAuditRecordWritesRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(db)
	userID := uuid.New()

	svc.Record(userID, []FieldChange{
		{Field: "weight_kg", OldValue: "80", NewValue: "78"},
		{Field: "activity_level", OldValue: "moderately_active", NewValue: "very_active"},
	}, AuditMeta{
		IPAddress:      "203.0.113.7",
		UserAgent:      "habitloop-ios/2.4",
		TriggeredRegen: true,
		CaloriesBefore: floatPtr(2151.4),
		CaloriesAfter:  floatPtr(2034.9),
		ProteinBefore:  floatPtr(128.0),
		ProteinAfter:   floatPtr(124.8),
	})
	svc.Flush()

	var rows []models.ProfileChangeAudit
	require.NoError(t, db.Where("user_id = ?", userID.String()).Order("field").Find(&rows).Error)
	require.Len(t, rows, 2)

	assert.Equal(t, "activity_level", rows[0].Field)
	assert.Equal(t, "weight_kg", rows[1].Field)
	assert.Equal(t, "80", rows[1].OldValue)
	assert.Equal(t, "78", rows[1].NewValue)
	assert.True(t, rows[1].TriggeredRegen)
	assert.Equal(t, "203.0.113.7", rows[1].IPAddress)
	require.NotNil(t, rows[1].CaloriesBefore)
	assert.Equal(t, 2151.4, *rows[1].CaloriesBefore)
}

func TestAuditRecordOmitsTargetsWithoutRegen(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(db)
	userID := uuid.New()

	svc.Record(userID, []FieldChange{
		{Field: "preferred_units", OldValue: "metric", NewValue: "imperial"},
	}, AuditMeta{
		TriggeredRegen: false,
		CaloriesBefore: floatPtr(2151.4),
		CaloriesAfter:  floatPtr(2034.9),
	})
	svc.Flush()

	var row models.ProfileChangeAudit
	require.NoError(t, db.Where("user_id = ?", userID.String()).First(&row).Error)
	assert.False(t, row.TriggeredRegen)
	assert.Nil(t, row.CaloriesBefore)
	assert.Nil(t, row.CaloriesAfter)
}

func TestAuditRecordNoChangesNoRows(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(db)
	userID := uuid.New()

	svc.Record(userID, nil, AuditMeta{})
	svc.Flush()

	var count int64
	require.NoError(t, db.Model(&models.ProfileChangeAudit{}).Where("user_id = ?", userID.String()).Count(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestAuditFailureDoesNotPropagate(t *testing.T) {
	db := setupTestDB(t)
	svc := NewAuditService(db)

	// Drop the table out from under the writer: the failure must surface
	// only in the log.
	require.NoError(t, db.Migrator().DropTable(&models.ProfileChangeAudit{}))

	svc.Record(uuid.New(), []FieldChange{
		{Field: "weight_kg", OldValue: "80", NewValue: "78"},
	}, AuditMeta{})

	assert.NotPanics(t, func() { svc.Flush() })
}

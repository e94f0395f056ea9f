package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/habitloop/habitloop-backend/internal/metrics"
	"github.com/habitloop/habitloop-backend/internal/models"
	"github.com/habitloop/habitloop-backend/internal/types"
)

// impactfulFields are the profile fields whose edits can shift nutrition
// targets and therefore feed the recompute evaluator. Preference fields
// (diet, allergies) never do.
var impactfulFields = map[string]bool{
	"weight_kg":        true,
	"target_weight_kg": true,
	"height_cm":        true,
	"primary_goal":     true,
	"activity_level":   true,
}

// ProfileService handles user settings reads and edits, wiring impactful
// changes through the recompute evaluator and recording every edit in the
// audit trail.
type ProfileService struct {
	db        *gorm.DB
	recompute IRecomputeService
	audit     IAuditService
}

// Ensure ProfileService implements IProfileService
var _ IProfileService = (*ProfileService)(nil)

// NewProfileService creates a new ProfileService instance.
func NewProfileService(db *gorm.DB, recompute IRecomputeService, audit IAuditService) *ProfileService {
	return &ProfileService{
		db:        db,
		recompute: recompute,
		audit:     audit,
	}
}

// EditMeta is the request context recorded with profile edits.
type EditMeta struct {
	IPAddress string
	UserAgent string
}

// UpdateResult is the outcome of a profile update.
type UpdateResult struct {
	Settings  *models.UserSettings `json:"settings"`
	Recompute *RecomputeResult     `json:"recompute,omitempty"`
}

// GetSettings retrieves the user's settings row.
func (s *ProfileService) GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error) {
	var settings models.UserSettings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	return &settings, nil
}

// UpdateProfile applies the provided edits, runs the recompute evaluator when
// an impactful field changed, and records the audit trail best-effort.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest, meta EditMeta) (*UpdateResult, error) {
	defer logSlow("profile.UpdateProfile", time.Now())

	if err := validateEdits(req); err != nil {
		return nil, err
	}

	settings, err := s.GetSettings(ctx, userID)
	if err != nil {
		return nil, err
	}

	changes := applyEdits(settings, req)
	if len(changes) == 0 {
		return &UpdateResult{Settings: settings}, nil
	}

	if err := s.db.WithContext(ctx).Save(settings).Error; err != nil {
		return nil, err
	}

	result := &UpdateResult{Settings: settings}
	auditMeta := AuditMeta{IPAddress: meta.IPAddress, UserAgent: meta.UserAgent}

	if hasImpactfulChange(changes) {
		recomputed, err := s.recompute.EvaluateProfileChange(ctx, userID)
		if err != nil {
			// Targets staying stale is preferable to losing the edit.
			log.Printf("recompute after profile edit failed for user %s: %v", userID, err)
		} else {
			result.Recompute = recomputed
			if recomputed.Updated {
				auditMeta.TriggeredRegen = true
				auditMeta.CaloriesBefore = &recomputed.CaloriesBefore
				auditMeta.CaloriesAfter = &recomputed.CaloriesAfter
				auditMeta.ProteinBefore = &recomputed.ProteinBefore
				auditMeta.ProteinAfter = &recomputed.ProteinAfter
			}
		}
	}

	s.audit.Record(userID, changes, auditMeta)

	return result, nil
}

// CompleteOnboarding flips the onboarding flag once the client finishes the
// intake flow.
func (s *ProfileService) CompleteOnboarding(ctx context.Context, userID uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.UserSettings{}).
		Where("user_id = ?", userID).
		Update("onboarding_completed", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrSettingsNotFound
	}
	return nil
}

// validateEdits rejects values that could never compute metrics before
// anything is persisted. A bad enum or non-positive measurement stored now
// would surface later as a misleading missing-fields error on generation.
func validateEdits(req *types.UpdateProfileRequest) error {
	if req.Sex != nil {
		if _, err := metrics.ParseSex(*req.Sex); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProfileValue, err)
		}
	}
	if req.ActivityLevel != nil {
		if _, err := metrics.ParseActivityLevel(*req.ActivityLevel); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProfileValue, err)
		}
	}
	if req.PrimaryGoal != nil {
		if _, err := metrics.ParseGoal(*req.PrimaryGoal); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidProfileValue, err)
		}
	}
	if req.HeightCM != nil && *req.HeightCM <= 0 {
		return fmt.Errorf("%w: height_cm must be positive", ErrInvalidProfileValue)
	}
	if req.WeightKG != nil && *req.WeightKG <= 0 {
		return fmt.Errorf("%w: weight_kg must be positive", ErrInvalidProfileValue)
	}
	if req.TargetWeightKG != nil && *req.TargetWeightKG <= 0 {
		return fmt.Errorf("%w: target_weight_kg must be positive", ErrInvalidProfileValue)
	}
	return nil
}

// applyEdits mutates settings in place and returns one FieldChange per field
// that actually changed value.
func applyEdits(settings *models.UserSettings, req *types.UpdateProfileRequest) []FieldChange {
	var changes []FieldChange

	record := func(field, old, new string) {
		if old != new {
			changes = append(changes, FieldChange{Field: field, OldValue: old, NewValue: new})
		}
	}

	if req.DateOfBirth != nil {
		record("date_of_birth", formatTimePtr(settings.DateOfBirth), formatTimePtr(req.DateOfBirth))
		settings.DateOfBirth = req.DateOfBirth
	}
	if req.Sex != nil {
		record("sex", settings.Sex, *req.Sex)
		settings.Sex = *req.Sex
	}
	if req.HeightCM != nil {
		record("height_cm", formatFloatPtr(settings.HeightCM), formatFloatPtr(req.HeightCM))
		settings.HeightCM = req.HeightCM
	}
	if req.WeightKG != nil {
		record("weight_kg", formatFloatPtr(settings.WeightKG), formatFloatPtr(req.WeightKG))
		settings.WeightKG = req.WeightKG
	}
	if req.TargetWeightKG != nil {
		record("target_weight_kg", formatFloatPtr(settings.TargetWeightKG), formatFloatPtr(req.TargetWeightKG))
		settings.TargetWeightKG = req.TargetWeightKG
	}
	if req.ActivityLevel != nil {
		record("activity_level", settings.ActivityLevel, *req.ActivityLevel)
		settings.ActivityLevel = *req.ActivityLevel
	}
	if req.PrimaryGoal != nil {
		record("primary_goal", settings.PrimaryGoal, *req.PrimaryGoal)
		settings.PrimaryGoal = *req.PrimaryGoal
	}
	if req.TargetDate != nil {
		record("target_date", formatTimePtr(settings.TargetDate), formatTimePtr(req.TargetDate))
		settings.TargetDate = req.TargetDate
	}
	if req.DietaryPreferences != nil {
		record("dietary_preferences", settings.DietaryPreferences, *req.DietaryPreferences)
		settings.DietaryPreferences = *req.DietaryPreferences
	}
	if req.Allergies != nil {
		record("allergies", settings.Allergies, *req.Allergies)
		settings.Allergies = *req.Allergies
	}

	return changes
}

func hasImpactfulChange(changes []FieldChange) bool {
	for _, change := range changes {
		if impactfulFields[change.Field] {
			return true
		}
	}
	return false
}

func formatFloatPtr(v *float64) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%g", *v)
}

func formatTimePtr(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.UTC().Format(time.RFC3339)
}

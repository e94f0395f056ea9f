package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/habitloop/habitloop-backend/internal/metrics"
	"github.com/habitloop/habitloop-backend/internal/models"
)

// Recompute thresholds: a change is significant when the calorie delta
// exceeds 50 kcal or the protein delta exceeds 10 g, strictly greater-than.
const (
	calorieDeltaThreshold = 50.0
	proteinDeltaThreshold = 10.0
)

// RecomputeService re-derives targets after profile edits and applies them
// only when the delta is significant. It never creates a plan row and is not
// gated on acknowledgment; only full plan generation is.
type RecomputeService struct {
	db *gorm.DB
}

// Ensure RecomputeService implements IRecomputeService
var _ IRecomputeService = (*RecomputeService)(nil)

// NewRecomputeService creates a new RecomputeService instance.
func NewRecomputeService(db *gorm.DB) *RecomputeService {
	return &RecomputeService{db: db}
}

// RecomputeResult reports whether targets were updated and, when they were,
// the before/after values and which threshold(s) fired.
type RecomputeResult struct {
	Updated        bool    `json:"updated"`
	Reason         string  `json:"reason,omitempty"`
	CaloriesBefore float64 `json:"calories_before"`
	CaloriesAfter  float64 `json:"calories_after"`
	ProteinBefore  float64 `json:"protein_before"`
	ProteinAfter   float64 `json:"protein_after"`
}

// EvaluateProfileChange recomputes targets from the current settings and
// compares them with the stored ones. Significant deltas update settings and
// the initial plan snapshot in one transaction; insignificant ones write
// nothing.
func (s *RecomputeService) EvaluateProfileChange(ctx context.Context, userID uuid.UUID) (*RecomputeResult, error) {
	defer logSlow("recompute.EvaluateProfileChange", time.Now())

	var settings models.UserSettings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	in, err := calculatorInput(&settings, now)
	if err != nil {
		return nil, err
	}
	result, err := metrics.Compute(in, now)
	if err != nil {
		return nil, err
	}

	res := &RecomputeResult{
		CaloriesBefore: settings.CalorieTarget,
		CaloriesAfter:  result.CalorieTarget,
		ProteinBefore:  settings.ProteinTargetG,
		ProteinAfter:   result.ProteinTargetG,
	}

	calorieDelta := math.Abs(result.CalorieTarget - settings.CalorieTarget)
	proteinDelta := math.Abs(result.ProteinTargetG - settings.ProteinTargetG)

	var reasons []string
	if calorieDelta > calorieDeltaThreshold {
		reasons = append(reasons, fmt.Sprintf("calorie target moved by %.0f kcal (threshold %.0f)", calorieDelta, calorieDeltaThreshold))
	}
	if proteinDelta > proteinDeltaThreshold {
		reasons = append(reasons, fmt.Sprintf("protein target moved by %.1f g (threshold %.0f)", proteinDelta, proteinDeltaThreshold))
	}
	if len(reasons) == 0 {
		return res, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		updates := map[string]interface{}{
			"bmr":              result.BMR,
			"tdee":             result.TDEE,
			"calorie_target":   result.CalorieTarget,
			"protein_target_g": result.ProteinTargetG,
			"water_target_ml":  result.WaterTargetML,
		}
		if err := tx.Model(&models.UserSettings{}).
			Where("user_id = ?", userID).
			Updates(updates).Error; err != nil {
			return err
		}
		return upsertInitialSnapshot(tx, userID, &settings, result)
	})
	if err != nil {
		return nil, err
	}

	res.Updated = true
	res.Reason = strings.Join(reasons, "; ")
	return res, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/habitloop/habitloop-backend/internal/metrics"
	"github.com/habitloop/habitloop-backend/internal/models"
)

// freshnessWindow is how long an existing plan keeps being returned instead
// of regenerated.
const freshnessWindow = 7 * 24 * time.Hour

// PlanService orchestrates weekly plan generation: onboarding validation,
// acknowledgment gating, freshness checks, target computation, and the
// transactional write across settings, snapshot, and plan.
type PlanService struct {
	db      *gorm.DB
	metrics IMetricsService
}

// Ensure PlanService implements IPlanService
var _ IPlanService = (*PlanService)(nil)

// NewPlanService creates a new PlanService instance.
func NewPlanService(db *gorm.DB, metricsService IMetricsService) *PlanService {
	return &PlanService{
		db:      db,
		metrics: metricsService,
	}
}

// Targets is the nutrition target set returned with every plan response.
type Targets struct {
	BMR            float64 `json:"bmr"`
	TDEE           float64 `json:"tdee"`
	CalorieTarget  float64 `json:"calorie_target"`
	ProteinTargetG float64 `json:"protein_target_g"`
	WaterTargetML  float64 `json:"water_target_ml"`
	WeeklyRateKG   float64 `json:"weekly_rate_kg"`
}

// GeneratePlanResult is the outcome of a GeneratePlan call. Created
// distinguishes a newly inserted plan from a still-fresh one returned as-is.
type GeneratePlanResult struct {
	Plan            *models.Plan         `json:"plan"`
	Targets         Targets              `json:"targets"`
	WhyItWorks      metrics.Explanations `json:"why_it_works"`
	Recomputed      bool                 `json:"recomputed"`
	Created         bool                 `json:"-"`
	PreviousTargets *Targets             `json:"previous_targets,omitempty"`
}

// GeneratePlan runs the generation state machine. Check order is load-bearing:
// onboarding, then acknowledgment, then freshness. A caller must never see a
// "plan already exists" answer when the real blocker is a missing
// acknowledgment.
func (s *PlanService) GeneratePlan(ctx context.Context, userID uuid.UUID, forceRecompute bool) (*GeneratePlanResult, error) {
	defer logSlow("plan.GeneratePlan", time.Now())

	var settings models.UserSettings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}
	if !settings.OnboardingCompleted {
		return nil, ErrOnboardingIncomplete
	}

	acknowledged, err := s.metrics.IsAcknowledged(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !acknowledged {
		return nil, ErrMetricsUnacknowledged
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

	if !forceRecompute {
		fresh, err := s.freshPlan(ctx, userID, now)
		if err != nil {
			return nil, err
		}
		if fresh != nil {
			return &GeneratePlanResult{
				Plan:       fresh,
				Targets:    targetsFromResult(result),
				WhyItWorks: metrics.Explain(result),
			}, nil
		}
	}

	var previous *Targets
	if forceRecompute {
		previous = &Targets{
			BMR:            settings.BMR,
			TDEE:           settings.TDEE,
			CalorieTarget:  settings.CalorieTarget,
			ProteinTargetG: settings.ProteinTargetG,
			WaterTargetML:  settings.WaterTargetML,
			WeeklyRateKG:   metrics.Goal(settings.PrimaryGoal).WeeklyRate(),
		}
	}

	weekStart, weekEnd := weekBounds(now)
	plan := &models.Plan{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        fmt.Sprintf("Week of %s", weekStart.Format("Jan 2, 2006")),
		Description: "Weekly plan generated from your current metrics and goal.",
		Status:      models.PlanStatusActive,
		StartDate:   weekStart,
		EndDate:     weekEnd,
	}

	// All three writes land or none do.
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

		if err := upsertInitialSnapshot(tx, userID, &settings, result); err != nil {
			return err
		}

		return tx.Create(plan).Error
	})
	if err != nil {
		return nil, err
	}

	return &GeneratePlanResult{
		Plan:            plan,
		Targets:         targetsFromResult(result),
		WhyItWorks:      metrics.Explain(result),
		Recomputed:      forceRecompute,
		Created:         true,
		PreviousTargets: previous,
	}, nil
}

// freshPlan returns the user's most recent plan started within the freshness
// window, newest createdAt winning ties, or nil when none qualifies.
func (s *PlanService) freshPlan(ctx context.Context, userID uuid.UUID, now time.Time) (*models.Plan, error) {
	var plan models.Plan
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND start_date >= ?", userID, now.Add(-freshnessWindow)).
		Order("start_date DESC, created_at DESC").
		First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// upsertInitialSnapshot overwrites the per-user record of the weight/goal
// state in force at generation time.
func upsertInitialSnapshot(tx *gorm.DB, userID uuid.UUID, settings *models.UserSettings, result metrics.Result) error {
	snapshot := models.InitialPlanSnapshot{
		ID:                      uuid.New(),
		UserID:                  userID,
		StartWeightKG:           *settings.WeightKG,
		TargetWeightKG:          settings.TargetWeightKG,
		WeeklyRateKG:            result.WeeklyRateKG,
		EstimatedWeeks:          result.EstimatedWeeks,
		ProjectedCompletionDate: result.ProjectedCompletionDate,
		CalorieTarget:           result.CalorieTarget,
		ProteinTargetG:          result.ProteinTargetG,
		WaterTargetML:           result.WaterTargetML,
	}
	return tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"start_weight_kg",
			"target_weight_kg",
			"weekly_rate_kg",
			"estimated_weeks",
			"projected_completion_date",
			"calorie_target",
			"protein_target_g",
			"water_target_ml",
			"updated_at",
		}),
	}).Create(&snapshot).Error
}

func targetsFromResult(result metrics.Result) Targets {
	return Targets{
		BMR:            result.BMR,
		TDEE:           result.TDEE,
		CalorieTarget:  result.CalorieTarget,
		ProteinTargetG: result.ProteinTargetG,
		WaterTargetML:  result.WaterTargetML,
		WeeklyRateKG:   result.WeeklyRateKG,
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/habitloop/habitloop-backend/internal/metrics"
	"github.com/habitloop/habitloop-backend/internal/models"
)

// MetricsService computes, versions, and stores health metrics snapshots and
// tracks user acknowledgment of them.
type MetricsService struct {
	db    *gorm.DB
	cache *redis.Client
}

// Ensure MetricsService implements IMetricsService
var _ IMetricsService = (*MetricsService)(nil)

// NewMetricsService creates a new MetricsService instance. cache may be nil;
// everything falls back to the database.
func NewMetricsService(db *gorm.DB, cache *redis.Client) *MetricsService {
	return &MetricsService{
		db:    db,
		cache: cache,
	}
}

// TodayMetrics is the full metrics-today payload.
type TodayMetrics struct {
	Snapshot       *models.MetricsSnapshot       `json:"snapshot"`
	Explanations   metrics.Explanations          `json:"explanations"`
	Acknowledged   bool                          `json:"acknowledged"`
	Acknowledgment *models.MetricsAcknowledgment `json:"acknowledgement,omitempty"`
}

// calculatorInput builds the pure-calculator input from stored settings.
func calculatorInput(settings *models.UserSettings, now time.Time) (metrics.Input, error) {
	if settings.WeightKG == nil || settings.HeightCM == nil {
		return metrics.Input{}, ErrMissingProfileFields
	}
	sex, err := metrics.ParseSex(settings.Sex)
	if err != nil {
		return metrics.Input{}, fmt.Errorf("%w: %v", ErrMissingProfileFields, err)
	}
	activity, err := metrics.ParseActivityLevel(settings.ActivityLevel)
	if err != nil {
		return metrics.Input{}, fmt.Errorf("%w: %v", ErrMissingProfileFields, err)
	}
	goal, err := metrics.ParseGoal(settings.PrimaryGoal)
	if err != nil {
		return metrics.Input{}, fmt.Errorf("%w: %v", ErrMissingProfileFields, err)
	}
	return metrics.Input{
		WeightKG:       *settings.WeightKG,
		HeightCM:       *settings.HeightCM,
		AgeYears:       settings.Age(now),
		Sex:            sex,
		Activity:       activity,
		Goal:           goal,
		TargetWeightKG: settings.TargetWeightKG,
	}, nil
}

// ComputeAndStore computes fresh metrics for the user and persists them as a
// new snapshot version. Without forceRecompute, an existing snapshot from the
// same UTC calendar day is returned unchanged to avoid version churn from
// repeated reads.
func (s *MetricsService) ComputeAndStore(ctx context.Context, userID uuid.UUID, forceRecompute bool) (*models.MetricsSnapshot, error) {
	defer logSlow("metrics.ComputeAndStore", time.Now())

	var settings models.UserSettings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSettingsNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()

	current, err := s.currentSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}
	if current != nil && !forceRecompute && sameUTCDay(current.ComputedAt, now) {
		return current, nil
	}

	in, err := calculatorInput(&settings, now)
	if err != nil {
		return nil, err
	}
	result, err := metrics.Compute(in, now)
	if err != nil {
		return nil, err
	}

	version := 1
	if current != nil {
		version = current.Version + 1
	}

	snapshot := &models.MetricsSnapshot{
		ID:         uuid.New(),
		UserID:     userID,
		Version:    version,
		BMI:        result.BMI,
		BMR:        result.BMR,
		TDEE:       result.TDEE,
		ComputedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(snapshot).Error; err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, snapshot)

	return snapshot, nil
}

// MetricsToday returns the user's current snapshot, computing one on demand
// if none exists yet, along with explanations and acknowledgment state. An
// incomplete profile means there is nothing to return at all, which callers
// treat as not-found rather than a bad request.
func (s *MetricsService) MetricsToday(ctx context.Context, userID uuid.UUID) (*TodayMetrics, error) {
	defer logSlow("metrics.MetricsToday", time.Now())

	snapshot, err := s.ComputeAndStore(ctx, userID, false)
	if err != nil {
		if errors.Is(err, ErrMissingProfileFields) {
			return nil, fmt.Errorf("%w: %v", ErrMetricsUnavailable, err)
		}
		return nil, err
	}

	var settings models.UserSettings
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error; err != nil {
		return nil, err
	}
	in, err := calculatorInput(&settings, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	result, err := metrics.Compute(in, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	// The snapshot may be a same-day reuse predating a profile edit. Quote
	// its numbers in the explanations, not a fresh computation's.
	result = result.Rebase(snapshot.BMI, snapshot.BMR, snapshot.TDEE)

	today := &TodayMetrics{
		Snapshot:     snapshot,
		Explanations: metrics.Explain(result),
	}

	var ack models.MetricsAcknowledgment
	err = s.db.WithContext(ctx).
		Where("user_id = ? AND version = ?", userID, snapshot.Version).
		First(&ack).Error
	switch {
	case err == nil:
		today.Acknowledged = true
		today.Acknowledgment = &ack
	case errors.Is(err, gorm.ErrRecordNotFound):
		// unacknowledged, nothing to attach
	default:
		return nil, err
	}

	return today, nil
}

// Acknowledge records that the user reviewed the snapshot identified by
// (version, computedAt). The timestamp is matched at second granularity
// because clients truncate sub-second precision. Idempotent: re-acknowledging
// returns the stored row with its original acknowledgedAt.
func (s *MetricsService) Acknowledge(ctx context.Context, userID uuid.UUID, version int, computedAt time.Time) (*models.MetricsAcknowledgment, error) {
	defer logSlow("metrics.Acknowledge", time.Now())

	var snapshot models.MetricsSnapshot
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND version = ?", userID, version).
		First(&snapshot).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSnapshotNotFound
		}
		return nil, err
	}

	if !sameInstantSecond(snapshot.ComputedAt, computedAt) {
		return nil, ErrSnapshotNotFound
	}

	var existing models.MetricsAcknowledgment
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND version = ?", userID, version).
		First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	ack := &models.MetricsAcknowledgment{
		ID:             uuid.New(),
		UserID:         userID,
		Version:        version,
		AcknowledgedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(ack).Error; err != nil {
		return nil, err
	}
	return ack, nil
}

// IsAcknowledged reports whether the user's current snapshot has been
// acknowledged. A user with no snapshot at all counts as acknowledged so new
// users are never blocked before their first metrics computation.
func (s *MetricsService) IsAcknowledged(ctx context.Context, userID uuid.UUID) (bool, error) {
	current, err := s.currentSnapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	if current == nil {
		return true, nil
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.MetricsAcknowledgment{}).
		Where("user_id = ? AND version = ?", userID, current.Version).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// currentSnapshot returns the highest-version snapshot for the user, or nil
// when none exists. Reads through the Redis cache when one is wired; the
// database stays authoritative.
func (s *MetricsService) currentSnapshot(ctx context.Context, userID uuid.UUID) (*models.MetricsSnapshot, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, snapshotCacheKey(userID)).Bytes(); err == nil {
			var cached models.MetricsSnapshot
			if err := json.Unmarshal(data, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	var snapshot models.MetricsSnapshot
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("version DESC").
		First(&snapshot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.cacheSnapshot(ctx, &snapshot)
	return &snapshot, nil
}

// cacheSnapshot stores the snapshot until the next UTC midnight, the lifetime
// of the same-day reuse policy. Cache failures are logged and ignored.
func (s *MetricsService) cacheSnapshot(ctx context.Context, snapshot *models.MetricsSnapshot) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	now := time.Now().UTC()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	if err := s.cache.Set(ctx, snapshotCacheKey(snapshot.UserID), data, time.Until(midnight)).Err(); err != nil {
		log.Printf("failed to cache metrics snapshot for user %s: %v", snapshot.UserID, err)
	}
}

func snapshotCacheKey(userID uuid.UUID) string {
	return "metrics:current:" + userID.String()
}

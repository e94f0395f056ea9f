package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/habitloop/habitloop-backend/internal/models"
	"github.com/habitloop/habitloop-backend/internal/types"
)

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	GenerateToken(userID uuid.UUID, email string) (string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
}

// IMetricsService defines the interface for metrics computation and acknowledgment
type IMetricsService interface {
	ComputeAndStore(ctx context.Context, userID uuid.UUID, forceRecompute bool) (*models.MetricsSnapshot, error)
	MetricsToday(ctx context.Context, userID uuid.UUID) (*TodayMetrics, error)
	Acknowledge(ctx context.Context, userID uuid.UUID, version int, computedAt time.Time) (*models.MetricsAcknowledgment, error)
	IsAcknowledged(ctx context.Context, userID uuid.UUID) (bool, error)
}

// IPlanService defines the interface for plan generation
type IPlanService interface {
	GeneratePlan(ctx context.Context, userID uuid.UUID, forceRecompute bool) (*GeneratePlanResult, error)
}

// IRecomputeService defines the interface for target recomputation after profile edits
type IRecomputeService interface {
	EvaluateProfileChange(ctx context.Context, userID uuid.UUID) (*RecomputeResult, error)
}

// IAuditService defines the interface for best-effort profile change auditing
type IAuditService interface {
	Record(userID uuid.UUID, changes []FieldChange, meta AuditMeta)
	Flush()
}

// IProfileService defines the interface for user settings operations
type IProfileService interface {
	GetSettings(ctx context.Context, userID uuid.UUID) (*models.UserSettings, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, req *types.UpdateProfileRequest, meta EditMeta) (*UpdateResult, error)
	CompleteOnboarding(ctx context.Context, userID uuid.UUID) error
}

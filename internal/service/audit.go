package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/habitloop/habitloop-backend/internal/models"
)

// FieldChange is one before/after pair from a profile edit.
type FieldChange struct {
	Field    string
	OldValue string
	NewValue string
}

// AuditMeta carries the edit context recorded with every change row.
type AuditMeta struct {
	IPAddress      string
	UserAgent      string
	TriggeredRegen bool
	CaloriesBefore *float64
	CaloriesAfter  *float64
	ProteinBefore  *float64
	ProteinAfter   *float64
}

// AuditService writes field-level profile change records. Audit is
// observability, not a correctness dependency: writes happen on a background
// goroutine with their own error capture and can never fail or roll back the
// caller's update.
type AuditService struct {
	db *gorm.DB
	wg sync.WaitGroup
}

// Ensure AuditService implements IAuditService
var _ IAuditService = (*AuditService)(nil)

// NewAuditService creates a new AuditService instance.
func NewAuditService(db *gorm.DB) *AuditService {
	return &AuditService{db: db}
}

// Record writes one audit row per changed field, fire-and-forget. The
// caller's context is deliberately not used: the primary request finishing
// must not cancel the audit write.
func (s *AuditService) Record(userID uuid.UUID, changes []FieldChange, meta AuditMeta) {
	if len(changes) == 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("audit write panicked for user %s: %v", userID, r)
			}
		}()
		s.write(context.Background(), userID, changes, meta)
	}()
}

// Flush blocks until pending audit writes finish. Used by graceful shutdown
// and tests.
func (s *AuditService) Flush() {
	s.wg.Wait()
}

func (s *AuditService) write(ctx context.Context, userID uuid.UUID, changes []FieldChange, meta AuditMeta) {
	now := time.Now().UTC()
	rows := make([]models.ProfileChangeAudit, 0, len(changes))
	for _, change := range changes {
		row := models.ProfileChangeAudit{
			UserID:         userID.String(),
			Field:          change.Field,
			OldValue:       change.OldValue,
			NewValue:       change.NewValue,
			TriggeredRegen: meta.TriggeredRegen,
			IPAddress:      meta.IPAddress,
			UserAgent:      meta.UserAgent,
			ChangedAt:      now,
		}
		if meta.TriggeredRegen {
			row.CaloriesBefore = meta.CaloriesBefore
			row.CaloriesAfter = meta.CaloriesAfter
			row.ProteinBefore = meta.ProteinBefore
			row.ProteinAfter = meta.ProteinAfter
		}
		rows = append(rows, row)
	}

	if err := s.db.WithContext(ctx).Create(&rows).Error; err != nil {
		log.Printf("failed to write %d audit rows for user %s: %v", len(rows), userID, err)
	}
}

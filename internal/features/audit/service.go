package audit

import (
	"context"
	"time"

	common_models "litterbugs/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AuditService interface {
	LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, actor *string, owner *string, changes map[string]common_models.Change) error
	ListLogs(ctx context.Context, ownerID string, page, limit int64) ([]common_models.AuditLog, error)
}

type AuditServiceImpl struct {
	Repo AuditRepository
}

func NewAuditService(repo AuditRepository) AuditService {
	return &AuditServiceImpl{Repo: repo}
}

func (s *AuditServiceImpl) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, actor *string, owner *string, changes map[string]common_models.Change) error {
	actorID := common_models.GuestOwner
	if actor != nil {
		actorID = *actor
	}
	if action == common_models.AuditActionSweep {
		actorID = "system"
	}

	log := common_models.AuditLog{
		ID:        primitive.NewObjectID(),
		Action:    action,
		Module:    module,
		RecordID:  recordID,
		ActorID:   actorID,
		Changes:   changes,
		Timestamp: time.Now(),
	}
	if owner != nil {
		log.OwnerID = *owner
	}

	return s.Repo.Create(ctx, log)
}

func (s *AuditServiceImpl) ListLogs(ctx context.Context, ownerID string, page, limit int64) ([]common_models.AuditLog, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.Repo.ListByOwner(ctx, ownerID, limit, (page-1)*limit)
}

package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/config"
	"litterbugs/internal/features/audit"

	"go.uber.org/zap"
)

type ReportService interface {
	ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error)
	CreateReport(ctx context.Context, caller *string, payload common_models.CreatePayload) (*common_models.Report, error)
	UpdateReport(ctx context.Context, caller *string, id string, payload common_models.UpdatePayload) (*common_models.Report, error)
	DeleteReport(ctx context.Context, caller *string, id string) error
	ExportToExcel(ctx context.Context, now time.Time) ([]byte, string, error)
}

// PhotoRemover deletes stored photo objects. Failures are reported but never
// undo a report deletion.
type PhotoRemover interface {
	RemoveObjects(ctx context.Context, paths []string) error
}

type ReportServiceImpl struct {
	ReportRepo   ReportRepository
	AuditService audit.AuditService
	Photos       PhotoRemover
	Logger       *zap.Logger
	TTL          time.Duration
	Now          func() time.Time
}

func NewReportService(reportRepo ReportRepository, auditService audit.AuditService, photos PhotoRemover, cfg *config.Config, logger *zap.Logger) ReportService {
	return &ReportServiceImpl{
		ReportRepo:   reportRepo,
		AuditService: auditService,
		Photos:       photos,
		Logger:       logger,
		TTL:          cfg.ReportTTL,
		Now:          time.Now,
	}
}

func (s *ReportServiceImpl) ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	if now.IsZero() {
		now = s.Now()
	}
	return s.ReportRepo.ListUnexpired(ctx, now)
}

func (s *ReportServiceImpl) CreateReport(ctx context.Context, caller *string, payload common_models.CreatePayload) (*common_models.Report, error) {
	if payload.UserID != nil && (caller == nil || *payload.UserID != *caller) {
		return nil, fmt.Errorf("%w: user_id does not match caller", common_models.ErrPermission)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	fields := payload.Fields.Normalize()
	now := s.Now().UTC()
	report := &common_models.Report{
		Title:        fields.Title,
		LitterTypes:  fields.LitterTypes,
		Types:        fields.Types,
		NotesPresets: fields.NotesPresets,
		NotesOther:   fields.NotesOther,
		Severity:     fields.Severity,
		Latitude:     payload.Latitude,
		Longitude:    payload.Longitude,
		UserID:       caller,
		CreatedAt:    now,
		ExpiresAt:    now.Add(s.TTL),
	}

	if err := s.ReportRepo.Insert(ctx, report); err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionCreate, "reports", report.ID, caller, report.UserID, map[string]common_models.Change{
		"report": {New: report},
	})
	return report, nil
}

func (s *ReportServiceImpl) UpdateReport(ctx context.Context, caller *string, id string, payload common_models.UpdatePayload) (*common_models.Report, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}

	existing, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	firstPhotos, err := authorizeUpdate(existing, caller, payload)
	if err != nil {
		return nil, err
	}

	if payload.Fields != nil {
		normalized := payload.Fields.Normalize()
		payload.Fields = &normalized
	}

	var updated *common_models.Report
	if firstPhotos {
		updated, err = s.ReportRepo.AttachFirstPhotos(ctx, id, payload.PhotoPaths)
		if errors.Is(err, common_models.ErrNotFound) {
			return nil, fmt.Errorf("%w: photos already attached to report %s", common_models.ErrPermission, id)
		}
	} else {
		updated, err = s.ReportRepo.Update(ctx, id, existing.UserID, payload)
	}
	if err != nil {
		return nil, err
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionUpdate, "reports", id, caller, updated.UserID, map[string]common_models.Change{
		"report": {Old: existing, New: updated},
	})
	return updated, nil
}

// authorizeUpdate admits the owner, and a guest attaching the first photos
// to a guest report. firstPhotos reports the latter, which the write must
// re-check.
func authorizeUpdate(existing *common_models.Report, caller *string, payload common_models.UpdatePayload) (firstPhotos bool, err error) {
	owner := common_models.GuestOwner
	if existing.UserID != nil {
		owner = *existing.UserID
	}
	prefix := owner + "/" + existing.ID + "/"
	for _, p := range payload.PhotoPaths {
		if !strings.HasPrefix(p, prefix) || len(p) == len(prefix) {
			return false, fmt.Errorf("%w: photo path %q outside %s", common_models.ErrValidation, p, prefix)
		}
	}

	if existing.OwnedBy(caller) {
		return false, nil
	}
	guestAttach := existing.UserID == nil &&
		caller == nil &&
		payload.Fields == nil &&
		len(existing.PhotoPaths) == 0
	if guestAttach {
		return true, nil
	}
	return false, fmt.Errorf("%w: report %s is not owned by caller", common_models.ErrPermission, existing.ID)
}

func (s *ReportServiceImpl) DeleteReport(ctx context.Context, caller *string, id string) error {
	existing, err := s.ReportRepo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !existing.OwnedBy(caller) {
		return fmt.Errorf("%w: report %s is not owned by caller", common_models.ErrPermission, id)
	}

	if err := s.ReportRepo.Delete(ctx, id, existing.UserID); err != nil {
		return err
	}

	if len(existing.PhotoPaths) > 0 && s.Photos != nil {
		if err := s.Photos.RemoveObjects(ctx, existing.PhotoPaths); err != nil {
			s.Logger.Warn("Failed to remove report photos",
				zap.String("report_id", id),
				zap.Error(err),
			)
		}
	}

	_ = s.AuditService.LogChange(ctx, common_models.AuditActionDelete, "reports", id, caller, existing.UserID, map[string]common_models.Change{
		"report": {Old: existing, New: "DELETED"},
	})
	return nil
}

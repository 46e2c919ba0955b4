package sweep

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "litterbugs/internal/common/models"
	"litterbugs/internal/config"
	"litterbugs/internal/features/audit"
	"litterbugs/internal/features/report"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SweepService removes expired reports and their photos on a schedule.
// Clients already hide expired reports; the sweep reclaims storage.
type SweepService interface {
	RunOnce(ctx context.Context) (int64, error)
	InitializeScheduler() error
	StopScheduler() error
}

type SweepServiceImpl struct {
	reportRepo   report.ReportRepository
	photos       report.PhotoRemover
	auditService audit.AuditService
	logger       *zap.Logger
	schedule     string
	now          func() time.Time

	scheduler *cron.Cron
	running   sync.Mutex
}

func NewSweepService(
	reportRepo report.ReportRepository,
	photos report.PhotoRemover,
	auditService audit.AuditService,
	cfg *config.Config,
	logger *zap.Logger,
) SweepService {
	return &SweepServiceImpl{
		reportRepo:   reportRepo,
		photos:       photos,
		auditService: auditService,
		logger:       logger,
		schedule:     cfg.SweepSchedule,
		now:          time.Now,
	}
}

func (s *SweepServiceImpl) RunOnce(ctx context.Context) (int64, error) {
	if !s.running.TryLock() {
		return 0, nil
	}
	defer s.running.Unlock()

	now := s.now()
	expired, err := s.reportRepo.ListExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expired reports: %w", err)
	}
	if len(expired) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(expired))
	for _, r := range expired {
		ids = append(ids, r.ID)
		if len(r.PhotoPaths) == 0 {
			continue
		}
		if err := s.photos.RemoveObjects(ctx, r.PhotoPaths); err != nil {
			s.logger.Warn("Sweep could not remove photos",
				zap.String("report_id", r.ID),
				zap.Error(err),
			)
		}
	}

	deleted, err := s.reportRepo.DeleteExpired(ctx, ids, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired reports: %w", err)
	}

	for _, r := range expired {
		_ = s.auditService.LogChange(ctx, common_models.AuditActionSweep, "reports", r.ID, nil, r.UserID, map[string]common_models.Change{
			"report": {Old: r, New: "EXPIRED"},
		})
	}

	s.logger.Info("Expired reports swept", zap.Int64("deleted", deleted))
	return deleted, nil
}

func (s *SweepServiceImpl) InitializeScheduler() error {
	s.scheduler = cron.New()

	_, err := s.scheduler.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("Sweep failed", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.schedule, err)
	}

	s.logger.Info("Sweep scheduler started", zap.String("schedule", s.schedule))
	s.scheduler.Start()
	return nil
}

func (s *SweepServiceImpl) StopScheduler() error {
	if s.scheduler != nil {
		ctx := s.scheduler.Stop()
		<-ctx.Done()
	}
	return nil
}

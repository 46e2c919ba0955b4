package sweep

import (
	"context"
	"testing"
	"time"

	common_models "litterbugs/internal/common/models"

	"go.uber.org/zap"
)

type MockReportRepo struct {
	Reports map[string]common_models.Report
}

func (m *MockReportRepo) ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	return nil, nil
}

func (m *MockReportRepo) ListExpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	var out []common_models.Report
	for _, r := range m.Reports {
		if !r.ExpiresAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockReportRepo) Get(ctx context.Context, id string) (*common_models.Report, error) {
	return nil, common_models.ErrNotFound
}

func (m *MockReportRepo) Insert(ctx context.Context, report *common_models.Report) error {
	return nil
}

func (m *MockReportRepo) Update(ctx context.Context, id string, expectedOwner *string, payload common_models.UpdatePayload) (*common_models.Report, error) {
	return nil, common_models.ErrNotFound
}

func (m *MockReportRepo) AttachFirstPhotos(ctx context.Context, id string, paths []string) (*common_models.Report, error) {
	return nil, common_models.ErrNotFound
}

func (m *MockReportRepo) Delete(ctx context.Context, id string, expectedOwner *string) error {
	return nil
}

func (m *MockReportRepo) DeleteExpired(ctx context.Context, ids []string, now time.Time) (int64, error) {
	var n int64
	for _, id := range ids {
		delete(m.Reports, id)
		n++
	}
	return n, nil
}

func (m *MockReportRepo) EnsureIndexes(ctx context.Context) error { return nil }

type MockPhotoRemover struct {
	Removed []string
}

func (m *MockPhotoRemover) RemoveObjects(ctx context.Context, paths []string) error {
	m.Removed = append(m.Removed, paths...)
	return nil
}

type MockAuditService struct {
	Actions []common_models.AuditAction
}

func (m *MockAuditService) LogChange(ctx context.Context, action common_models.AuditAction, module string, recordID string, actor *string, owner *string, changes map[string]common_models.Change) error {
	m.Actions = append(m.Actions, action)
	return nil
}

func (m *MockAuditService) ListLogs(ctx context.Context, ownerID string, page, limit int64) ([]common_models.AuditLog, error) {
	return nil, nil
}

func TestRunOnce(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	repo := &MockReportRepo{Reports: map[string]common_models.Report{
		"old":   {ID: "old", ExpiresAt: now.Add(-time.Hour), PhotoPaths: []string{"guest/old/1-0.jpg"}},
		"edge":  {ID: "edge", ExpiresAt: now},
		"fresh": {ID: "fresh", ExpiresAt: now.Add(time.Second)},
	}}
	photos := &MockPhotoRemover{}
	audit := &MockAuditService{}

	svc := &SweepServiceImpl{
		reportRepo:   repo,
		photos:       photos,
		auditService: audit,
		logger:       zap.NewNop(),
		now:          func() time.Time { return now },
	}

	deleted, err := svc.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if deleted != 2 {
		t.Errorf("deleted = %d, want 2", deleted)
	}
	if _, ok := repo.Reports["fresh"]; !ok || len(repo.Reports) != 1 {
		t.Errorf("remaining = %v", repo.Reports)
	}
	if len(photos.Removed) != 1 || photos.Removed[0] != "guest/old/1-0.jpg" {
		t.Errorf("removed = %v", photos.Removed)
	}
	if len(audit.Actions) != 2 {
		t.Errorf("audit entries = %d, want 2", len(audit.Actions))
	}
}

func TestInitializeSchedulerRejectsBadSchedule(t *testing.T) {
	svc := &SweepServiceImpl{logger: zap.NewNop(), schedule: "every now and then"}
	if err := svc.InitializeScheduler(); err == nil {
		t.Fatal("InitializeScheduler() accepted an invalid schedule")
	}
}

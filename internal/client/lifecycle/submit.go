package lifecycle

import (
	"context"

	common_models "litterbugs/internal/common/models"

	"go.uber.org/zap"
)

type submission struct {
	draft    Draft
	identity *string
	report   *common_models.Report
}

type step func(ctx context.Context, sub *submission) error

// run executes steps in order and stops at the first failure.
func (m *Manager) run(ctx context.Context, sub *submission, steps ...step) error {
	for _, s := range steps {
		if err := s(ctx, sub); err != nil {
			return err
		}
	}
	return nil
}

func (m *Manager) resolveIdentity(ctx context.Context, sub *submission) error {
	sub.identity = m.identity.CurrentIdentity()
	return nil
}

// write sends the full field set: insert for a new report, update otherwise.
func (m *Manager) write(ctx context.Context, sub *submission) error {
	fields := sub.draft.Fields()

	if sub.draft.Editing() {
		report, err := m.writer.Update(ctx, sub.draft.EditingID, common_models.UpdatePayload{Fields: &fields})
		if err != nil {
			return err
		}
		sub.report = report
		return nil
	}

	lat, lng := sub.draft.Coordinate.Latitude, sub.draft.Coordinate.Longitude
	report, err := m.writer.Insert(ctx, common_models.CreatePayload{
		Fields:    fields,
		Latitude:  &lat,
		Longitude: &lng,
		UserID:    sub.identity,
	})
	if err != nil {
		return err
	}
	sub.report = report
	return nil
}

// attachPhotos uploads a new report's photos and records the paths that made
// it. The report already exists, so failures here are logged, not returned.
// A new report with no uploaded photos carries an empty list, never nil.
func (m *Manager) attachPhotos(ctx context.Context, sub *submission) error {
	if sub.draft.Editing() {
		return nil
	}
	if sub.report.PhotoPaths == nil {
		sub.report.PhotoPaths = []string{}
	}
	if len(sub.draft.Photos) == 0 {
		return nil
	}

	paths := m.photos.Upload(ctx, sub.identity, sub.report.ID, sub.draft.Photos)
	if len(paths) == 0 {
		return nil
	}

	updated, err := m.writer.Update(ctx, sub.report.ID, common_models.UpdatePayload{PhotoPaths: paths})
	if err != nil {
		m.logger.Error("Attaching photo paths failed",
			zap.String("report_id", sub.report.ID),
			zap.Strings("paths", paths),
			zap.Error(err),
		)
		return nil
	}
	sub.report = updated
	return nil
}

func (m *Manager) publish(ctx context.Context, sub *submission) error {
	if sub.draft.Editing() {
		m.publisher.Update(*sub.report)
		return nil
	}
	m.publisher.Insert(*sub.report)
	return nil
}

package report

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	common_models "litterbugs/internal/common/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const reportColumns = `id, title, litter_types, types, notes_presets, notes_other, severity,
	latitude, longitude, user_id, photo_paths, created_at, expires_at`

const reportSchema = `
CREATE TABLE IF NOT EXISTS reports (
	id            uuid PRIMARY KEY,
	title         text NOT NULL,
	litter_types  text[],
	types         text,
	notes_presets text[],
	notes_other   text,
	severity      text,
	latitude      double precision NOT NULL,
	longitude     double precision NOT NULL,
	user_id       text,
	photo_paths   text[],
	created_at    timestamptz NOT NULL DEFAULT now(),
	expires_at    timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS reports_expires_at_idx ON reports (expires_at);
CREATE INDEX IF NOT EXISTS reports_user_id_idx ON reports (user_id);`

// PostgresReportRepository stores reports in the Supabase-style "reports"
// table.
type PostgresReportRepository struct {
	DB *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (*common_models.Report, error) {
	var r common_models.Report
	err := row.Scan(
		&r.ID,
		&r.Title,
		pq.Array(&r.LitterTypes),
		&r.Types,
		pq.Array(&r.NotesPresets),
		&r.NotesOther,
		&r.Severity,
		&r.Latitude,
		&r.Longitude,
		&r.UserID,
		pq.Array(&r.PhotoPaths),
		&r.CreatedAt,
		&r.ExpiresAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *PostgresReportRepository) ListUnexpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	return r.query(ctx, `SELECT `+reportColumns+` FROM reports WHERE expires_at > $1 ORDER BY created_at`, now)
}

func (r *PostgresReportRepository) ListExpired(ctx context.Context, now time.Time) ([]common_models.Report, error) {
	return r.query(ctx, `SELECT `+reportColumns+` FROM reports WHERE expires_at <= $1 ORDER BY created_at`, now)
}

func (r *PostgresReportRepository) query(ctx context.Context, query string, args ...any) ([]common_models.Report, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	reports := []common_models.Report{}
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, rows.Err()
}

func (r *PostgresReportRepository) Get(ctx context.Context, id string) (*common_models.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	report, err := scanReport(r.DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM reports WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	return report, err
}

func (r *PostgresReportRepository) Insert(ctx context.Context, report *common_models.Report) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	_, err := r.DB.ExecContext(ctx, `INSERT INTO reports (`+reportColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		report.ID,
		report.Title,
		pq.Array(report.LitterTypes),
		report.Types,
		pq.Array(report.NotesPresets),
		report.NotesOther,
		report.Severity,
		report.Latitude,
		report.Longitude,
		report.UserID,
		pq.Array(report.PhotoPaths),
		report.CreatedAt,
		report.ExpiresAt,
	)
	return err
}

func (r *PostgresReportRepository) Update(ctx context.Context, id string, expectedOwner *string, payload common_models.UpdatePayload) (*common_models.Report, error) {
	query, args := updateStatement(id, expectedOwner, payload, false)
	return r.updateOne(ctx, id, query, args)
}

func (r *PostgresReportRepository) AttachFirstPhotos(ctx context.Context, id string, paths []string) (*common_models.Report, error) {
	query, args := updateStatement(id, nil, common_models.UpdatePayload{PhotoPaths: paths}, true)
	return r.updateOne(ctx, id, query, args)
}

// updateStatement builds the owner-guarded UPDATE. With firstPhotos the row
// must also have no photos yet.
func updateStatement(id string, expectedOwner *string, payload common_models.UpdatePayload, firstPhotos bool) (string, []any) {
	var sets []string
	args := []any{id, expectedOwner}
	add := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if f := payload.Fields; f != nil {
		add("title", f.Title)
		add("litter_types", pq.Array(f.LitterTypes))
		add("types", f.Types)
		add("notes_presets", pq.Array(f.NotesPresets))
		add("notes_other", f.NotesOther)
		add("severity", f.Severity)
	}
	if len(payload.PhotoPaths) > 0 {
		add("photo_paths", pq.Array(payload.PhotoPaths))
	}

	where := ` WHERE id = $1 AND user_id IS NOT DISTINCT FROM $2`
	if firstPhotos {
		where += ` AND (photo_paths IS NULL OR cardinality(photo_paths) = 0)`
	}
	return `UPDATE reports SET ` + strings.Join(sets, ", ") + where + ` RETURNING ` + reportColumns, args
}

func (r *PostgresReportRepository) updateOne(ctx context.Context, id, query string, args []any) (*common_models.Report, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	report, err := scanReport(r.DB.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	return report, err
}

func (r *PostgresReportRepository) Delete(ctx context.Context, id string, expectedOwner *string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reports WHERE id = $1 AND user_id IS NOT DISTINCT FROM $2`, id, expectedOwner)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("report %s: %w", id, common_models.ErrNotFound)
	}
	return nil
}

func (r *PostgresReportRepository) DeleteExpired(ctx context.Context, ids []string, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.DB.ExecContext(ctx, `DELETE FROM reports WHERE id = ANY($1::uuid[]) AND expires_at <= $2`, pq.Array(ids), now)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *PostgresReportRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.DB.ExecContext(ctx, reportSchema)
	return err
}

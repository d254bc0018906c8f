package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/OzanD26/halk-habercisi/internal/domain/enums"
)

var ErrReportNotFound = errors.New("report not found")

type ReportRepo struct {
	pool *pgxpool.Pool
}

func NewReportRepo(pool *pgxpool.Pool) *ReportRepo {
	return &ReportRepo{pool: pool}
}

// ReportRecord mirrors one row of the reports table. The id and created_at
// are assigned by the store, never by callers.
type ReportRecord struct {
	ID          string
	Description string
	MediaURL    string
	StoragePath *string
	Bucket      string
	MediaType   string
	Latitude    *float64
	Longitude   *float64
	Approved    bool
	CreatedAt   time.Time
}

type NewReport struct {
	Description string
	MediaURL    string
	StoragePath string
	Bucket      string
	MediaType   string
	Latitude    *float64
	Longitude   *float64
}

func (r *ReportRepo) Create(ctx context.Context, rec NewReport) (ReportRecord, error) {
	if r.pool == nil {
		return ReportRecord{}, fmt.Errorf("postgres pool is nil")
	}
	if strings.TrimSpace(rec.Description) == "" {
		return ReportRecord{}, fmt.Errorf("report description is required")
	}

	var storagePath *string
	if rec.StoragePath != "" {
		storagePath = &rec.StoragePath
	}

	out := ReportRecord{
		Description: rec.Description,
		MediaURL:    rec.MediaURL,
		StoragePath: storagePath,
		Bucket:      rec.Bucket,
		MediaType:   rec.MediaType,
		Latitude:    rec.Latitude,
		Longitude:   rec.Longitude,
		Approved:    false,
	}

	err := r.pool.QueryRow(ctx, `
INSERT INTO reports (
	description,
	media_url,
	storage_path,
	bucket,
	media_type,
	latitude,
	longitude,
	approved,
	created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, NOW())
RETURNING id, created_at
`, rec.Description, rec.MediaURL, storagePath, rec.Bucket, rec.MediaType, rec.Latitude, rec.Longitude).
		Scan(&out.ID, &out.CreatedAt)
	if err != nil {
		return ReportRecord{}, fmt.Errorf("insert report: %w", err)
	}

	return out, nil
}

// List returns the current snapshot for a moderation tab. Ordered mode adds
// a descending sort on created_at; unordered mode makes no ordering promise.
func (r *ReportRepo) List(ctx context.Context, tab enums.FilterTab, ordered bool) ([]ReportRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	query := `
SELECT id, description, media_url, storage_path, bucket, media_type, latitude, longitude, approved, created_at
FROM reports
`
	switch tab {
	case enums.FilterTabPending:
		query += "WHERE approved = FALSE\n"
	case enums.FilterTabApproved:
		query += "WHERE approved = TRUE\n"
	}
	if ordered {
		query += "ORDER BY created_at DESC\n"
	}

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Description,
			&rec.MediaURL,
			&rec.StoragePath,
			&rec.Bucket,
			&rec.MediaType,
			&rec.Latitude,
			&rec.Longitude,
			&rec.Approved,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return out, nil
}

func (r *ReportRepo) Get(ctx context.Context, id string) (ReportRecord, error) {
	if r.pool == nil {
		return ReportRecord{}, fmt.Errorf("postgres pool is nil")
	}

	var rec ReportRecord
	err := r.pool.QueryRow(ctx, `
SELECT id, description, media_url, storage_path, bucket, media_type, latitude, longitude, approved, created_at
FROM reports
WHERE id = $1
`, id).Scan(
		&rec.ID,
		&rec.Description,
		&rec.MediaURL,
		&rec.StoragePath,
		&rec.Bucket,
		&rec.MediaType,
		&rec.Latitude,
		&rec.Longitude,
		&rec.Approved,
		&rec.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ReportRecord{}, ErrReportNotFound
	}
	if err != nil {
		return ReportRecord{}, fmt.Errorf("get report: %w", err)
	}

	return rec, nil
}

func (r *ReportRepo) SetApproved(ctx context.Context, id string, approved bool) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `UPDATE reports SET approved = $2 WHERE id = $1`, id, approved)
	if err != nil {
		return fmt.Errorf("update report approved: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

// ListUnapprovedOlderThan returns unapproved reports submitted before the
// cutoff, oldest first.
func (r *ReportRepo) ListUnapprovedOlderThan(ctx context.Context, cutoff time.Time) ([]ReportRecord, error) {
	if r.pool == nil {
		return nil, fmt.Errorf("postgres pool is nil")
	}

	rows, err := r.pool.Query(ctx, `
SELECT id, description, media_url, storage_path, bucket, media_type, latitude, longitude, approved, created_at
FROM reports
WHERE approved = FALSE AND created_at < $1
ORDER BY created_at ASC
`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale reports: %w", err)
	}
	defer rows.Close()

	var out []ReportRecord
	for rows.Next() {
		var rec ReportRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Description,
			&rec.MediaURL,
			&rec.StoragePath,
			&rec.Bucket,
			&rec.MediaType,
			&rec.Latitude,
			&rec.Longitude,
			&rec.Approved,
			&rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate report rows: %w", err)
	}

	return out, nil
}

func (r *ReportRepo) Delete(ctx context.Context, id string) error {
	if r.pool == nil {
		return fmt.Errorf("postgres pool is nil")
	}

	tag, err := r.pool.Exec(ctx, `DELETE FROM reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrReportNotFound
	}
	return nil
}

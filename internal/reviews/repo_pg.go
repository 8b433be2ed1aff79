package reviews

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new record. The ATS score is denormalized for list queries.
func (r *PGRepo) Create(ctx context.Context, upload ResumeUpload) error {
	const query = `
INSERT INTO resume_uploads (
	id, user_id, company_name, job_title, job_description, resume_image_url, feedback, ats_score, created_at
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	score, _ := ATS(upload.Feedback)
	_, err := r.DB.ExecContext(ctx, query,
		upload.ID,
		upload.UserID,
		upload.CompanyName,
		upload.JobTitle,
		upload.JobDescription,
		upload.ResumeImageURL,
		[]byte(upload.Feedback),
		score,
		upload.CreatedAt,
	)
	return err
}

// GetByIDForUser fetches a record scoped by owner.
func (r *PGRepo) GetByIDForUser(ctx context.Context, userID, id string) (ResumeUpload, error) {
	const query = `
SELECT id, user_id, company_name, job_title, job_description, resume_image_url, feedback, created_at
FROM resume_uploads
WHERE id = $1 AND user_id = $2`

	var (
		upload   ResumeUpload
		feedback []byte
	)
	err := r.DB.QueryRowContext(ctx, query, id, userID).Scan(
		&upload.ID,
		&upload.UserID,
		&upload.CompanyName,
		&upload.JobTitle,
		&upload.JobDescription,
		&upload.ResumeImageURL,
		&feedback,
		&upload.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ResumeUpload{}, ErrNotFound
		}
		return ResumeUpload{}, err
	}
	upload.Feedback = json.RawMessage(feedback)
	upload.CreatedAt = upload.CreatedAt.UTC()
	return upload, nil
}

// ListByUser lists the owner's records, newest first. limit <= 0 means no limit.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	query := `
SELECT id, company_name, job_title, ats_score, created_at
FROM resume_uploads
WHERE user_id = $1
ORDER BY created_at DESC`
	args := []any{userID}
	if limit > 0 {
		query += "\nLIMIT $2"
		args = append(args, limit)
	}

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Summary{}
	for rows.Next() {
		var (
			s         Summary
			score     sql.NullInt64
			createdAt time.Time
		)
		if err := rows.Scan(&s.ID, &s.CompanyName, &s.JobTitle, &score, &createdAt); err != nil {
			return nil, err
		}
		if score.Valid {
			s.ATSScore = int(score.Int64)
		}
		s.CreatedAt = createdAt.UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

var _ Repo = (*PGRepo)(nil)

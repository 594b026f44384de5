package job

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("job not found")

const jobColumns = `id, admin_id, engine, source_lang, target_lang, status, progress, input_lines, error, created_at, completed_at`

// Tracker records translation job history in the jobs table. Jobs run in
// the workbench; the tracker only persists their transitions.
type Tracker struct {
	db  *sql.DB
	now func() time.Time
}

// NewTracker marks jobs left running by a previous process as failed.
func NewTracker(db *sql.DB) *Tracker {
	t := &Tracker{db: db, now: time.Now}
	res, err := db.Exec(`UPDATE jobs SET status = ?, error = ?, completed_at = ? WHERE status = ?`,
		StatusFailed, "interrupted by restart", t.now(), StatusRunning)
	if err != nil {
		log.Printf("[job] failed to reset running jobs: %v", err)
	} else if n, _ := res.RowsAffected(); n > 0 {
		log.Printf("[job] marked %d interrupted jobs as failed", n)
	}
	return t
}

// Create inserts j as running. An empty ID is filled with a new uuid.
func (t *Tracker) Create(ctx context.Context, j *Job) error {
	if j.ID == "" {
		j.ID = uuid.New().String()
	}
	j.Status = StatusRunning
	if j.CreatedAt.IsZero() {
		j.CreatedAt = t.now()
	}
	_, err := t.db.ExecContext(ctx, `
		INSERT INTO jobs (id, admin_id, engine, source_lang, target_lang, status, progress, input_lines, created_at)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?, ?)`,
		j.ID, j.AdminID, j.Engine, j.SourceLang, j.TargetLang, j.Status, j.InputLines, j.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	return nil
}

// UpdateProgress is best effort.
func (t *Tracker) UpdateProgress(ctx context.Context, id string, progress float64) {
	if _, err := t.db.ExecContext(ctx, "UPDATE jobs SET progress = ? WHERE id = ? AND status = ?",
		progress, id, StatusRunning); err != nil {
		log.Printf("[job] progress update for %s: %v", id, err)
	}
}

func (t *Tracker) MarkCompleted(ctx context.Context, id string) error {
	return t.finish(ctx, id, StatusCompleted, "")
}

func (t *Tracker) MarkFailed(ctx context.Context, id, errMsg string) error {
	return t.finish(ctx, id, StatusFailed, errMsg)
}

// finish only moves running jobs, so each job gets one terminal transition.
func (t *Tracker) finish(ctx context.Context, id string, status Status, errMsg string) error {
	progress := 0.0
	if status == StatusCompleted {
		progress = 1.0
	}
	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}
	res, err := t.db.ExecContext(ctx, `
		UPDATE jobs SET status = ?, error = ?, completed_at = ?, progress = CASE WHEN ? > 0 THEN ? ELSE progress END
		WHERE id = ? AND status = ?`,
		status, errVal, t.now(), progress, progress, id, StatusRunning,
	)
	if err != nil {
		return fmt.Errorf("update job %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s is not running", ErrNotFound, id)
	}
	log.Printf("[job] job %s %s", id, status)
	return nil
}

// Get retrieves a job by ID
func (t *Tracker) Get(ctx context.Context, id string) (*Job, error) {
	row := t.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	j, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return j, err
}

// List returns jobs newest first. adminID 0 lists every admin's jobs.
func (t *Tracker) List(ctx context.Context, adminID int64, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `SELECT ` + jobColumns + ` FROM jobs`
	args := []any{}
	if adminID != 0 {
		query += ` WHERE admin_id = ?`
		args = append(args, adminID)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := t.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	jobs := make([]*Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (*Job, error) {
	j := &Job{}
	var errMsg sql.NullString
	var completedAt sql.NullTime
	if err := s.Scan(&j.ID, &j.AdminID, &j.Engine, &j.SourceLang, &j.TargetLang, &j.Status,
		&j.Progress, &j.InputLines, &errMsg, &j.CreatedAt, &completedAt); err != nil {
		return nil, err
	}
	if errMsg.Valid {
		j.Error = errMsg.String
	}
	if completedAt.Valid {
		j.CompletedAt = &completedAt.Time
	}
	return j, nil
}

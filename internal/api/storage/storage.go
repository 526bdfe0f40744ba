package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cuongbtq/jobboard-api/internal/api/model"
	"github.com/jmoiron/sqlx"
)

// Session is the request-scoped handle every statement runs on.
// Both *sqlx.Conn and *sqlx.DB satisfy it.
type Session interface {
	sqlx.QueryerContext
	sqlx.ExecerContext
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type Storage struct {
	db Session
}

func NewStorage(db Session) *Storage {
	return &Storage{
		db: db,
	}
}

func (s *Storage) ListJobs(ctx context.Context) ([]model.Job, error) {
	query := `
		SELECT id, title, requirements, status
		FROM jobs
		ORDER BY created_at DESC
	`

	jobs := []model.Job{}
	if err := sqlx.SelectContext(ctx, s.db, &jobs, query); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

func (s *Storage) ListApplications(ctx context.Context) ([]model.Application, error) {
	query := `
		SELECT id, job_title, vk, age, created_at
		FROM job_applications
		ORDER BY created_at DESC
	`

	apps := []model.Application{}
	if err := sqlx.SelectContext(ctx, s.db, &apps, query); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

func (s *Storage) ListScreenshots(ctx context.Context) ([]model.Screenshot, error) {
	query := `
		SELECT id, url
		FROM screenshots
		ORDER BY created_at DESC
	`

	screenshots := []model.Screenshot{}
	if err := sqlx.SelectContext(ctx, s.db, &screenshots, query); err != nil {
		return nil, fmt.Errorf("failed to list screenshots: %w", err)
	}

	return screenshots, nil
}

// ListSettings orders by key; settings carry no creation time
func (s *Storage) ListSettings(ctx context.Context) ([]model.Setting, error) {
	query := `
		SELECT key, value
		FROM settings
		ORDER BY key ASC
	`

	settings := []model.Setting{}
	if err := sqlx.SelectContext(ctx, s.db, &settings, query); err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	return settings, nil
}

func (s *Storage) CreateJob(ctx context.Context, title, requirements, status string) (int64, error) {
	query := `
		INSERT INTO jobs (title, requirements, status)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := sqlx.GetContext(ctx, s.db, &id, query, title, requirements, status); err != nil {
		return 0, fmt.Errorf("failed to create job: %w", err)
	}

	return id, nil
}

func (s *Storage) CreateApplication(ctx context.Context, jobTitle, vk string, age int) (int64, error) {
	query := `
		INSERT INTO job_applications (job_title, vk, age)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	var id int64
	if err := sqlx.GetContext(ctx, s.db, &id, query, jobTitle, vk, age); err != nil {
		return 0, fmt.Errorf("failed to create application: %w", err)
	}

	return id, nil
}

func (s *Storage) CreateScreenshot(ctx context.Context, url string) (int64, error) {
	query := `
		INSERT INTO screenshots (url)
		VALUES ($1)
		RETURNING id
	`

	var id int64
	if err := sqlx.GetContext(ctx, s.db, &id, query, url); err != nil {
		return 0, fmt.Errorf("failed to create screenshot: %w", err)
	}

	return id, nil
}

// ReplaceJobs deletes every job and inserts the given ones with their
// caller-supplied ids, all in one transaction.
func (s *Storage) ReplaceJobs(ctx context.Context, jobs []model.Job) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM jobs`); err != nil {
			return fmt.Errorf("failed to delete jobs: %w", err)
		}

		query := `
			INSERT INTO jobs (id, title, requirements, status)
			VALUES ($1, $2, $3, $4)
		`
		for _, job := range jobs {
			if _, err := tx.ExecContext(ctx, query, job.ID, job.Title, job.Requirements, job.Status); err != nil {
				return fmt.Errorf("failed to insert job %d: %w", job.ID, err)
			}
		}

		return nil
	})
}

// UpdateSettings updates each key in place. Keys without a row are
// left alone; there is no upsert.
func (s *Storage) UpdateSettings(ctx context.Context, settings []model.Setting) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			UPDATE settings
			SET value = $1, updated_at = CURRENT_TIMESTAMP
			WHERE key = $2
		`
		for _, setting := range settings {
			if _, err := tx.ExecContext(ctx, query, setting.Value, setting.Key); err != nil {
				return fmt.Errorf("failed to update setting %q: %w", setting.Key, err)
			}
		}

		return nil
	})
}

// DeleteJob removes the job with the given id, if any
func (s *Storage) DeleteJob(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}

	return nil
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true

	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/jobboard-api/internal/audit/domain"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// uniqueViolation is the Postgres error code for a unique constraint hit
const uniqueViolation = "23505"

// Storage handles all database operations for the audit worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// InsertChangeLog records one change event. A redelivered event that is
// already stored yields domain.ErrDuplicateEvent.
func (s *Storage) InsertChangeLog(ctx context.Context, ev events.ChangeEvent) error {
	query := `
		INSERT INTO change_log (resource, action, record_id, occurred_at, received_at)
		VALUES ($1, $2, $3, $4, NOW())
	`

	recordID := sql.NullString{String: ev.RecordID, Valid: ev.RecordID != ""}

	_, err := s.db.ExecContext(ctx, query, ev.Resource, ev.Action, recordID, ev.OccurredAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return domain.ErrDuplicateEvent
		}
		return fmt.Errorf("failed to insert change log: %w", err)
	}

	s.logger.Debug("Change log recorded",
		slog.String("resource", ev.Resource),
		slog.String("action", ev.Action),
		slog.String("record_id", ev.RecordID),
	)

	return nil
}

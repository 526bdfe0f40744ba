package storage

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cuongbtq/jobboard-api/internal/audit/domain"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStorage(t *testing.T) (*Storage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStorage(sqlx.NewDb(db, "postgres"), logger), mock
}

var insertChangeLog = regexp.QuoteMeta("INSERT INTO change_log (resource, action, record_id, occurred_at, received_at)")

func TestStorage_InsertChangeLog(t *testing.T) {
	occurred := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("with record id", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectExec(insertChangeLog).
			WithArgs("jobs", "created", "42", occurred).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := s.InsertChangeLog(context.Background(), events.ChangeEvent{
			Resource: "jobs", Action: "created", RecordID: "42", OccurredAt: occurred,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("collection change", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectExec(insertChangeLog).
			WithArgs("jobs", "replaced", sqlmock.AnyArg(), occurred).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := s.InsertChangeLog(context.Background(), events.ChangeEvent{
			Resource: "jobs", Action: "replaced", OccurredAt: occurred,
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectExec(insertChangeLog).WillReturnError(&pq.Error{Code: "23505"})

		err := s.InsertChangeLog(context.Background(), events.ChangeEvent{
			Resource: "jobs", Action: "created", RecordID: "1", OccurredAt: occurred,
		})
		assert.ErrorIs(t, err, domain.ErrDuplicateEvent)
	})

	t.Run("other failure", func(t *testing.T) {
		s, mock := newMockStorage(t)
		mock.ExpectExec(insertChangeLog).WillReturnError(errors.New("connection refused"))

		err := s.InsertChangeLog(context.Background(), events.ChangeEvent{
			Resource: "jobs", Action: "created", OccurredAt: occurred,
		})
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrDuplicateEvent)
		assert.Contains(t, err.Error(), "failed to insert change log")
	})
}

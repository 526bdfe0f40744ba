package router

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/cuongbtq/jobboard-api/internal/api/handler"
	"github.com/cuongbtq/jobboard-api/internal/events"
	"github.com/cuongbtq/jobboard-api/shared/postgresql"
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type recordingPublisher struct {
	events []events.ChangeEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev events.ChangeEvent) error {
	p.events = append(p.events, ev)
	return p.err
}

type failingConnector struct{}

func (failingConnector) Conn(context.Context) (*sqlx.Conn, error) {
	return nil, errors.New("too many connections")
}

type fakeHealth struct{ err error }

func (f fakeHealth) HealthCheck(context.Context) error { return f.err }

type testEnv struct {
	engine    *gin.Engine
	mock      sqlmock.Sqlmock
	publisher *recordingPublisher
}

func defaultCORS() CORSConfig {
	return CORSConfig{
		AllowOrigin:  "*",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
		AllowHeaders: "Content-Type, X-User-Id",
		MaxAge:       86400,
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	client := postgresql.NewFromDB(sqlx.NewDb(db, "postgres"), &postgresql.Config{}, logger)
	publisher := &recordingPublisher{}

	engine := SetupRouter(&handler.Dependencies{
		Logger:       logger,
		Publisher:    publisher,
		EventTimeout: time.Second,
		ServiceName:  "jobboard-api",
	}, &Config{
		BasePath:  "/",
		CORS:      defaultCORS(),
		Connector: client,
	})

	return &testEnv{engine: engine, mock: mock, publisher: publisher}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

func TestPreflight(t *testing.T) {
	for _, path := range []string{"/", "/anything/at/all", "/health"} {
		t.Run(path, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(http.MethodOptions, path, "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Empty(t, w.Body.String())
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET, POST, PUT, DELETE, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, X-User-Id", w.Header().Get("Access-Control-Allow-Headers"))
			assert.Equal(t, "86400", w.Header().Get("Access-Control-Max-Age"))

			// preflight never touches the database
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(q("FROM jobs") + "(?s).*" + q("ORDER BY created_at DESC")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "requirements", "status"}).
			AddRow(2, "Newer", "Go", "Открыта").
			AddRow(1, "Older", "SQL", "Закрыта"))

	w := env.do(http.MethodGet, "/?resource=jobs", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
	assert.JSONEq(t, `[
		{"id":2,"title":"Newer","requirements":"Go","status":"Открыта"},
		{"id":1,"title":"Older","requirements":"SQL","status":"Закрыта"}
	]`, w.Body.String())
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestListDefaultsToJobs(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(q("FROM jobs")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "requirements", "status"}))

	w := env.do(http.MethodGet, "/", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListOtherResources(t *testing.T) {
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		resource string
		pattern  string
		rows     *sqlmock.Rows
		want     string
	}{
		{
			resource: "applications",
			pattern:  q("FROM job_applications") + "(?s).*" + q("ORDER BY created_at DESC"),
			rows: sqlmock.NewRows([]string{"id", "job_title", "vk", "age", "created_at"}).
				AddRow(5, "Backend", "vk.com/ivan", 24, created),
			want: `[{"id":5,"job_title":"Backend","vk":"vk.com/ivan","age":24,"created_at":"2025-03-01T10:00:00Z"}]`,
		},
		{
			resource: "screenshots",
			pattern:  q("FROM screenshots") + "(?s).*" + q("ORDER BY created_at DESC"),
			rows:     sqlmock.NewRows([]string{"id", "url"}).AddRow(3, "https://cdn.example.com/a.png"),
			want:     `[{"id":3,"url":"https://cdn.example.com/a.png"}]`,
		},
		{
			resource: "settings",
			pattern:  q("FROM settings") + "(?s).*" + q("ORDER BY key ASC"),
			rows: sqlmock.NewRows([]string{"key", "value"}).
				AddRow("hero_title", "Join us").
				AddRow("maintenance_banner", nil),
			want: `[{"key":"hero_title","value":"Join us"},{"key":"maintenance_banner","value":null}]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.resource, func(t *testing.T) {
			env := newTestEnv(t)
			env.mock.ExpectQuery(tt.pattern).WillReturnRows(tt.rows)

			w := env.do(http.MethodGet, "/?resource="+tt.resource, "")

			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestCreateJob(t *testing.T) {
	t.Run("status defaults to open label", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(q("INSERT INTO jobs (title, requirements, status)")).
			WithArgs("A", "B", "Открыта").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(17))

		w := env.do(http.MethodPost, "/", `{"resource":"jobs","title":"A","requirements":"B"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.JSONEq(t, `{"id":17,"message":"Job created"}`, w.Body.String())
		assert.NoError(t, env.mock.ExpectationsWereMet())

		require.Len(t, env.publisher.events, 1)
		assert.Equal(t, "jobs", env.publisher.events[0].Resource)
		assert.Equal(t, events.ActionCreated, env.publisher.events[0].Action)
		assert.Equal(t, "17", env.publisher.events[0].RecordID)
	})

	t.Run("explicit status and default resource", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectQuery(q("INSERT INTO jobs")).
			WithArgs("A", "", "Закрыта").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))

		w := env.do(http.MethodPost, "/", `{"title":"A","requirements":"","status":"Закрыта"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("missing requirements is a fault", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPost, "/", `{"resource":"jobs","title":"A"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, env.publisher.events)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("publish failure does not change the response", func(t *testing.T) {
		env := newTestEnv(t)
		env.publisher.err = errors.New("broker down")
		env.mock.ExpectQuery(q("INSERT INTO jobs")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))

		w := env.do(http.MethodPost, "/", `{"title":"A","requirements":"B"}`)

		assert.Equal(t, http.StatusCreated, w.Code)
	})
}

func TestCreateApplication(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(q("INSERT INTO job_applications (job_title, vk, age)")).
		WithArgs("Backend", "vk.com/ivan", 0).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(8))

	w := env.do(http.MethodPost, "/", `{"resource":"applications","jobTitle":"Backend","vk":"vk.com/ivan","age":0}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":8,"message":"Application submitted"}`, w.Body.String())
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateApplication_MissingAge(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/", `{"resource":"applications","jobTitle":"Backend","vk":"vk.com/ivan"}`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, env.mock.ExpectationsWereMet())
}

func TestCreateScreenshot(t *testing.T) {
	env := newTestEnv(t)
	env.mock.ExpectQuery(q("INSERT INTO screenshots (url)")).
		WithArgs("https://cdn.example.com/a.png").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(4))

	w := env.do(http.MethodPost, "/", `{"resource":"screenshots","url":"https://cdn.example.com/a.png"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":4,"message":"Screenshot added"}`, w.Body.String())
}

func TestReplaceJobs(t *testing.T) {
	t.Run("empty list empties the table", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectBegin()
		env.mock.ExpectExec(q("DELETE FROM jobs")).WillReturnResult(sqlmock.NewResult(0, 3))
		env.mock.ExpectCommit()
		env.mock.ExpectQuery(q("FROM jobs")).
			WillReturnRows(sqlmock.NewRows([]string{"id", "title", "requirements", "status"}))

		w := env.do(http.MethodPut, "/", `{"resource":"jobs","jobs":[]}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Jobs updated"}`, w.Body.String())

		w = env.do(http.MethodGet, "/?resource=jobs", "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())

		assert.NoError(t, env.mock.ExpectationsWereMet())
		require.Len(t, env.publisher.events, 1)
		assert.Equal(t, events.ActionReplaced, env.publisher.events[0].Action)
	})

	t.Run("reinserts with caller ids", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectBegin()
		env.mock.ExpectExec(q("DELETE FROM jobs")).WillReturnResult(sqlmock.NewResult(0, 1))
		env.mock.ExpectExec(q("INSERT INTO jobs (id, title, requirements, status)")).
			WithArgs(int64(100), "Backend", "Go", "Открыта").
			WillReturnResult(sqlmock.NewResult(100, 1))
		env.mock.ExpectCommit()

		w := env.do(http.MethodPut, "/", `{"resource":"jobs","jobs":[{"id":100,"title":"Backend","requirements":"Go","status":"Открыта"}]}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("job missing status is a fault before any statement", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPut, "/", `{"resource":"jobs","jobs":[{"id":1,"title":"A","requirements":"B"}]}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("database error is a fault", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectBegin()
		env.mock.ExpectExec(q("DELETE FROM jobs")).WillReturnError(errors.New("lock timeout"))
		env.mock.ExpectRollback()

		w := env.do(http.MethodPut, "/", `{"resource":"jobs","jobs":[]}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
		assert.Empty(t, env.publisher.events)
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})
}

func TestUpdateSettings(t *testing.T) {
	t.Run("scalars and null", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectBegin()
		env.mock.ExpectExec(q("UPDATE settings")).
			WithArgs("5", "applications_limit").
			WillReturnResult(sqlmock.NewResult(0, 1))
		env.mock.ExpectExec(q("UPDATE settings")).
			WithArgs(nil, "banner").
			WillReturnResult(sqlmock.NewResult(0, 1))
		env.mock.ExpectExec(q("UPDATE settings")).
			WithArgs("Join us", "hero_title").
			WillReturnResult(sqlmock.NewResult(0, 0))
		env.mock.ExpectCommit()

		w := env.do(http.MethodPut, "/", `{"resource":"settings","settings":{"hero_title":"Join us","applications_limit":5,"banner":null}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Settings updated"}`, w.Body.String())
		assert.NoError(t, env.mock.ExpectationsWereMet())
	})

	t.Run("object value is a fault", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodPut, "/", `{"resource":"settings","settings":{"theme":{"color":"red"}}}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
		assert.NoError(t, env.mock.ExpectationsWereMet())
		assert.Empty(t, env.publisher.events)
	})
}

func TestDeleteJob(t *testing.T) {
	t.Run("missing id still 200", func(t *testing.T) {
		env := newTestEnv(t)
		env.mock.ExpectExec(q("DELETE FROM jobs WHERE id = $1")).
			WithArgs("424242").
			WillReturnResult(sqlmock.NewResult(0, 0))

		w := env.do(http.MethodDelete, "/?resource=jobs&id=424242", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Job deleted"}`, w.Body.String())
		assert.NoError(t, env.mock.ExpectationsWereMet())

		require.Len(t, env.publisher.events, 1)
		assert.Equal(t, "424242", env.publisher.events[0].RecordID)
	})

	t.Run("without id parameter is not found", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodDelete, "/?resource=jobs", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
	})

	t.Run("other resources are not found", func(t *testing.T) {
		env := newTestEnv(t)

		w := env.do(http.MethodDelete, "/?resource=settings&id=1", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestNotFound(t *testing.T) {
	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{"unknown GET resource", http.MethodGet, "/?resource=vacancies", ""},
		{"POST settings has no create", http.MethodPost, "/", `{"resource":"settings"}`},
		{"PUT screenshots has no replace", http.MethodPut, "/", `{"resource":"screenshots"}`},
		{"PATCH is not routed", http.MethodPatch, "/?resource=jobs", ""},
		{"unknown path", http.MethodGet, "/nope", ""},
		{"empty GET resource", http.MethodGet, "/?resource=", ""},
		{"empty DELETE resource", http.MethodDelete, "/?resource=&id=1", ""},
		{"empty POST resource", http.MethodPost, "/", `{"resource":"","title":"A","requirements":"B"}`},
		{"null POST resource", http.MethodPost, "/", `{"resource":null,"title":"A","requirements":"B"}`},
		{"null PUT resource", http.MethodPut, "/", `{"resource":null,"jobs":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)

			w := env.do(tt.method, tt.target, tt.body)

			assert.Equal(t, http.StatusNotFound, w.Code)
			assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
			assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
			assert.NoError(t, env.mock.ExpectationsWereMet())
		})
	}
}

func TestMalformedBody(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(http.MethodPost, "/", `{"resource":`)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestConnectionFailure(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := SetupRouter(&handler.Dependencies{Logger: logger}, &Config{
		CORS:      defaultCORS(),
		Connector: failingConnector{},
	})

	req := httptest.NewRequest(http.MethodGet, "/?resource=jobs", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Internal server error"}`, w.Body.String())
}

func TestBasePath(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	engine := SetupRouter(&handler.Dependencies{Logger: logger}, &Config{
		BasePath:  "/api",
		CORS:      defaultCORS(),
		Connector: postgresql.NewFromDB(sqlx.NewDb(db, "postgres"), &postgresql.Config{}, logger),
	})

	mock.ExpectQuery(q("FROM screenshots")).WillReturnRows(sqlmock.NewRows([]string{"id", "url"}))

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api?resource=screenshots", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?resource=screenshots", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// a trailing slash is a different path, not a redirect
	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodPut} {
		w = httptest.NewRecorder()
		req := httptest.NewRequest(method, "/api/?resource=screenshots", strings.NewReader(`{"resource":"screenshots"}`))
		req.Header.Set("Content-Type", "application/json")
		engine.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.Empty(t, w.Header().Get("Location"), method)
		assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String(), method)
	}

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		err    error
		status int
		want   string
	}{
		{"healthy", nil, http.StatusOK, `{"status":"healthy","service":"jobboard-api"}`},
		{"unhealthy", errors.New("down"), http.StatusServiceUnavailable, `{"status":"unhealthy","service":"jobboard-api"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := SetupRouter(&handler.Dependencies{
				Logger:      logger,
				Health:      fakeHealth{err: tt.err},
				ServiceName: "jobboard-api",
			}, &Config{CORS: defaultCORS(), Connector: failingConnector{}})

			w := httptest.NewRecorder()
			engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			assert.JSONEq(t, tt.want, w.Body.String())
		})
	}
}

func TestRequestID(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req.Header.Set("X-Request-ID", "req-123")
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = env.do(http.MethodGet, "/nope", "")
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

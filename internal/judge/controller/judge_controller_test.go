package controller

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-sql-driver/mysql"

	"minoj/internal/common/db"
	"minoj/internal/judge/queue"
	"minoj/internal/judge/repository"
)

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (fakeResult) RowsAffected() (int64, error) { return 1, nil }

type fakeRow struct {
	scan func(dest ...interface{}) error
}

func (r fakeRow) Scan(dest ...interface{}) error { return r.scan(dest...) }

type fakeDB struct {
	execFn     func(query string, args ...interface{}) (db.Result, error)
	queryFn    func(query string, args ...interface{}) (db.Rows, error)
	queryRowFn func(query string, args ...interface{}) db.Row
}

func (f *fakeDB) Query(_ context.Context, query string, args ...interface{}) (db.Rows, error) {
	return f.queryFn(query, args...)
}

func (f *fakeDB) QueryRow(_ context.Context, query string, args ...interface{}) db.Row {
	return f.queryRowFn(query, args...)
}

func (f *fakeDB) Exec(_ context.Context, query string, args ...interface{}) (db.Result, error) {
	return f.execFn(query, args...)
}

func (f *fakeDB) Transaction(context.Context, func(tx db.Transaction) error) error { return nil }
func (f *fakeDB) Ping(context.Context) error                                      { return nil }
func (f *fakeDB) Close() error                                                    { return nil }

func newTestRouter(database db.Database) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewJudgeController(
		repository.NewSubmissionRepository(database),
		repository.NewProblemRepository(database),
		queue.NewStore(database, queue.JudgeJobsTable),
		queue.NewStore(database, queue.RunJobsTable),
		nil,
		nil,
	)
	router := gin.New()
	h.RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestCreateRunEnqueuesJob(t *testing.T) {
	t.Parallel()

	var enqueued []string
	fake := &fakeDB{
		execFn: func(query string, args ...interface{}) (db.Result, error) {
			if strings.Contains(query, "INSERT INTO run_jobs") {
				enqueued = append(enqueued, args[1].(string))
			}
			return fakeResult{}, nil
		},
	}
	router := newTestRouter(fake)

	body := `{"language":"python","code":"print(1)","input":"","timeLimitMs":1000}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if len(enqueued) != 1 {
		t.Fatalf("enqueued payloads = %d, want 1", len(enqueued))
	}
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(enqueued[0]), &payload); err != nil {
		t.Fatalf("payload not json: %v", err)
	}
	if payload["language"] != "python" || payload["code"] != "print(1)" {
		t.Errorf("payload = %v", payload)
	}

	var resp struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Data.ID == "" {
		t.Errorf("response missing run id: %s", rec.Body.String())
	}
}

func TestCreateRunRejectsUnknownLanguage(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeDB{})

	body := `{"language":"cobol","code":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/runs", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", rec.Code, rec.Body.String())
	}
}

func TestCreateSubmissionRejectsMissingFields(t *testing.T) {
	t.Parallel()

	router := newTestRouter(&fakeDB{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/submissions", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestGetSubmissionNotFound(t *testing.T) {
	t.Parallel()

	fake := &fakeDB{
		queryRowFn: func(string, ...interface{}) db.Row {
			return fakeRow{scan: func(...interface{}) error { return sql.ErrNoRows }}
		},
	}
	router := newTestRouter(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/submissions/nope", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", rec.Code, rec.Body.String())
	}
}

func TestQueueStatsBeforeMigration(t *testing.T) {
	t.Parallel()

	fake := &fakeDB{
		queryFn: func(string, ...interface{}) (db.Rows, error) {
			return nil, &mysql.MySQLError{Number: 1146, Message: "no such table"}
		},
	}
	router := newTestRouter(fake)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/queue/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Data struct {
			Judge queue.Stats `json:"judge"`
			Run   queue.Stats `json:"run"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Judge != (queue.Stats{}) || resp.Data.Run != (queue.Stats{}) {
		t.Errorf("stats = %+v, want zeros before migration", resp.Data)
	}
}

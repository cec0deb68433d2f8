package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tbourn/go-issue-tracker/internal/domain"
	"github.com/tbourn/go-issue-tracker/internal/http/middleware"
	"github.com/tbourn/go-issue-tracker/internal/repo"
	"github.com/tbourn/go-issue-tracker/internal/services"
)

// ---------- test server over in-memory SQLite ----------

type testServer struct {
	r  *gin.Engine
	db *gorm.DB
}

func newIssueDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique DSN per call to avoid cross-test contamination
	db, err := repo.OpenSQLite(fmt.Sprintf("file:issue_handlers_%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func newTestServer(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := newIssueDB(t)
	idem := repo.NewIdempotencyRepo(db)
	h := New(services.NewIssueService(repo.NewIssueRepo(db)),
		append([]Option{WithIdempotency(idem, time.Hour)}, opts...)...)

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.GET("/health", h.Health)
	r.POST("/issues", h.CreateIssue)
	r.GET("/issues", h.ListIssues)
	r.GET("/issues/:id", h.GetIssue)
	r.PUT("/issues/:id", h.UpdateIssue)
	return &testServer{r: r, db: db}
}

func (s *testServer) do(t *testing.T, method, path, body string, hdr ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(hdr); i += 2 {
		req.Header.Set(hdr[i], hdr[i+1])
	}
	w := httptest.NewRecorder()
	s.r.ServeHTTP(w, req)
	return w
}

func decodeIssue(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m), w.Body.String())
	return m
}

func (s *testServer) create(t *testing.T, body string) map[string]any {
	t.Helper()
	w := s.do(t, http.MethodPost, "/issues", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeIssue(t, w)
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&domain.Issue{}).Count(&n).Error)
	return n
}

// ---------- tests ----------

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateIssue_DefaultsAndShape(t *testing.T) {
	s := newTestServer(t)
	got := s.create(t, `{"title":"Crash on login"}`)

	assert.NotEmpty(t, got["id"])
	assert.Equal(t, "Crash on login", got["title"])
	assert.Equal(t, "Open", got["status"])
	assert.Equal(t, "Medium", got["priority"])
	assert.Contains(t, got, "assignee", "assignee key is always present")
	assert.Equal(t, "", got["assignee"])
	assert.Equal(t, got["createdAt"], got["updatedAt"])

	ts, err := time.Parse(time.RFC3339Nano, got["createdAt"].(string))
	require.NoError(t, err)
	assert.Equal(t, time.UTC, ts.Location())
}

func TestCreateIssue_SuppliedFieldsAndNullAssignee(t *testing.T) {
	s := newTestServer(t)
	got := s.create(t, `{"title":"t","status":"In Progress","priority":"High","assignee":null}`)
	assert.Equal(t, "In Progress", got["status"])
	assert.Equal(t, "High", got["priority"])
	assert.Nil(t, got["assignee"])

	got = s.create(t, `{"title":"t","status":null,"assignee":"alice"}`)
	assert.Equal(t, "Open", got["status"], "null status counts as absent")
	assert.Equal(t, "alice", got["assignee"])
}

func TestCreateIssue_TitleRequired(t *testing.T) {
	s := newTestServer(t)
	for _, body := range []string{``, `{}`, `{"title":""}`, `{"title":"   "}`, `{"title":null}`, `{"title":`, `[1,2]`} {
		w := s.do(t, http.MethodPost, "/issues", body)
		require.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		var er ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
		assert.Equal(t, "Title is required", er.Error)
		assert.Equal(t, ErrCodeBadRequest, er.Code)
		assert.NotEmpty(t, er.RequestID)
	}
	assert.Zero(t, countRows(t, s.db), "no row may be persisted")
}

func TestCreateIssue_IdempotentReplay(t *testing.T) {
	s := newTestServer(t)

	w1 := s.do(t, http.MethodPost, "/issues", `{"title":"once"}`, "Idempotency-Key", "create-1")
	require.Equal(t, http.StatusCreated, w1.Code)
	assert.Empty(t, w1.Header().Get("Idempotency-Replayed"))
	first := decodeIssue(t, w1)

	w2 := s.do(t, http.MethodPost, "/issues", `{"title":"once"}`, "Idempotency-Key", "create-1")
	require.Equal(t, http.StatusCreated, w2.Code)
	assert.Equal(t, "true", w2.Header().Get("Idempotency-Replayed"))
	assert.Equal(t, first["id"], decodeIssue(t, w2)["id"])
	assert.EqualValues(t, 1, countRows(t, s.db))

	// a different key creates a new issue
	w3 := s.do(t, http.MethodPost, "/issues", `{"title":"once"}`, "Idempotency-Key", "create-2")
	require.Equal(t, http.StatusCreated, w3.Code)
	assert.EqualValues(t, 2, countRows(t, s.db))

	// invalid key is rejected before the handler runs
	w4 := s.do(t, http.MethodPost, "/issues", `{"title":"x"}`, "Idempotency-Key", "bad key!")
	assert.Equal(t, http.StatusBadRequest, w4.Code)
	assert.Contains(t, w4.Body.String(), "bad_idempotency_key")
}

func TestCreateIssue_FailedValidationIsNotRecordedForReplay(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/issues", `{"title":""}`, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/issues", `{"title":"now valid"}`, "Idempotency-Key", "k-1")
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("Idempotency-Replayed"))
}

func TestGetIssue_FoundAndNotFound(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, `{"title":"a"}`)

	w := s.do(t, http.MethodGet, "/issues/"+created["id"].(string), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeIssue(t, w))

	w = s.do(t, http.MethodGet, "/issues/"+uuid.NewString(), "")
	require.Equal(t, http.StatusNotFound, w.Code)
	var er ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
	assert.Equal(t, "Issue not found", er.Error)
	assert.Equal(t, ErrCodeNotFound, er.Code)
}

func TestUpdateIssue_PartialSemantics(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, `{"title":"Crash on login","assignee":"bob"}`)
	id := created["id"].(string)

	time.Sleep(2 * time.Millisecond)
	w := s.do(t, http.MethodPut, "/issues/"+id, `{"title":"Crash on login","status":"Closed"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decodeIssue(t, w)
	assert.Equal(t, "Closed", got["status"])
	assert.Equal(t, "Medium", got["priority"], "absent field unchanged")
	assert.Equal(t, "bob", got["assignee"], "absent field unchanged")
	assert.Equal(t, created["createdAt"], got["createdAt"])

	before, _ := time.Parse(time.RFC3339Nano, created["updatedAt"].(string))
	after, _ := time.Parse(time.RFC3339Nano, got["updatedAt"].(string))
	assert.False(t, after.Before(before), "updatedAt must not decrease")

	// explicit empty values are applied, null clears the assignee
	w = s.do(t, http.MethodPut, "/issues/"+id, `{"title":"renamed","priority":"","assignee":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decodeIssue(t, w)
	assert.Equal(t, "renamed", got["title"])
	assert.Equal(t, "", got["priority"])
	assert.Nil(t, got["assignee"])
	assert.Equal(t, "Closed", got["status"])

	w = s.do(t, http.MethodPut, "/issues/"+id, `{"title":"renamed","assignee":""}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "", decodeIssue(t, w)["assignee"])
}

func TestUpdateIssue_Errors(t *testing.T) {
	s := newTestServer(t)
	created := s.create(t, `{"title":"keep"}`)
	id := created["id"].(string)

	// blank title → 400 and no mutation
	for _, body := range []string{`{"status":"Closed"}`, `{"title":" ","status":"Closed"}`, `{"title":`} {
		w := s.do(t, http.MethodPut, "/issues/"+id, body)
		require.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
		assert.Contains(t, w.Body.String(), "Title is required")
	}
	w := s.do(t, http.MethodGet, "/issues/"+id, "")
	assert.Equal(t, created, decodeIssue(t, w))

	// unknown id wins over blank title and over malformed JSON
	for _, body := range []string{`{"title":"x"}`, `{"title":""}`, `{"title":`} {
		w := s.do(t, http.MethodPut, "/issues/"+uuid.NewString(), body)
		require.Equal(t, http.StatusNotFound, w.Code, "body %q", body)
		assert.Contains(t, w.Body.String(), "Issue not found")
	}
}

func TestListIssues_FiltersSortPaginationAndTotal(t *testing.T) {
	s := newTestServer(t)
	for i := 1; i <= 12; i++ {
		prio := "Low"
		if i%2 == 0 {
			prio = "High"
		}
		s.create(t, fmt.Sprintf(`{"title":"Issue %02d","priority":%q,"assignee":"Dev%d"}`, i, prio, i%3))
	}
	s.create(t, `{"title":"Crash on LOGIN","status":"Closed","priority":"High","assignee":null}`)

	list := func(q string) ([]map[string]any, *httptest.ResponseRecorder) {
		w := s.do(t, http.MethodGet, "/issues"+q, "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var out []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		return out, w
	}

	// default page size 10, total header counts all matches
	items, w := list("")
	assert.Len(t, items, 10)
	assert.Equal(t, "13", w.Header().Get("X-Total-Count"))

	// page 2 of size 5 sorted by title = items 6..10 ("Crash on LOGIN" sorts first)
	items, _ = list("?sort=title&page=2&pageSize=5")
	require.Len(t, items, 5)
	for i, it := range items {
		assert.Equal(t, fmt.Sprintf("Issue %02d", i+5), it["title"])
	}

	// desc ordering; any other order value is ascending
	items, _ = list("?sort=title&order=desc&pageSize=1")
	assert.Equal(t, "Issue 12", items[0]["title"])
	items, _ = list("?sort=title&order=sideways&pageSize=1")
	assert.Equal(t, "Crash on LOGIN", items[0]["title"])
	// only the exact lower-case "desc" reverses
	for _, o := range []string{"DESC", "Desc", "desc "} {
		items, _ = list("?sort=title&pageSize=1&order=" + url.QueryEscape(o))
		assert.Equal(t, "Crash on LOGIN", items[0]["title"], "order=%q", o)
	}

	// conjunctive filters
	items, w = list("?status=Open&priority=High&pageSize=50")
	assert.Len(t, items, 6)
	assert.Equal(t, "6", w.Header().Get("X-Total-Count"))
	for _, it := range items {
		assert.Equal(t, "Open", it["status"])
		assert.Equal(t, "High", it["priority"])
	}

	// case-insensitive search and assignee substring
	items, _ = list("?search=login")
	require.Len(t, items, 1)
	assert.Equal(t, "Crash on LOGIN", items[0]["title"])
	items, _ = list("?assignee=dev1&pageSize=50")
	assert.Len(t, items, 4)

	// unknown sort is ignored
	items, _ = list("?sort=__class__&pageSize=50")
	assert.Len(t, items, 13)

	// empty page is [] not null
	w = s.do(t, http.MethodGet, "/issues?page=99", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
	assert.Equal(t, "13", w.Header().Get("X-Total-Count"))

	// offsets beyond int range still land past the end
	for _, q := range []string{
		"?page=4611686018427387905&pageSize=4",
		"?page=4611686018427387904&pageSize=4",
		"?page=9223372036854775807&pageSize=9223372036854775807",
		"?page=9223372036854775807&pageSize=1",
	} {
		w = s.do(t, http.MethodGet, "/issues"+q, "")
		require.Equal(t, http.StatusOK, w.Code, q)
		assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()), q)
		assert.Equal(t, "13", w.Header().Get("X-Total-Count"), q)
	}

	// a huge page size on page 1 returns everything
	items, _ = list("?page=1&pageSize=9223372036854775807")
	assert.Len(t, items, 13)
}

func TestListIssues_UnicodeSearchIsCaseInsensitive(t *testing.T) {
	s := newTestServer(t)
	s.create(t, `{"title":"Über login crash","assignee":"Émile"}`)
	s.create(t, `{"title":"ascii only","assignee":"bob"}`)

	cases := []struct {
		query string
		want  int
	}{
		{"search=" + url.QueryEscape("Über"), 1},
		{"search=" + url.QueryEscape("über"), 1},
		{"search=" + url.QueryEscape("ÜBER LOGIN"), 1},
		{"search=LOGIN", 1},
		{"assignee=" + url.QueryEscape("émile"), 1},
		{"assignee=" + url.QueryEscape("Émile"), 1},
		{"assignee=" + url.QueryEscape("ÉMI"), 1},
		{"search=uber", 0},
	}
	for _, tc := range cases {
		w := s.do(t, http.MethodGet, "/issues?"+tc.query, "")
		require.Equal(t, http.StatusOK, w.Code, tc.query)
		var out []map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		require.Len(t, out, tc.want, tc.query)
		if tc.want == 1 {
			assert.Equal(t, "Über login crash", out[0]["title"], tc.query)
		}
		assert.Equal(t, strconv.Itoa(tc.want), w.Header().Get("X-Total-Count"), tc.query)
	}
}

func TestListIssues_InvalidPagination(t *testing.T) {
	s := newTestServer(t)
	for _, q := range []string{"?page=abc", "?pageSize=x", "?page=0", "?pageSize=-1"} {
		w := s.do(t, http.MethodGet, "/issues"+q, "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
		assert.Contains(t, w.Body.String(), ErrCodeBadRequest)
	}
}

func TestListIssues_DefaultPageSizeOption(t *testing.T) {
	s := newTestServer(t, WithDefaultPageSize(2))
	for i := 0; i < 3; i++ {
		s.create(t, `{"title":"t"}`)
	}
	w := s.do(t, http.MethodGet, "/issues", "")
	var out []map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Len(t, out, 2)
}

// ---------- store failures via a stub service ----------

type stubIssueSvc struct{ err error }

func (s stubIssueSvc) Create(context.Context, domain.IssuePatch) (*domain.Issue, error) {
	return nil, s.err
}
func (s stubIssueSvc) Get(context.Context, string) (*domain.Issue, error) { return nil, s.err }
func (s stubIssueSvc) List(context.Context, services.ListParams) ([]domain.Issue, int64, error) {
	return nil, 0, s.err
}
func (s stubIssueSvc) Update(context.Context, string, domain.IssuePatch) (*domain.Issue, error) {
	return nil, s.err
}

func TestHandlers_StoreFailuresMapTo500(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(stubIssueSvc{err: errors.New("db down")})
	r := gin.New()
	r.POST("/issues", h.CreateIssue)
	r.GET("/issues", h.ListIssues)
	r.GET("/issues/:id", h.GetIssue)
	r.PUT("/issues/:id", h.UpdateIssue)

	cases := []struct {
		method, path, body, code string
	}{
		{http.MethodPost, "/issues", `{"title":"t"}`, ErrCodeCreateFailed},
		{http.MethodGet, "/issues", ``, ErrCodeListFailed},
		{http.MethodGet, "/issues/x", ``, ErrCodeInternal},
		{http.MethodPut, "/issues/x", `{"title":"t"}`, ErrCodeUpdateFailed},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusInternalServerError, w.Code, tc.path)
		var er ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &er))
		assert.Equal(t, tc.code, er.Code)
		assert.NotContains(t, er.Error, "db down", "store errors are not leaked")
	}
}

func TestHandlers_StoreFailuresLogCause(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := New(stubIssueSvc{err: errors.New("db down: connection refused")})

	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("logger", &logger)
		c.Next()
	})
	r.POST("/issues", h.CreateIssue)
	r.GET("/issues", h.ListIssues)
	r.GET("/issues/:id", h.GetIssue)
	r.PUT("/issues/:id", h.UpdateIssue)

	cases := []struct {
		method, path, body, code string
	}{
		{http.MethodPost, "/issues", `{"title":"t"}`, ErrCodeCreateFailed},
		{http.MethodGet, "/issues", ``, ErrCodeListFailed},
		{http.MethodGet, "/issues/x", ``, ErrCodeInternal},
		{http.MethodPut, "/issues/x", `{"title":"t"}`, ErrCodeUpdateFailed},
	}
	for _, tc := range cases {
		buf.Reset()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, bytes.NewBufferString(tc.body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		require.Equal(t, http.StatusInternalServerError, w.Code, tc.path)
		assert.NotContains(t, w.Body.String(), "connection refused")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, "db down: connection refused", entry["error"], tc.method+" "+tc.path)
		assert.Equal(t, tc.code, entry["code"])
	}
}

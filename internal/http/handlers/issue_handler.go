// Issue HTTP handlers.
//
// This file exposes REST endpoints for issue resources:
//   - GET    /health        (liveness)
//   - POST   /issues        (create, optional Idempotency-Key)
//   - GET    /issues        (list: filters, sort, pagination, X-Total-Count)
//   - GET    /issues/{id}   (fetch)
//   - PUT    /issues/{id}   (partial update)
//
// Handlers are transport-thin: they decode input, call the issue service, and
// translate results and sentinel errors into HTTP responses.
package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-issue-tracker/internal/domain"
	"github.com/tbourn/go-issue-tracker/internal/http/middleware"
	"github.com/tbourn/go-issue-tracker/internal/services"
	"github.com/tbourn/go-issue-tracker/internal/utils"
)

//
// Service contracts (context-aware)
//

// IssueService defines issue operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type IssueService interface {
	Create(ctx context.Context, in domain.IssuePatch) (*domain.Issue, error)
	Get(ctx context.Context, id string) (*domain.Issue, error)
	List(ctx context.Context, p services.ListParams) ([]domain.Issue, int64, error)
	Update(ctx context.Context, id string, patch domain.IssuePatch) (*domain.Issue, error)
}

// IdempotencyStore records and resolves Idempotency-Key → issue id mappings.
type IdempotencyStore interface {
	Get(ctx context.Context, key string, now time.Time) (*domain.Idempotency, error)
	Create(ctx context.Context, key, issueID string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

//
// Handler wiring
//

// Handlers groups the issue endpoints.
type Handlers struct {
	svc             IssueService
	idem            IdempotencyStore
	idemTTL         time.Duration
	defaultPageSize int
}

// Option customizes Handlers.
type Option func(*Handlers)

// WithIdempotency enables Idempotency-Key replay on create.
func WithIdempotency(store IdempotencyStore, ttl time.Duration) Option {
	return func(h *Handlers) {
		h.idem = store
		h.idemTTL = ttl
	}
}

// WithDefaultPageSize overrides the page size used when pageSize is omitted.
func WithDefaultPageSize(n int) Option {
	return func(h *Handlers) {
		if n > 0 {
			h.defaultPageSize = n
		}
	}
}

// New constructs Handlers bound to svc.
func New(svc IssueService, opts ...Option) *Handlers {
	h := &Handlers{svc: svc, idemTTL: 24 * time.Hour, defaultPageSize: 10}
	for _, o := range opts {
		o(h)
	}
	return h
}

//
// Handlers
//

// Health godoc
// @ID          health
// @Summary     Liveness probe
// @Tags        Health
// @Produce     json
// @Success     200  {object}  handlers.HealthResponse
// @Router      /health [get]
func (h *Handlers) Health(c *gin.Context) {
	ok(c, http.StatusOK, HealthResponse{Status: "ok"})
}

// CreateIssue godoc
// @ID          createIssue
// @Summary     Create an issue
// @Description Creates an issue. Omitted status/priority default to "Open"/"Medium".
// @Description Supports idempotent retries via the Idempotency-Key header.
// @Tags        Issues
// @Accept      json
// @Produce     json
//
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.IssueRequest  true  "Issue payload"
//
// @Success     201  {object}  handlers.IssueResponse
// @Header      201  {string}  Idempotency-Replayed  "true when a stored result was replayed"
// @Failure     400  {object}  handlers.ErrorResponse  "Title is required"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /issues [post]
func (h *Handlers) CreateIssue(c *gin.Context) {
	ctx := c.Request.Context()

	idemKey, _ := middleware.GetIdempotencyKey(c)
	if idemKey != "" && h.idem != nil {
		if rec, err := h.idem.Get(ctx, idemKey, time.Now().UTC()); err == nil && rec != nil {
			if prev, err := h.svc.Get(ctx, rec.IssueID); err == nil {
				c.Header("Idempotency-Replayed", "true")
				ok(c, http.StatusCreated, NewIssueResponse(prev))
				return
			}
		}
	}

	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgTitleRequired)
		return
	}

	is, err := h.svc.Create(ctx, req.Patch())
	switch {
	case errors.Is(err, services.ErrTitleRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgTitleRequired)
		return
	case err != nil:
		failErr(c, http.StatusInternalServerError, ErrCodeCreateFailed, "failed to create issue", err)
		return
	}

	// Best effort: a failed record only loses replay, never the issue.
	if idemKey != "" && h.idem != nil {
		if _, err := h.idem.Create(ctx, idemKey, is.ID, http.StatusCreated, h.idemTTL); err != nil {
			lg := middleware.LoggerFrom(c)
			lg.Warn().Err(err).Str("issue_id", is.ID).Msg("idempotency record not stored")
		}
	}

	ok(c, http.StatusCreated, NewIssueResponse(is))
}

// ListIssues godoc
// @ID          listIssues
// @Summary     List issues
// @Description Returns one page of issues. Filters combine with AND. Unknown sort fields are ignored.
// @Tags        Issues
// @Produce     json
//
// @Param       search    query  string  false  "Case-insensitive substring of title"
// @Param       status    query  string  false  "Exact status"
// @Param       priority  query  string  false  "Exact priority"
// @Param       assignee  query  string  false  "Case-insensitive substring of assignee"
// @Param       sort      query  string  false  "Field to order by"  Enums(id,title,status,priority,assignee,createdAt,updatedAt)
// @Param       order     query  string  false  "asc (default) or desc"
// @Param       page      query  int     false  "1-based page"  minimum(1)  default(1)
// @Param       pageSize  query  int     false  "Page size"     minimum(1)  default(10)
//
// @Success     200  {array}   handlers.IssueResponse
// @Header      200  {integer} X-Total-Count  "Number of matching issues"
// @Failure     400  {object}  handlers.ErrorResponse  "Invalid pagination"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /issues [get]
func (h *Handlers) ListIssues(c *gin.Context) {
	page, pageSize, err := utils.PageParams(c.Query("page"), c.Query("pageSize"), h.defaultPageSize)
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	var f domain.IssueFilter
	if v, present := c.GetQuery("search"); present && v != "" {
		f.Search = &v
	}
	f.Status = c.Query("status")
	f.Priority = c.Query("priority")
	if v, present := c.GetQuery("assignee"); present {
		f.Assignee = &v
	}

	items, total, err := h.svc.List(c.Request.Context(), services.ListParams{
		Filter:   f,
		Sort:     c.Query("sort"),
		Desc:     c.Query("order") == "desc",
		Page:     page,
		PageSize: pageSize,
	})
	switch {
	case errors.Is(err, services.ErrInvalidPagination):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		failErr(c, http.StatusInternalServerError, ErrCodeListFailed, "failed to list issues", err)
		return
	}

	c.Header("X-Total-Count", strconv.FormatInt(total, 10))
	ok(c, http.StatusOK, NewIssueList(items))
}

// GetIssue godoc
// @ID          getIssue
// @Summary     Get an issue
// @Tags        Issues
// @Produce     json
// @Param       id   path      string  true  "Issue ID"  format(uuid)
// @Success     200  {object}  handlers.IssueResponse
// @Failure     404  {object}  handlers.ErrorResponse  "Issue not found"
// @Failure     500  {object}  handlers.ErrorResponse  "Internal error"
// @Router      /issues/{id} [get]
func (h *Handlers) GetIssue(c *gin.Context) {
	is, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, services.ErrIssueNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, MsgIssueNotFound)
		return
	case err != nil:
		failErr(c, http.StatusInternalServerError, ErrCodeInternal, "failed to load issue", err)
		return
	}
	ok(c, http.StatusOK, NewIssueResponse(is))
}

// UpdateIssue godoc
// @ID          updateIssue
// @Summary     Update an issue
// @Description Applies every field present in the body; absent fields are left unchanged.
// @Description An explicit empty string is applied, and "assignee": null clears the assignee.
// @Tags        Issues
// @Accept      json
// @Produce     json
// @Param       id    path      string                 true  "Issue ID"  format(uuid)
// @Param       body  body      handlers.IssueRequest  true  "Fields to update (title required)"
// @Success     200   {object}  handlers.IssueResponse
// @Failure     400   {object}  handlers.ErrorResponse  "Title is required"
// @Failure     404   {object}  handlers.ErrorResponse  "Issue not found"
// @Failure     500   {object}  handlers.ErrorResponse  "Internal error"
// @Router      /issues/{id} [put]
func (h *Handlers) UpdateIssue(c *gin.Context) {
	id := c.Param("id")

	var req IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		// An unknown id still wins over a malformed body.
		if _, gerr := h.svc.Get(c.Request.Context(), id); errors.Is(gerr, services.ErrIssueNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, MsgIssueNotFound)
			return
		}
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgTitleRequired)
		return
	}

	is, err := h.svc.Update(c.Request.Context(), id, req.Patch())
	switch {
	case errors.Is(err, services.ErrIssueNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, MsgIssueNotFound)
		return
	case errors.Is(err, services.ErrTitleRequired):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, MsgTitleRequired)
		return
	case err != nil:
		failErr(c, http.StatusInternalServerError, ErrCodeUpdateFailed, "failed to update issue", err)
		return
	}
	ok(c, http.StatusOK, NewIssueResponse(is))
}

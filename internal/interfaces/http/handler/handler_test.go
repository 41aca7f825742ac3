package handler

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"book-workshop-api/internal/application/generation"
	"book-workshop-api/internal/application/workflow"
	"book-workshop-api/internal/domain/entity"
	"book-workshop-api/internal/domain/repository"
	"book-workshop-api/internal/interfaces/http/middleware"
	"book-workshop-api/pkg/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeGenerationService struct {
	submitErr  error
	getErr     error
	retryErr   error
	task       *entity.GenerationTask
	discarded  error
	lastOwner  string
	records    []*entity.GenerationRecord
	lastPaging repository.Pagination
}

func (f *fakeGenerationService) Submit(_ context.Context, cred entity.Credential, draft *entity.BookDraft, existing string) (*entity.GenerationTask, error) {
	f.lastOwner = cred.Subject()
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.task = entity.NewGenerationTask(cred.Subject(), draft, existing)
	return f.task, nil
}

func (f *fakeGenerationService) Discard(_ context.Context, task *entity.GenerationTask, cause error) {
	f.discarded = cause
	task.Fail(entity.StageDispatch, cause.Error(), nil)
}

func (f *fakeGenerationService) Get(_ context.Context, _ entity.Credential, id string) (*entity.GenerationTask, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.task == nil || f.task.ID != id {
		return nil, workflow.ErrTaskNotFound
	}
	return f.task, nil
}

func (f *fakeGenerationService) RetrySave(_ context.Context, _ entity.Credential, _ string) (*entity.GenerationTask, error) {
	if f.retryErr != nil {
		return nil, f.retryErr
	}
	f.task.Complete("77")
	return f.task, nil
}

func (f *fakeGenerationService) History(_ context.Context, _ entity.Credential, p repository.Pagination) (*repository.PagedResult[*entity.GenerationRecord], error) {
	f.lastPaging = p
	return repository.NewPagedResult(f.records, int64(len(f.records)), p), nil
}

type fakeDispatcher struct {
	err   error
	calls int
	token string
}

func (d *fakeDispatcher) Dispatch(_ context.Context, cred entity.Credential, _ *entity.GenerationTask) error {
	d.calls++
	d.token = cred.Token
	return d.err
}

type fakeBooks struct {
	books   []*entity.PersistedBook
	err     error
	deleted []string
}

func (f *fakeBooks) List(context.Context, entity.Credential) ([]*entity.PersistedBook, error) {
	return f.books, f.err
}

func (f *fakeBooks) Get(_ context.Context, _ entity.Credential, id string) (*entity.PersistedBook, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, b := range f.books {
		if b.ID == id {
			return b, nil
		}
	}
	return nil, nil
}

func (f *fakeBooks) Delete(_ context.Context, _ entity.Credential, id string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func newTestEngine(gen *fakeGenerationService, disp *fakeDispatcher, books *fakeBooks) *gin.Engine {
	e := gin.New()
	v1 := e.Group("/v1", middleware.Credential())
	gh := NewGenerationHandler(gen, disp)
	v1.POST("/generations", gh.Submit)
	v1.GET("/generations", gh.History)
	v1.GET("/generations/:tid", gh.Get)
	v1.POST("/generations/:tid/save", gh.RetrySave)
	bh := NewBookHandler(books)
	v1.GET("/books", bh.List)
	v1.DELETE("/books/:bid", bh.Delete)
	v1.GET("/books/:bid/export", bh.Export)
	return e
}

func doRequest(e *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Auth-Token", token)
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		ErrorCode string `json:"error_code"`
		Details   string `json:"details"`
	} `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func sampleRequest() map[string]any {
	return map[string]any{
		"draft": map[string]any{
			"title": "The Lighthouse",
			"genre": []string{"mystery"},
			"idea":  "a keeper finds a map",
			"illustrations": map[string]any{
				"count": 2,
				"style": "watercolor",
			},
		},
	}
}

func TestSubmit_AcceptedAndDispatched(t *testing.T) {
	gen, disp := &fakeGenerationService{}, &fakeDispatcher{}
	e := newTestEngine(gen, disp, &fakeBooks{})

	w := doRequest(e, http.MethodPost, "/v1/generations", "tok-1", sampleRequest())
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	env := decode(t, w)
	var task map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &task))
	assert.Equal(t, gen.task.ID, task["id"])
	assert.Equal(t, "pending", task["status"])
	assert.Equal(t, 1, disp.calls)
	assert.Equal(t, "tok-1", disp.token)
	assert.Equal(t, entity.NewCredential("tok-1").Subject(), gen.lastOwner)
}

func TestSubmit_MissingToken(t *testing.T) {
	gen, disp := &fakeGenerationService{}, &fakeDispatcher{}
	e := newTestEngine(gen, disp, &fakeBooks{})

	w := doRequest(e, http.MethodPost, "/v1/generations", "", sampleRequest())
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(errors.CodeTokenMissing), decode(t, w).Error.ErrorCode)
	assert.Zero(t, disp.calls)
}

func TestSubmit_ErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantHTTP int
		wantCode errors.ErrorCode
	}{
		{
			name:     "validation",
			err:      &generation.ValidationError{Fields: []generation.FieldError{{Field: "title", Reason: "required"}}},
			wantHTTP: http.StatusBadRequest,
			wantCode: errors.CodeValidationFailed,
		},
		{
			name:     "run in progress",
			err:      generation.ErrRunInProgress,
			wantHTTP: http.StatusConflict,
			wantCode: errors.CodeRunInProgress,
		},
		{
			name:     "generation",
			err:      &generation.GenerationError{Source: generation.SourceImages, Index: 2, Err: stderrors.New("boom")},
			wantHTTP: http.StatusBadGateway,
			wantCode: errors.CodeGenerationFailed,
		},
		{
			name:     "persistence",
			err:      &generation.PersistenceError{Op: "create", StatusCode: 500, Message: "db down"},
			wantHTTP: http.StatusBadGateway,
			wantCode: errors.CodePersistenceFailed,
		},
		{
			name:     "credential",
			err:      &generation.PersistenceError{Op: "create", Err: generation.ErrCredentialMissing},
			wantHTTP: http.StatusUnauthorized,
			wantCode: errors.CodeTokenMissing,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, disp := &fakeGenerationService{submitErr: tt.err}, &fakeDispatcher{}
			e := newTestEngine(gen, disp, &fakeBooks{})

			w := doRequest(e, http.MethodPost, "/v1/generations", "tok", sampleRequest())
			assert.Equal(t, tt.wantHTTP, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, string(tt.wantCode), env.Error.ErrorCode)
			assert.Zero(t, disp.calls)
		})
	}
}

func TestSubmit_MissingDraft(t *testing.T) {
	e := newTestEngine(&fakeGenerationService{}, &fakeDispatcher{}, &fakeBooks{})
	w := doRequest(e, http.MethodPost, "/v1/generations", "tok", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(errors.CodeValidationFailed), decode(t, w).Error.ErrorCode)
}

func TestSubmit_DispatchFailureDiscardsTask(t *testing.T) {
	gen := &fakeGenerationService{}
	disp := &fakeDispatcher{err: stderrors.New("redis down")}
	e := newTestEngine(gen, disp, &fakeBooks{})

	w := doRequest(e, http.MethodPost, "/v1/generations", "tok", sampleRequest())
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.EqualError(t, gen.discarded, "redis down")
	assert.Equal(t, entity.TaskStatusFailed, gen.task.Status)
}

func TestGetAndRetrySave(t *testing.T) {
	gen := &fakeGenerationService{}
	e := newTestEngine(gen, &fakeDispatcher{}, &fakeBooks{})

	require.Equal(t, http.StatusAccepted, doRequest(e, http.MethodPost, "/v1/generations", "tok", sampleRequest()).Code)

	w := doRequest(e, http.MethodGet, "/v1/generations/"+gen.task.ID, "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(e, http.MethodGet, "/v1/generations/unknown", "tok", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(e, http.MethodPost, "/v1/generations/"+gen.task.ID+"/save", "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var task map[string]any
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &task))
	assert.Equal(t, "completed", task["status"])
	assert.Equal(t, "77", task["book_id"])

	gen.retryErr = workflow.ErrNothingToSave
	w = doRequest(e, http.MethodPost, "/v1/generations/"+gen.task.ID+"/save", "tok", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHistory_Paginates(t *testing.T) {
	gen := &fakeGenerationService{records: []*entity.GenerationRecord{{TaskID: "t1", Status: entity.TaskStatusCompleted}}}
	e := newTestEngine(gen, &fakeDispatcher{}, &fakeBooks{})

	w := doRequest(e, http.MethodGet, "/v1/generations?page=2&page_size=5", "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, repository.Pagination{Page: 2, PageSize: 5}, gen.lastPaging)
	assert.Contains(t, w.Body.String(), `"task_id":"t1"`)
}

func TestBooks_ListDeleteExport(t *testing.T) {
	books := &fakeBooks{books: []*entity.PersistedBook{{
		ID:       "9",
		Title:    "The Lighthouse",
		Chapters: []entity.Chapter{{Title: "One", Text: "It began."}},
	}}}
	e := newTestEngine(&fakeGenerationService{}, &fakeDispatcher{}, books)

	w := doRequest(e, http.MethodGet, "/v1/books", "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"title":"The Lighthouse"`)

	w = doRequest(e, http.MethodGet, "/v1/books/9/export", "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/markdown")
	assert.Contains(t, w.Body.String(), "# The Lighthouse")
	assert.Equal(t, `inline; filename=book-9.md`, w.Header().Get("Content-Disposition"))

	w = doRequest(e, http.MethodGet, "/v1/books/9/export?format=html", "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "<h1>The Lighthouse</h1>")

	w = doRequest(e, http.MethodGet, "/v1/books/9/export?format=pdf", "tok", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(e, http.MethodGet, "/v1/books/404/export", "tok", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doRequest(e, http.MethodDelete, "/v1/books/9", "tok", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"9"}, books.deleted)
}

func TestBooks_PersistenceErrorIsBadGateway(t *testing.T) {
	books := &fakeBooks{err: &generation.PersistenceError{Op: "list", StatusCode: 500, Message: "db down"}}
	e := newTestEngine(&fakeGenerationService{}, &fakeDispatcher{}, books)

	w := doRequest(e, http.MethodGet, "/v1/books", "tok", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	env := decode(t, w)
	assert.Equal(t, string(errors.CodePersistenceFailed), env.Error.ErrorCode)
	assert.Contains(t, env.Error.Details, "db down")
}

type stubChecker struct{ err error }

func (s stubChecker) HealthCheck(context.Context) error { return s.err }

func TestHealth_Ready(t *testing.T) {
	h := &HealthHandler{deps: []dependency{
		{name: "redis", checker: stubChecker{}, required: true},
		{name: "postgres", checker: stubChecker{err: stderrors.New("down")}},
	}}
	e := gin.New()
	e.GET("/ready", h.Ready)

	w := httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"degraded"`)

	h.deps[0].checker = stubChecker{err: stderrors.New("refused")}
	w = httptest.NewRecorder()
	e.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

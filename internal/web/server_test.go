package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/loadimport/internal/config"
	"github.com/JonMunkholm/loadimport/internal/core"
)

const uploadCSV = `Load #,Pickup City,Pickup State,Delivery City,Delivery State,Weight
,Mobile,AL,Dallas,TX,1000
,,AL,,TX,2000
`

// memStore is an in-memory core.Store.
type memStore struct {
	mu      sync.Mutex
	loads   []core.LoadRecord
	pingErr error
}

func (m *memStore) BeginImport(ctx context.Context) (core.ImportTx, error) {
	return &memTx{store: m}, nil
}

func (m *memStore) ListBatches(ctx context.Context, ownerID string) ([]core.BatchSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.BatchSummary
	seen := map[string]int{}
	for _, l := range m.loads {
		if l.Batch.OwnerID != ownerID {
			continue
		}
		i, ok := seen[l.Batch.BatchID]
		if !ok {
			i = len(out)
			seen[l.Batch.BatchID] = i
			out = append(out, core.BatchSummary{BatchID: l.Batch.BatchID, Source: l.Batch.Source, ImportedAt: l.Batch.ImportedAt})
		}
		out[i].ActiveCount++
	}
	return out, nil
}

func (m *memStore) Ping(ctx context.Context) error { return m.pingErr }

type memTx struct {
	store   *memStore
	pending []core.LoadRecord
}

func (t *memTx) LockOwner(ctx context.Context, ownerID string) error { return nil }
func (t *memTx) DeactivateSource(ctx context.Context, ownerID string, source core.Source) (int64, error) {
	return 0, nil
}
func (t *memTx) DeactivateUnsourced(ctx context.Context, ownerID string) (int64, error) {
	return 0, nil
}
func (t *memTx) MaxLoadNumber(ctx context.Context, ownerID string) (int64, bool, error) {
	return 0, false, nil
}
func (t *memTx) InsertLoad(ctx context.Context, rec core.LoadRecord) error {
	t.pending = append(t.pending, rec)
	return nil
}
func (t *memTx) Commit(ctx context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.loads = append(t.store.loads, t.pending...)
	return nil
}
func (t *memTx) Rollback(ctx context.Context) error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 10 * time.Second},
		Import: config.ImportConfig{MaxFileSize: 1 << 20},
		Rate:   config.RateLimitConfig{Enabled: false},
		Metrics: config.MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

func newTestServer(t *testing.T, store *memStore) *Server {
	t.Helper()
	svc := core.NewService(store, core.ServiceConfig{
		Clock: func() time.Time { return time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC) },
	})
	srv := NewServer(svc, testConfig())
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return srv
}

func do(t *testing.T, srv *Server, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	return rec
}

func uploadRequest(t *testing.T, owner, name, body, template string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(body))
	require.NoError(t, err)
	if template != "" {
		require.NoError(t, mw.WriteField("template", template))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/imports", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if owner != "" {
		req.Header.Set("X-Owner-ID", owner)
	}
	return req
}

func ownerRequest(method, path, owner string, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("X-Owner-ID", owner)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestImportFlow(t *testing.T) {
	store := &memStore{}
	srv := newTestServer(t, store)

	rec := do(t, srv, uploadRequest(t, "o1", "loads.csv", uploadCSV, "auto"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[sessionView](t, rec)
	assert.Equal(t, core.StageMap, created.Stage)
	assert.Equal(t, core.SourceGeneric, created.Source)
	assert.Equal(t, 2, created.RowCount)
	require.Len(t, created.Columns, 6)
	assert.Equal(t, core.KeyOriginCity, created.Columns[1].Field)
	assert.Empty(t, created.Missing)

	rec = do(t, srv, ownerRequest(http.MethodPost, "/api/imports/"+created.ID+"/preview", "o1", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	previewed := decode[sessionView](t, rec)
	require.NotNil(t, previewed.Preview)
	assert.Equal(t, 1, previewed.Preview.Accepted)
	assert.Equal(t, 1, previewed.Preview.Rejected)

	rec = do(t, srv, ownerRequest(http.MethodPost, "/api/imports/"+created.ID+"/commit", "o1", ""))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	committed := decode[commitResponse](t, rec)
	assert.Equal(t, 1, committed.Outcome.SuccessCount)
	assert.Equal(t, 1, committed.Outcome.FailedCount)
	assert.Len(t, store.loads, 1)

	// A second commit is refused.
	rec = do(t, srv, ownerRequest(http.MethodPost, "/api/imports/"+created.ID+"/commit", "o1", ""))
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, srv, ownerRequest(http.MethodGet, "/api/batches", "o1", ""))
	require.Equal(t, http.StatusOK, rec.Code)
	batches := decode[[]core.BatchSummary](t, rec)
	require.Len(t, batches, 1)
	assert.Equal(t, committed.Batch.BatchID, batches[0].BatchID)
}

func TestCreateImport_Errors(t *testing.T) {
	srv := newTestServer(t, &memStore{})

	tests := []struct {
		name string
		req  *http.Request
		want int
		code string
	}{
		{"missing owner", uploadRequest(t, "", "loads.csv", uploadCSV, ""), http.StatusBadRequest, "AUTH_MISSING_OWNER"},
		{"bad template", uploadRequest(t, "o1", "loads.csv", uploadCSV, "mystery"), http.StatusBadRequest, ""},
		{"empty file", uploadRequest(t, "o1", "loads.csv", "  \n", ""), http.StatusBadRequest, ""},
		{"unsupported type", uploadRequest(t, "o1", "logo.png", "\x89PNG\r\n\x1a\n0000IHDR", ""), http.StatusUnprocessableEntity, core.CodeUnreadableSheet},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.req)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), tt.code)
			}
		})
	}
}

func TestUpdateMapping(t *testing.T) {
	srv := newTestServer(t, &memStore{})
	created := decode[sessionView](t, do(t, srv, uploadRequest(t, "o1", "loads.csv", uploadCSV, "")))

	body := `{"assignments":{"Delivery City":"origin_city"}}`
	rec := do(t, srv, ownerRequest(http.MethodPut, "/api/imports/"+created.ID+"/mapping", "o1", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	view := decode[sessionView](t, rec)
	assert.Equal(t, []string{"Pickup City"}, view.Displaced)
	assert.Contains(t, view.Missing, "Destination City")

	rec = do(t, srv, ownerRequest(http.MethodPost, "/api/imports/"+created.ID+"/preview", "o1", ""))
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	assert.Equal(t, "VAL001", resp.Code)
	assert.Equal(t, []string{"Destination City"}, resp.Missing)

	rec = do(t, srv, ownerRequest(http.MethodPut, "/api/imports/"+created.ID+"/mapping", "o1", `{"assignments":{"Weight":"volume"}}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateMapping_HTMXForm(t *testing.T) {
	srv := newTestServer(t, &memStore{})
	created := decode[sessionView](t, do(t, srv, uploadRequest(t, "o1", "loads.csv", uploadCSV, "")))

	req := httptest.NewRequest(http.MethodPut, "/api/imports/"+created.ID+"/mapping",
		strings.NewReader("assignments%5BWeight%5D="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-Owner-ID", "o1")
	req.Header.Set("HX-Request", "true")

	rec := do(t, srv, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), `<select name="assignments[Weight]">`)
	assert.Contains(t, rec.Body.String(), `<option value="" selected>Skip</option>`)
}

func TestSessionIsolation(t *testing.T) {
	srv := newTestServer(t, &memStore{})
	created := decode[sessionView](t, do(t, srv, uploadRequest(t, "o1", "loads.csv", uploadCSV, "")))

	rec := do(t, srv, ownerRequest(http.MethodGet, "/api/imports/"+created.ID, "o2", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	req := ownerRequest(http.MethodGet, "/api/imports/"+created.ID, "o2", "")
	req.Header.Set("HX-Request", "true")
	rec = do(t, srv, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `class="alert alert-error"`)

	rec = do(t, srv, ownerRequest(http.MethodDelete, "/api/imports/"+created.ID, "o1", ""))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, srv, ownerRequest(http.MethodGet, "/api/imports/"+created.ID, "o1", ""))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealth(t *testing.T) {
	store := &memStore{}
	srv := newTestServer(t, store)

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	store.pingErr = errors.New("connection refused")
	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "unreachable", decode[healthResponse](t, rec).Database)
}

func TestListTemplatesAndFields(t *testing.T) {
	srv := newTestServer(t, &memStore{})

	rec := do(t, srv, httptest.NewRequest(http.MethodGet, "/api/templates", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[[]templateOption](t, rec)
	require.NotEmpty(t, opts)
	assert.Equal(t, core.TemplateAuto, opts[0].Value)
	assert.Equal(t, core.TemplateStandard, opts[len(opts)-1].Value)

	rec = do(t, srv, httptest.NewRequest(http.MethodGet, "/api/fields", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	fields := decode[[]fieldView](t, rec)
	assert.Equal(t, core.KeyLoadNumber, fields[0].Key)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrSessionNotFound, http.StatusNotFound},
		{core.ErrInvalidTransition, http.StatusConflict},
		{&core.FormatError{Code: core.CodeNoDataRows}, http.StatusUnprocessableEntity},
		{&core.ValidationError{Missing: []string{"Origin City"}}, http.StatusUnprocessableEntity},
		{core.ErrTooManyCommits, http.StatusServiceUnavailable},
		{&core.SystemError{Op: "insert", Err: errors.New("conn reset")}, http.StatusServiceUnavailable},
		{core.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRateLimiter(t *testing.T) {
	srv := newTestServer(t, &memStore{})
	rl := srv.newRateLimiter(2, time.Minute)
	assert.True(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("1.1.1.1"))
	assert.False(t, rl.allow("1.1.1.1"))
	assert.True(t, rl.allow("2.2.2.2"))
}

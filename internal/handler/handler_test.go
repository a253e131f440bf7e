package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"grue/internal/config"
	"grue/internal/model"
	"grue/internal/repository"
	"grue/internal/service"
	"grue/internal/sweeper"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testDomain = "http://sho.rt"

type fakeStore struct {
	mu     sync.Mutex
	byCode map[string]*model.LinkRecord
}

func newFakeStore() *fakeStore {
	return &fakeStore{byCode: map[string]*model.LinkRecord{}}
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (*model.LinkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rec, ok := f.byCode[code]; ok {
		cp := *rec
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) GetByLongURL(_ context.Context, longURL string) (*model.LinkRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.byCode {
		if rec.LongURL == longURL {
			cp := *rec
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeStore) Insert(_ context.Context, rec *model.LinkRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, taken := f.byCode[rec.ShortCode]; taken {
		return repository.ErrCodeTaken
	}
	cp := *rec
	f.byCode[rec.ShortCode] = &cp
	return nil
}

func (f *fakeStore) Touch(_ context.Context, code string, visitedAt time.Time, expiresAt *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.byCode[code]
	if !ok {
		return repository.ErrNotFound
	}
	rec.LastVisitedAt = visitedAt
	if expiresAt != nil {
		t := *expiresAt
		rec.ExpiresAt = &t
	}
	return nil
}

type fakeDeleter struct{ deleted int64 }

func (f *fakeDeleter) DeleteExpired(_ context.Context, _ time.Time) (int64, error) {
	return f.deleted, nil
}

// awayWindow returns a sweep window guaranteed not to match "now".
func awayWindow() config.TimeOfDay {
	return config.TimeOfDay{Hour: (time.Now().Hour() + 6) % 24, Minute: 0}
}

func newTestHandler() (*Handler, *fakeStore) {
	store := newFakeStore()
	svc := service.NewService(store, nil, testDomain)
	sw := sweeper.New(&fakeDeleter{}, awayWindow())
	return NewHandler(svc, sw), store
}

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestGenerateAPI(t *testing.T) {
	h, _ := newTestHandler()
	r := h.Routes()

	w := postJSON(t, r, "/api/generate", `{"grue-link": "https://example.com/a"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Link     string `json:"link"`
		Redirect string `json:"redirect"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "https://example.com/a", resp.Redirect)
	assert.True(t, strings.HasPrefix(resp.Link, testDomain+"/"))
	assert.Len(t, strings.TrimPrefix(resp.Link, testDomain+"/"), 5)
}

func TestGenerateAPIEmptyInput(t *testing.T) {
	h, store := newTestHandler()
	r := h.Routes()

	w := postJSON(t, r, "/api/generate", `{"grue-link": ""}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "{}", strings.TrimSpace(w.Body.String()))
	assert.Empty(t, store.byCode)
}

func TestGenerateAPIInvalidURL(t *testing.T) {
	h, store := newTestHandler()
	r := h.Routes()

	for _, body := range []string{`{"grue-link": "not a url"}`, `not json`} {
		w := postJSON(t, r, "/api/generate", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.JSONEq(t, `{"error": "Invalid URL!"}`, w.Body.String())
	}
	assert.Empty(t, store.byCode)
}

func TestGenerateAPIDedup(t *testing.T) {
	h, store := newTestHandler()
	r := h.Routes()

	first := postJSON(t, r, "/api/generate", `{"grue-link": "https://example.com/a"}`)
	second := postJSON(t, r, "/api/generate", `{"grue-link": "https://example.com/a"}`)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Len(t, store.byCode, 1)
}

func TestRedirect(t *testing.T) {
	h, _ := newTestHandler()
	r := h.Routes()

	w := postJSON(t, r, "/api/generate", `{"grue-link": "https://example.com/a"}`)
	var resp struct {
		Link string `json:"link"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	code := strings.TrimPrefix(resp.Link, testDomain+"/")

	req := httptest.NewRequest("GET", "/"+code, nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "https://example.com/a", rec.Header().Get("Location"))
}

func TestRedirectUnknownCode(t *testing.T) {
	h, _ := newTestHandler()
	r := h.Routes()

	req := httptest.NewRequest("GET", "/zzzzz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "404")
}

func TestShortenForm(t *testing.T) {
	h, _ := newTestHandler()
	r := h.Routes()

	form := url.Values{"grue-link": {"https://example.com/a"}}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Successfully shortened the long url!")
	assert.Contains(t, rec.Body.String(), testDomain+"/")
}

func TestShortenFormInvalid(t *testing.T) {
	h, _ := newTestHandler()
	r := h.Routes()

	form := url.Values{"grue-link": {"garbage"}}
	req := httptest.NewRequest("POST", "/", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid URL!")
}

func TestWorkerCleanSkippedOutsideWindow(t *testing.T) {
	h, _ := newTestHandler()
	r := h.Routes()

	req := httptest.NewRequest("GET", "/worker/clean/database", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "skipped", strings.TrimSpace(rec.Body.String()))
}

func TestHealthz(t *testing.T) {
	h, _ := newTestHandler()
	r := h.Routes()

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

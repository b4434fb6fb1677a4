package idempotency

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/putwall-service/pkg/logging"
	"github.com/wms-platform/putwall-service/pkg/metrics"
)

type mockKeyRepository struct {
	acquireLockFunc   func(ctx context.Context, key *Key, lockTimeout time.Duration) (*Key, bool, error)
	storeResponseFunc func(ctx context.Context, keyID string, code int, body []byte, headers map[string]string) error
}

func (m *mockKeyRepository) AcquireLock(ctx context.Context, key *Key, lockTimeout time.Duration) (*Key, bool, error) {
	return m.acquireLockFunc(ctx, key, lockTimeout)
}

func (m *mockKeyRepository) ReleaseLock(context.Context, string, string) error { return nil }

func (m *mockKeyRepository) StoreResponse(ctx context.Context, keyID string, code int, body []byte, headers map[string]string) error {
	if m.storeResponseFunc != nil {
		return m.storeResponseFunc(ctx, keyID, code, body, headers)
	}
	return nil
}

func (m *mockKeyRepository) Get(context.Context, string, string) (*Key, error) { return nil, ErrNotFound }

func (m *mockKeyRepository) EnsureIndexes(context.Context) error { return nil }

func testLogger() *logging.Logger {
	cfg := logging.DefaultConfig("idempotency-test")
	cfg.Output = io.Discard
	return logging.New(cfg)
}

type testRouter struct {
	router *gin.Engine
	calls  atomic.Int32
	status int
}

func newTestRouter(t *testing.T, config *Config) *testRouter {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tr := &testRouter{router: gin.New(), status: http.StatusCreated}
	tr.router.Use(Middleware(config))
	handler := func(c *gin.Context) {
		n := tr.calls.Add(1)
		c.Header("X-Request-ID", c.GetHeader("X-Request-ID"))
		c.JSON(tr.status, gin.H{"call": n, "key": KeyFromContext(c)})
	}
	tr.router.POST("/walls", handler)
	tr.router.GET("/walls", handler)
	return tr
}

func (tr *testRouter) do(method, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/walls", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	w := httptest.NewRecorder()
	tr.router.ServeHTTP(w, req)
	return w
}

func TestMiddlewareReplaysCompletedRequest(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("idempotency-test"))
	config := DefaultConfig("idempotency-test", NewMemoryKeyRepository(), testLogger())
	config.Metrics = m
	tr := newTestRouter(t, config)

	first := tr.do(http.MethodPost, "create-1", `{"location":"A"}`)
	require.Equal(t, http.StatusCreated, first.Code)

	second := tr.do(http.MethodPost, "create-1", `{"location":"A"}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(HeaderReplayed))
	assert.Equal(t, int32(1), tr.calls.Load())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotencyRequests.WithLabelValues("idempotency-test", http.MethodPost, "/walls", "miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IdempotencyRequests.WithLabelValues("idempotency-test", http.MethodPost, "/walls", "hit")))
}

func TestMiddlewareRejectsReusedKeyWithDifferentBody(t *testing.T) {
	tr := newTestRouter(t, DefaultConfig("idempotency-test", NewMemoryKeyRepository(), testLogger()))

	require.Equal(t, http.StatusCreated, tr.do(http.MethodPost, "create-1", `{"location":"A"}`).Code)

	w := tr.do(http.MethodPost, "create-1", `{"location":"B"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_PARAMETER_MISMATCH")
	assert.Equal(t, int32(1), tr.calls.Load())
}

func TestMiddlewareRejectsKeyInFlight(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockKeyRepository{
		acquireLockFunc: func(_ context.Context, key *Key, _ time.Duration) (*Key, bool, error) {
			held := *key
			held.LockedAt = &now
			return &held, false, nil
		},
	}
	tr := newTestRouter(t, DefaultConfig("idempotency-test", repo, testLogger()))

	w := tr.do(http.MethodPost, "create-1", `{}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "IDEMPOTENCY_CONCURRENT_REQUEST")
	assert.Zero(t, tr.calls.Load())
}

func TestMiddlewareStorageFailureIsUnavailable(t *testing.T) {
	repo := &mockKeyRepository{
		acquireLockFunc: func(context.Context, *Key, time.Duration) (*Key, bool, error) {
			return nil, false, errors.New("mongo down")
		},
	}
	tr := newTestRouter(t, DefaultConfig("idempotency-test", repo, testLogger()))

	w := tr.do(http.MethodPost, "create-1", `{}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Zero(t, tr.calls.Load())
}

func TestMiddlewareServerErrorFreesKey(t *testing.T) {
	tr := newTestRouter(t, DefaultConfig("idempotency-test", NewMemoryKeyRepository(), testLogger()))
	tr.status = http.StatusInternalServerError

	require.Equal(t, http.StatusInternalServerError, tr.do(http.MethodPost, "create-1", `{}`).Code)

	tr.status = http.StatusCreated
	w := tr.do(http.MethodPost, "create-1", `{}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get(HeaderReplayed))
	assert.Equal(t, int32(2), tr.calls.Load())
}

func TestMiddlewareKeyHandling(t *testing.T) {
	tests := []struct {
		name       string
		requireKey bool
		method     string
		key        string
		wantStatus int
		wantCalls  int32
	}{
		{name: "no key optional", method: http.MethodPost, wantStatus: http.StatusCreated, wantCalls: 1},
		{name: "no key required", requireKey: true, method: http.MethodPost, wantStatus: http.StatusBadRequest},
		{name: "invalid key", method: http.MethodPost, key: "has spaces in it", wantStatus: http.StatusBadRequest},
		{name: "too long", method: http.MethodPost, key: strings.Repeat("k", DefaultMaxKeyLength+1), wantStatus: http.StatusBadRequest},
		{name: "get skipped", requireKey: true, method: http.MethodGet, wantStatus: http.StatusCreated, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig("idempotency-test", NewMemoryKeyRepository(), testLogger())
			config.RequireKey = tt.requireKey
			tr := newTestRouter(t, config)

			w := tr.do(tt.method, tt.key, `{}`)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCalls, tr.calls.Load())
		})
	}
}

func TestMiddlewareDoesNotReplayRequestID(t *testing.T) {
	var stored map[string]string
	repo := NewMemoryKeyRepository()
	tr := newTestRouter(t, DefaultConfig("idempotency-test", &recordingRepository{MemoryKeyRepository: repo, headers: &stored}, testLogger()))

	req := httptest.NewRequest(http.MethodPost, "/walls", strings.NewReader(`{}`))
	req.Header.Set(HeaderIdempotencyKey, "create-1")
	req.Header.Set("X-Request-ID", "req-1")
	tr.router.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, stored)
	assert.NotContains(t, stored, "X-Request-Id")
	assert.Contains(t, stored, "Content-Type")
}

type recordingRepository struct {
	*MemoryKeyRepository
	headers *map[string]string
}

func (r *recordingRepository) StoreResponse(ctx context.Context, keyID string, code int, body []byte, headers map[string]string) error {
	*r.headers = headers
	return r.MemoryKeyRepository.StoreResponse(ctx, keyID, code, body, headers)
}

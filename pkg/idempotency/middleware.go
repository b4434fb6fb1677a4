package idempotency

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/putwall-service/pkg/logging"
)

const (
	// HeaderIdempotencyKey carries the client supplied key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderReplayed is set on responses served from a stored key
	HeaderReplayed = "Idempotent-Replayed"

	// ContextKeyIdempotencyKey holds the validated key for downstream handlers
	ContextKeyIdempotencyKey = "idempotency_key"
)

// headers that belong to the request being served, never to the replay
var skipReplayHeaders = map[string]bool{
	"X-Request-Id":     true,
	"X-Correlation-Id": true,
	HeaderReplayed:     true,
}

type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// KeyFromContext returns the key the middleware accepted for this request
func KeyFromContext(c *gin.Context) string {
	return c.GetString(ContextKeyIdempotencyKey)
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"code":      code,
		"message":   message,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"path":      c.Request.URL.Path,
	})
}

// Middleware replays the stored response for a repeated Idempotency-Key.
// A key reused with a different method, path or body gets 422, a key still
// being processed gets 409. 5xx responses free the key for a retry.
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.OnlyMutating && !isMutatingMethod(c.Request.Method) {
			c.Next()
			return
		}

		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				abort(c, http.StatusBadRequest, "IDEMPOTENCY_KEY_REQUIRED", "Idempotency-Key header is required for this operation")
				return
			}
			c.Next()
			return
		}

		if err := ValidateKey(key, config.MaxKeyLength); err != nil {
			abort(c, http.StatusBadRequest, "IDEMPOTENCY_KEY_INVALID", err.Error())
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewReader(body))
		}

		process(c, config, key, ComputeFingerprint(c.Request.Method, c.Request.URL.Path, body))
	}
}

func process(c *gin.Context, config *Config, key, fingerprint string) {
	ctx := c.Request.Context()
	method, path := c.Request.Method, c.FullPath()
	logger := config.Logger.WithContext(ctx).WithFields(map[string]any{
		"idempotencyKey": key,
		"path":           c.Request.URL.Path,
		"method":         method,
	})

	now := time.Now().UTC()
	stored, acquired, err := config.Repository.AcquireLock(ctx, &Key{
		Key:                key,
		ServiceID:          config.ServiceName,
		RequestPath:        c.Request.URL.Path,
		RequestMethod:      method,
		RequestFingerprint: fingerprint,
		CreatedAt:          now,
		ExpiresAt:          now.Add(config.RetentionPeriod),
	}, config.LockTimeout)
	if err != nil {
		logger.WithError(err).Error("Failed to acquire idempotency lock")
		if config.Metrics != nil {
			config.Metrics.RecordIdempotencyStorageError("acquire_lock")
		}
		abort(c, http.StatusServiceUnavailable, "IDEMPOTENCY_STORAGE_UNAVAILABLE", "Idempotency storage is temporarily unavailable")
		return
	}

	record := func(outcome string) {
		if config.Metrics != nil {
			config.Metrics.RecordIdempotency(method, path, outcome)
		}
	}

	if stored.RequestFingerprint != fingerprint {
		if acquired {
			release(ctx, config, stored, logger)
		}
		logger.Warn("Idempotency key reused for a different request")
		record("mismatch")
		abort(c, http.StatusUnprocessableEntity, "IDEMPOTENCY_PARAMETER_MISMATCH",
			"Request parameters differ from the original request with this idempotency key")
		return
	}

	if !acquired {
		if stored.IsCompleted() {
			logger.Info("Idempotency cache hit", "statusCode", stored.ResponseCode)
			record("hit")
			replay(c, stored)
			return
		}
		logger.Warn("Concurrent request with the same idempotency key")
		record("conflict")
		abort(c, http.StatusConflict, "IDEMPOTENCY_CONCURRENT_REQUEST",
			"A request with this idempotency key is currently being processed")
		return
	}

	record("miss")
	c.Set(ContextKeyIdempotencyKey, key)

	writer := &responseWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
	c.Writer = writer
	c.Next()

	status := writer.Status()
	if status >= http.StatusInternalServerError {
		release(ctx, config, stored, logger)
		return
	}

	responseBody := writer.body.Bytes()
	if len(responseBody) > config.MaxResponseSize {
		logger.Warn("Response too large to cache", "size", len(responseBody), "maxSize", config.MaxResponseSize)
		release(ctx, config, stored, logger)
		return
	}

	if err := config.Repository.StoreResponse(ctx, stored.ID.Hex(), status, responseBody, responseHeaders(c)); err != nil {
		logger.WithError(err).Error("Failed to store idempotency response")
		if config.Metrics != nil {
			config.Metrics.RecordIdempotencyStorageError("store_response")
		}
	}
}

func release(ctx context.Context, config *Config, stored *Key, logger *logging.Logger) {
	if err := config.Repository.ReleaseLock(ctx, stored.ID.Hex(), stored.LockToken); err != nil {
		logger.WithError(err).Error("Failed to release idempotency lock")
		if config.Metrics != nil {
			config.Metrics.RecordIdempotencyStorageError("release_lock")
		}
	}
}

func replay(c *gin.Context, stored *Key) {
	for k, v := range stored.ResponseHeaders {
		c.Header(k, v)
	}
	c.Header(HeaderReplayed, "true")

	contentType := stored.ResponseHeaders["Content-Type"]
	if contentType == "" {
		contentType = "application/json; charset=utf-8"
	}
	c.Data(stored.ResponseCode, contentType, stored.ResponseBody)
	c.Abort()
}

func isMutatingMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func responseHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)
	for k, v := range c.Writer.Header() {
		if len(v) > 0 && !skipReplayHeaders[http.CanonicalHeaderKey(k)] {
			headers[http.CanonicalHeaderKey(k)] = v[0]
		}
	}
	return headers
}

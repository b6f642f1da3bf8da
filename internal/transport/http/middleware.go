package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/domain"
)

type contextKey string

const (
	ContextKeyCreate contextKey = "product-create"
	ContextKeyPatch  contextKey = "product-patch"
)

const requestIDHeader = "X-Request-ID"

// Middleware struct holds dependencies for middleware functions
type Middleware struct {
	Logger hclog.Logger
}

// NewMiddleware creates a new Middleware instance
func NewMiddleware(logger hclog.Logger) *Middleware {
	return &Middleware{Logger: logger}
}

// ContentTypeMiddleware sets the Content-Type header to application/json
func (m *Middleware) ContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// LoggingMiddleware logs the incoming requests and responses. An incoming
// X-Request-ID is kept, otherwise a new one is generated.
func (m *Middleware) LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}

		m.Logger.Debug("Incoming request",
			"method", r.Method,
			"url", r.URL.Path,
			"request_id", requestID,
		)

		w.Header().Set(requestIDHeader, requestID)

		next.ServeHTTP(w, r)

		m.Logger.Info("Completed request",
			"method", r.Method,
			"url", r.URL.Path,
			"request_id", requestID,
			"duration", time.Since(start),
		)
	})
}

// CreateBodyMiddleware decodes a ProductCreate body and adds it to the context
func (m *Middleware) CreateBodyMiddleware(next http.Handler) http.Handler {
	return decodeBody[domain.ProductCreate](m.Logger, ContextKeyCreate, domain.MsgInvalidCreate, next)
}

// PatchBodyMiddleware decodes a ProductPatch body and adds it to the context
func (m *Middleware) PatchBodyMiddleware(next http.Handler) http.Handler {
	return decodeBody[domain.ProductPatch](m.Logger, ContextKeyPatch, domain.MsgInvalidUpdate, next)
}

// decodeBody rejects bodies that are not JSON or do not fit T. Field rules
// are left to the service so every caller gets the same validation errors.
func decodeBody[T any](logger hclog.Logger, key contextKey, invalidMsg string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var raw json.RawMessage
		if err := readJSON(w, r, &raw); err != nil {
			logger.Debug("Error decoding request body", "error", err)
			writeDecodeError(w, err)
			return
		}

		body, err := unmarshalBody[T](raw, invalidMsg)
		if err != nil {
			logger.Debug("Rejected request body", "error", err)
			writeDecodeError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), key, body)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

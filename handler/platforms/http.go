// Package platforms adapts the platform-agnostic handler to concrete
// runtimes: a standard HTTP server and AWS Lambda.
package platforms

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"firestudio/handler"
	"firestudio/health"
	"firestudio/observability/monitor"
)

// HTTPAdapter adapts the handler for standard HTTP servers.
// This adapter can be used for local development, Kubernetes deployments,
// or any standard HTTP server environment.
type HTTPAdapter struct {
	handler        *handler.Handler
	monitor        *monitor.Monitor
	aggregator     *health.Aggregator
	allowedOrigins []string
}

// NewHTTPAdapter creates a new HTTP adapter. The aggregator backs the
// health endpoints; allowedOrigins configures the CORS layer.
func NewHTTPAdapter(h *handler.Handler, mon *monitor.Monitor, aggregator *health.Aggregator, allowedOrigins []string) *HTTPAdapter {
	return &HTTPAdapter{
		handler:        h,
		monitor:        mon,
		aggregator:     aggregator,
		allowedOrigins: allowedOrigins,
	}
}

// ServeHTTP implements the http.Handler interface, allowing the adapter
// to be used with any standard HTTP server or router.
func (a *HTTPAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.monitor.ConnectionOpened()
	defer a.monitor.ConnectionClosed()

	a.applyCORS(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if a.isHealthCheck(r.URL.Path) {
		a.handleHealth(w, r)
		return
	}

	if r.URL.Path == "/" {
		a.handleRoot(w)
		return
	}

	// Metrics are served on a dedicated listener, never through this mux
	if r.URL.Path == "/metrics" {
		http.Error(w, "Metrics endpoint is configured separately", http.StatusNotFound)
		return
	}

	body, err := a.readBody(r)
	if err != nil {
		a.writeResponse(w, handler.NewErrorResponse(
			uuid.New().String(),
			"INVALID_REQUEST",
			"Failed to read request body",
			err.Error(),
		), nil)
		return
	}

	req := a.buildRequest(r, body)

	resp, err := a.handler.Handle(r.Context(), req)
	a.writeResponse(w, resp, err)
}

// applyCORS writes the CORS response headers when the request origin is in
// the allowed list.
func (a *HTTPAdapter) applyCORS(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}

	for _, allowed := range a.allowedOrigins {
		if allowed == "*" || allowed == origin {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			return
		}
	}
}

// isHealthCheck checks if the path is a health check endpoint
func (a *HTTPAdapter) isHealthCheck(path string) bool {
	healthPaths := []string{
		"/api/health",
		"/health",
		"/healthz",
		"/ready",
		"/readyz",
	}

	for _, healthPath := range healthPaths {
		if path == healthPath {
			return true
		}
	}
	return false
}

// handleHealth handles health check requests. The worker's own health is
// folded into the aggregated snapshot as one more service entry.
func (a *HTTPAdapter) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.handler.Health(r.Context()); err != nil {
		a.aggregator.SetStatus(a.handler.Worker().Name(), health.StatusDisconnected)
	} else {
		a.aggregator.SetStatus(a.handler.Worker().Name(), health.StatusConnected)
	}

	status := a.aggregator.Check()

	code := http.StatusOK
	if status.Status == health.StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

// handleRoot serves the service description, mirroring the API index.
func (a *HTTPAdapter) handleRoot(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Fire Studio Camera API",
		"worker":  a.handler.Worker().Name(),
		"endpoints": map[string]string{
			"upload": "/api/upload",
			"health": "/api/health",
		},
	})
}

// readBody reads and validates the request body
func (a *HTTPAdapter) readBody(r *http.Request) ([]byte, error) {
	maxSize := a.handler.Config().MaxRequestSize
	if maxSize <= 0 {
		maxSize = 10 * 1024 * 1024 // Default 10MB
	}

	r.Body = http.MaxBytesReader(nil, r.Body, maxSize)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	defer r.Body.Close()

	return body, nil
}

// buildRequest creates a platform-agnostic request from HTTP request
func (a *HTTPAdapter) buildRequest(r *http.Request, body []byte) handler.Request {
	requestID := a.extractRequestID(r)
	if requestID == "" {
		requestID = uuid.New().String()
	}

	metadata := map[string]string{
		"http_method": r.Method,
		"http_path":   r.URL.Path,
		"remote_addr": r.RemoteAddr,
	}
	if v := r.Header.Get("Content-Type"); v != "" {
		metadata["content_type"] = v
	}
	if v := r.Header.Get("X-Trace-ID"); v != "" {
		metadata["trace_id"] = v
	}

	return handler.Request{
		ID:        requestID,
		Source:    "http",
		Type:      a.extractRequestType(r),
		Payload:   json.RawMessage(body),
		Metadata:  metadata,
		Timestamp: time.Now().UTC(),
	}
}

// extractRequestType derives the request type from the URL path:
// "/api/upload" becomes "upload".
func (a *HTTPAdapter) extractRequestType(r *http.Request) string {
	path := strings.TrimPrefix(r.URL.Path, "/api")
	path = strings.Trim(path, "/")
	if path == "" {
		return ""
	}
	// Only the first path segment names the operation
	if idx := strings.IndexByte(path, '/'); idx >= 0 {
		path = path[:idx]
	}
	return path
}

// extractRequestID attempts to extract request ID from headers
func (a *HTTPAdapter) extractRequestID(r *http.Request) string {
	headers := []string{
		"X-Request-ID",
		"X-Request-Id",
		"X-Correlation-ID",
	}

	for _, header := range headers {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}
	return ""
}

// writeResponse writes the worker response as JSON, mapping failures to
// appropriate status codes.
func (a *HTTPAdapter) writeResponse(w http.ResponseWriter, resp handler.Response, err error) {
	w.Header().Set("Content-Type", "application/json")

	code := http.StatusOK
	switch {
	case err != nil && resp.Error == nil:
		code = http.StatusInternalServerError
		resp = handler.NewErrorResponse(resp.ID, "INTERNAL_ERROR", "Request processing failed", err.Error())
	case !resp.Success && resp.Error != nil:
		code = statusFromCode(resp.Error.Code)
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

// statusFromCode maps worker error codes to HTTP status codes.
func statusFromCode(code string) int {
	switch code {
	case "VALIDATION_ERROR", "INVALID_REQUEST":
		return http.StatusBadRequest
	case "NOT_FOUND":
		return http.StatusNotFound
	case "TIMEOUT":
		return http.StatusGatewayTimeout
	case "SERVICE_UNAVAILABLE":
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

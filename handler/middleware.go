package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"firestudio/observability"
	"firestudio/observability/monitor"
	"firestudio/observability/types"
)

// InstrumentationMiddleware runs every request through the operation
// monitor: one request-counter increment before processing, one duration
// observation after, and exactly one success or error log entry. The
// request type is used as the endpoint label and the transport method
// (HTTP verb, or the request source for event platforms) as the method
// label.
//
// The middleware is transparent: the response and error produced by the
// inner chain are returned unchanged.
func InstrumentationMiddleware(mon *monitor.Monitor) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			var (
				resp Response
				err  error
			)

			method, ok := req.GetMetadata("http_method")
			if !ok || method == "" {
				method = req.Source
			}

			// The synthesized outcome error only drives telemetry; the
			// caller sees the original resp/err pair.
			_ = mon.Instrument(ctx, method, req.Type, func(ctx context.Context) error {
				resp, err = next(ctx, req)
				if err != nil {
					return err
				}
				if !resp.Success && resp.Error != nil {
					return fmt.Errorf("%s: %s", resp.Error.Code, resp.Error.Message)
				}
				return nil
			})

			return resp, err
		}
	}
}

// RecoveryMiddleware recovers from panics and returns an error response.
// It sits inside the instrumentation layer so a recovered panic is
// recorded as a regular failed request.
func RecoveryMiddleware(logger observability.Logger) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (resp Response, err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.Error(ctx, "Panic recovered", fmt.Errorf("%v", r), types.Fields{
						"request_id": req.ID,
						"type":       req.Type,
						"stack":      string(debug.Stack()),
					})

					resp = NewErrorResponse(
						req.ID,
						"INTERNAL_ERROR",
						"An internal error occurred",
						"", // Don't expose panic details to client
					)

					err = fmt.Errorf("panic recovered: %v", r)
				}
			}()

			return next(ctx, req)
		}
	}
}

// TracingMiddleware ensures each request has a trace ID for correlation
// across services. The IDs are placed on the context so the logging
// pipeline's enrichment stage attaches them to every entry.
func TracingMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			traceID := extractTraceID(req)
			if traceID == "" {
				traceID = uuid.New().String()
			}

			ctx = context.WithValue(ctx, "trace_id", traceID)
			req.SetMetadata("trace_id", traceID)

			resp, err := next(ctx, req)

			if resp.Metadata == nil {
				resp.Metadata = make(map[string]string)
			}
			resp.Metadata["trace_id"] = traceID

			return resp, err
		}
	}
}

// TimeoutMiddleware enforces a timeout on request processing.
// If the timeout is exceeded, it returns a timeout error response.
func TimeoutMiddleware(timeout time.Duration) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			type result struct {
				resp Response
				err  error
			}
			resultChan := make(chan result, 1)

			go func() {
				resp, err := next(timeoutCtx, req)
				resultChan <- result{resp, err}
			}()

			select {
			case res := <-resultChan:
				return res.resp, res.err

			case <-timeoutCtx.Done():
				return NewErrorResponse(
					req.ID,
					"TIMEOUT",
					"Request processing timed out",
					fmt.Sprintf("Exceeded timeout of %v", timeout),
				), timeoutCtx.Err()
			}
		}
	}
}

// ValidationMiddleware validates and enriches incoming requests.
// It ensures requests have required fields and adds defaults where needed.
func ValidationMiddleware() Middleware {
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req Request) (Response, error) {
			if req.ID == "" {
				req.ID = uuid.New().String()
			}

			if req.Timestamp.IsZero() {
				req.Timestamp = time.Now().UTC()
			}

			if req.Type == "" {
				return NewErrorResponse(
					req.ID,
					"VALIDATION_ERROR",
					"Request type is required",
					"Missing 'type' field in request",
				), nil
			}

			if len(req.Payload) == 0 {
				return NewErrorResponse(
					req.ID,
					"VALIDATION_ERROR",
					"Request payload is required",
					"Empty payload",
				), nil
			}

			if !json.Valid(req.Payload) {
				return NewErrorResponse(
					req.ID,
					"VALIDATION_ERROR",
					"Invalid JSON payload",
					"Payload must be valid JSON",
				), nil
			}

			if req.Metadata == nil {
				req.Metadata = make(map[string]string)
			}

			return next(ctx, req)
		}
	}
}

// extractTraceID attempts to extract trace ID from various sources
func extractTraceID(req Request) string {
	traceKeys := []string{
		"trace_id",
		"x-trace-id",
		"x-request-id",
		"correlation-id",
	}

	for _, key := range traceKeys {
		if val, ok := req.Metadata[key]; ok && val != "" {
			return val
		}
	}

	return ""
}

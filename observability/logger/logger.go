// Package logger provides the structured logging pipeline. Every emitted
// entry passes through a fixed, ordered list of record-transforming stages
// and terminates in a single JSON serialization step, producing exactly one
// line per entry on the configured sink.
package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"firestudio/observability/types"
)

// LogLevel represents the severity level of a log message.
// Higher values indicate more severe messages.
type LogLevel int

// Log level constants ordered by severity (lowest to highest).
const (
	// DebugLevel is for detailed debugging information
	DebugLevel LogLevel = iota
	// InfoLevel is for general informational messages
	InfoLevel
	// WarnLevel is for warning messages that don't prevent operation
	WarnLevel
	// ErrorLevel is for error messages indicating failures
	ErrorLevel
)

// ParseLevel converts a string representation to a LogLevel.
// Unrecognized levels default to InfoLevel for safety.
func ParseLevel(level string) LogLevel {
	switch level {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// String returns the string representation of a LogLevel.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarnLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// Record is one log entry as it moves through the pipeline. Stages may add
// or transform fields; the record is private to a single emit call and is
// discarded once serialized.
type Record struct {
	Level      LogLevel
	Message    string
	LoggerName string
	Timestamp  time.Time
	Fields     types.Fields
	// Err is the error attached by Error(); rendered by the exception stage.
	Err error
}

// stage is one record-transforming step of the pipeline.
type stage func(ctx context.Context, rec *Record)

// sink serializes access to the output writer so concurrent emissions never
// interleave partial lines. It is shared by all loggers derived from the
// same root via WithFields.
type sink struct {
	mu  sync.Mutex
	out io.Writer
}

func (s *sink) writeLine(line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.out.Write(line); err != nil {
		return err
	}
	_, err := s.out.Write([]byte("\n"))
	return err
}

// JSONLogger implements the Logger interface with a staged processing
// pipeline terminating in JSON output. Each entry includes standard fields
// like timestamp, level, logger name, service and hostname.
//
// Pipeline order is fixed: level filter, context enrichment, positional
// argument formatting, timestamp stamping, error rendering, unicode
// normalization, serialization. The enrichment stages never fail past the
// pipeline boundary: an internal stage error passes the record through
// unmodified rather than aborting emission.
type JSONLogger struct {
	serviceName string
	environment string
	hostname    string
	minLevel    LogLevel
	sink        *sink
	// persistentFields are included in every entry from this logger
	persistentFields types.Fields
	stages           []stage
}

// New creates a new JSONLogger with the specified configuration.
// The logger automatically detects the system hostname and includes it in
// all entries. If output is nil, it defaults to os.Stdout.
func New(serviceName, environment, logLevel string, output io.Writer, additionalFields types.Fields) *JSONLogger {
	hostname, _ := os.Hostname()
	if hostname == "" {
		hostname = "unknown"
	}

	if output == nil {
		output = os.Stdout
	}

	l := &JSONLogger{
		serviceName:      serviceName,
		environment:      environment,
		hostname:         hostname,
		minLevel:         ParseLevel(logLevel),
		sink:             &sink{out: output},
		persistentFields: additionalFields,
	}
	l.stages = []stage{
		l.enrichContext,
		l.formatPositional,
		l.stampTimestamp,
		l.renderError,
		l.normalizeUnicode,
	}
	return l
}

// Debug logs a debug message at DEBUG level.
// This level is typically disabled in production environments.
func (l *JSONLogger) Debug(ctx context.Context, msg string, fields types.Fields) {
	if l.minLevel > DebugLevel {
		return
	}
	l.emit(ctx, DebugLevel, msg, nil, fields)
}

// Info logs an informational message at INFO level.
func (l *JSONLogger) Info(ctx context.Context, msg string, fields types.Fields) {
	if l.minLevel > InfoLevel {
		return
	}
	l.emit(ctx, InfoLevel, msg, nil, fields)
}

// Warn logs a warning message at WARN level.
func (l *JSONLogger) Warn(ctx context.Context, msg string, fields types.Fields) {
	if l.minLevel > WarnLevel {
		return
	}
	l.emit(ctx, WarnLevel, msg, nil, fields)
}

// Error logs an error message at ERROR level. The error object is rendered
// into flat error/error_type fields by the exception stage.
func (l *JSONLogger) Error(ctx context.Context, msg string, err error, fields types.Fields) {
	if l.minLevel > ErrorLevel {
		return
	}
	l.emit(ctx, ErrorLevel, msg, err, fields)
}

// WithFields returns a new JSONLogger with additional persistent fields.
// The new logger shares the parent's sink so output lines stay serialized.
func (l *JSONLogger) WithFields(fields types.Fields) types.Logger {
	newFields := make(types.Fields, len(l.persistentFields)+len(fields))
	for k, v := range l.persistentFields {
		newFields[k] = v
	}
	for k, v := range fields {
		newFields[k] = v
	}

	child := &JSONLogger{
		serviceName:      l.serviceName,
		environment:      l.environment,
		hostname:         l.hostname,
		minLevel:         l.minLevel,
		sink:             l.sink,
		persistentFields: newFields,
	}
	child.stages = []stage{
		child.enrichContext,
		child.formatPositional,
		child.stampTimestamp,
		child.renderError,
		child.normalizeUnicode,
	}
	return child
}

// emit pushes one record through the pipeline. The record is either fully
// serialized to one line or, when serialization itself fails, replaced by a
// minimal fallback record; it is never partially emitted. Emission failures
// never reach the caller.
func (l *JSONLogger) emit(ctx context.Context, level LogLevel, msg string, err error, fields types.Fields) {
	rec := &Record{
		Level:      level,
		Message:    msg,
		LoggerName: l.serviceName,
		Fields:     make(types.Fields, len(fields)+len(l.persistentFields)),
		Err:        err,
	}
	for k, v := range l.persistentFields {
		rec.Fields[k] = v
	}
	for k, v := range fields {
		rec.Fields[k] = v
	}

	for _, st := range l.stages {
		runStage(st, ctx, rec)
	}

	l.serialize(rec)
}

// runStage executes one enrichment stage. A panicking stage leaves the
// record as it was before the stage ran, so emission always proceeds.
func runStage(st stage, ctx context.Context, rec *Record) {
	defer func() {
		_ = recover()
	}()
	st(ctx, rec)
}

// enrichContext attaches logger identity and ambient correlation
// identifiers carried by the context.
func (l *JSONLogger) enrichContext(ctx context.Context, rec *Record) {
	rec.Fields["logger"] = rec.LoggerName
	rec.Fields["env"] = l.environment
	rec.Fields["hostname"] = l.hostname

	if ctx == nil {
		return
	}
	for _, key := range []string{"request_id", "trace_id", "device_id"} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			rec.Fields[key] = v
		}
	}
}

// formatPositional interpolates the message template with the "args" field
// when the template contains printf-style placeholders. On interpolation
// failure the raw template is kept and an interpolation_error field records
// what went wrong; fields are still emitted either way.
func (l *JSONLogger) formatPositional(_ context.Context, rec *Record) {
	raw, ok := rec.Fields["args"]
	if !ok {
		return
	}
	args, ok := raw.([]interface{})
	if !ok || !strings.Contains(rec.Message, "%") {
		return
	}

	formatted := fmt.Sprintf(rec.Message, args...)
	if strings.Contains(formatted, "%!") {
		rec.Fields["interpolation_error"] = fmt.Sprintf("cannot format %q with %d args", rec.Message, len(args))
		return
	}

	rec.Message = formatted
	delete(rec.Fields, "args")
}

// stampTimestamp attaches the current instant in canonical textual form.
func (l *JSONLogger) stampTimestamp(_ context.Context, rec *Record) {
	rec.Timestamp = time.Now().UTC()
	rec.Fields["timestamp"] = rec.Timestamp.Format(time.RFC3339Nano)
}

// renderError flattens any error payload into string fields: the attached
// error from Error() as well as error values passed inside fields.
func (l *JSONLogger) renderError(_ context.Context, rec *Record) {
	if rec.Err != nil {
		rec.Fields["error"] = rec.Err.Error()
		rec.Fields["error_type"] = fmt.Sprintf("%T", rec.Err)
	}
	for k, v := range rec.Fields {
		if err, ok := v.(error); ok {
			rec.Fields[k] = err.Error()
		}
	}
}

// normalizeUnicode replaces invalid byte sequences in string fields instead
// of failing serialization on them.
func (l *JSONLogger) normalizeUnicode(_ context.Context, rec *Record) {
	if !utf8.ValidString(rec.Message) {
		rec.Message = strings.ToValidUTF8(rec.Message, string(utf8.RuneError))
	}
	for k, v := range rec.Fields {
		if s, ok := v.(string); ok && !utf8.ValidString(s) {
			rec.Fields[k] = strings.ToValidUTF8(s, string(utf8.RuneError))
		}
	}
}

// serialize renders the enriched record as one JSON object and writes it to
// the sink. This is the only side effect visible outside the pipeline. When
// the record cannot be marshaled, a minimal fallback record is written so
// the emission is never silently lost.
func (l *JSONLogger) serialize(rec *Record) {
	entry := make(types.Fields, len(rec.Fields)+2)
	for k, v := range rec.Fields {
		entry[k] = v
	}
	entry["level"] = rec.Level.String()
	entry["message"] = rec.Message

	line, err := json.Marshal(entry)
	if err != nil {
		fallback := types.Fields{
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"level":     rec.Level.String(),
			"message":   rec.Message,
			"log_error": err.Error(),
		}
		// Fallback fields are all plain strings; this marshal cannot fail.
		line, _ = json.Marshal(fallback)
	}

	_ = l.sink.writeLine(line)
}

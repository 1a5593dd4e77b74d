package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"time"
)

// ErrorObject is attached to ERROR entries only.
type ErrorObject struct {
	Msg   string `json:"msg"`
	Stack string `json:"stack"`
}

// Entry is the single-line JSON format written to stdout.
type Entry struct {
	Timestamp string       `json:"timestamp"`
	Level     string       `json:"level"` // DEBUG | INFO | ERROR
	Service   string       `json:"service"`
	Action    string       `json:"action"`
	Message   string       `json:"message"`
	Hostname  string       `json:"hostname"`
	RequestID string       `json:"request_id,omitempty"`
	RideID    string       `json:"ride_id,omitempty"`
	JobID     string       `json:"job_id,omitempty"`
	Details   any          `json:"details,omitempty"`
	Error     *ErrorObject `json:"error,omitempty"`
}

// Logger writes structured single-line JSON entries to stdout.
type Logger struct {
	service  string
	hostname string
	mu       sync.Mutex
}

// New creates a structured logger for the given service name.
func New(service string) *Logger {
	hn, err := os.Hostname()
	if err != nil || strings.TrimSpace(hn) == "" {
		hn = "unknown-hostname"
	}
	if strings.TrimSpace(service) == "" {
		service = "unknown-service"
	}
	return &Logger{service: service, hostname: hn}
}

// Debug writes a DEBUG line with optional details.
func (l *Logger) Debug(ctx context.Context, action, msg string, details any) {
	l.emit(l.entry(ctx, "DEBUG", action, msg, details))
}

// Info writes an INFO line with optional details.
func (l *Logger) Info(ctx context.Context, action, msg string, details any) {
	l.emit(l.entry(ctx, "INFO", action, msg, details))
}

// Error writes an ERROR line and attaches the error with a stack trace.
func (l *Logger) Error(ctx context.Context, action, msg string, err error, details any) {
	e := l.entry(ctx, "ERROR", action, msg, details)
	if err == nil {
		err = fmt.Errorf("unknown error")
	}
	e.Error = &ErrorObject{
		Msg:   strings.TrimSpace(err.Error()),
		Stack: string(debug.Stack()),
	}
	l.emit(e)
}

func (l *Logger) entry(ctx context.Context, level, action, msg string, details any) Entry {
	action = strings.TrimSpace(action)
	if action == "" {
		action = "unspecified"
	}
	return Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Level:     level,
		Service:   l.service,
		Action:    action,
		Message:   strings.TrimSpace(msg),
		Hostname:  l.hostname,
		RequestID: fromCtx(ctx, ctxKeyRequestID),
		RideID:    fromCtx(ctx, ctxKeyRideID),
		JobID:     fromCtx(ctx, ctxKeyJobID),
		Details:   details,
	}
}

// emit marshals and prints a single JSON line to stdout.
func (l *Logger) emit(e Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, err := json.Marshal(e)
	if err == nil {
		fmt.Println(string(b))
		return
	}

	// retry once without Details, the usual source of marshal failures
	e.Details = nil
	if b, err2 := json.Marshal(e); err2 == nil {
		fmt.Println(string(b))
		return
	}
	fmt.Fprintf(os.Stderr, "log marshal failed: %v\n", err)
}

// ----- context helpers -----

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "motohail_request_id"
	ctxKeyRideID    ctxKey = "motohail_ride_id"
	ctxKeyJobID     ctxKey = "motohail_job_id"
)

// WithRequestID returns a new context carrying request_id.
func (l *Logger) WithRequestID(ctx context.Context, reqID string) context.Context {
	return withCtx(ctx, ctxKeyRequestID, reqID)
}

// WithRideID returns a new context carrying ride_id.
func (l *Logger) WithRideID(ctx context.Context, rideID string) context.Context {
	return withCtx(ctx, ctxKeyRideID, rideID)
}

// WithJobID returns a new context carrying job_id.
func (l *Logger) WithJobID(ctx context.Context, jobID string) context.Context {
	return withCtx(ctx, ctxKeyJobID, jobID)
}

func withCtx(ctx context.Context, key ctxKey, val string) context.Context {
	if strings.TrimSpace(val) == "" {
		return ctx
	}
	return context.WithValue(ctx, key, val)
}

func fromCtx(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

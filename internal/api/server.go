package api

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"moto-hail/internal/admin"
	"moto-hail/internal/auth"
	"moto-hail/internal/config"
	"moto-hail/internal/logger"
	"moto-hail/internal/observability"
	"moto-hail/internal/ws"
)

// Server adapts HTTP requests to the session controllers and the admin
// store.
type Server struct {
	cfg      *config.Config
	log      *logger.Logger
	jwtMgr   *auth.Manager
	hub      *ws.Hub
	sessions *Sessions
	store    *admin.Store
}

// NewServer wires the HTTP surface. hub may be nil when WebSocket push
// is disabled.
func NewServer(cfg *config.Config, log *logger.Logger, jwtMgr *auth.Manager, hub *ws.Hub, sessions *Sessions, store *admin.Store) *Server {
	return &Server{
		cfg:      cfg,
		log:      log,
		jwtMgr:   jwtMgr,
		hub:      hub,
		sessions: sessions,
		store:    store,
	}
}

// Routes mounts every endpoint on a fresh mux, wrapped with per-route
// request metrics.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("POST /auth/token", s.handleIssueToken)

	s.registerAdminRoutes(mux)
	s.registerDriverRoutes(mux)
	s.registerCustomerRoutes(mux)

	if s.hub != nil {
		mux.HandleFunc("GET /ws/driver", s.hub.Handler(auth.RoleDriver))
		mux.HandleFunc("GET /ws/customer", s.hub.Handler(auth.RoleCustomer))
		mux.HandleFunc("GET /ws/admin", s.hub.Handler(auth.RoleAdmin))
	}

	return withMetrics(mux)
}

// withMetrics records request count and latency per matched route
// pattern.
func withMetrics(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		mux.ServeHTTP(sw, r)

		_, route := mux.Handler(r)
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(sw.status)
		observability.HTTPRequestsTotal.WithLabelValues(r.Method, route, status).Inc()
		observability.HTTPRequestDuration.WithLabelValues(r.Method, route, status).Observe(time.Since(start).Seconds())
	})
}

// statusWriter captures the response code. Hijack passes through so
// WebSocket upgrades still work behind the wrapper.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	return hj.Hijack()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleIssueToken issues customer and driver tokens. There is no user
// database yet; possession of a subject name is enough for the demo
// surface. Admin tokens only come from the password login.
func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Subject string `json:"subject"`
		Role    string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	role, err := auth.ParseRole(body.Role)
	if err != nil || role == auth.RoleAdmin {
		s.httpError(ctx, w, http.StatusBadRequest, "role must be CUSTOMER or DRIVER", err)
		return
	}
	if strings.TrimSpace(body.Subject) == "" {
		s.httpError(ctx, w, http.StatusBadRequest, "subject is required", nil)
		return
	}

	token, claims, err := s.jwtMgr.IssueToken(strings.TrimSpace(body.Subject), role)
	if err != nil {
		s.httpError(ctx, w, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"token":      token,
		"subject":    claims.Subject,
		"role":       claims.Role,
		"expires_at": claims.ExpiresAt,
	})
}

// ----- general helpers -----

// jsonResponse encodes data to the HTTP response, buffering first so the
// status can still change on failure.
func (s *Server) jsonResponse(ctx context.Context, w http.ResponseWriter, status int, data any) {
	var buf []byte
	var err error

	if data != nil {
		buf, err = json.Marshal(data)
		if err != nil {
			s.log.Error(ctx, "response_encode_failed", "failed to encode response", err, nil)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	} else {
		buf = []byte("{}")
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// httpError sends a JSON error response with a message.
func (s *Server) httpError(ctx context.Context, w http.ResponseWriter, status int, msg string, err error) {
	action := "request_failed"
	if status >= 500 {
		action = "http_internal_error"
	} else if status == http.StatusBadRequest {
		action = "validation_failed"
	}
	s.log.Error(ctx, action, msg, err, nil)

	type errBody struct {
		Error string `json:"error"`
	}
	s.jsonResponse(ctx, w, status, errBody{Error: msg})
}

// withReqID extracts or generates a request ID and adds it to the context.
func (s *Server) withReqID(ctx context.Context, r *http.Request) context.Context {
	reqID := r.Header.Get("X-Request-ID")
	if strings.TrimSpace(reqID) == "" {
		reqID = randID()
	}
	return s.log.WithRequestID(ctx, reqID)
}

// randID generates a random 24-char hex string suitable for request IDs.
func randID() string {
	var b [12]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"moto-hail/internal/auth"
	"moto-hail/internal/domain/job"
	"moto-hail/internal/driver"
)

func (s *Server) registerDriverRoutes(mux *http.ServeMux) {
	guard := auth.Middleware(s.jwtMgr, auth.RoleDriver)

	mux.HandleFunc("POST /driver/online", guard(s.handleDriverOnline))
	mux.HandleFunc("POST /driver/offline", guard(s.handleDriverOffline))
	mux.HandleFunc("GET /driver/offers", guard(s.handleDriverOffers))
	mux.HandleFunc("POST /driver/offers/{id}/accept", guard(s.handleAcceptOffer))
	mux.HandleFunc("POST /driver/offers/{id}/reject", guard(s.handleRejectOffer))
	mux.HandleFunc("GET /driver/job", guard(s.handleDriverJob))
	mux.HandleFunc("POST /driver/job/status", guard(s.handleDriverJobStatus))
	mux.HandleFunc("GET /driver/earnings", guard(s.handleDriverSessionEarnings))
}

func (s *Server) driverSession(r *http.Request) *driver.Controller {
	return s.sessions.Driver(auth.RequireClaims(r).Subject)
}

func (s *Server) handleDriverOnline(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.driverSession(r).GoOnline()
	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"online": true})
}

func (s *Server) handleDriverOffline(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.driverSession(r).GoOffline()
	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"online": false})
}

func (s *Server) handleDriverOffers(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	c := s.driverSession(r)
	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"online": c.Online(),
		"offers": c.Offers(),
	})
}

func (s *Server) handleAcceptOffer(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	j, err := s.driverSession(r).Accept(r.PathValue("id"))
	if err != nil {
		s.sessionError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, j)
}

func (s *Server) handleRejectOffer(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	if err := s.driverSession(r).Reject(r.PathValue("id")); err != nil {
		s.sessionError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, nil)
}

func (s *Server) handleDriverJob(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	c := s.driverSession(r)
	j, ok := c.Job()
	if !ok {
		s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"job": nil})
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"job":       j,
		"countdown": c.Countdown(),
	})
}

func (s *Server) handleDriverJobStatus(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	next, err := job.ParseStatus(body.Status)
	if err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid job status", err)
		return
	}

	j, err := s.driverSession(r).UpdateJobStatus(next)
	if err != nil {
		s.sessionError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, j)
}

func (s *Server) handleDriverSessionEarnings(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.jsonResponse(ctx, w, http.StatusOK, s.driverSession(r).Earnings())
}

// sessionError maps controller errors to HTTP status codes.
func (s *Server) sessionError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, driver.ErrOfferNotFound):
		s.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, driver.ErrOffline),
		errors.Is(err, driver.ErrJobInProgress),
		errors.Is(err, driver.ErrNoActiveJob):
		s.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, job.ErrInvalidTransition):
		s.httpError(ctx, w, http.StatusUnprocessableEntity, err.Error(), err)
	default:
		s.httpError(ctx, w, http.StatusUnprocessableEntity, err.Error(), err)
	}
}

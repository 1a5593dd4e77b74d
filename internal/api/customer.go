package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"moto-hail/internal/auth"
	"moto-hail/internal/customer"
	"moto-hail/internal/domain/ride"
)

func (s *Server) registerCustomerRoutes(mux *http.ServeMux) {
	guard := auth.Middleware(s.jwtMgr, auth.RoleCustomer)

	mux.HandleFunc("POST /customer/rides", guard(s.handleRequestRide))
	mux.HandleFunc("GET /customer/ride", guard(s.handleCurrentRide))
	mux.HandleFunc("POST /customer/ride/complete", guard(s.handleCompleteRide))
	mux.HandleFunc("POST /customer/ride/reset", guard(s.handleResetRide))
}

func (s *Server) customerSession(r *http.Request) *customer.Controller {
	return s.sessions.Customer(auth.RequireClaims(r).Subject)
}

func (s *Server) handleRequestRide(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Mode    string `json:"mode"`
		Pickup  string `json:"pickup"`
		Dropoff string `json:"dropoff"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	mode, err := ride.ParseMode(body.Mode)
	if err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "mode must be normal or cheap", err)
		return
	}

	req, err := s.customerSession(r).Request(mode, body.Pickup, body.Dropoff)
	if err != nil {
		s.rideError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusCreated, req)
}

func (s *Server) handleCurrentRide(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	req, ok := s.customerSession(r).Ride()
	if !ok {
		s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"ride": nil})
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"ride": req})
}

func (s *Server) handleCompleteRide(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	req, err := s.customerSession(r).Complete()
	if err != nil {
		s.rideError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, req)
}

func (s *Server) handleResetRide(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	req, err := s.customerSession(r).Reset()
	if err != nil {
		s.rideError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, req)
}

func (s *Server) rideError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, customer.ErrNoRequest):
		s.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, customer.ErrRequestInFlight),
		errors.Is(err, customer.ErrNotArrived),
		errors.Is(err, customer.ErrNotTerminal):
		s.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	case errors.Is(err, ride.ErrPickupRequired),
		errors.Is(err, ride.ErrDropoffRequired),
		errors.Is(err, ride.ErrInvalidMode):
		s.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	default:
		s.httpError(ctx, w, http.StatusUnprocessableEntity, err.Error(), err)
	}
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"moto-hail/internal/admin"
	"moto-hail/internal/auth"
)

func (s *Server) registerAdminRoutes(mux *http.ServeMux) {
	guard := auth.Middleware(s.jwtMgr, auth.RoleAdmin)

	mux.HandleFunc("POST /admin/login", s.handleAdminLogin)

	mux.HandleFunc("GET /admin/overview", guard(s.handleOverview))
	mux.HandleFunc("GET /admin/alerts", guard(s.handleAlerts))
	mux.HandleFunc("GET /admin/metrics/daily", guard(s.handleDailyMetrics))

	mux.HandleFunc("GET /admin/customers", guard(s.handleListCustomers))
	mux.HandleFunc("POST /admin/customers/{id}/suspend", guard(s.handleSuspendCustomer))
	mux.HandleFunc("POST /admin/customers/{id}/unsuspend", guard(s.handleUnsuspendCustomer))

	mux.HandleFunc("GET /admin/drivers", guard(s.handleListDrivers))
	mux.HandleFunc("GET /admin/drivers/{id}/earnings", guard(s.handleDriverEarnings))
	mux.HandleFunc("POST /admin/drivers/{id}/approve", guard(s.handleApproveDriver))
	mux.HandleFunc("POST /admin/drivers/{id}/reject", guard(s.handleRejectDriver))
	mux.HandleFunc("POST /admin/drivers/{id}/suspend", guard(s.handleSuspendDriver))
	mux.HandleFunc("POST /admin/drivers/{id}/unsuspend", guard(s.handleUnsuspendDriver))

	mux.HandleFunc("GET /admin/shops", guard(s.handleListShops))
	mux.HandleFunc("POST /admin/shops/{id}/approve", guard(s.handleApproveShop))
	mux.HandleFunc("POST /admin/shops/{id}/reject", guard(s.handleRejectShop))
	mux.HandleFunc("POST /admin/shops/{id}/suspend", guard(s.handleSuspendShop))
	mux.HandleFunc("POST /admin/shops/{id}/unsuspend", guard(s.handleUnsuspendShop))

	mux.HandleFunc("GET /admin/rides", guard(s.handleListRides))
	mux.HandleFunc("POST /admin/rides/{id}/assign", guard(s.handleAssignRide))
	mux.HandleFunc("POST /admin/rides/{id}/status", guard(s.handleRideStatus))

	mux.HandleFunc("GET /admin/orders", guard(s.handleListOrders))
	mux.HandleFunc("POST /admin/orders/{id}/assign", guard(s.handleAssignOrder))
	mux.HandleFunc("POST /admin/orders/{id}/status", guard(s.handleOrderStatus))

	mux.HandleFunc("GET /admin/fare-rules", guard(s.handleGetFareRules))
	mux.HandleFunc("PATCH /admin/fare-rules", guard(s.handlePatchFareRules))

	mux.HandleFunc("GET /admin/promotions", guard(s.handleListPromotions))
	mux.HandleFunc("POST /admin/promotions", guard(s.handleAddPromotion))
	mux.HandleFunc("PATCH /admin/promotions/{id}", guard(s.handlePatchPromotion))
	mux.HandleFunc("DELETE /admin/promotions/{id}", guard(s.handleDeletePromotion))

	mux.HandleFunc("GET /admin/financial", guard(s.handleGetFinancial))
	mux.HandleFunc("PATCH /admin/financial", guard(s.handlePatchFinancial))
}

// handleAdminLogin checks the configured dashboard credentials and
// issues an ADMIN token.
func (s *Server) handleAdminLogin(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if s.cfg.Admin.Email == "" || s.cfg.Admin.PasswordHash == "" {
		s.httpError(ctx, w, http.StatusServiceUnavailable, "admin login is not configured", nil)
		return
	}
	if !strings.EqualFold(body.Email, s.cfg.Admin.Email) || !auth.CheckPassword(s.cfg.Admin.PasswordHash, body.Password) {
		s.httpError(ctx, w, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}

	token, claims, err := s.jwtMgr.IssueToken(s.cfg.Admin.Email, auth.RoleAdmin)
	if err != nil {
		s.httpError(ctx, w, http.StatusInternalServerError, "failed to issue token", err)
		return
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": claims.ExpiresAt,
	})
}

func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.jsonResponse(ctx, w, http.StatusOK, s.store.Snapshot())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"alerts": s.store.Alerts()})
}

func (s *Server) handleDailyMetrics(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.jsonResponse(ctx, w, http.StatusOK, s.store.DailyMetrics())
}

// ----- customers -----

func (s *Server) handleListCustomers(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var filter admin.CustomerFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := admin.ParseEntityStatus(raw)
		if err != nil {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid status filter", err)
			return
		}
		filter.Status = status
	}
	if raw := r.URL.Query().Get("profile_type"); raw != "" {
		filter.ProfileType = admin.ProfileType(raw)
		if !filter.ProfileType.Valid() {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid profile_type filter", nil)
			return
		}
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"customers": s.store.Customers(filter)})
}

func (s *Server) handleSuspendCustomer(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, reason string) error { return s.store.SuspendCustomer(id, reason) }, true)
}

func (s *Server) handleUnsuspendCustomer(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, _ string) error { return s.store.UnsuspendCustomer(id) }, false)
}

// ----- drivers -----

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var status admin.EntityStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := admin.ParseEntityStatus(raw)
		if err != nil {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid status filter", err)
			return
		}
		status = parsed
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"drivers": s.store.Drivers(status)})
}

func (s *Server) handleDriverEarnings(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid driver id", err)
		return
	}

	earnings, err := s.store.DriverEarnings(id)
	if err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, earnings)
}

func (s *Server) handleApproveDriver(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, _ string) error { return s.store.ApproveDriver(id) }, false)
}

func (s *Server) handleRejectDriver(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, reason string) error { return s.store.RejectDriver(id, reason) }, true)
}

func (s *Server) handleSuspendDriver(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, reason string) error { return s.store.SuspendDriver(id, reason) }, true)
}

func (s *Server) handleUnsuspendDriver(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, _ string) error { return s.store.UnsuspendDriver(id) }, false)
}

// ----- shops -----

func (s *Server) handleListShops(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var status admin.EntityStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := admin.ParseEntityStatus(raw)
		if err != nil {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid status filter", err)
			return
		}
		status = parsed
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"shops": s.store.Shops(status)})
}

func (s *Server) handleApproveShop(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, _ string) error { return s.store.ApproveShop(id) }, false)
}

func (s *Server) handleRejectShop(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, reason string) error { return s.store.RejectShop(id, reason) }, true)
}

func (s *Server) handleSuspendShop(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, reason string) error { return s.store.SuspendShop(id, reason) }, true)
}

func (s *Server) handleUnsuspendShop(w http.ResponseWriter, r *http.Request) {
	s.moderate(w, r, func(id int, _ string) error { return s.store.UnsuspendShop(id) }, false)
}

// moderate runs a moderation action on a numeric path id, reading the
// reason from the body when the action requires one.
func (s *Server) moderate(w http.ResponseWriter, r *http.Request, action func(id int, reason string) error, needsReason bool) {
	ctx := s.withReqID(r.Context(), r)

	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid id", err)
		return
	}

	var reason string
	if needsReason {
		var body struct {
			Reason string `json:"reason"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
			return
		}
		reason = body.Reason
	}

	if err := action(id, reason); err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, nil)
}

// ----- rides and orders -----

func (s *Server) handleListRides(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var filter admin.RideFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = admin.RideStatus(raw)
		if !filter.Status.Valid() {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid status filter", nil)
			return
		}
	}
	if raw := r.URL.Query().Get("driver_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid driver_id filter", err)
			return
		}
		filter.DriverID = id
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"rides": s.store.Rides(filter)})
}

func (s *Server) handleAssignRide(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		DriverID int `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if err := s.store.AssignRide(r.PathValue("id"), body.DriverID); err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, nil)
}

func (s *Server) handleRideStatus(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if err := s.store.UpdateRideStatus(r.PathValue("id"), admin.RideStatus(body.Status)); err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, nil)
}

func (s *Server) handleListOrders(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var filter admin.OrderFilter
	if raw := r.URL.Query().Get("status"); raw != "" {
		filter.Status = admin.OrderStatus(raw)
		if !filter.Status.Valid() {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid status filter", nil)
			return
		}
	}
	if raw := r.URL.Query().Get("shop_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid shop_id filter", err)
			return
		}
		filter.ShopID = id
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"orders": s.store.Orders(filter)})
}

func (s *Server) handleAssignOrder(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		DriverID int `json:"driver_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if err := s.store.AssignOrder(r.PathValue("id"), body.DriverID); err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, nil)
}

func (s *Server) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	if err := s.store.UpdateOrderStatus(r.PathValue("id"), admin.OrderStatus(body.Status)); err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, nil)
}

// ----- pricing -----

func (s *Server) handleGetFareRules(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.jsonResponse(ctx, w, http.StatusOK, s.store.FareRules())
}

func (s *Server) handlePatchFareRules(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		BaseFare            *float64 `json:"base_fare"`
		PerKm               *float64 `json:"per_km"`
		PerMinute           *float64 `json:"per_minute"`
		StudentDiscount     *float64 `json:"student_discount"`
		WorkerDiscount      *float64 `json:"worker_discount"`
		GracePeriod         *int     `json:"grace_period"`
		NoShowPenalty       *float64 `json:"no_show_penalty"`
		MaxDetourPercentage *float64 `json:"max_detour_percentage"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	updated := s.store.UpdateFareRules(admin.FareRulePatch{
		BaseFare:            body.BaseFare,
		PerKm:               body.PerKm,
		PerMinute:           body.PerMinute,
		StudentDiscount:     body.StudentDiscount,
		WorkerDiscount:      body.WorkerDiscount,
		GracePeriod:         body.GracePeriod,
		NoShowPenalty:       body.NoShowPenalty,
		MaxDetourPercentage: body.MaxDetourPercentage,
	})
	s.jsonResponse(ctx, w, http.StatusOK, updated)
}

func (s *Server) handleListPromotions(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	if raw := r.URL.Query().Get("profile_type"); raw != "" {
		pt := admin.ProfileType(raw)
		if !pt.Valid() {
			s.httpError(ctx, w, http.StatusBadRequest, "invalid profile_type filter", nil)
			return
		}
		s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"promotions": s.store.PromotionsFor(pt)})
		return
	}

	s.jsonResponse(ctx, w, http.StatusOK, map[string]any{"promotions": s.store.Promotions()})
}

func (s *Server) handleAddPromotion(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Name         string              `json:"name"`
		Description  string              `json:"description"`
		Discount     float64             `json:"discount"`
		ApplicableTo []admin.ProfileType `json:"applicable_to"`
		Active       bool                `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	p, err := s.store.AddPromotion(admin.PromotionInput{
		Name:         body.Name,
		Description:  body.Description,
		Discount:     body.Discount,
		ApplicableTo: body.ApplicableTo,
		Active:       body.Active,
	})
	if err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusCreated, p)
}

func (s *Server) handlePatchPromotion(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		Name         *string             `json:"name"`
		Description  *string             `json:"description"`
		Discount     *float64            `json:"discount"`
		ApplicableTo []admin.ProfileType `json:"applicable_to"`
		Active       *bool               `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	p, err := s.store.UpdatePromotion(r.PathValue("id"), admin.PromotionPatch{
		Name:         body.Name,
		Description:  body.Description,
		Discount:     body.Discount,
		ApplicableTo: body.ApplicableTo,
		Active:       body.Active,
	})
	if err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, p)
}

func (s *Server) handleDeletePromotion(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	if err := s.store.DeletePromotion(r.PathValue("id")); err != nil {
		s.storeError(ctx, w, err)
		return
	}
	s.jsonResponse(ctx, w, http.StatusOK, nil)
}

func (s *Server) handleGetFinancial(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)
	s.jsonResponse(ctx, w, http.StatusOK, s.store.Financial())
}

func (s *Server) handlePatchFinancial(w http.ResponseWriter, r *http.Request) {
	ctx := s.withReqID(r.Context(), r)

	var body struct {
		TotalUserWallet  *float64 `json:"total_user_wallet"`
		TopUpToday       *float64 `json:"top_up_today"`
		RideRevenue      *float64 `json:"ride_revenue"`
		OrderRevenue     *float64 `json:"order_revenue"`
		RefundsToday     *float64 `json:"refunds_today"`
		DriverPayoutsDue *float64 `json:"driver_payouts_due"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.httpError(ctx, w, http.StatusBadRequest, "invalid JSON body", err)
		return
	}

	updated := s.store.UpdateFinancial(admin.FinancialPatch{
		TotalUserWallet:  body.TotalUserWallet,
		TopUpToday:       body.TopUpToday,
		RideRevenue:      body.RideRevenue,
		OrderRevenue:     body.OrderRevenue,
		RefundsToday:     body.RefundsToday,
		DriverPayoutsDue: body.DriverPayoutsDue,
	})
	s.jsonResponse(ctx, w, http.StatusOK, updated)
}

// storeError maps store errors to HTTP status codes.
func (s *Server) storeError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, admin.ErrNotFound):
		s.httpError(ctx, w, http.StatusNotFound, err.Error(), err)
	case errors.Is(err, admin.ErrReasonRequired),
		errors.Is(err, admin.ErrNameRequired),
		errors.Is(err, admin.ErrNoApplicableTypes):
		s.httpError(ctx, w, http.StatusBadRequest, err.Error(), err)
	case errors.Is(err, admin.ErrDuplicateID):
		s.httpError(ctx, w, http.StatusConflict, err.Error(), err)
	default:
		s.httpError(ctx, w, http.StatusUnprocessableEntity, err.Error(), err)
	}
}

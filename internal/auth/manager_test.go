package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	return NewManager("test-secret-key", time.Hour)
}

func TestIssueAndValidateToken(t *testing.T) {
	mgr := testManager(t)

	token, claims, err := mgr.IssueToken("driver-1", RoleDriver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if claims.Subject != "driver-1" || claims.Role != RoleDriver {
		t.Fatalf("claims = %+v", claims)
	}

	parsed, err := mgr.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if parsed.Subject != "driver-1" || parsed.Role != RoleDriver {
		t.Fatalf("parsed claims = %+v", parsed)
	}
}

func TestIssueTokenRejectsInvalidRole(t *testing.T) {
	mgr := testManager(t)
	if _, _, err := mgr.IssueToken("x", Role("ROOT")); err == nil {
		t.Fatal("invalid role accepted")
	}
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, _, err := testManager(t).IssueToken("driver-1", RoleDriver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other := NewManager("a-different-secret", time.Hour)
	if _, err := other.ParseAndValidate(token); err == nil {
		t.Fatal("token from another secret accepted")
	}
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	mgr := NewManager("test-secret-key", -time.Minute)
	token, _, err := mgr.IssueToken("driver-1", RoleDriver)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := mgr.ParseAndValidate(token); err == nil {
		t.Fatal("expired token accepted")
	}
}

func TestNewManagerPanicsOnEmptySecret(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("no panic on empty secret")
		}
	}()
	NewManager("  ", time.Hour)
}

func TestFromAuthorization(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/x", nil)
	if _, err := FromAuthorization(r); !errors.Is(err, ErrNoAuthHeader) {
		t.Fatalf("err = %v, want ErrNoAuthHeader", err)
	}

	r.Header.Set("Authorization", "Bearer abc123")
	if tok, err := FromAuthorization(r); err != nil || tok != "abc123" {
		t.Fatalf("header token = %q, %v", tok, err)
	}

	// websocket clients fall back to a query param
	r = httptest.NewRequest(http.MethodGet, "/ws?token=qp456", nil)
	if tok, err := FromAuthorization(r); err != nil || tok != "qp456" {
		t.Fatalf("query token = %q, %v", tok, err)
	}
}

func TestRoleAllowed(t *testing.T) {
	claims := &Claims{Role: RoleDriver}
	if err := RoleAllowed(claims, RoleDriver, RoleAdmin); err != nil {
		t.Fatalf("allowed role rejected: %v", err)
	}
	if err := RoleAllowed(claims, RoleCustomer); !errors.Is(err, ErrRoleForbidden) {
		t.Fatalf("err = %v, want ErrRoleForbidden", err)
	}
}

func TestParseRole(t *testing.T) {
	if role, err := ParseRole(" driver "); err != nil || role != RoleDriver {
		t.Fatalf("ParseRole = %q, %v", role, err)
	}
	if _, err := ParseRole("root"); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("invalid role err = %v", err)
	}
}

func TestMiddleware(t *testing.T) {
	mgr := testManager(t)
	var gotSubject string
	handler := Middleware(mgr, RoleAdmin)(func(w http.ResponseWriter, r *http.Request) {
		claims := RequireClaims(r)
		gotSubject = claims.Subject
		w.WriteHeader(http.StatusOK)
	})

	// no token
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/admin/overview", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no token code = %d, want 401", rec.Code)
	}

	// wrong role
	custToken, _, err := mgr.IssueToken("customer-1", RoleCustomer)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
	req.Header.Set("Authorization", "Bearer "+custToken)
	handler(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("wrong role code = %d, want 403", rec.Code)
	}

	// admin token passes and claims land in the context
	adminToken, _, err := mgr.IssueToken("admin", RoleAdmin)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/admin/overview", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	handler(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin code = %d, want 200", rec.Code)
	}
	if gotSubject != "admin" {
		t.Fatalf("subject = %q, want admin", gotSubject)
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if !CheckPassword(hash, "s3cret") {
		t.Fatal("correct password rejected")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatal("wrong password accepted")
	}
}

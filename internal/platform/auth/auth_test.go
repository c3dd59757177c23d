package auth

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

type mockUserSource struct {
	staff *Identity
	dev   map[string]*Identity
}

func (m *mockUserSource) FirstActiveStaff(_ context.Context) (*Identity, error) {
	if m.staff == nil {
		return nil, fmt.Errorf("no staff account")
	}
	return m.staff, nil
}

func (m *mockUserSource) ResolveDevUser(_ context.Context, username string) (*Identity, error) {
	if id, ok := m.dev[username]; ok {
		return id, nil
	}
	id := &Identity{ID: len(m.dev) + 100, Username: username, Role: RoleStaff, Name: username}
	if m.dev == nil {
		m.dev = map[string]*Identity{}
	}
	m.dev[username] = id
	return id, nil
}

func testManager() *SessionManager {
	return NewSessionManager("test-secret", time.Hour, false)
}

func newRequestContext(e *echo.Echo, opts ...func(*http.Request)) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, opt := range opts {
		opt(req)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSessionManager_RoundTrip(t *testing.T) {
	m := testManager()
	e := echo.New()
	c, rec := newRequestContext(e)

	want := &Identity{ID: 7, Username: "nurse1", Role: RoleStaff, Name: "Nurse One"}
	if err := m.Issue(c, want); err != nil {
		t.Fatalf("issue: %v", err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected session cookie to be set")
	}

	got, err := m.Parse(cookies[0].Value)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.ID != want.ID || got.Username != want.Username || got.Role != want.Role {
		t.Errorf("identity mismatch: got %+v", got)
	}
}

func TestSessionManager_RejectsWrongSecret(t *testing.T) {
	m := testManager()
	e := echo.New()
	c, rec := newRequestContext(e)
	m.Issue(c, &Identity{ID: 1, Username: "x", Role: RoleStaff})

	other := NewSessionManager("different-secret", time.Hour, false)
	if _, err := other.Parse(rec.Result().Cookies()[0].Value); err == nil {
		t.Error("expected parse failure with wrong secret")
	}
}

func TestSessionStrategy_RejectsNonStaffRole(t *testing.T) {
	m := testManager()
	e := echo.New()
	c, rec := newRequestContext(e)
	m.Issue(c, &Identity{ID: 2, Username: "boss", Role: "admin"})

	strat := &SessionStrategy{Sessions: m}
	c2, _ := newRequestContext(e, func(r *http.Request) {
		r.AddCookie(rec.Result().Cookies()[0])
	})
	if _, ok := strat.Authenticate(c2); ok {
		t.Error("expected admin session to be rejected by staff strategy")
	}
}

func TestTokenStrategy_MatchesConfiguredToken(t *testing.T) {
	users := &mockUserSource{staff: &Identity{ID: 3, Username: "staff", Role: RoleStaff, Name: "Staff User"}}
	strat := &TokenStrategy{Token: "test-staff-token", Users: users, Sessions: testManager()}

	e := echo.New()
	c, rec := newRequestContext(e, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer test-staff-token")
	})

	id, ok := strat.Authenticate(c)
	if !ok {
		t.Fatal("expected token auth to succeed")
	}
	if id.ID != 3 {
		t.Errorf("expected user 3, got %d", id.ID)
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected session cookie side effect")
	}
}

func TestTokenStrategy_RejectsWrongToken(t *testing.T) {
	users := &mockUserSource{staff: &Identity{ID: 3, Username: "staff", Role: RoleStaff}}
	strat := &TokenStrategy{Token: "test-staff-token", Users: users}

	e := echo.New()
	c, _ := newRequestContext(e, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer nope")
	})
	if _, ok := strat.Authenticate(c); ok {
		t.Error("expected wrong token to be rejected")
	}
}

func TestTokenStrategy_NoStaffAccount(t *testing.T) {
	strat := &TokenStrategy{Token: "test-staff-token", Users: &mockUserSource{}}

	e := echo.New()
	c, _ := newRequestContext(e, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer test-staff-token")
	})
	if _, ok := strat.Authenticate(c); ok {
		t.Error("expected failure when no staff account exists")
	}
}

func TestTokenStrategy_DisabledWhenUnconfigured(t *testing.T) {
	strat := &TokenStrategy{Token: "", Users: &mockUserSource{staff: &Identity{ID: 3, Role: RoleStaff}}}

	e := echo.New()
	c, _ := newRequestContext(e, func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer ")
	})
	if _, ok := strat.Authenticate(c); ok {
		t.Error("expected disabled token strategy to reject everything")
	}
}

func TestDevStrategy_Gated(t *testing.T) {
	strat := &DevStrategy{Username: "", Users: &mockUserSource{}}
	e := echo.New()
	c, _ := newRequestContext(e)
	if _, ok := strat.Authenticate(c); ok {
		t.Error("expected gated dev strategy to reject")
	}
}

func TestDevStrategy_ProvisionsUser(t *testing.T) {
	users := &mockUserSource{}
	strat := &DevStrategy{Username: "devstaff", Users: users}
	e := echo.New()
	c, _ := newRequestContext(e)

	id, ok := strat.Authenticate(c)
	if !ok {
		t.Fatal("expected dev auth to succeed")
	}
	if id.Username != "devstaff" {
		t.Errorf("unexpected username %s", id.Username)
	}
}

func TestMiddleware_FirstMatchWins(t *testing.T) {
	m := testManager()
	users := &mockUserSource{staff: &Identity{ID: 9, Username: "fallback", Role: RoleStaff}}

	e := echo.New()
	issue, rec := newRequestContext(e)
	m.Issue(issue, &Identity{ID: 7, Username: "nurse1", Role: RoleStaff})

	c, _ := newRequestContext(e, func(r *http.Request) {
		r.AddCookie(rec.Result().Cookies()[0])
		r.Header.Set("Authorization", "Bearer test-staff-token")
	})

	var got *Identity
	handler := func(c echo.Context) error {
		got = IdentityFrom(c)
		return c.String(http.StatusOK, "ok")
	}

	mw := Middleware(zerolog.New(os.Stderr),
		&SessionStrategy{Sessions: m},
		&TokenStrategy{Token: "test-staff-token", Users: users},
	)
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.ID != 7 {
		t.Errorf("expected session identity 7 to win, got %+v", got)
	}
}

func TestMiddleware_Unauthorized(t *testing.T) {
	e := echo.New()
	c, _ := newRequestContext(e)

	mw := Middleware(zerolog.New(os.Stderr), &SessionStrategy{Sessions: testManager()})
	err := mw(func(c echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestMiddleware_IdentityOnRequestContext(t *testing.T) {
	m := testManager()
	e := echo.New()
	issue, rec := newRequestContext(e)
	m.Issue(issue, &Identity{ID: 5, Username: "nurse2", Role: RoleStaff})

	c, _ := newRequestContext(e, func(r *http.Request) {
		r.AddCookie(rec.Result().Cookies()[0])
	})

	handler := func(c echo.Context) error {
		if id := IdentityFromContext(c.Request().Context()); id == nil || id.ID != 5 {
			t.Errorf("expected identity on request context, got %+v", id)
		}
		return c.String(http.StatusOK, "ok")
	}
	mw := Middleware(zerolog.New(os.Stderr), &SessionStrategy{Sessions: m})
	if err := mw(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

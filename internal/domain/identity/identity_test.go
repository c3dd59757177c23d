package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/prms/prms-api/internal/domain/auditlog"
	"github.com/prms/prms-api/internal/platform/auth"
)

type mockUserRepo struct {
	users  map[int]*User
	nextID int
}

func newMockUserRepo(users ...*User) *mockUserRepo {
	m := &mockUserRepo{users: map[int]*User{}, nextID: 1}
	for _, u := range users {
		if u.ID >= m.nextID {
			m.nextID = u.ID + 1
		}
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) GetByID(_ context.Context, id int) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) GetByLogin(_ context.Context, login string) (*User, error) {
	for _, u := range m.users {
		if (u.Username == login || u.Email == login) && u.Status == StatusActive {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) FirstActiveByRole(_ context.Context, role string) (*User, error) {
	var first *User
	for _, u := range m.users {
		if u.Role == role && u.Status == StatusActive {
			if first == nil || u.ID < first.ID {
				first = u
			}
		}
	}
	if first == nil {
		return nil, pgx.ErrNoRows
	}
	return first, nil
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	u.ID = m.nextID
	m.nextID++
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) UpdateProfile(_ context.Context, id int, p ProfileUpdate) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.FullName = p.FullName
	u.Email = p.Email
	phone := p.Phone
	u.Phone = &phone
	return nil
}

func (m *mockUserRepo) UpdatePassword(_ context.Context, id int, hash string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.PasswordHash = hash
	return nil
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	return string(hash)
}

func staffUser(t *testing.T) *User {
	return &User{
		ID:           4,
		Username:     "nurse.ada",
		Email:        "ada@rhu.local",
		PasswordHash: mustHash(t, "s3cret"),
		Role:         RoleStaff,
		FullName:     "Ada Reyes",
		Status:       StatusActive,
	}
}

func TestLoginSuccess(t *testing.T) {
	svc := NewService(newMockUserRepo(staffUser(t)), zerolog.Nop())

	u, err := svc.Login(context.Background(), "nurse.ada", "s3cret")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.ID != 4 || u.Role != RoleStaff {
		t.Fatalf("unexpected user %+v", u)
	}
}

func TestLoginByEmail(t *testing.T) {
	svc := NewService(newMockUserRepo(staffUser(t)), zerolog.Nop())

	if _, err := svc.Login(context.Background(), "ada@rhu.local", "s3cret"); err != nil {
		t.Fatalf("login by email: %v", err)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	svc := NewService(newMockUserRepo(staffUser(t)), zerolog.Nop())

	if _, err := svc.Login(context.Background(), "nurse.ada", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	u := staffUser(t)
	u.Status = StatusInactive
	svc := NewService(newMockUserRepo(u), zerolog.Nop())

	if _, err := svc.Login(context.Background(), "nurse.ada", "s3cret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestChangePasswordWrongOld(t *testing.T) {
	svc := NewService(newMockUserRepo(staffUser(t)), zerolog.Nop())

	if err := svc.ChangePassword(context.Background(), 4, "nope", "newpass"); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
}

func TestChangePasswordRehashes(t *testing.T) {
	repo := newMockUserRepo(staffUser(t))
	svc := NewService(repo, zerolog.Nop())

	if err := svc.ChangePassword(context.Background(), 4, "s3cret", "newpass"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(repo.users[4].PasswordHash), []byte("newpass")) != nil {
		t.Fatal("new password does not verify")
	}
}

func TestResolveDevUserProvisions(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo, zerolog.Nop())

	id, err := svc.ResolveDevUser(context.Background(), "devstaff")
	if err != nil {
		t.Fatalf("resolve dev user: %v", err)
	}
	if id.Username != "devstaff" || id.Role != RoleStaff {
		t.Fatalf("unexpected identity %+v", id)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected provisioned user, have %d", len(repo.users))
	}

	again, err := svc.ResolveDevUser(context.Background(), "devstaff")
	if err != nil {
		t.Fatalf("resolve existing dev user: %v", err)
	}
	if again.ID != id.ID {
		t.Fatalf("expected same account, got %d and %d", id.ID, again.ID)
	}
}

func TestResolveDevUserRejectsNonStaff(t *testing.T) {
	admin := staffUser(t)
	admin.Role = RoleAdmin
	svc := NewService(newMockUserRepo(admin), zerolog.Nop())

	if _, err := svc.ResolveDevUser(context.Background(), "nurse.ada"); !errors.Is(err, ErrNotStaff) {
		t.Fatalf("expected ErrNotStaff, got %v", err)
	}
}

func TestFirstActiveStaffNone(t *testing.T) {
	svc := NewService(newMockUserRepo(), zerolog.Nop())

	if _, err := svc.FirstActiveStaff(context.Background()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func newTestHandler(t *testing.T, repo Repository) *Handler {
	svc := NewService(repo, zerolog.Nop())
	sessions := auth.NewSessionManager("test-secret", time.Hour, false)
	return NewHandler(svc, sessions, auditlog.NopSink{})
}

func request(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestLoginHandlerSetsSessionCookie(t *testing.T) {
	h := newTestHandler(t, newMockUserRepo(staffUser(t)))

	c, rec := request(http.MethodPost, "/api/staff/login", `{"username":"nurse.ada","password":"s3cret"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login handler: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success bool `json:"success"`
		User    struct {
			ID       int    `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
		} `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.User.ID != 4 || body.User.Role != RoleStaff {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}

	var found bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.SessionCookie && ck.Value != "" {
			found = true
		}
	}
	if !found {
		t.Fatal("expected session cookie to be set")
	}
}

func TestLoginHandlerBadCredentials(t *testing.T) {
	h := newTestHandler(t, newMockUserRepo(staffUser(t)))

	c, rec := request(http.MethodPost, "/api/staff/login", `{"username":"nurse.ada","password":"wrong"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("login handler: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("expected failure envelope, got %s", rec.Body.String())
	}
}

func TestMeReturnsIdentity(t *testing.T) {
	h := newTestHandler(t, newMockUserRepo(staffUser(t)))

	c, rec := request(http.MethodGet, "/api/staff/me", "")
	auth.WithIdentity(c, &auth.Identity{ID: 4, Username: "nurse.ada", Role: RoleStaff, Name: "Ada Reyes"})

	if err := h.Me(c); err != nil {
		t.Fatalf("me handler: %v", err)
	}

	var body struct {
		Success bool `json:"success"`
		Data    struct {
			ID       int    `json:"id"`
			Username string `json:"username"`
			Role     string `json:"role"`
			Name     string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Data.ID != 4 || body.Data.Name != "Ada Reyes" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	h := newTestHandler(t, newMockUserRepo(staffUser(t)))

	c, rec := request(http.MethodPut, "/api/staff/profile", `{"full_name":"","email":"bad","phone":""}`)
	auth.WithIdentity(c, &auth.Identity{ID: 4, Username: "nurse.ada", Role: RoleStaff})

	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var body struct {
		Success bool     `json:"success"`
		Errors  []string `json:"errors"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Success || len(body.Errors) != 3 {
		t.Fatalf("expected 3 validation problems, got %s", rec.Body.String())
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	h := newTestHandler(t, newMockUserRepo())

	c, rec := request(http.MethodPost, "/api/staff/logout", "")
	if err := h.Logout(c); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var cleared bool
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == auth.SessionCookie && ck.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared")
	}
}

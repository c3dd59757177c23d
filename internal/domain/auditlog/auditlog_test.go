package auditlog

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prms/prms-api/internal/platform/auth"
)

type mockRepo struct {
	entries   []*AuditLog
	insertErr error
}

func (m *mockRepo) Insert(_ context.Context, entry *AuditLog) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	entry.ID = len(m.entries) + 1
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockRepo) ListByUser(_ context.Context, userID, limit, offset int) ([]*AuditLog, int, error) {
	var out []*AuditLog
	for _, e := range m.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

func newTestContext(method, target string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("User-Agent", "test-agent")
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func staffIdentity() *auth.Identity {
	return &auth.Identity{ID: 7, Username: "nurse.ada", Role: auth.RoleStaff, Name: "Ada"}
}

func TestRecorderInsertsEntry(t *testing.T) {
	repo := &mockRepo{}
	r := NewRecorder(repo, "", zerolog.Nop())

	c, _ := newTestContext(http.MethodPost, "/api/staff/patients")
	r.Record(c, staffIdentity(), "create_patient", "patient", 42, map[string]string{"full_name": "Juan"})

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	e := repo.entries[0]
	if e.UserID != 7 || e.Action != "create_patient" || e.EntityType != "patient" {
		t.Fatalf("unexpected entry %+v", e)
	}
	if e.EntityID == nil || *e.EntityID != 42 {
		t.Fatalf("expected entity id 42, got %v", e.EntityID)
	}
	if e.Result != ResultSuccess {
		t.Fatalf("expected success result, got %q", e.Result)
	}
	if e.NewValues == nil || !strings.Contains(*e.NewValues, "Juan") {
		t.Fatalf("expected payload in new values, got %v", e.NewValues)
	}
}

func TestRecorderFallbackFileOnInsertError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "audit_fallback.log")
	repo := &mockRepo{insertErr: errors.New("connection refused")}
	r := NewRecorder(repo, path, zerolog.Nop())

	c, _ := newTestContext(http.MethodPost, "/api/staff/patients")
	r.Record(c, staffIdentity(), "create_patient", "patient", 1, nil)

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("fallback file not written: %v", err)
	}
	if !strings.Contains(string(raw), "create_patient") {
		t.Fatalf("fallback line missing action: %q", raw)
	}
}

func TestRecorderNeverFails(t *testing.T) {
	r := NewRecorder(nil, "", zerolog.Nop())
	c, _ := newTestContext(http.MethodGet, "/api/staff/patients")

	// nil repo, nil actor, unmarshalable payload: none of these may panic.
	r.Record(c, nil, "view", "patient", 0, nil)
	r.Record(c, staffIdentity(), "view", "patient", 0, nil)
	r.Record(c, staffIdentity(), "view", "patient", 0, make(chan int))
}

func TestClientIPForwardedFor(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	c.Request().Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	if got := ClientIP(c); got != "203.0.113.9" {
		t.Fatalf("expected first forwarded hop, got %q", got)
	}
}

func TestClientIPLoopbackNormalized(t *testing.T) {
	c, _ := newTestContext(http.MethodGet, "/")
	c.Request().Header.Set("X-Forwarded-For", "::1")
	if got := ClientIP(c); got != "127.0.0.1" {
		t.Fatalf("expected 127.0.0.1, got %q", got)
	}
}

func TestHandlerListLogs(t *testing.T) {
	repo := &mockRepo{entries: []*AuditLog{
		{ID: 1, UserID: 7, Action: "login", Result: ResultSuccess},
		{ID: 2, UserID: 8, Action: "login", Result: ResultSuccess},
		{ID: 3, UserID: 7, Action: "create_patient", Result: ResultSuccess},
	}}
	h := NewHandler(NewService(repo))

	c, rec := newTestContext(http.MethodGet, "/api/staff/logs")
	auth.WithIdentity(c, staffIdentity())

	if err := h.ListLogs(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Success    bool        `json:"success"`
		Data       []*AuditLog `json:"data"`
		Pagination struct {
			TotalRecords int `json:"totalRecords"`
		} `json:"pagination"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.Success {
		t.Fatal("expected success true")
	}
	if len(body.Data) != 2 || body.Pagination.TotalRecords != 2 {
		t.Fatalf("expected the caller's 2 rows, got %d (total %d)", len(body.Data), body.Pagination.TotalRecords)
	}
}

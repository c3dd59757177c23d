package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prms/prms-api/internal/domain/auditlog"
	"github.com/prms/prms-api/internal/platform/auth"
)

type mockNotifRepo struct {
	items   []*Notification
	unread  int
	listErr error

	marked    []int
	markedAll bool
}

func (m *mockNotifRepo) List(_ context.Context, q ListQuery) ([]*Notification, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*Notification
	for _, n := range m.items {
		if n.UserID != q.UserID {
			continue
		}
		if q.UnreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	if q.Offset < len(out) {
		out = out[q.Offset:]
	} else {
		out = nil
	}
	if len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (m *mockNotifRepo) UnreadCount(context.Context, int) (int, error) {
	return m.unread, nil
}

func (m *mockNotifRepo) MarkRead(_ context.Context, id, userID int) (bool, error) {
	for _, n := range m.items {
		if n.ID == id && n.UserID == userID && !n.IsRead {
			n.IsRead = true
			m.marked = append(m.marked, id)
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNotifRepo) MarkAllRead(_ context.Context, userID int) (int, error) {
	count := 0
	for _, n := range m.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			count++
		}
	}
	m.markedAll = true
	return count, nil
}

func notifContext(method, target, body string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	auth.WithIdentity(c, &auth.Identity{ID: 7, Username: "nurse.ada", Role: auth.RoleStaff})
	return c, rec
}

func TestListNotificationsEnvelope(t *testing.T) {
	repo := &mockNotifRepo{
		items: []*Notification{
			{ID: 1, UserID: 7, Title: "New Patient Assignment", Type: "info"},
			{ID: 2, UserID: 7, Title: "Outbreak alert", Type: "urgent", IsRead: true},
		},
		unread: 1,
	}
	h := NewHandler(repo, auditlog.NopSink{}, zerolog.Nop())

	c, rec := notifContext(http.MethodGet, "/api/staff/get_notifications", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}

	var body struct {
		Success       bool            `json:"success"`
		Notifications []*Notification `json:"notifications"`
		UnreadCount   int             `json:"unread_count"`
		Total         int             `json:"total"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success || body.Total != 2 || body.UnreadCount != 1 {
		t.Fatalf("unexpected envelope %s", rec.Body.String())
	}
}

func TestListUnreadOnly(t *testing.T) {
	repo := &mockNotifRepo{
		items: []*Notification{
			{ID: 1, UserID: 7, Title: "New Patient"},
			{ID: 2, UserID: 7, Title: "Disease update", IsRead: true},
		},
		unread: 1,
	}
	h := NewHandler(repo, auditlog.NopSink{}, zerolog.Nop())

	c, rec := notifContext(http.MethodGet, "/api/staff/get_notifications?unread_only=true", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}

	var body struct {
		Notifications []*Notification `json:"notifications"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Notifications) != 1 || body.Notifications[0].ID != 1 {
		t.Fatalf("expected only the unread row, got %s", rec.Body.String())
	}
}

func TestListFailureIsHTTP200(t *testing.T) {
	repo := &mockNotifRepo{listErr: errors.New("connection refused")}
	h := NewHandler(repo, auditlog.NopSink{}, zerolog.Nop())

	c, rec := notifContext(http.MethodGet, "/api/staff/get_notifications", "")
	if err := h.List(c); err != nil {
		t.Fatalf("list: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("logical failures must stay HTTP 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("expected success false, got %s", rec.Body.String())
	}
}

func TestMarkReadOwnNotification(t *testing.T) {
	repo := &mockNotifRepo{items: []*Notification{{ID: 4, UserID: 7}}}
	h := NewHandler(repo, auditlog.NopSink{}, zerolog.Nop())

	c, rec := notifContext(http.MethodPost, "/api/staff/mark_notification_read", `{"notification_id":4}`)
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Notification marked as read") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if len(repo.marked) != 1 || repo.marked[0] != 4 {
		t.Fatalf("expected id 4 marked, got %v", repo.marked)
	}
}

func TestMarkReadForeignNotificationFails(t *testing.T) {
	repo := &mockNotifRepo{items: []*Notification{{ID: 4, UserID: 99}}}
	h := NewHandler(repo, auditlog.NopSink{}, zerolog.Nop())

	c, rec := notifContext(http.MethodPost, "/api/staff/mark_notification_read", `{"notification_id":4}`)
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"success":false`) {
		t.Fatalf("expected failure, got %s", rec.Body.String())
	}
	if len(repo.marked) != 0 {
		t.Fatal("foreign notification must not be mutated")
	}
}

func TestMarkAll(t *testing.T) {
	repo := &mockNotifRepo{items: []*Notification{
		{ID: 1, UserID: 7},
		{ID: 2, UserID: 7},
		{ID: 3, UserID: 99},
	}}
	h := NewHandler(repo, auditlog.NopSink{}, zerolog.Nop())

	c, rec := notifContext(http.MethodPost, "/api/staff/mark_notification_read", `{"mark_all":true}`)
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Marked 2 notifications as read") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if !repo.items[0].IsRead || !repo.items[1].IsRead || repo.items[2].IsRead {
		t.Fatal("mark all must only touch the caller's rows")
	}
}

func TestMarkReadMissingParams(t *testing.T) {
	h := NewHandler(&mockNotifRepo{}, auditlog.NopSink{}, zerolog.Nop())

	c, rec := notifContext(http.MethodPost, "/api/staff/mark_notification_read", `{}`)
	if err := h.MarkRead(c); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	if !strings.Contains(rec.Body.String(), "Notification ID or mark_all parameter required") {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
}

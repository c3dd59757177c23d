package auditlog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/prms/prms-api/internal/platform/auth"
)

const maxUserAgentLen = 255

// Sink records audited actions. Implementations must never fail the caller.
type Sink interface {
	Record(c echo.Context, actor *auth.Identity, action, entityType string, entityID int, payload interface{})
	RecordResult(c echo.Context, actor *auth.Identity, action, entityType string, entityID int, payload interface{}, result string)
}

// Recorder writes audit rows best-effort. Any failure, from a missing pool to
// an insert error, is appended to a local fallback file and otherwise
// swallowed: audit logging never changes the outcome of the operation that
// triggered it.
type Recorder struct {
	repo         Repository
	fallbackPath string
	logger       zerolog.Logger
}

func NewRecorder(repo Repository, fallbackPath string, logger zerolog.Logger) *Recorder {
	return &Recorder{repo: repo, fallbackPath: fallbackPath, logger: logger}
}

// Record logs a successful action.
func (r *Recorder) Record(c echo.Context, actor *auth.Identity, action, entityType string, entityID int, payload interface{}) {
	r.RecordResult(c, actor, action, entityType, entityID, payload, ResultSuccess)
}

// RecordResult logs an action with an explicit success/failure result.
func (r *Recorder) RecordResult(c echo.Context, actor *auth.Identity, action, entityType string, entityID int, payload interface{}, result string) {
	defer func() {
		if rec := recover(); rec != nil {
			r.fallback(fmt.Sprintf("panic in audit recorder: %v", rec))
		}
	}()

	if actor == nil {
		r.fallback("no actor for action " + action)
		return
	}

	entry := &AuditLog{
		UserID:     actor.ID,
		UserType:   actor.Role,
		Username:   actor.Username,
		Action:     action,
		EntityType: entityType,
		Result:     result,
		IPAddress:  ClientIP(c),
		UserAgent:  truncate(c.Request().UserAgent(), maxUserAgentLen),
	}
	if entityID > 0 {
		id := entityID
		entry.EntityID = &id
	}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			r.fallback(fmt.Sprintf("marshal payload for %s: %v", action, err))
		} else {
			s := string(raw)
			entry.NewValues = &s
		}
	}

	if r.repo == nil {
		r.fallback("no repository for action " + action)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.repo.Insert(ctx, entry); err != nil {
		r.fallback(fmt.Sprintf("insert failed for %s on %s: %v", action, entityType, err))
	}
}

// fallback appends a line to the side-channel file. Its own failures are
// only logged; nothing propagates.
func (r *Recorder) fallback(msg string) {
	r.logger.Warn().Str("msg", msg).Msg("audit write failed, using fallback file")

	if r.fallbackPath == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.fallbackPath), 0o755); err != nil {
		r.logger.Error().Err(err).Msg("create audit fallback directory")
		return
	}
	f, err := os.OpenFile(r.fallbackPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		r.logger.Error().Err(err).Msg("open audit fallback file")
		return
	}
	defer f.Close()
	fmt.Fprintf(f, "%s - %s\n", time.Now().Format("2006-01-02 15:04:05"), msg)
}

// ClientIP resolves the requester address: first X-Forwarded-For hop when
// present, with IPv6 loopback normalized to 127.0.0.1.
func ClientIP(c echo.Context) string {
	ip := c.RealIP()
	if fwd := c.Request().Header.Get("X-Forwarded-For"); fwd != "" {
		ip = strings.TrimSpace(strings.SplitN(fwd, ",", 2)[0])
	}
	if ip == "::1" || ip == "::ffff:127.0.0.1" {
		ip = "127.0.0.1"
	}
	return ip
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// NopSink discards everything; used in tests.
type NopSink struct{}

func (NopSink) Record(echo.Context, *auth.Identity, string, string, int, interface{}) {}
func (NopSink) RecordResult(echo.Context, *auth.Identity, string, string, int, interface{}, string) {
}

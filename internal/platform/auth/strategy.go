package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Strategy resolves a caller identity from a request. Strategies are composed
// into an ordered chain; the first one to produce an identity wins.
type Strategy interface {
	Name() string
	Authenticate(c echo.Context) (*Identity, bool)
}

// UserSource looks up staff accounts for the token and dev strategies.
// The identity domain provides the implementation.
type UserSource interface {
	// FirstActiveStaff returns any active staff account, or an error when
	// none exists.
	FirstActiveStaff(ctx context.Context) (*Identity, error)
	// ResolveDevUser returns the staff account with the given username,
	// creating it when absent.
	ResolveDevUser(ctx context.Context, username string) (*Identity, error)
}

// Middleware runs the strategy chain and rejects the request with 401 when no
// strategy produces an identity.
func Middleware(logger zerolog.Logger, strategies ...Strategy) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			for _, s := range strategies {
				id, ok := s.Authenticate(c)
				if !ok {
					continue
				}
				if id.Role != RoleStaff {
					continue
				}
				logger.Debug().
					Str("strategy", s.Name()).
					Int("user_id", id.ID).
					Msg("request authenticated")
				WithIdentity(c, id)
				return next(c)
			}
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
	}
}

// BearerToken extracts the bearer token from the Authorization header, or ""
// when absent or malformed.
func BearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// TokenStrategy matches a fixed staff test token and resolves it to a real
// staff account. Disabled when no token is configured. Unlike the session
// strategy it has a side effect: a fresh session cookie is issued so
// subsequent requests authenticate without the token.
type TokenStrategy struct {
	Token    string
	Users    UserSource
	Sessions *SessionManager
}

func (s *TokenStrategy) Name() string { return "token" }

func (s *TokenStrategy) Authenticate(c echo.Context) (*Identity, bool) {
	if s.Token == "" {
		return nil, false
	}
	if BearerToken(c) != s.Token {
		return nil, false
	}
	id, err := s.Users.FirstActiveStaff(c.Request().Context())
	if err != nil {
		return nil, false
	}
	if s.Sessions != nil {
		_ = s.Sessions.Issue(c, id)
	}
	return id, true
}

// DevStrategy resolves every otherwise-unauthenticated request to a named
// staff account, provisioning it on first use. It is configuration-gated and
// must never be enabled in production.
type DevStrategy struct {
	Username string
	Users    UserSource
}

func (s *DevStrategy) Name() string { return "dev-fallback" }

func (s *DevStrategy) Authenticate(c echo.Context) (*Identity, bool) {
	if s.Username == "" {
		return nil, false
	}
	id, err := s.Users.ResolveDevUser(c.Request().Context(), s.Username)
	if err != nil {
		return nil, false
	}
	return id, true
}

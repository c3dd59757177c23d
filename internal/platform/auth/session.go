package auth

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// SessionCookie is the name of the staff session cookie.
const SessionCookie = "prms_session"

type sessionClaims struct {
	jwt.RegisteredClaims
	UserID   int    `json:"uid"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

// SessionManager issues and parses the HS256-signed session cookie.
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	secure bool
}

func NewSessionManager(secret string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{secret: []byte(secret), ttl: ttl, secure: secure}
}

// Issue signs a session token for the identity and sets it as a cookie.
func (m *SessionManager) Issue(c echo.Context, id *Identity) error {
	now := time.Now()
	claims := sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
		UserID:   id.ID,
		Username: id.Username,
		Role:     id.Role,
		Name:     id.Name,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("sign session token: %w", err)
	}

	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  now.Add(m.ttl),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the session cookie.
func (m *SessionManager) Clear(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Parse validates a session token and returns the identity it carries.
func (m *SessionManager) Parse(tokenStr string) (*Identity, error) {
	claims := &sessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("parse session token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid session token")
	}

	return &Identity{
		ID:       claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
		Name:     claims.Name,
	}, nil
}

// SessionStrategy resolves identity from the session cookie. Only staff
// sessions are accepted.
type SessionStrategy struct {
	Sessions *SessionManager
}

func (s *SessionStrategy) Name() string { return "session" }

func (s *SessionStrategy) Authenticate(c echo.Context) (*Identity, bool) {
	cookie, err := c.Cookie(SessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}
	id, err := s.Sessions.Parse(cookie.Value)
	if err != nil || id.Role != RoleStaff {
		return nil, false
	}
	return id, true
}

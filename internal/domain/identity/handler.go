package identity

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/prms/prms-api/internal/domain/auditlog"
	"github.com/prms/prms-api/internal/platform/auth"
	"github.com/prms/prms-api/internal/platform/respond"
)

type Handler struct {
	svc      *Service
	sessions *auth.SessionManager
	audit    auditlog.Sink
}

func NewHandler(svc *Service, sessions *auth.SessionManager, audit auditlog.Sink) *Handler {
	return &Handler{svc: svc, sessions: sessions, audit: audit}
}

// RegisterRoutes wires the public login/logout endpoints on the api group and
// the identity endpoints on the authenticated staff group.
func (h *Handler) RegisterRoutes(api, staff *echo.Group) {
	api.POST("/staff/login", h.Login)
	api.POST("/staff/logout", h.Logout)
	staff.GET("/me", h.Me)
	staff.GET("/profile", h.Profile)
	staff.PUT("/profile", h.UpdateProfile)
	staff.PUT("/profile/password", h.ChangePassword)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Password == "" {
		return respond.Error(c, http.StatusBadRequest, "Please enter both username and password")
	}

	u, err := h.svc.Login(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			attempted := &auth.Identity{Username: req.Username, Role: "unknown"}
			h.audit.RecordResult(c, attempted, "login", "user", 0, nil, auditlog.ResultFailure)
			return respond.Error(c, http.StatusUnauthorized, "Invalid username or password")
		}
		return respond.Error(c, http.StatusInternalServerError, "Login failed")
	}

	id := toIdentity(u)
	if err := h.sessions.Issue(c, id); err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Could not start session")
	}
	h.audit.Record(c, id, "login", "user", u.ID, nil)

	return respond.OK(c, map[string]interface{}{
		"user": map[string]interface{}{
			"id":       u.ID,
			"username": u.Username,
			"role":     u.Role,
		},
	})
}

// Logout clears the session cookie. It succeeds whether or not a session was
// active.
func (h *Handler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
		if id, err := h.sessions.Parse(cookie.Value); err == nil {
			h.audit.Record(c, id, "logout", "user", id.ID, nil)
		}
	}
	h.sessions.Clear(c)
	return respond.OK(c, map[string]interface{}{"message": "Logged out successfully"})
}

func (h *Handler) Me(c echo.Context) error {
	id := auth.IdentityFrom(c)
	return respond.Data(c, map[string]interface{}{
		"id":       id.ID,
		"username": id.Username,
		"role":     id.Role,
		"name":     id.Name,
	})
}

func (h *Handler) Profile(c echo.Context) error {
	id := auth.IdentityFrom(c)
	u, err := h.svc.GetByID(c.Request().Context(), id.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "Profile not found")
		}
		return respond.Error(c, http.StatusInternalServerError, "Failed to fetch profile")
	}
	return respond.Data(c, u)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	id := auth.IdentityFrom(c)

	var req ProfileUpdate
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Invalid request body")
	}

	if err := h.svc.UpdateProfile(c.Request().Context(), id.ID, req); err != nil {
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return c.JSON(http.StatusBadRequest, map[string]interface{}{
				"success": false,
				"error":   "Validation failed",
				"errors":  vErr.Problems,
			})
		}
		return respond.Error(c, http.StatusInternalServerError, "Failed to update profile")
	}

	h.audit.Record(c, id, "profile_update", "user", id.ID, req)
	return respond.OK(c, map[string]interface{}{"message": "Profile updated successfully"})
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

func (h *Handler) ChangePassword(c echo.Context) error {
	id := auth.IdentityFrom(c)

	var req changePasswordRequest
	if err := c.Bind(&req); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Invalid request body")
	}

	err := h.svc.ChangePassword(c.Request().Context(), id.ID, req.OldPassword, req.NewPassword)
	switch {
	case err == nil:
		h.audit.Record(c, id, "password_change", "user", id.ID, nil)
		return respond.OK(c, map[string]interface{}{"message": "Password changed successfully"})
	case errors.Is(err, ErrWrongPassword):
		return respond.Error(c, http.StatusBadRequest, "Old password is incorrect")
	case errors.Is(err, ErrNotFound):
		return respond.Error(c, http.StatusNotFound, "User not found")
	default:
		var vErr *ValidationError
		if errors.As(err, &vErr) {
			return respond.Error(c, http.StatusBadRequest, vErr.Error())
		}
		return respond.Error(c, http.StatusInternalServerError, "Failed to change password")
	}
}

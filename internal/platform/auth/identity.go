package auth

import (
	"context"

	"github.com/labstack/echo/v4"
)

// RoleStaff is the only role the staff API accepts.
const RoleStaff = "staff"

// Identity is the resolved caller of a staff request.
type Identity struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Name     string `json:"name"`
}

type contextKey string

const identityKey contextKey = "identity"

// WithIdentity stores the identity on both the echo context and the request
// context so repositories reached through context.Context can see the caller.
func WithIdentity(c echo.Context, id *Identity) {
	c.Set(string(identityKey), id)
	ctx := context.WithValue(c.Request().Context(), identityKey, id)
	c.SetRequest(c.Request().WithContext(ctx))
}

// IdentityFrom returns the authenticated identity, or nil when the request
// did not pass the auth chain.
func IdentityFrom(c echo.Context) *Identity {
	id, _ := c.Get(string(identityKey)).(*Identity)
	return id
}

// IdentityFromContext is the request-context counterpart of IdentityFrom.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

package auditlog

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/prms/prms-api/internal/platform/auth"
	"github.com/prms/prms-api/internal/platform/respond"
	"github.com/prms/prms-api/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(staff *echo.Group) {
	staff.GET("/logs", h.ListLogs)
}

// ListLogs returns the current user's recent audit entries, newest first.
func (h *Handler) ListLogs(c echo.Context) error {
	user := auth.IdentityFrom(c)
	pg := pagination.FromContext(c)

	items, total, err := h.svc.ListForUser(c.Request().Context(), user.ID, pg.Limit, pg.Offset())
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Database error: "+err.Error())
	}
	if items == nil {
		items = []*AuditLog{}
	}

	return respond.OK(c, map[string]interface{}{
		"data":       items,
		"pagination": pagination.NewMeta(pg, total),
	})
}

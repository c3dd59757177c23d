package patient

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/prms/prms-api/internal/domain/auditlog"
	"github.com/prms/prms-api/internal/platform/auth"
	"github.com/prms/prms-api/internal/platform/respond"
	"github.com/prms/prms-api/pkg/pagination"
)

const missingAddedByRemedy = "Missing column patients.added_by. Run: ALTER TABLE patients ADD COLUMN added_by INT NULL;"

type Handler struct {
	svc   *Service
	audit auditlog.Sink
}

func NewHandler(svc *Service, audit auditlog.Sink) *Handler {
	return &Handler{svc: svc, audit: audit}
}

func (h *Handler) RegisterRoutes(staff *echo.Group) {
	staff.GET("/patients", h.List)
	staff.POST("/patients", h.Create)
	staff.GET("/patients/:id", h.Detail)
	staff.PUT("/patients/:id", h.Update)
}

func (h *Handler) List(c echo.Context) error {
	user := auth.IdentityFrom(c)
	pg := pagination.FromContext(c)

	q := ListQuery{
		StaffID:   user.ID,
		Q:         c.QueryParam("q"),
		Disease:   c.QueryParam("disease"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
		Limit:     pg.Limit,
		Offset:    pg.Offset(),
	}

	items, total, err := h.svc.List(c.Request().Context(), q)
	if err != nil {
		if errors.Is(err, ErrMissingAddedBy) {
			return c.JSON(http.StatusConflict, map[string]interface{}{
				"success": false,
				"error":   missingAddedByRemedy,
				"meta": map[string]interface{}{
					"page": pg.Page, "pageSize": pg.Limit, "total": 0,
				},
			})
		}
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}

	return respond.OK(c, map[string]interface{}{
		"data":       items,
		"pagination": pagination.NewMeta(pg, total),
	})
}

func (h *Handler) Detail(c echo.Context) error {
	user := auth.IdentityFrom(c)

	id, _ := strconv.Atoi(c.Param("id"))
	if id <= 0 {
		return respond.Error(c, http.StatusBadRequest, "Invalid patient ID")
	}

	d, err := h.svc.Detail(c.Request().Context(), id, user.ID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return respond.Error(c, http.StatusNotFound, "Patient not found or access denied")
		}
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	return respond.Data(c, d)
}

func (h *Handler) Create(c echo.Context) error {
	user := auth.IdentityFrom(c)

	var in Input
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Invalid request body")
	}

	p, err := h.svc.Create(c.Request().Context(), in, user.ID)
	if err != nil {
		return h.writeError(c, err)
	}

	h.audit.Record(c, user, "create_patient", "patient", p.ID, in)
	return respond.Data(c, p)
}

func (h *Handler) Update(c echo.Context) error {
	user := auth.IdentityFrom(c)

	id, _ := strconv.Atoi(c.Param("id"))

	var in Input
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Invalid request body")
	}

	p, err := h.svc.Update(c.Request().Context(), id, in, user.ID)
	if err != nil {
		return h.writeError(c, err)
	}

	h.audit.Record(c, user, "update_patient", "patient", p.ID, in)
	return respond.Data(c, p)
}

func (h *Handler) writeError(c echo.Context, err error) error {
	var inputErr *InputError
	switch {
	case errors.As(err, &inputErr):
		return respond.Error(c, http.StatusBadRequest, inputErr.Msg)
	case errors.Is(err, ErrMissingAddedBy):
		return respond.Error(c, http.StatusConflict, missingAddedByRemedy)
	case errors.Is(err, ErrForbidden):
		return respond.Error(c, http.StatusForbidden, "Patient not found or access denied")
	case errors.Is(err, ErrNotFound):
		return respond.Error(c, http.StatusNotFound, "Patient not found or access denied")
	default:
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
}

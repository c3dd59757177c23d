package record

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/prms/prms-api/internal/domain/auditlog"
	"github.com/prms/prms-api/internal/platform/auth"
	"github.com/prms/prms-api/internal/platform/respond"
)

type Handler struct {
	svc   *Service
	audit auditlog.Sink
}

func NewHandler(svc *Service, audit auditlog.Sink) *Handler {
	return &Handler{svc: svc, audit: audit}
}

func (h *Handler) RegisterRoutes(staff *echo.Group) {
	staff.GET("/records", h.Recent)
	staff.GET("/medical-records", h.History)
	staff.GET("/medical-records/:id", h.Get)
	staff.PUT("/medical-records", h.Update)
}

// Recent serves the quick consultation list on the patient view. Missing or
// invalid patient_id produces an empty success payload.
func (h *Handler) Recent(c echo.Context) error {
	user := auth.IdentityFrom(c)
	patientID, _ := strconv.Atoi(c.QueryParam("patient_id"))

	items, err := h.svc.Recent(c.Request().Context(), patientID, user.ID)
	if err != nil {
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
	return respond.Data(c, items)
}

func (h *Handler) History(c echo.Context) error {
	user := auth.IdentityFrom(c)

	patientID, _ := strconv.Atoi(c.QueryParam("patient_id"))
	if patientID <= 0 {
		return respond.Error(c, http.StatusBadRequest, "Invalid patient ID")
	}

	items, err := h.svc.History(c.Request().Context(), patientID, user.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond.Data(c, items)
}

func (h *Handler) Get(c echo.Context) error {
	user := auth.IdentityFrom(c)

	id, _ := strconv.Atoi(c.Param("id"))
	if id <= 0 {
		return respond.Error(c, http.StatusBadRequest, "Invalid record ID")
	}

	rec, err := h.svc.Get(c.Request().Context(), id, user.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	return respond.Data(c, rec)
}

func (h *Handler) Update(c echo.Context) error {
	user := auth.IdentityFrom(c)

	var in Input
	if err := c.Bind(&in); err != nil {
		return respond.Error(c, http.StatusBadRequest, "Invalid request body")
	}
	if in.PatientID <= 0 {
		return respond.Error(c, http.StatusBadRequest, "Invalid patient ID")
	}

	rec, err := h.svc.Append(c.Request().Context(), in, user.ID)
	if err != nil {
		return h.writeError(c, err)
	}
	if rec == nil {
		return respond.OK(c, map[string]interface{}{"message": "No medical data to save"})
	}

	h.audit.Record(c, user, "update_medical_record", "medical_record", rec.ID, in)
	return respond.OK(c, map[string]interface{}{"message": "Medical record updated successfully"})
}

func (h *Handler) writeError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, ErrForbidden):
		return respond.Error(c, http.StatusForbidden, "Patient not found or access denied")
	case errors.Is(err, ErrNotFound):
		return respond.Error(c, http.StatusNotFound, "Record not found")
	default:
		return respond.Error(c, http.StatusInternalServerError, "Database error")
	}
}

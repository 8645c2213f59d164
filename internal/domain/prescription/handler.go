package prescription

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/internal/platform/httputil"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/prescriptions", auth.RequireRole(auth.RoleDoctor, auth.RoleNurse, auth.RolePharmacist))
	read.GET("", h.ListPrescriptions)
	read.GET("/:id", h.GetPrescription)

	write := api.Group("/prescriptions", auth.RequireRole(auth.RoleDoctor))
	write.POST("", h.CreatePrescription)
	write.PATCH("/:id", h.UpdatePrescription)
	write.DELETE("/:id", h.DeletePrescription)

	// Pharmacists close prescriptions once dispensed.
	status := api.Group("/prescriptions", auth.RequireRole(auth.RoleDoctor, auth.RolePharmacist))
	status.POST("/:id/toggle-status", h.ToggleStatus)
}

type CreatePrescriptionRequest struct {
	PatientID      uuid.UUID `json:"patient_id" validate:"required"`
	MedicationName string    `json:"medication_name" validate:"required,max=200"`
	Dosage         string    `json:"dosage" validate:"required,max=100"`
	Frequency      string    `json:"frequency" validate:"required,max=100"`
	DurationDays   *int      `json:"duration_days" validate:"omitempty,min=1"`
	Instructions   *string   `json:"instructions"`
}

type ToggleStatusRequest struct {
	CurrentStatus *bool `json:"current_status" validate:"required"`
}

func (h *Handler) CreatePrescription(c echo.Context) error {
	var req CreatePrescriptionRequest
	if err := httputil.BindAndValidate(c, &req); err != nil {
		return err
	}
	rx, err := h.svc.CreatePrescription(c.Request().Context(), &Prescription{
		PatientID:      req.PatientID,
		MedicationName: req.MedicationName,
		Dosage:         req.Dosage,
		Frequency:      req.Frequency,
		DurationDays:   req.DurationDays,
		Instructions:   req.Instructions,
		Active:         true,
	})
	if err != nil {
		return httputil.HTTPError(err, "prescription not found")
	}
	return c.JSON(http.StatusCreated, rx)
}

func (h *Handler) GetPrescription(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	rx, err := h.svc.GetPrescription(c.Request().Context(), id)
	if err != nil {
		return httputil.HTTPError(err, "prescription not found")
	}
	return c.JSON(http.StatusOK, rx)
}

func (h *Handler) ListPrescriptions(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"patient_id":    c.QueryParam("patient_id"),
		"prescribed_by": c.QueryParam("prescribed_by"),
		"medication":    c.QueryParam("medication"),
		"active":        c.QueryParam("active"),
	}
	items, total, err := h.svc.SearchPrescriptions(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return httputil.HTTPError(err, "prescription not found")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c.Request().URL))
}

func (h *Handler) UpdatePrescription(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var upd PrescriptionUpdate
	if err := httputil.BindAndValidate(c, &upd); err != nil {
		return err
	}
	rx, err := h.svc.UpdatePrescription(c.Request().Context(), id, &upd)
	if err != nil {
		return httputil.HTTPError(err, "prescription not found")
	}
	return c.JSON(http.StatusOK, rx)
}

func (h *Handler) DeletePrescription(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePrescription(c.Request().Context(), id); err != nil {
		return httputil.HTTPError(err, "prescription not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ToggleStatus(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var req ToggleStatusRequest
	if err := httputil.BindAndValidate(c, &req); err != nil {
		return err
	}
	rx, err := h.svc.TogglePrescriptionStatus(c.Request().Context(), id, *req.CurrentStatus)
	if err != nil {
		return httputil.HTTPError(err, "prescription not found")
	}
	return c.JSON(http.StatusOK, rx)
}

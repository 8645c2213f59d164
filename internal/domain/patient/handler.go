package patient

import (
	"net/http"
	"time"

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
	// Read endpoints – clinical staff, front desk, billing
	read := api.Group("/patients", auth.RequireRole(
		auth.RoleDoctor, auth.RoleNurse, auth.RoleReceptionist, auth.RolePharmacist, auth.RoleAccountant))
	read.GET("", h.ListPatients)
	read.GET("/:id", h.GetPatient)

	// Write endpoints – doctors and front desk
	write := api.Group("/patients", auth.RequireRole(auth.RoleDoctor, auth.RoleReceptionist))
	write.POST("", h.CreatePatient)
	write.PATCH("/:id", h.UpdatePatient)
	write.DELETE("/:id", h.DeletePatient)
	write.POST("/:id/toggle-status", h.ToggleStatus)
}

type CreatePatientRequest struct {
	FirstName   string     `json:"first_name" validate:"required,max=100"`
	LastName    string     `json:"last_name" validate:"required,max=100"`
	DateOfBirth *time.Time `json:"date_of_birth"`
	Gender      *string    `json:"gender" validate:"omitempty,oneof=male female other unknown"`
	Phone       *string    `json:"phone" validate:"omitempty,max=30"`
	Email       *string    `json:"email" validate:"omitempty,email"`
	Address     *string    `json:"address"`
	BloodGroup  *string    `json:"blood_group" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
}

type ToggleStatusRequest struct {
	CurrentStatus *bool `json:"current_status" validate:"required"`
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var req CreatePatientRequest
	if err := httputil.BindAndValidate(c, &req); err != nil {
		return err
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), &Patient{
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		DateOfBirth: req.DateOfBirth,
		Gender:      req.Gender,
		Phone:       req.Phone,
		Email:       req.Email,
		Address:     req.Address,
		BloodGroup:  req.BloodGroup,
		Active:      true,
	})
	if err != nil {
		return httputil.HTTPError(err, "patient not found")
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetPatient(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	p, err := h.svc.GetPatient(c.Request().Context(), id)
	if err != nil {
		return httputil.HTTPError(err, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) ListPatients(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := make(map[string]string)
	for _, k := range []string{"name", "phone", "email", "gender", "blood_group", "active", "birthdate"} {
		params[k] = c.QueryParam(k)
	}
	items, total, err := h.svc.SearchPatients(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return httputil.HTTPError(err, "patient not found")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c.Request().URL))
}

func (h *Handler) UpdatePatient(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var upd PatientUpdate
	if err := httputil.BindAndValidate(c, &upd); err != nil {
		return err
	}
	p, err := h.svc.UpdatePatient(c.Request().Context(), id, &upd)
	if err != nil {
		return httputil.HTTPError(err, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) DeletePatient(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeletePatient(c.Request().Context(), id); err != nil {
		return httputil.HTTPError(err, "patient not found")
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
	p, err := h.svc.TogglePatientStatus(c.Request().Context(), id, *req.CurrentStatus)
	if err != nil {
		return httputil.HTTPError(err, "patient not found")
	}
	return c.JSON(http.StatusOK, p)
}

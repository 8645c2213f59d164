package medservice

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

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

// RegisterRoutes mounts the catalogue. Every clinical and billing role can
// read it; only admins change it.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("/medical-services", auth.RequireRole(
		auth.RoleDoctor, auth.RoleNurse, auth.RoleReceptionist, auth.RolePharmacist, auth.RoleAccountant))
	read.GET("", h.ListMedicalServices)
	read.GET("/:id", h.GetMedicalService)

	write := api.Group("/medical-services", auth.RequireRole(auth.RoleAdmin))
	write.POST("", h.CreateMedicalService)
	write.PATCH("/:id", h.UpdateMedicalService)
	write.DELETE("/:id", h.DeleteMedicalService)
	write.POST("/:id/toggle-status", h.ToggleStatus)
}

type CreateMedicalServiceRequest struct {
	Name            string          `json:"name" validate:"required,max=200"`
	Description     *string         `json:"description"`
	Category        *string         `json:"category" validate:"omitempty,max=100"`
	Price           decimal.Decimal `json:"price"`
	DurationMinutes *int            `json:"duration_minutes" validate:"omitempty,min=1"`
	Active          *bool           `json:"active"`
}

// ToggleStatusRequest carries the status the client currently displays.
type ToggleStatusRequest struct {
	CurrentStatus *bool `json:"current_status" validate:"required"`
}

func (h *Handler) CreateMedicalService(c echo.Context) error {
	var req CreateMedicalServiceRequest
	if err := httputil.BindAndValidate(c, &req); err != nil {
		return err
	}
	ms := &MedicalService{
		Name:            req.Name,
		Description:     req.Description,
		Category:        req.Category,
		Price:           req.Price,
		DurationMinutes: req.DurationMinutes,
		Active:          true,
	}
	if req.Active != nil {
		ms.Active = *req.Active
	}
	created, err := h.svc.CreateMedicalService(c.Request().Context(), ms)
	if err != nil {
		return httputil.HTTPError(err, "medical service not found")
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetMedicalService(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	ms, err := h.svc.GetMedicalService(c.Request().Context(), id)
	if err != nil {
		return httputil.HTTPError(err, "medical service not found")
	}
	return c.JSON(http.StatusOK, ms)
}

func (h *Handler) ListMedicalServices(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"name":     c.QueryParam("name"),
		"category": c.QueryParam("category"),
		"active":   c.QueryParam("active"),
	}
	items, total, err := h.svc.SearchMedicalServices(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return httputil.HTTPError(err, "medical service not found")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c.Request().URL))
}

func (h *Handler) UpdateMedicalService(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var upd MedicalServiceUpdate
	if err := httputil.BindAndValidate(c, &upd); err != nil {
		return err
	}
	ms, err := h.svc.UpdateMedicalService(c.Request().Context(), id, &upd)
	if err != nil {
		return httputil.HTTPError(err, "medical service not found")
	}
	return c.JSON(http.StatusOK, ms)
}

func (h *Handler) DeleteMedicalService(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteMedicalService(c.Request().Context(), id); err != nil {
		return httputil.HTTPError(err, "medical service not found")
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
	ms, err := h.svc.ToggleMedicalServiceStatus(c.Request().Context(), id, *req.CurrentStatus)
	if err != nil {
		return httputil.HTTPError(err, "medical service not found")
	}
	return c.JSON(http.StatusOK, ms)
}

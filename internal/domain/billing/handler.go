package billing

import (
	"net/http"
	"time"

	"github.com/google/uuid"
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

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/invoices", auth.RequireRole(auth.RoleReceptionist, auth.RoleAccountant))
	g.GET("", h.ListInvoices)
	g.GET("/next-number", h.NextInvoiceNumber)
	g.GET("/:id", h.GetInvoice)
	g.POST("", h.CreateInvoice)
	g.PATCH("/:id", h.UpdateInvoice)
	g.DELETE("/:id", h.DeleteInvoice)
	g.POST("/:id/pay", h.MarkInvoicePaid)
}

type CreateInvoiceRequest struct {
	InvoiceNumber string          `json:"invoice_number" validate:"omitempty,startswith=INV-,max=20"`
	PatientID     uuid.UUID       `json:"patient_id" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Status        string          `json:"status" validate:"omitempty,oneof=pending paid cancelled overdue"`
	DueDate       *time.Time      `json:"due_date"`
	Notes         *string         `json:"notes" validate:"omitempty,max=2000"`
}

func (h *Handler) CreateInvoice(c echo.Context) error {
	var req CreateInvoiceRequest
	if err := httputil.BindAndValidate(c, &req); err != nil {
		return err
	}
	inv, err := h.svc.CreateInvoice(c.Request().Context(), &Invoice{
		InvoiceNumber: req.InvoiceNumber,
		PatientID:     req.PatientID,
		Amount:        req.Amount,
		Status:        req.Status,
		DueDate:       req.DueDate,
		Notes:         req.Notes,
	})
	if err != nil {
		return httputil.HTTPError(err, "invoice not found")
	}
	return c.JSON(http.StatusCreated, inv)
}

func (h *Handler) GetInvoice(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.svc.GetInvoice(c.Request().Context(), id)
	if err != nil {
		return httputil.HTTPError(err, "invoice not found")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) ListInvoices(c echo.Context) error {
	pg := pagination.FromContext(c)
	params := map[string]string{
		"patient_id":     c.QueryParam("patient_id"),
		"status":         c.QueryParam("status"),
		"invoice_number": c.QueryParam("invoice_number"),
		"due_date":       c.QueryParam("due_date"),
	}
	items, total, err := h.svc.SearchInvoices(c.Request().Context(), params, pg.Limit, pg.Offset)
	if err != nil {
		return httputil.HTTPError(err, "invoice not found")
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, pg.Limit, pg.Offset).WithNext(c.Request().URL))
}

func (h *Handler) UpdateInvoice(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	var upd InvoiceUpdate
	if err := httputil.BindAndValidate(c, &upd); err != nil {
		return err
	}
	inv, err := h.svc.UpdateInvoice(c.Request().Context(), id, &upd)
	if err != nil {
		return httputil.HTTPError(err, "invoice not found")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) MarkInvoicePaid(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	inv, err := h.svc.MarkInvoicePaid(c.Request().Context(), id)
	if err != nil {
		return httputil.HTTPError(err, "invoice not found")
	}
	return c.JSON(http.StatusOK, inv)
}

func (h *Handler) DeleteInvoice(c echo.Context) error {
	id, err := httputil.ParamUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.svc.DeleteInvoice(c.Request().Context(), id); err != nil {
		return httputil.HTTPError(err, "invoice not found")
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) NextInvoiceNumber(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"invoice_number": h.svc.NextInvoiceNumber(c.Request().Context()),
	})
}

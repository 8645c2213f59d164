package activity

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/hms/hms/internal/platform/auth"
	"github.com/hms/hms/pkg/pagination"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, logger zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: logger}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdmin))
	read.GET("/activity-logs", h.ListActivity)
}

func (h *Handler) ListActivity(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filter{Action: c.QueryParam("action"), UserID: c.QueryParam("user_id")}

	items, total, err := h.svc.Search(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		h.log.Error().Err(err).Msg("Error fetching activity logs")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}

	views := make([]View, len(items))
	for i, e := range items {
		views[i] = e.ToView()
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(views, total, pg.Limit, pg.Offset).WithNext(c.Request().URL))
}

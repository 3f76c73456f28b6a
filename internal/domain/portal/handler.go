package portal

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/api"
	"github.com/phr/phr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.GET("/records", h.MyRecords)
	g.GET("/records/shared", h.SharedWithMe)
	g.GET("/share-requests", h.MyShareRequests)
}

// RegisterPublicRoutes mounts the operator-facing endpoints that carry
// no caller identity.
func (h *Handler) RegisterPublicRoutes(g *echo.Group) {
	g.GET("/stats", h.PlatformStats)
}

func (h *Handler) MyRecords(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.MyRecords(c.Request().Context(), auth.Caller(c), pg.Limit, pg.Offset)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, pagination.NewPage(items, total, pg))
}

func (h *Handler) SharedWithMe(c echo.Context) error {
	items, err := h.svc.SharedWithMe(c.Request().Context(), auth.Caller(c))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, items)
}

func (h *Handler) MyShareRequests(c echo.Context) error {
	items, err := h.svc.MyShareRequests(c.Request().Context(), auth.Caller(c))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, items)
}

func (h *Handler) PlatformStats(c echo.Context) error {
	stats, err := h.svc.PlatformStats(c.Request().Context())
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, stats)
}

package records

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/api"
	"github.com/phr/phr/pkg/apperr"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the record CRUD surface. Listing endpoints
// (my records, shared with me) live in the portal package.
func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/records", h.Create)
	g.GET("/records/:id", h.Get)
	g.PUT("/records/:id", h.Update)
	g.DELETE("/records/:id", h.Delete)
}

type createRecordRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	RecordType  string     `json:"record_type" validate:"required"`
	Data        RecordData `json:"data"`
}

func (h *Handler) Create(c echo.Context) error {
	var req createRecordRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	if err := c.Validate(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	rec, err := h.svc.Create(c.Request().Context(), auth.Caller(c), CreateInput{
		Title:       req.Title,
		Description: req.Description,
		RecordType:  req.RecordType,
		Data:        req.Data,
	})
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusCreated, rec)
}

func recordID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.ErrInvalidInput, "invalid record id")
	}
	return id, nil
}

func (h *Handler) Get(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	rec, err := h.svc.Get(c.Request().Context(), auth.Caller(c), id)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, rec)
}

type updateRecordRequest struct {
	Title       *string     `json:"title"`
	Description *string     `json:"description"`
	Data        *RecordData `json:"data"`
}

func (h *Handler) Update(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	var req updateRecordRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	rec, err := h.svc.Update(c.Request().Context(), auth.Caller(c), id, UpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Data:        req.Data,
	})
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, rec)
}

func (h *Handler) Delete(c echo.Context) error {
	id, err := recordID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	if err := h.svc.Delete(c.Request().Context(), auth.Caller(c), id); err != nil {
		return api.Fail(c, err)
	}
	return api.NoData(c, http.StatusOK)
}

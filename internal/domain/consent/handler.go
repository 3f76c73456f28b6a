package consent

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/api"
	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/share-requests", h.RequestShare)
	g.POST("/share-requests/:id/approve", h.Approve)
	g.POST("/share-requests/:id/reject", h.Reject)
	g.POST("/records/:id/share", h.ShareDirect)
	g.POST("/records/:id/revoke", h.Revoke)
}

type requestShareRequest struct {
	PatientID  string   `json:"patient_id" validate:"required"`
	RecordIDs  []string `json:"record_ids" validate:"required,min=1,dive,uuid"`
	Message    string   `json:"message"`
	TTLSeconds int64    `json:"ttl_seconds" validate:"omitempty,min=1"`
}

func (h *Handler) RequestShare(c echo.Context) error {
	var req requestShareRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	if err := c.Validate(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	patient, err := principal.Parse(req.PatientID)
	if err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	recordIDs := make([]uuid.UUID, 0, len(req.RecordIDs))
	for _, raw := range req.RecordIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "invalid record id %q", raw))
		}
		recordIDs = append(recordIDs, id)
	}

	out, err := h.svc.RequestShare(c.Request().Context(), auth.Caller(c), RequestInput{
		PatientID: patient,
		RecordIDs: recordIDs,
		Message:   req.Message,
		TTL:       time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusCreated, out)
}

func requestID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Wrap(apperr.ErrInvalidInput, "invalid share request id")
	}
	return id, nil
}

func (h *Handler) Approve(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	if _, err := h.svc.Approve(c.Request().Context(), auth.Caller(c), id); err != nil {
		return api.Fail(c, err)
	}
	return api.NoData(c, http.StatusOK)
}

func (h *Handler) Reject(c echo.Context) error {
	id, err := requestID(c)
	if err != nil {
		return api.Fail(c, err)
	}
	if _, err := h.svc.Reject(c.Request().Context(), auth.Caller(c), id); err != nil {
		return api.Fail(c, err)
	}
	return api.NoData(c, http.StatusOK)
}

type providerTarget struct {
	ProviderID string `json:"provider_id" validate:"required"`
}

func (h *Handler) ShareDirect(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "invalid record id"))
	}
	var req providerTarget
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	if err := c.Validate(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	provider, err := principal.Parse(req.ProviderID)
	if err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	out, err := h.svc.ShareDirect(c.Request().Context(), auth.Caller(c), id, provider)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusCreated, out)
}

func (h *Handler) Revoke(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "invalid record id"))
	}
	var req providerTarget
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	if err := c.Validate(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	provider, err := principal.Parse(req.ProviderID)
	if err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	if err := h.svc.Revoke(c.Request().Context(), auth.Caller(c), id, provider); err != nil {
		return api.Fail(c, err)
	}
	return api.NoData(c, http.StatusOK)
}

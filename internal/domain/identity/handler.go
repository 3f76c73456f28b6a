package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/api"
	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(g *echo.Group) {
	g.POST("/patients", h.RegisterPatient)
	g.POST("/providers", h.RegisterProvider)
	g.GET("/profile", h.GetProfile)
	g.GET("/providers", h.ListProviders)
}

type registerPatientRequest struct {
	Name             string            `json:"name" validate:"required"`
	Email            string            `json:"email" validate:"omitempty,email"`
	DateOfBirth      string            `json:"date_of_birth"`
	Gender           string            `json:"gender"`
	Phone            string            `json:"phone"`
	Address          string            `json:"address"`
	EmergencyContact *EmergencyContact `json:"emergency_contact"`
}

func (h *Handler) RegisterPatient(c echo.Context) error {
	var req registerPatientRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	if err := c.Validate(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	p := &Patient{
		ID:               auth.Caller(c),
		Name:             req.Name,
		Email:            req.Email,
		DateOfBirth:      req.DateOfBirth,
		Gender:           req.Gender,
		Phone:            req.Phone,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
	}
	if err := h.svc.RegisterPatient(c.Request().Context(), p); err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusCreated, p)
}

type registerProviderRequest struct {
	Name                string `json:"name" validate:"required"`
	Specialty           string `json:"specialty"`
	LicenseNumber       string `json:"license_number"`
	HospitalAffiliation string `json:"hospital_affiliation"`
	Email               string `json:"email" validate:"omitempty,email"`
	Phone               string `json:"phone"`
}

func (h *Handler) RegisterProvider(c echo.Context) error {
	var req registerProviderRequest
	if err := c.Bind(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	if err := c.Validate(&req); err != nil {
		return api.Fail(c, apperr.Wrap(apperr.ErrInvalidInput, "%v", err))
	}
	p := &Provider{
		ID:                  auth.Caller(c),
		Name:                req.Name,
		Specialty:           req.Specialty,
		LicenseNumber:       req.LicenseNumber,
		HospitalAffiliation: req.HospitalAffiliation,
		Email:               req.Email,
		Phone:               req.Phone,
	}
	if err := h.svc.RegisterProvider(c.Request().Context(), p); err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusCreated, p)
}

func (h *Handler) GetProfile(c echo.Context) error {
	res, err := h.svc.GetProfile(c.Request().Context(), auth.Caller(c))
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, res)
}

func (h *Handler) ListProviders(c echo.Context) error {
	pg := pagination.FromContext(c)
	items, total, err := h.svc.ListProviders(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return api.Fail(c, err)
	}
	return api.OK(c, http.StatusOK, pagination.NewPage(items, total, pg))
}

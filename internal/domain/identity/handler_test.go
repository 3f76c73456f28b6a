package identity

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phr/phr/internal/platform/auth"
	"github.com/phr/phr/pkg/api"
	"github.com/phr/phr/pkg/principal"
)

func newTestHandler() (*echo.Echo, *Handler) {
	e := echo.New()
	e.Validator = api.NewValidator()
	h := NewHandler(NewService(NewPatientRepoMem(), NewProviderRepoMem()))
	return e, h
}

func doRequest(e *echo.Echo, method, path, body string, caller principal.Principal, handler echo.HandlerFunc) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if !caller.IsNil() {
		req = req.WithContext(auth.WithCaller(req.Context(), caller))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestHandlerRegisterPatient(t *testing.T) {
	e, h := newTestHandler()

	body := `{"name":"Alice","email":"alice@example.com","emergency_contact":{"name":"Bob","phone":"555"}}`
	rec := doRequest(e, http.MethodPost, "/api/v1/patients", body, "alice", h.RegisterPatient)

	require.Equal(t, http.StatusCreated, rec.Code)
	var env struct {
		Success bool    `json:"success"`
		Data    Patient `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Equal(t, "alice", env.Data.ID.String())
	require.NotNil(t, env.Data.EmergencyContact)
	assert.Equal(t, "Bob", env.Data.EmergencyContact.Name)
}

func TestHandlerRegisterPatient_MissingName(t *testing.T) {
	e, h := newTestHandler()

	rec := doRequest(e, http.MethodPost, "/api/v1/patients", `{"email":"a@b.c"}`, "alice", h.RegisterPatient)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestHandlerRegisterPatient_Duplicate(t *testing.T) {
	e, h := newTestHandler()

	first := doRequest(e, http.MethodPost, "/api/v1/patients", `{"name":"Alice"}`, "alice", h.RegisterPatient)
	require.Equal(t, http.StatusCreated, first.Code)

	second := doRequest(e, http.MethodPost, "/api/v1/patients", `{"name":"Alice"}`, "alice", h.RegisterPatient)
	assert.Equal(t, http.StatusConflict, second.Code)
}

func TestHandlerRegisterProvider(t *testing.T) {
	e, h := newTestHandler()

	body := `{"name":"Dr Bob","specialty":"cardiology","license_number":"L-1"}`
	rec := doRequest(e, http.MethodPost, "/api/v1/providers", body, "dr-bob", h.RegisterProvider)

	require.Equal(t, http.StatusCreated, rec.Code)
	var env struct {
		Data Provider `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "cardiology", env.Data.Specialty)
	assert.False(t, env.Data.Verified)
}

func TestHandlerGetProfile(t *testing.T) {
	e, h := newTestHandler()

	doRequest(e, http.MethodPost, "/api/v1/patients", `{"name":"Alice"}`, "alice", h.RegisterPatient)

	rec := doRequest(e, http.MethodGet, "/api/v1/profile", "", "alice", h.GetProfile)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"patient"`)

	rec = doRequest(e, http.MethodGet, "/api/v1/profile", "", "ghost", h.GetProfile)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandlerListProviders(t *testing.T) {
	e, h := newTestHandler()

	doRequest(e, http.MethodPost, "/api/v1/providers", `{"name":"Dr A"}`, "dr-a", h.RegisterProvider)
	doRequest(e, http.MethodPost, "/api/v1/providers", `{"name":"Dr B"}`, "dr-b", h.RegisterProvider)

	rec := doRequest(e, http.MethodGet, "/api/v1/providers?limit=1", "", "alice", h.ListProviders)
	require.Equal(t, http.StatusOK, rec.Code)
	var env struct {
		Data struct {
			Total   int  `json:"total"`
			HasMore bool `json:"has_more"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, 2, env.Data.Total)
	assert.True(t, env.Data.HasMore)
}

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

// Service owns profile registration and principal resolution. A
// principal holds at most one profile across both kinds.
type Service struct {
	patients  PatientRepository
	providers ProviderRepository
	now       func() time.Time
}

func NewService(patients PatientRepository, providers ProviderRepository) *Service {
	return &Service{patients: patients, providers: providers, now: time.Now}
}

// RegisterPatient creates a patient profile for p.ID. The principal must
// not already hold a profile of either kind.
func (s *Service) RegisterPatient(ctx context.Context, p *Patient) error {
	if p.ID.IsNil() {
		return fmt.Errorf("%w: missing principal", apperr.ErrInvalidInput)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	if _, err := s.providers.GetByID(ctx, p.ID); err == nil {
		return apperr.Wrap(apperr.ErrConflict, "principal %s is a provider", p.ID)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	p.CreatedAt = s.now().UTC()
	return s.patients.Create(ctx, p)
}

// RegisterProvider creates a provider profile for p.ID. Providers start
// unverified.
func (s *Service) RegisterProvider(ctx context.Context, p *Provider) error {
	if p.ID.IsNil() {
		return fmt.Errorf("%w: missing principal", apperr.ErrInvalidInput)
	}
	if p.Name == "" {
		return fmt.Errorf("%w: name is required", apperr.ErrInvalidInput)
	}
	if _, err := s.patients.GetByID(ctx, p.ID); err == nil {
		return apperr.Wrap(apperr.ErrConflict, "principal %s is a patient", p.ID)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	p.Verified = false
	p.CreatedAt = s.now().UTC()
	return s.providers.Create(ctx, p)
}

// Resolve looks up the profile attached to a principal. Pure lookup: an
// unregistered principal yields an empty Resolution, not an error.
func (s *Service) Resolve(ctx context.Context, p principal.Principal) (Resolution, error) {
	pat, err := s.patients.GetByID(ctx, p)
	if err == nil {
		return Resolution{Patient: pat}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Resolution{}, err
	}
	prov, err := s.providers.GetByID(ctx, p)
	if err == nil {
		return Resolution{Provider: prov}, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return Resolution{}, err
	}
	return Resolution{}, nil
}

// GetProfile returns the caller's own profile in either shape.
func (s *Service) GetProfile(ctx context.Context, caller principal.Principal) (Resolution, error) {
	res, err := s.Resolve(ctx, caller)
	if err != nil {
		return Resolution{}, err
	}
	if !res.Registered() {
		return Resolution{}, apperr.Wrap(apperr.ErrUnregistered, "principal %s", caller)
	}
	return res, nil
}

// ListProviders returns the provider directory page.
func (s *Service) ListProviders(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	return s.providers.List(ctx, limit, offset)
}

// Counts returns the registered patient and provider totals for the
// platform stats endpoint.
func (s *Service) Counts(ctx context.Context) (patients, providers int, err error) {
	if patients, err = s.patients.Count(ctx); err != nil {
		return 0, 0, err
	}
	if providers, err = s.providers.Count(ctx); err != nil {
		return 0, 0, err
	}
	return patients, providers, nil
}

package identity

import (
	"context"

	"github.com/phr/phr/pkg/principal"
)

// PatientRepository stores patient profiles keyed by principal.
// Create returns apperr.ErrConflict when the principal already has a
// patient profile; GetByID returns apperr.ErrNotFound when absent.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id principal.Principal) (*Patient, error)
	Count(ctx context.Context) (int, error)
}

// ProviderRepository stores provider profiles keyed by principal.
type ProviderRepository interface {
	Create(ctx context.Context, p *Provider) error
	GetByID(ctx context.Context, id principal.Principal) (*Provider, error)
	List(ctx context.Context, limit, offset int) ([]*Provider, int, error)
	Count(ctx context.Context) (int, error)
}

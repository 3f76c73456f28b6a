package records

import (
	"context"

	"github.com/google/uuid"

	"github.com/phr/phr/pkg/principal"
)

// Repository stores health records. GetByID returns apperr.ErrNotFound
// for unknown ids. Grant and RevokeGrant mutate the shared_with set
// atomically; both are idempotent.
type Repository interface {
	Create(ctx context.Context, rec *HealthRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error)
	Update(ctx context.Context, rec *HealthRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patient principal.Principal, limit, offset int) ([]*HealthRecord, int, error)
	ListSharedWith(ctx context.Context, p principal.Principal) ([]*HealthRecord, error)
	Grant(ctx context.Context, id uuid.UUID, p principal.Principal) error
	RevokeGrant(ctx context.Context, id uuid.UUID, p principal.Principal) error
	Count(ctx context.Context) (int, error)
}

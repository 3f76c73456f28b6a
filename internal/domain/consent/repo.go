package consent

import (
	"context"

	"github.com/google/uuid"

	"github.com/phr/phr/pkg/principal"
)

// Repository stores share requests. Resolve is the compare-and-set
// primitive every status transition goes through: it moves id from
// `from` to `to` and reports false when the stored status was not
// `from`, without touching the row. Concurrent resolvers therefore see
// exactly one true.
type Repository interface {
	Create(ctx context.Context, req *ShareRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*ShareRequest, error)
	Resolve(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
	ListByPatient(ctx context.Context, patient principal.Principal) ([]*ShareRequest, error)
	ListByProvider(ctx context.Context, provider principal.Principal) ([]*ShareRequest, error)
	// ListGrants returns the Approved requests naming provider and
	// containing recordID.
	ListGrants(ctx context.Context, provider principal.Principal, recordID uuid.UUID) ([]*ShareRequest, error)
	// DetachRecord removes recordID from every request; Pending
	// requests left with no records expire.
	DetachRecord(ctx context.Context, recordID uuid.UUID) error
	CountByStatus(ctx context.Context, st Status) (int, error)
}

package records

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phr/phr/internal/domain/identity"
	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

// Authorizer decides whether a caller may perform an operation on a
// record. The consent engine provides the production implementation;
// it is injected after construction to break the dependency cycle.
type Authorizer interface {
	Authorize(ctx context.Context, caller principal.Principal, rec *HealthRecord, op Operation) error
}

// ShareCascade is notified when a record is deleted so tracked share
// requests can drop the id.
type ShareCascade interface {
	OnRecordDeleted(ctx context.Context, recordID uuid.UUID) error
}

// IdentityDirectory resolves caller principals to profiles.
type IdentityDirectory interface {
	Resolve(ctx context.Context, p principal.Principal) (identity.Resolution, error)
}

// Service owns the record CRUD surface. Ownership rules (write and
// delete are owner-only) are enforced here; read access is delegated
// to the Authorizer.
type Service struct {
	repo     Repository
	identity IdentityDirectory
	authz    Authorizer
	cascade  ShareCascade
	now      func() time.Time
}

func NewService(repo Repository, dir IdentityDirectory) *Service {
	return &Service{repo: repo, identity: dir, now: time.Now}
}

// SetAuthorizer installs the read-side authorization engine. Must be
// called before the service handles requests.
func (s *Service) SetAuthorizer(a Authorizer) { s.authz = a }

// SetCascade installs the deletion cascade hook.
func (s *Service) SetCascade(c ShareCascade) { s.cascade = c }

// CreateInput carries the caller-supplied fields of a new record.
type CreateInput struct {
	Title       string
	Description string
	RecordType  string
	Data        RecordData
}

// Create stores a new record owned by caller. The caller must hold a
// patient profile. The server stamps id and dates; records start
// private with an empty share list.
func (s *Service) Create(ctx context.Context, caller principal.Principal, in CreateInput) (*HealthRecord, error) {
	res, err := s.identity.Resolve(ctx, caller)
	if err != nil {
		return nil, err
	}
	if !res.IsPatient() {
		return nil, apperr.Wrap(apperr.ErrUnregistered, "principal %s has no patient profile", caller)
	}
	if in.Title == "" {
		return nil, fmt.Errorf("%w: title is required", apperr.ErrInvalidInput)
	}
	rt, err := ParseRecordType(in.RecordType)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	rec := &HealthRecord{
		ID:          uuid.New(),
		PatientID:   caller,
		Title:       in.Title,
		Description: in.Description,
		RecordType:  rt,
		Data:        in.Data,
		IsPublic:    false,
		SharedWith:  []principal.Principal{},
		DateCreated: now,
		DateUpdated: now,
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns a record if the caller may read it.
func (s *Service) Get(ctx context.Context, caller principal.Principal, id uuid.UUID) (*HealthRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, rec, OpRead); err != nil {
		return nil, err
	}
	return rec, nil
}

// UpdateInput carries the mutable fields of a record. Nil pointers
// leave the stored value unchanged.
type UpdateInput struct {
	Title       *string
	Description *string
	Data        *RecordData
}

// Update applies a partial update. Owner only; patient_id, record_type
// and the sharing state are immutable through this path. DateUpdated is
// refreshed only when the update succeeds.
func (s *Service) Update(ctx context.Context, caller principal.Principal, id uuid.UUID, in UpdateInput) (*HealthRecord, error) {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, caller, rec, OpWrite); err != nil {
		return nil, err
	}
	if in.Title != nil {
		if *in.Title == "" {
			return nil, fmt.Errorf("%w: title must not be empty", apperr.ErrInvalidInput)
		}
		rec.Title = *in.Title
	}
	if in.Description != nil {
		rec.Description = *in.Description
	}
	if in.Data != nil {
		rec.Data = *in.Data
	}
	rec.DateUpdated = s.now().UTC()
	if err := s.repo.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// Delete removes a record. Owner only. Tracked share requests drop the
// record id through the cascade; requests left empty expire.
func (s *Service) Delete(ctx context.Context, caller principal.Principal, id uuid.UUID) error {
	rec, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, caller, rec, OpDelete); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.cascade.OnRecordDeleted(ctx, id)
}

// ListByOwner returns the caller's own records, newest first.
func (s *Service) ListByOwner(ctx context.Context, owner principal.Principal, limit, offset int) ([]*HealthRecord, int, error) {
	return s.repo.ListByPatient(ctx, owner, limit, offset)
}

// Count returns the total number of stored records.
func (s *Service) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

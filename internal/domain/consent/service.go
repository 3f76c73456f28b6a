package consent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/phr/phr/internal/domain/identity"
	"github.com/phr/phr/internal/domain/records"
	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

// RecordStore is the slice of the record repository the engine needs:
// ownership lookups and atomic share-list mutations.
type RecordStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*records.HealthRecord, error)
	Grant(ctx context.Context, id uuid.UUID, p principal.Principal) error
	RevokeGrant(ctx context.Context, id uuid.UUID, p principal.Principal) error
}

// IdentityDirectory resolves caller principals to profiles.
type IdentityDirectory interface {
	Resolve(ctx context.Context, p principal.Principal) (identity.Resolution, error)
}

// Service is the consent engine: the single authority over who may
// read which record, driven by the share request lifecycle. Expiry is
// evaluated lazily against the injected clock; there is no background
// sweep.
type Service struct {
	repo       Repository
	records    RecordStore
	identity   IdentityDirectory
	defaultTTL time.Duration
	now        func() time.Time
}

func NewService(repo Repository, recs RecordStore, dir IdentityDirectory, defaultTTL time.Duration) *Service {
	return &Service{repo: repo, records: recs, identity: dir, defaultTTL: defaultTTL, now: time.Now}
}

// SetClock replaces the engine's time source. Tests use it to drive
// expiry deterministically.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// RequestInput carries the provider-supplied fields of a new share
// request. A zero TTL means the configured default; longer TTLs are
// capped at the default.
type RequestInput struct {
	PatientID principal.Principal
	RecordIDs []uuid.UUID
	Message   string
	TTL       time.Duration
}

// RequestShare files a pending request from provider to in.PatientID.
// Every requested record must exist and be owned by the patient at
// call time.
func (s *Service) RequestShare(ctx context.Context, provider principal.Principal, in RequestInput) (*ShareRequest, error) {
	res, err := s.identity.Resolve(ctx, provider)
	if err != nil {
		return nil, err
	}
	if !res.IsProvider() {
		return nil, apperr.Wrap(apperr.ErrUnregistered, "principal %s has no provider profile", provider)
	}
	if len(in.RecordIDs) == 0 {
		return nil, fmt.Errorf("%w: record_ids must not be empty", apperr.ErrInvalidInput)
	}
	for _, id := range in.RecordIDs {
		rec, err := s.records.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if rec.PatientID != in.PatientID {
			return nil, apperr.Wrap(apperr.ErrForbidden, "record %s is not owned by %s", id, in.PatientID)
		}
	}

	ttl := in.TTL
	if ttl <= 0 || ttl > s.defaultTTL {
		ttl = s.defaultTTL
	}
	now := s.now().UTC()
	req := &ShareRequest{
		ID:          uuid.New(),
		PatientID:   in.PatientID,
		ProviderID:  provider,
		RecordIDs:   in.RecordIDs,
		Message:     in.Message,
		Status:      StatusPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Approve moves a pending request to Approved and grants the provider
// access to every surviving record. Records deleted since the request
// was filed are skipped silently, even all of them. Exactly one of two
// concurrent approvals succeeds; the loser sees AlreadyResolved.
func (s *Service) Approve(ctx context.Context, caller principal.Principal, requestID uuid.UUID) (*ShareRequest, error) {
	req, err := s.guardResolution(ctx, caller, requestID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Resolve(ctx, requestID, StatusPending, StatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Wrap(apperr.ErrAlreadyResolved, "share request %s", requestID)
	}
	req.Status = StatusApproved
	for _, recordID := range req.RecordIDs {
		err := s.records.Grant(ctx, recordID, req.ProviderID)
		if err != nil && !errors.Is(err, apperr.ErrNotFound) {
			return nil, err
		}
	}
	return req, nil
}

// Reject moves a pending request to Rejected. No access changes hands.
func (s *Service) Reject(ctx context.Context, caller principal.Principal, requestID uuid.UUID) (*ShareRequest, error) {
	req, err := s.guardResolution(ctx, caller, requestID)
	if err != nil {
		return nil, err
	}
	ok, err := s.repo.Resolve(ctx, requestID, StatusPending, StatusRejected)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Wrap(apperr.ErrAlreadyResolved, "share request %s", requestID)
	}
	req.Status = StatusRejected
	return req, nil
}

// guardResolution runs the shared approve/reject guards in spec order:
// unknown id, wrong caller, non-pending, lapsed. A lapsed pending
// request is expired on observation.
func (s *Service) guardResolution(ctx context.Context, caller principal.Principal, requestID uuid.UUID) (*ShareRequest, error) {
	req, err := s.repo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.PatientID != caller {
		return nil, apperr.Wrap(apperr.ErrForbidden, "share request %s belongs to another patient", requestID)
	}
	if req.Status != StatusPending {
		return nil, apperr.Wrap(apperr.ErrAlreadyResolved, "share request %s is %s", requestID, req.Status)
	}
	if req.Lapsed(s.now()) {
		if _, err := s.repo.Resolve(ctx, requestID, StatusPending, StatusExpired); err != nil {
			return nil, err
		}
		return nil, apperr.Wrap(apperr.ErrExpired, "share request %s", requestID)
	}
	return req, nil
}

// Revoke removes a provider's access to one record immediately. Owner
// only. The tracked request keeps its terminal status; only the live
// grant is withdrawn.
func (s *Service) Revoke(ctx context.Context, caller principal.Principal, recordID uuid.UUID, provider principal.Principal) error {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return err
	}
	if rec.PatientID != caller {
		return apperr.Wrap(apperr.ErrForbidden, "record %s is not owned by %s", recordID, caller)
	}
	return s.records.RevokeGrant(ctx, recordID, provider)
}

// ShareDirect grants a provider access to one record without the
// pending round trip by synthesizing an already-approved request with
// the default TTL. Authorization still flows through the one engine.
func (s *Service) ShareDirect(ctx context.Context, caller principal.Principal, recordID uuid.UUID, provider principal.Principal) (*ShareRequest, error) {
	rec, err := s.records.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec.PatientID != caller {
		return nil, apperr.Wrap(apperr.ErrForbidden, "record %s is not owned by %s", recordID, caller)
	}
	res, err := s.identity.Resolve(ctx, provider)
	if err != nil {
		return nil, err
	}
	if !res.IsProvider() {
		return nil, apperr.Wrap(apperr.ErrUnregistered, "principal %s has no provider profile", provider)
	}

	now := s.now().UTC()
	req := &ShareRequest{
		ID:          uuid.New(),
		PatientID:   caller,
		ProviderID:  provider,
		RecordIDs:   []uuid.UUID{recordID},
		Status:      StatusApproved,
		RequestedAt: now,
		ExpiresAt:   now.Add(s.defaultTTL),
	}
	if err := s.repo.Create(ctx, req); err != nil {
		return nil, err
	}
	if err := s.records.Grant(ctx, recordID, provider); err != nil {
		return nil, err
	}
	return req, nil
}

// Authorize decides whether caller may perform op on rec. Write and
// delete are owner-only. Read passes for the owner, public records,
// and share-list members whose backing grant has not lapsed. Lapsed
// grants are cleaned up at the moment they are observed: the provider
// leaves the share list and the request expires.
func (s *Service) Authorize(ctx context.Context, caller principal.Principal, rec *records.HealthRecord, op records.Operation) error {
	if caller == rec.PatientID {
		return nil
	}
	if op != records.OpRead {
		return apperr.Wrap(apperr.ErrForbidden, "%s on record %s requires ownership", op, rec.ID)
	}
	if rec.IsPublic {
		return nil
	}
	if !principal.Contains(rec.SharedWith, caller) {
		return apperr.Wrap(apperr.ErrForbidden, "no grant for record %s", rec.ID)
	}

	grants, err := s.repo.ListGrants(ctx, caller, rec.ID)
	if err != nil {
		return err
	}
	if len(grants) == 0 {
		// Untracked membership (a grant imported from elsewhere) has
		// no time bound and stays valid until revoked.
		return nil
	}
	now := s.now()
	for _, g := range grants {
		if !g.Lapsed(now) {
			return nil
		}
	}
	for _, g := range grants {
		if _, err := s.repo.Resolve(ctx, g.ID, StatusApproved, StatusExpired); err != nil {
			return err
		}
	}
	if err := s.records.RevokeGrant(ctx, rec.ID, caller); err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	return apperr.Wrap(apperr.ErrForbidden, "grant for record %s has lapsed", rec.ID)
}

// OnRecordDeleted detaches a deleted record from every request.
func (s *Service) OnRecordDeleted(ctx context.Context, recordID uuid.UUID) error {
	return s.repo.DetachRecord(ctx, recordID)
}

// RequestsFor returns every request the caller is a party to, newest
// first. Pending requests whose time bound has passed are expired on
// the way out.
func (s *Service) RequestsFor(ctx context.Context, caller principal.Principal) ([]*ShareRequest, error) {
	asPatient, err := s.repo.ListByPatient(ctx, caller)
	if err != nil {
		return nil, err
	}
	asProvider, err := s.repo.ListByProvider(ctx, caller)
	if err != nil {
		return nil, err
	}
	all := append(asPatient, asProvider...)
	now := s.now()
	for _, req := range all {
		if req.Status == StatusPending && req.Lapsed(now) {
			if _, err := s.repo.Resolve(ctx, req.ID, StatusPending, StatusExpired); err != nil {
				return nil, err
			}
			req.Status = StatusExpired
		}
	}
	return all, nil
}

// CountPending returns the number of pending requests for the stats
// endpoint. Lapsed-but-unobserved requests still count as pending;
// expiry is only ever evaluated on access.
func (s *Service) CountPending(ctx context.Context) (int, error) {
	return s.repo.CountByStatus(ctx, StatusPending)
}

package portal

import (
	"context"

	"github.com/phr/phr/internal/domain/consent"
	"github.com/phr/phr/internal/domain/identity"
	"github.com/phr/phr/internal/domain/records"
	"github.com/phr/phr/pkg/principal"
)

// Service assembles the per-caller projections. It owns no storage;
// everything is recomputed from the underlying stores on each call so
// lapsed grants never leak into a listing.
type Service struct {
	records  records.Repository
	consent  *consent.Service
	identity *identity.Service
}

func NewService(recs records.Repository, cons *consent.Service, ident *identity.Service) *Service {
	return &Service{records: recs, consent: cons, identity: ident}
}

// MyRecords returns the caller's own records, newest first.
func (s *Service) MyRecords(ctx context.Context, caller principal.Principal, limit, offset int) ([]*records.HealthRecord, int, error) {
	return s.records.ListByPatient(ctx, caller, limit, offset)
}

// SharedWithMe returns the records the caller can currently read
// through a grant. Each candidate is re-authorized against the engine,
// so a lapsed grant drops out (and is cleaned up) right here.
func (s *Service) SharedWithMe(ctx context.Context, caller principal.Principal) ([]*records.HealthRecord, error) {
	candidates, err := s.records.ListSharedWith(ctx, caller)
	if err != nil {
		return nil, err
	}
	out := []*records.HealthRecord{}
	for _, rec := range candidates {
		if err := s.consent.Authorize(ctx, caller, rec, records.OpRead); err == nil {
			out = append(out, rec)
		}
	}
	return out, nil
}

// MyShareRequests returns every request the caller is party to.
func (s *Service) MyShareRequests(ctx context.Context, caller principal.Principal) ([]*consent.ShareRequest, error) {
	return s.consent.RequestsFor(ctx, caller)
}

// PlatformStats returns the system totals.
func (s *Service) PlatformStats(ctx context.Context) (*Stats, error) {
	totalRecords, err := s.records.Count(ctx)
	if err != nil {
		return nil, err
	}
	patients, providers, err := s.identity.Counts(ctx)
	if err != nil {
		return nil, err
	}
	pending, err := s.consent.CountPending(ctx)
	if err != nil {
		return nil, err
	}
	return &Stats{
		TotalRecords:    totalRecords,
		TotalPatients:   patients,
		TotalProviders:  providers,
		PendingRequests: pending,
	}, nil
}

package identity

import (
	"context"
	"sort"
	"sync"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/pagination"
	"github.com/phr/phr/pkg/principal"
)

// patientRepoMem is the in-memory patient store used in STORAGE=memory
// mode and as the test fake.
type patientRepoMem struct {
	mu       sync.RWMutex
	patients map[principal.Principal]*Patient
}

func NewPatientRepoMem() PatientRepository {
	return &patientRepoMem{patients: make(map[principal.Principal]*Patient)}
}

func (r *patientRepoMem) Create(ctx context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.patients[p.ID]; ok {
		return apperr.Wrap(apperr.ErrConflict, "patient %s", p.ID)
	}
	cp := *p
	if p.EmergencyContact != nil {
		ec := *p.EmergencyContact
		cp.EmergencyContact = &ec
	}
	r.patients[p.ID] = &cp
	return nil
}

func (r *patientRepoMem) GetByID(ctx context.Context, id principal.Principal) (*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.patients[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrNotFound, "patient %s", id)
	}
	cp := *p
	if p.EmergencyContact != nil {
		ec := *p.EmergencyContact
		cp.EmergencyContact = &ec
	}
	return &cp, nil
}

func (r *patientRepoMem) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.patients), nil
}

type providerRepoMem struct {
	mu        sync.RWMutex
	providers map[principal.Principal]*Provider
}

func NewProviderRepoMem() ProviderRepository {
	return &providerRepoMem{providers: make(map[principal.Principal]*Provider)}
}

func (r *providerRepoMem) Create(ctx context.Context, p *Provider) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.providers[p.ID]; ok {
		return apperr.Wrap(apperr.ErrConflict, "provider %s", p.ID)
	}
	cp := *p
	r.providers[p.ID] = &cp
	return nil
}

func (r *providerRepoMem) GetByID(ctx context.Context, id principal.Principal) (*Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.providers[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrNotFound, "provider %s", id)
	}
	cp := *p
	return &cp, nil
}

func (r *providerRepoMem) List(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]*Provider, 0, len(r.providers))
	for _, p := range r.providers {
		cp := *p
		all = append(all, &cp)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := len(all)
	lo, hi := pagination.Params{Limit: limit, Offset: offset}.Slice(total)
	return all[lo:hi], total, nil
}

func (r *providerRepoMem) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.providers), nil
}

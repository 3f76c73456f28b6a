package records

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

// repoMem is the in-memory record store used in STORAGE=memory mode and
// as the test fake. All methods take the single lock, which gives the
// per-record atomicity the grant operations rely on.
type repoMem struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*HealthRecord
}

func NewRepoMem() Repository {
	return &repoMem{records: make(map[uuid.UUID]*HealthRecord)}
}

func cloneRecord(rec *HealthRecord) *HealthRecord {
	cp := *rec
	cp.SharedWith = append([]principal.Principal(nil), rec.SharedWith...)
	return &cp
}

func (r *repoMem) Create(ctx context.Context, rec *HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *repoMem) GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrNotFound, "record %s", id)
	}
	return cloneRecord(rec), nil
}

func (r *repoMem) Update(ctx context.Context, rec *HealthRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.records[rec.ID]
	if !ok {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", rec.ID)
	}
	cur.Title = rec.Title
	cur.Description = rec.Description
	cur.Data = rec.Data
	cur.DateUpdated = rec.DateUpdated
	return nil
}

func (r *repoMem) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", id)
	}
	delete(r.records, id)
	return nil
}

func (r *repoMem) ListByPatient(ctx context.Context, patient principal.Principal, limit, offset int) ([]*HealthRecord, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := []*HealthRecord{}
	for _, rec := range r.records {
		if rec.PatientID == patient {
			matched = append(matched, cloneRecord(rec))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DateCreated.Equal(matched[j].DateCreated) {
			return matched[i].DateCreated.After(matched[j].DateCreated)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})
	total := len(matched)
	if offset >= total {
		return []*HealthRecord{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *repoMem) ListSharedWith(ctx context.Context, p principal.Principal) ([]*HealthRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	matched := []*HealthRecord{}
	for _, rec := range r.records {
		if principal.Contains(rec.SharedWith, p) {
			matched = append(matched, cloneRecord(rec))
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID.String() < matched[j].ID.String() })
	return matched, nil
}

func (r *repoMem) Grant(ctx context.Context, id uuid.UUID, p principal.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", id)
	}
	rec.SharedWith = principal.Add(rec.SharedWith, p)
	return nil
}

func (r *repoMem) RevokeGrant(ctx context.Context, id uuid.UUID, p principal.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", id)
	}
	rec.SharedWith = principal.Remove(rec.SharedWith, p)
	return nil
}

func (r *repoMem) Count(ctx context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.records), nil
}

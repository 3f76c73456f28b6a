package consent

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

// repoMem is the in-memory share request store. The single lock makes
// Resolve a true compare-and-set.
type repoMem struct {
	mu       sync.RWMutex
	requests map[uuid.UUID]*ShareRequest
}

func NewRepoMem() Repository {
	return &repoMem{requests: make(map[uuid.UUID]*ShareRequest)}
}

func cloneRequest(req *ShareRequest) *ShareRequest {
	cp := *req
	cp.RecordIDs = append([]uuid.UUID(nil), req.RecordIDs...)
	return &cp
}

func (r *repoMem) Create(ctx context.Context, req *ShareRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *repoMem) GetByID(ctx context.Context, id uuid.UUID) (*ShareRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, apperr.Wrap(apperr.ErrNotFound, "share request %s", id)
	}
	return cloneRequest(req), nil
}

func (r *repoMem) Resolve(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return false, apperr.Wrap(apperr.ErrNotFound, "share request %s", id)
	}
	if req.Status != from {
		return false, nil
	}
	req.Status = to
	return true, nil
}

func (r *repoMem) list(match func(*ShareRequest) bool) []*ShareRequest {
	out := []*ShareRequest{}
	for _, req := range r.requests {
		if match(req) {
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedAt.Equal(out[j].RequestedAt) {
			return out[i].RequestedAt.After(out[j].RequestedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *repoMem) ListByPatient(ctx context.Context, patient principal.Principal) ([]*ShareRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(req *ShareRequest) bool { return req.PatientID == patient }), nil
}

func (r *repoMem) ListByProvider(ctx context.Context, provider principal.Principal) ([]*ShareRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(req *ShareRequest) bool { return req.ProviderID == provider }), nil
}

func (r *repoMem) ListGrants(ctx context.Context, provider principal.Principal, recordID uuid.UUID) ([]*ShareRequest, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list(func(req *ShareRequest) bool {
		return req.ProviderID == provider && req.Status == StatusApproved && containsID(req.RecordIDs, recordID)
	}), nil
}

func (r *repoMem) DetachRecord(ctx context.Context, recordID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if !containsID(req.RecordIDs, recordID) {
			continue
		}
		kept := req.RecordIDs[:0]
		for _, id := range req.RecordIDs {
			if id != recordID {
				kept = append(kept, id)
			}
		}
		req.RecordIDs = kept
		if len(req.RecordIDs) == 0 && req.Status == StatusPending {
			req.Status = StatusExpired
		}
	}
	return nil
}

func (r *repoMem) CountByStatus(ctx context.Context, st Status) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n := 0
	for _, req := range r.requests {
		if req.Status == st {
			n++
		}
	}
	return n, nil
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}

package consent

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const requestCols = `id, patient_id, provider_id, record_ids, message, status,
	requested_at, expires_at`

func scanRequest(row pgx.Row) (*ShareRequest, error) {
	var req ShareRequest
	err := row.Scan(&req.ID, &req.PatientID, &req.ProviderID, &req.RecordIDs, &req.Message,
		&req.Status, &req.RequestedAt, &req.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repoPG) Create(ctx context.Context, req *ShareRequest) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO share_requests (id, patient_id, provider_id, record_ids, message, status,
			requested_at, expires_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		req.ID, req.PatientID, req.ProviderID, req.RecordIDs, req.Message, req.Status,
		req.RequestedAt, req.ExpiresAt)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*ShareRequest, error) {
	req, err := scanRequest(r.pool.QueryRow(ctx, `SELECT `+requestCols+` FROM share_requests WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.ErrNotFound, "share request %s", id)
	}
	return req, err
}

// Resolve is a single conditional UPDATE; the row transition is atomic
// and racing resolvers see rowsAffected 0.
func (r *repoPG) Resolve(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE share_requests SET status = $3 WHERE id = $1 AND status = $2`,
		id, from, to)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 1 {
		return true, nil
	}
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM share_requests WHERE id = $1)`, id).Scan(&exists); err != nil {
		return false, err
	}
	if !exists {
		return false, apperr.Wrap(apperr.ErrNotFound, "share request %s", id)
	}
	return false, nil
}

func (r *repoPG) queryMany(ctx context.Context, sql string, args ...interface{}) ([]*ShareRequest, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*ShareRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *repoPG) ListByPatient(ctx context.Context, patient principal.Principal) ([]*ShareRequest, error) {
	return r.queryMany(ctx, `
		SELECT `+requestCols+` FROM share_requests
		WHERE patient_id = $1 ORDER BY requested_at DESC, id`, patient)
}

func (r *repoPG) ListByProvider(ctx context.Context, provider principal.Principal) ([]*ShareRequest, error) {
	return r.queryMany(ctx, `
		SELECT `+requestCols+` FROM share_requests
		WHERE provider_id = $1 ORDER BY requested_at DESC, id`, provider)
}

func (r *repoPG) ListGrants(ctx context.Context, provider principal.Principal, recordID uuid.UUID) ([]*ShareRequest, error) {
	return r.queryMany(ctx, `
		SELECT `+requestCols+` FROM share_requests
		WHERE provider_id = $1 AND status = 'approved' AND $2 = ANY(record_ids)
		ORDER BY requested_at DESC, id`, provider, recordID)
}

func (r *repoPG) DetachRecord(ctx context.Context, recordID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE share_requests
		SET record_ids = array_remove(record_ids, $1),
		    status = CASE
		        WHEN status = 'pending' AND array_remove(record_ids, $1) = '{}'::uuid[] THEN 'expired'
		        ELSE status
		    END
		WHERE $1 = ANY(record_ids)`, recordID)
	return err
}

func (r *repoPG) CountByStatus(ctx context.Context, st Status) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM share_requests WHERE status = $1`, st).Scan(&n)
	return n, err
}

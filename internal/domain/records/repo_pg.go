package records

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const recordCols = `id, patient_id, title, description, record_type, data,
	is_public, shared_with, date_created, date_updated`

func scanRecord(row pgx.Row) (*HealthRecord, error) {
	var rec HealthRecord
	var data []byte
	var shared []string
	err := row.Scan(&rec.ID, &rec.PatientID, &rec.Title, &rec.Description, &rec.RecordType,
		&data, &rec.IsPublic, &shared, &rec.DateCreated, &rec.DateUpdated)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, &rec.Data); err != nil {
		return nil, err
	}
	rec.SharedWith = principal.FromStrings(shared)
	return &rec, nil
}

func (r *repoPG) Create(ctx context.Context, rec *HealthRecord) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO health_records (id, patient_id, title, description, record_type, data,
			is_public, shared_with, date_created, date_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		rec.ID, rec.PatientID, rec.Title, rec.Description, rec.RecordType, data,
		rec.IsPublic, principal.Strings(rec.SharedWith), rec.DateCreated, rec.DateUpdated)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*HealthRecord, error) {
	rec, err := scanRecord(r.pool.QueryRow(ctx, `SELECT `+recordCols+` FROM health_records WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.ErrNotFound, "record %s", id)
	}
	return rec, err
}

func (r *repoPG) Update(ctx context.Context, rec *HealthRecord) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, `
		UPDATE health_records SET title = $2, description = $3, data = $4, date_updated = $5
		WHERE id = $1`,
		rec.ID, rec.Title, rec.Description, data, rec.DateUpdated)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", rec.ID)
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM health_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", id)
	}
	return nil
}

func (r *repoPG) ListByPatient(ctx context.Context, patient principal.Principal, limit, offset int) ([]*HealthRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM health_records WHERE patient_id = $1`, patient).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM health_records
		WHERE patient_id = $1
		ORDER BY date_created DESC, id
		LIMIT $2 OFFSET $3`, patient, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []*HealthRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repoPG) ListSharedWith(ctx context.Context, p principal.Principal) ([]*HealthRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+` FROM health_records
		WHERE $1 = ANY(shared_with)
		ORDER BY id`, p)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []*HealthRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *repoPG) Grant(ctx context.Context, id uuid.UUID, p principal.Principal) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE health_records
		SET shared_with = array_append(shared_with, $2)
		WHERE id = $1 AND NOT ($2 = ANY(shared_with))`, id, p)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		// Either the grant already exists or the record is gone; the
		// caller distinguishes via GetByID when it matters.
		var exists bool
		if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM health_records WHERE id = $1)`, id).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return apperr.Wrap(apperr.ErrNotFound, "record %s", id)
		}
	}
	return nil
}

func (r *repoPG) RevokeGrant(ctx context.Context, id uuid.UUID, p principal.Principal) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE health_records
		SET shared_with = array_remove(shared_with, $2::text)
		WHERE id = $1`, id, p)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrNotFound, "record %s", id)
	}
	return nil
}

func (r *repoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM health_records`).Scan(&n)
	return n, err
}

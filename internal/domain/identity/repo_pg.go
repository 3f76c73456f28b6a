package identity

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/phr/phr/pkg/apperr"
	"github.com/phr/phr/pkg/principal"
)

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

const patientCols = `id, name, email, date_of_birth, gender, phone, address,
	emergency_name, emergency_relationship, emergency_phone, emergency_email, created_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	var ec EmergencyContact
	err := row.Scan(&p.ID, &p.Name, &p.Email, &p.DateOfBirth, &p.Gender, &p.Phone, &p.Address,
		&ec.Name, &ec.Relationship, &ec.Phone, &ec.Email, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	if ec != (EmergencyContact{}) {
		p.EmergencyContact = &ec
	}
	return &p, nil
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	var ec EmergencyContact
	if p.EmergencyContact != nil {
		ec = *p.EmergencyContact
	}
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO patients (id, name, email, date_of_birth, gender, phone, address,
			emergency_name, emergency_relationship, emergency_phone, emergency_email, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Email, p.DateOfBirth, p.Gender, p.Phone, p.Address,
		ec.Name, ec.Relationship, ec.Phone, ec.Email, p.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrConflict, "patient %s", p.ID)
	}
	return nil
}

func (r *patientRepoPG) GetByID(ctx context.Context, id principal.Principal) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.ErrNotFound, "patient %s", id)
	}
	return p, err
}

func (r *patientRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&n)
	return n, err
}

type providerRepoPG struct{ pool *pgxpool.Pool }

func NewProviderRepoPG(pool *pgxpool.Pool) ProviderRepository { return &providerRepoPG{pool: pool} }

const providerCols = `id, name, specialty, license_number, hospital_affiliation,
	email, phone, verified, created_at`

func scanProvider(row pgx.Row) (*Provider, error) {
	var p Provider
	err := row.Scan(&p.ID, &p.Name, &p.Specialty, &p.LicenseNumber, &p.HospitalAffiliation,
		&p.Email, &p.Phone, &p.Verified, &p.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *providerRepoPG) Create(ctx context.Context, p *Provider) error {
	tag, err := r.pool.Exec(ctx, `
		INSERT INTO providers (id, name, specialty, license_number, hospital_affiliation,
			email, phone, verified, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		ON CONFLICT (id) DO NOTHING`,
		p.ID, p.Name, p.Specialty, p.LicenseNumber, p.HospitalAffiliation,
		p.Email, p.Phone, p.Verified, p.CreatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.Wrap(apperr.ErrConflict, "provider %s", p.ID)
	}
	return nil
}

func (r *providerRepoPG) GetByID(ctx context.Context, id principal.Principal) (*Provider, error) {
	p, err := scanProvider(r.pool.QueryRow(ctx, `SELECT `+providerCols+` FROM providers WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.Wrap(apperr.ErrNotFound, "provider %s", id)
	}
	return p, err
}

func (r *providerRepoPG) List(ctx context.Context, limit, offset int) ([]*Provider, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM providers`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.pool.Query(ctx, `SELECT `+providerCols+` FROM providers ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	out := []*Provider{}
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *providerRepoPG) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM providers`).Scan(&n)
	return n, err
}

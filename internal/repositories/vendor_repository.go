package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/propflow/maintenance-service/internal/models"
)

type VendorRepository interface {
	Create(ctx context.Context, v *models.Vendor) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error)
	ListByService(ctx context.Context, service string) ([]*models.Vendor, error)
	UpdateIfVersion(ctx context.Context, v *models.Vendor, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Vendor) error) error
}

type vendorRepo struct {
	*BaseVersionedRepo[*models.Vendor]
	db DB
}

func NewVendorRepository(db DB) VendorRepository {
	r := &vendorRepo{db: db}
	selectStmt := baseSelectVendor() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanVendor)
	return r
}

func baseSelectVendor() string {
	return `
        SELECT
            id, company_name, email, phone_number, services,
            rating_avg, rating_count, row_version, created_at, updated_at
        FROM vendors
    `
}

func scanVendor(row pgx.Row) (*models.Vendor, error) {
	var v models.Vendor
	var services []string
	err := row.Scan(
		&v.ID,
		&v.CompanyName,
		&v.Email,
		&v.PhoneNumber,
		&services,
		&v.RatingAvg,
		&v.RatingCount,
		&v.RowVersion,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	v.Services = services
	return &v, nil
}

func (r *vendorRepo) Create(ctx context.Context, v *models.Vendor) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO vendors (
            id, company_name, email, phone_number, services,
            rating_avg, rating_count, created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW(),1)
    `,
		v.ID,
		v.CompanyName,
		v.Email,
		v.PhoneNumber,
		v.Services,
		v.RatingAvg,
		v.RatingCount,
	)
	return err
}

func (r *vendorRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Vendor, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *vendorRepo) ListByService(ctx context.Context, service string) ([]*models.Vendor, error) {
	rows, err := r.db.Query(ctx, baseSelectVendor()+" WHERE $1 = ANY(services) ORDER BY rating_avg DESC", service)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Vendor
	for rows.Next() {
		v, err := scanVendor(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *vendorRepo) UpdateIfVersion(ctx context.Context, v *models.Vendor, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE vendors
        SET company_name=$1, email=$2, phone_number=$3, services=$4,
            rating_avg=$5, rating_count=$6,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$7 AND row_version=$8
    `,
		v.CompanyName,
		v.Email,
		v.PhoneNumber,
		v.Services,
		v.RatingAvg,
		v.RatingCount,
		v.ID,
		expected,
	)
}

func (r *vendorRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Vendor) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/models"
)

// TenancyRepository reads the lease links used to build a tenant
// principal's association set.
type TenancyRepository interface {
	Create(ctx context.Context, tenantID uuid.UUID, t models.Tenancy) error
	ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]models.Tenancy, error)
}

type tenancyRepo struct {
	db DB
}

func NewTenancyRepository(db DB) TenancyRepository {
	return &tenancyRepo{db: db}
}

func (r *tenancyRepo) Create(ctx context.Context, tenantID uuid.UUID, t models.Tenancy) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO tenancies (tenant_id, property_id, unit_id, created_at)
        VALUES ($1,$2,$3,NOW())
        ON CONFLICT (tenant_id, unit_id) DO NOTHING
    `, tenantID, t.PropertyID, t.UnitID)
	return err
}

func (r *tenancyRepo) ListByTenantID(ctx context.Context, tenantID uuid.UUID) ([]models.Tenancy, error) {
	rows, err := r.db.Query(ctx, `
        SELECT property_id, unit_id FROM tenancies WHERE tenant_id=$1
    `, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Tenancy
	for rows.Next() {
		var t models.Tenancy
		if err := rows.Scan(&t.PropertyID, &t.UnitID); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

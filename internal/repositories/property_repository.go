package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/propflow/maintenance-service/internal/models"
)

type PropertyRepository interface {
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error)
	ListIDsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error)
	ListIDsByManagerID(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error)
	UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error
}

type propertyRepo struct {
	*BaseVersionedRepo[*models.Property]
	db DB
}

func NewPropertyRepository(db DB) PropertyRepository {
	r := &propertyRepo{db: db}
	selectStmt := baseSelectProperty() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanProperty)
	return r
}

func baseSelectProperty() string {
	return `
        SELECT
            id, owner_id, manager_id, property_name, address, city, state,
            zip_code, is_demo, row_version, created_at, updated_at
        FROM properties
    `
}

func scanProperty(row pgx.Row) (*models.Property, error) {
	var p models.Property
	err := row.Scan(
		&p.ID,
		&p.OwnerID,
		&p.ManagerID,
		&p.PropertyName,
		&p.Address,
		&p.City,
		&p.State,
		&p.ZipCode,
		&p.IsDemo,
		&p.RowVersion,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *propertyRepo) Create(ctx context.Context, p *models.Property) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO properties (
            id, owner_id, manager_id, property_name, address, city, state,
            zip_code, is_demo, created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NOW(),NOW(),1)
    `,
		p.ID,
		p.OwnerID,
		p.ManagerID,
		p.PropertyName,
		p.Address,
		p.City,
		p.State,
		p.ZipCode,
		p.IsDemo,
	)
	return err
}

func (r *propertyRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Property, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *propertyRepo) listIDs(ctx context.Context, query string, arg any) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func (r *propertyRepo) ListIDsByOwnerID(ctx context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `SELECT id FROM properties WHERE owner_id=$1 ORDER BY created_at`, ownerID)
}

func (r *propertyRepo) ListIDsByManagerID(ctx context.Context, managerID uuid.UUID) ([]uuid.UUID, error) {
	return r.listIDs(ctx, `SELECT id FROM properties WHERE manager_id=$1 ORDER BY created_at`, managerID)
}

func (r *propertyRepo) UpdateIfVersion(ctx context.Context, p *models.Property, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE properties
        SET owner_id=$1, manager_id=$2, property_name=$3, address=$4,
            city=$5, state=$6, zip_code=$7, is_demo=$8,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$9 AND row_version=$10
    `,
		p.OwnerID,
		p.ManagerID,
		p.PropertyName,
		p.Address,
		p.City,
		p.State,
		p.ZipCode,
		p.IsDemo,
		p.ID,
		expected,
	)
}

func (r *propertyRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.Property) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

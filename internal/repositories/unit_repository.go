package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/propflow/maintenance-service/internal/models"
)

type UnitRepository interface {
	Create(ctx context.Context, u *models.Unit) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error)
	ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Unit, error)
}

type unitRepo struct {
	db DB
}

func NewUnitRepository(db DB) UnitRepository {
	return &unitRepo{db: db}
}

func baseSelectUnit() string {
	return `SELECT id, property_id, unit_number, created_at FROM units`
}

func scanUnit(row pgx.Row) (*models.Unit, error) {
	var u models.Unit
	err := row.Scan(&u.ID, &u.PropertyID, &u.UnitNumber, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *unitRepo) Create(ctx context.Context, u *models.Unit) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO units (id, property_id, unit_number, created_at)
        VALUES ($1,$2,$3,NOW())
    `, u.ID, u.PropertyID, u.UnitNumber)
	return err
}

func (r *unitRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Unit, error) {
	row := r.db.QueryRow(ctx, baseSelectUnit()+" WHERE id=$1", id)
	return scanUnit(row)
}

func (r *unitRepo) ListByPropertyID(ctx context.Context, propertyID uuid.UUID) ([]*models.Unit, error) {
	rows, err := r.db.Query(ctx, baseSelectUnit()+" WHERE property_id=$1 ORDER BY unit_number", propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Unit
	for rows.Next() {
		u, err := scanUnit(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"

	"github.com/propflow/maintenance-service/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error)
	UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error
}

type userRepo struct {
	*BaseVersionedRepo[*models.User]
	db DB
}

func NewUserRepository(db DB) UserRepository {
	r := &userRepo{db: db}
	selectStmt := baseSelectUser() + " WHERE id=$1"
	r.BaseVersionedRepo = NewBaseRepo(db, selectStmt, scanUser)
	return r
}

func baseSelectUser() string {
	return `
        SELECT
            id, email, phone_number, first_name, last_name, role, is_active,
            row_version, created_at, updated_at
        FROM users
    `
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.PhoneNumber,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.IsActive,
		&u.RowVersion,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepo) Create(ctx context.Context, u *models.User) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO users (
            id, email, phone_number, first_name, last_name, role, is_active,
            created_at, updated_at, row_version
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,NOW(),NOW(),1)
    `,
		u.ID,
		u.Email,
		u.PhoneNumber,
		u.FirstName,
		u.LastName,
		u.Role,
		u.IsActive,
	)
	return err
}

func (r *userRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.BaseVersionedRepo.GetByID(ctx, id.String())
}

func (r *userRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx, baseSelectUser()+" WHERE email=$1", email)
	return scanUser(row)
}

func (r *userRepo) UpdateIfVersion(ctx context.Context, u *models.User, expected int64) (pgconn.CommandTag, error) {
	return r.db.Exec(ctx, `
        UPDATE users
        SET email=$1, phone_number=$2, first_name=$3, last_name=$4,
            role=$5, is_active=$6,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$7 AND row_version=$8
    `,
		u.Email,
		u.PhoneNumber,
		u.FirstName,
		u.LastName,
		u.Role,
		u.IsActive,
		u.ID,
		expected,
	)
}

func (r *userRepo) UpdateWithRetry(ctx context.Context, id uuid.UUID, mutate func(*models.User) error) error {
	return r.BaseVersionedRepo.UpdateWithRetry(ctx, id.String(), mutate, r.UpdateIfVersion)
}

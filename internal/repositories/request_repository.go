package repositories

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/propflow/maintenance-service/internal/models"
	"github.com/propflow/maintenance-service/internal/utils"
)

// RequestFilter narrows List results. PropertyIDs carries the caller's
// access scope; an empty slice with Unscoped=false yields no rows.
type RequestFilter struct {
	Unscoped    bool
	PropertyIDs []uuid.UUID
	UnitID      *uuid.UUID
	Status      *models.RequestStatusType
	AssigneeID  *uuid.UUID
	CreatedBy   *uuid.UUID
}

// RequestPatch carries the editable fields for UpdateFieldsAtomic. Nil
// means "leave unchanged".
type RequestPatch struct {
	Priority    *models.PriorityType
	Category    *string
	Title       *string
	Description *string
	MediaURLs   []string
}

type RequestRepository interface {
	Create(ctx context.Context, req *models.MaintenanceRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error)
	GetByPublicToken(ctx context.Context, token string) (*models.MaintenanceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*models.MaintenanceRequest, error)

	// Compare-and-swap mutations. Each runs in a transaction holding a
	// row lock, fails with utils.ErrRowVersionConflict (returning the
	// latest row) when expectedVersion is stale, and bumps row_version
	// on success.
	TransitionStatusAtomic(ctx context.Context, id uuid.UUID, newStatus models.RequestStatusType, expectedVersion int64) (*models.MaintenanceRequest, error)
	AssignAtomic(ctx context.Context, id uuid.UUID, assigneeID uuid.UUID, kind models.AssigneeKindType, newStatus models.RequestStatusType, expectedVersion int64) (*models.MaintenanceRequest, error)
	UpdateFieldsAtomic(ctx context.Context, id uuid.UUID, patch RequestPatch, expectedVersion int64) (*models.MaintenanceRequest, error)
	SetPublicLinkAtomic(ctx context.Context, id uuid.UUID, token string, expiresAt *time.Time, expectedVersion int64) (*models.MaintenanceRequest, error)
	ClearPublicLinkAtomic(ctx context.Context, id uuid.UUID, expectedVersion int64) (*models.MaintenanceRequest, error)

	// Storage hygiene for the nightly sweep; verification never relies
	// on it (expiry is checked lazily against the clock).
	ClearExpiredPublicLinks(ctx context.Context, before time.Time) (int64, error)
}

type requestRepo struct {
	db DB
}

func NewRequestRepository(db DB) RequestRepository {
	return &requestRepo{db: db}
}

func baseSelectRequest() string {
	return `
        SELECT
            id, property_id, unit_id, status, priority, category,
            title, description, created_by,
            assigned_to_id, assigned_to_kind,
            media_urls,
            public_link_token, public_link_expires_at,
            row_version, created_at, updated_at
        FROM maintenance_requests
    `
}

func scanRequest(row pgx.Row) (*models.MaintenanceRequest, error) {
	var req models.MaintenanceRequest
	var kind *string
	var media []string
	err := row.Scan(
		&req.ID,
		&req.PropertyID,
		&req.UnitID,
		&req.Status,
		&req.Priority,
		&req.Category,
		&req.Title,
		&req.Description,
		&req.CreatedBy,
		&req.AssignedToID,
		&kind,
		&media,
		&req.PublicLinkToken,
		&req.PublicLinkExpiresAt,
		&req.RowVersion,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if kind != nil {
		k := models.AssigneeKindType(*kind)
		req.AssignedToKind = &k
	}
	req.MediaURLs = media
	return &req, nil
}

func (r *requestRepo) Create(ctx context.Context, req *models.MaintenanceRequest) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO maintenance_requests (
            id, property_id, unit_id, status, priority, category,
            title, description, created_by, media_urls,
            created_at, updated_at, row_version
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,NOW(),NOW(),1
        )
    `,
		req.ID,
		req.PropertyID,
		req.UnitID,
		req.Status,
		req.Priority,
		req.Category,
		req.Title,
		req.Description,
		req.CreatedBy,
		req.MediaURLs,
	)
	return err
}

func (r *requestRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.MaintenanceRequest, error) {
	row := r.db.QueryRow(ctx, baseSelectRequest()+" WHERE id=$1", id)
	return scanRequest(row)
}

func (r *requestRepo) GetByPublicToken(ctx context.Context, token string) (*models.MaintenanceRequest, error) {
	row := r.db.QueryRow(ctx, baseSelectRequest()+" WHERE public_link_token=$1", token)
	return scanRequest(row)
}

func (r *requestRepo) List(ctx context.Context, filter RequestFilter) ([]*models.MaintenanceRequest, error) {
	var (
		qb   strings.Builder
		args []any
		idx  = 1
	)

	qb.WriteString(baseSelectRequest())
	qb.WriteString(" WHERE 1=1")

	if !filter.Unscoped {
		if len(filter.PropertyIDs) == 0 {
			return []*models.MaintenanceRequest{}, nil
		}
		qb.WriteString(" AND property_id = ANY($")
		qb.WriteString(strconv.Itoa(idx))
		qb.WriteString(")")
		args = append(args, filter.PropertyIDs)
		idx++
	}

	if filter.UnitID != nil {
		qb.WriteString(" AND unit_id = $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, *filter.UnitID)
		idx++
	}

	if filter.Status != nil {
		qb.WriteString(" AND status = $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, string(*filter.Status))
		idx++
	}

	if filter.AssigneeID != nil {
		qb.WriteString(" AND assigned_to_id = $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, *filter.AssigneeID)
		idx++
	}

	if filter.CreatedBy != nil {
		qb.WriteString(" AND created_by = $")
		qb.WriteString(strconv.Itoa(idx))
		args = append(args, *filter.CreatedBy)
		idx++
	}

	qb.WriteString(" ORDER BY created_at DESC")

	rows, err := r.db.Query(ctx, qb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.MaintenanceRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

// lockAndCheck loads the row FOR UPDATE inside tx and verifies the
// caller's expected version against the stored one.
func lockAndCheck(ctx context.Context, tx pgx.Tx, id uuid.UUID, expectedVersion int64) (*models.MaintenanceRequest, error) {
	row := tx.QueryRow(ctx, baseSelectRequest()+" WHERE id=$1 FOR UPDATE", id)
	req, err := scanRequest(row)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, pgx.ErrNoRows
	}
	if req.RowVersion != expectedVersion {
		return req, utils.ErrRowVersionConflict
	}
	return req, nil
}

func (r *requestRepo) TransitionStatusAtomic(
	ctx context.Context,
	id uuid.UUID,
	newStatus models.RequestStatusType,
	expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	current, err := lockAndCheck(ctx, tx, id, expectedVersion)
	if err != nil {
		return current, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE maintenance_requests
        SET status=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, newStatus, id)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectRequest()+" WHERE id=$1", id)
	return scanRequest(newRow)
}

func (r *requestRepo) AssignAtomic(
	ctx context.Context,
	id uuid.UUID,
	assigneeID uuid.UUID,
	kind models.AssigneeKindType,
	newStatus models.RequestStatusType,
	expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	current, err := lockAndCheck(ctx, tx, id, expectedVersion)
	if err != nil {
		return current, err
	}

	// Assignment and the NEW→ASSIGNED hop land in one write so a request
	// can never be observed assigned-but-NEW.
	_, err = tx.Exec(ctx, `
        UPDATE maintenance_requests
        SET assigned_to_id=$1,
            assigned_to_kind=$2,
            status=$3,
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$4
    `, assigneeID, string(kind), newStatus, id)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectRequest()+" WHERE id=$1", id)
	return scanRequest(newRow)
}

func (r *requestRepo) UpdateFieldsAtomic(
	ctx context.Context,
	id uuid.UUID,
	patch RequestPatch,
	expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	current, err := lockAndCheck(ctx, tx, id, expectedVersion)
	if err != nil {
		return current, err
	}

	priority := current.Priority
	if patch.Priority != nil {
		priority = *patch.Priority
	}
	category := current.Category
	if patch.Category != nil {
		category = *patch.Category
	}
	title := current.Title
	if patch.Title != nil {
		title = *patch.Title
	}
	description := current.Description
	if patch.Description != nil {
		description = *patch.Description
	}
	media := current.MediaURLs
	if patch.MediaURLs != nil {
		media = patch.MediaURLs
	}

	_, err = tx.Exec(ctx, `
        UPDATE maintenance_requests
        SET priority=$1, category=$2, title=$3, description=$4, media_urls=$5,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$6
    `, priority, category, title, description, media, id)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectRequest()+" WHERE id=$1", id)
	return scanRequest(newRow)
}

func (r *requestRepo) SetPublicLinkAtomic(
	ctx context.Context,
	id uuid.UUID,
	token string,
	expiresAt *time.Time,
	expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	current, err := lockAndCheck(ctx, tx, id, expectedVersion)
	if err != nil {
		return current, err
	}

	// Overwriting the column is what invalidates any previous token:
	// lookups go through public_link_token, so the old value simply
	// stops resolving.
	_, err = tx.Exec(ctx, `
        UPDATE maintenance_requests
        SET public_link_token=$1,
            public_link_expires_at=$2,
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$3
    `, token, expiresAt, id)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectRequest()+" WHERE id=$1", id)
	return scanRequest(newRow)
}

func (r *requestRepo) ClearPublicLinkAtomic(
	ctx context.Context,
	id uuid.UUID,
	expectedVersion int64,
) (*models.MaintenanceRequest, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	current, err := lockAndCheck(ctx, tx, id, expectedVersion)
	if err != nil {
		return current, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE maintenance_requests
        SET public_link_token=NULL,
            public_link_expires_at=NULL,
            row_version=row_version+1,
            updated_at=NOW()
        WHERE id=$1
    `, id)
	if err != nil {
		return nil, err
	}
	newRow := tx.QueryRow(ctx, baseSelectRequest()+" WHERE id=$1", id)
	return scanRequest(newRow)
}

func (r *requestRepo) ClearExpiredPublicLinks(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
        UPDATE maintenance_requests
        SET public_link_token=NULL,
            public_link_expires_at=NULL,
            updated_at=NOW()
        WHERE public_link_token IS NOT NULL
          AND public_link_expires_at IS NOT NULL
          AND public_link_expires_at < $1
    `, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

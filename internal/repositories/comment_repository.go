package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/propflow/maintenance-service/internal/models"
)

type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.Comment, error)
}

type commentRepo struct {
	db DB
}

func NewCommentRepository(db DB) CommentRepository {
	return &commentRepo{db: db}
}

func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO comments (id, request_id, author_id, author_kind, body, created_at)
        VALUES ($1,$2,$3,$4,$5,NOW())
    `, c.ID, c.RequestID, c.AuthorID, c.AuthorKind, c.Body)
	return err
}

func (r *commentRepo) ListByRequestID(ctx context.Context, requestID uuid.UUID) ([]*models.Comment, error) {
	rows, err := r.db.Query(ctx, `
        SELECT id, request_id, author_id, author_kind, body, created_at
        FROM comments
        WHERE request_id=$1
        ORDER BY created_at
    `, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.RequestID, &c.AuthorID, &c.AuthorKind, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}

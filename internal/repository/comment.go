package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type CommentRepository interface {
	Create(ctx context.Context, comment *model.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Comment, error)
	List(ctx context.Context, limit, offset int) ([]model.Comment, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

const commentSelect = `SELECT c.id, c.product_id, c.user_id, c.content, c.rating, c.created_at, c.updated_at,
	COALESCE(u.name, ''), COALESCE(u.avatar_url, ''), COALESCE(p.name, '')
	FROM comments c
	LEFT JOIN users u ON u.id = c.user_id
	LEFT JOIN products p ON p.id = c.product_id`

type sqlCommentRepo struct{ db *sql.DB }

func NewCommentRepository(db *sql.DB) CommentRepository {
	return &sqlCommentRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanComment(row rowScanner) (*model.Comment, error) {
	c := &model.Comment{}
	err := row.Scan(
		&c.ID, &c.ProductID, &c.UserID, &c.Content, &c.Rating, &c.CreatedAt, &c.UpdatedAt,
		&c.AuthorName, &c.AuthorAvatar, &c.ProductName,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *sqlCommentRepo) Create(ctx context.Context, c *model.Comment) error {
	c.ID = uuid.New()
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO comments (id, product_id, user_id, content, rating, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW(), NOW()) RETURNING created_at, updated_at`,
		c.ID, c.ProductID, c.UserID, c.Content, c.Rating,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

func (r *sqlCommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	c, err := scanComment(r.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, nil
}

func (r *sqlCommentRepo) query(ctx context.Context, query string, args ...any) ([]model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	var comments []model.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, *c)
	}
	return comments, rows.Err()
}

func (r *sqlCommentRepo) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Comment, error) {
	return r.query(ctx, commentSelect+` WHERE c.product_id = $1 ORDER BY c.created_at DESC`, productID)
}

func (r *sqlCommentRepo) List(ctx context.Context, limit, offset int) ([]model.Comment, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM comments`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count comments: %w", err)
	}
	comments, err := r.query(ctx, commentSelect+` ORDER BY c.created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *sqlCommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

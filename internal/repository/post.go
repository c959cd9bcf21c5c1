package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/flicky/rabbit-store-api/internal/model"
)

type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error)
	ListPublished(ctx context.Context, limit int) ([]model.Post, error)
	ListAll(ctx context.Context) ([]model.Post, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, id uuid.UUID) error

	// ViewPublished increments the view counter of a published post and
	// returns it. Drafts are reported as missing.
	ViewPublished(ctx context.Context, id uuid.UUID) (*model.Post, error)
	Like(ctx context.Context, id uuid.UUID) (*model.Post, error)
}

const postFields = `p.id, p.title, p.content, p.excerpt, p.featured_image, p.images, p.author_id, p.status,
	p.views, p.likes, p.seo_title, p.seo_description, p.created_at, p.updated_at,
	COALESCE(u.name, ''), COALESCE(u.avatar_url, '')`

const postSelect = `SELECT ` + postFields + ` FROM posts p LEFT JOIN users u ON u.id = p.author_id`

type sqlPostRepo struct{ db *sql.DB }

func NewPostRepository(db *sql.DB) PostRepository {
	return &sqlPostRepo{db: db}
}

func scanPost(row rowScanner) (*model.Post, error) {
	p := &model.Post{}
	err := row.Scan(
		&p.ID, &p.Title, &p.Content, &p.Excerpt, &p.FeaturedImage, pq.Array(&p.Images), &p.AuthorID, &p.Status,
		&p.Views, &p.Likes, &p.SEOTitle, &p.SEODescription, &p.CreatedAt, &p.UpdatedAt,
		&p.AuthorName, &p.AuthorAvatar,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *sqlPostRepo) Create(ctx context.Context, p *model.Post) error {
	p.ID = uuid.New()
	if p.Images == nil {
		p.Images = []string{}
	}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO posts (id, title, content, excerpt, featured_image, images, author_id, status,
		 seo_title, seo_description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		 RETURNING views, likes, created_at, updated_at`,
		p.ID, p.Title, p.Content, p.Excerpt, p.FeaturedImage, pq.Array(p.Images), p.AuthorID, p.Status,
		p.SEOTitle, p.SEODescription,
	).Scan(&p.Views, &p.Likes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create post: %w", err)
	}
	return nil
}

func (r *sqlPostRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return r.one(ctx, postSelect+` WHERE p.id = $1`, id)
}

func (r *sqlPostRepo) one(ctx context.Context, query string, id uuid.UUID) (*model.Post, error) {
	p, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return p, nil
}

func (r *sqlPostRepo) query(ctx context.Context, query string, args ...any) ([]model.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []model.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// ListPublished returns published posts newest first. limit <= 0 means all.
func (r *sqlPostRepo) ListPublished(ctx context.Context, limit int) ([]model.Post, error) {
	if limit <= 0 {
		return r.query(ctx, postSelect+` WHERE p.status = $1 ORDER BY p.created_at DESC`, model.PostStatusPublished)
	}
	return r.query(ctx, postSelect+` WHERE p.status = $1 ORDER BY p.created_at DESC LIMIT $2`,
		model.PostStatusPublished, limit)
}

func (r *sqlPostRepo) ListAll(ctx context.Context) ([]model.Post, error) {
	return r.query(ctx, postSelect+` ORDER BY p.created_at DESC`)
}

func (r *sqlPostRepo) Update(ctx context.Context, p *model.Post) error {
	if p.Images == nil {
		p.Images = []string{}
	}
	err := r.db.QueryRowContext(ctx,
		`UPDATE posts SET title=$2, content=$3, excerpt=$4, featured_image=$5, images=$6, status=$7,
		 seo_title=$8, seo_description=$9, updated_at=NOW()
		 WHERE id=$1 RETURNING updated_at`,
		p.ID, p.Title, p.Content, p.Excerpt, p.FeaturedImage, pq.Array(p.Images), p.Status,
		p.SEOTitle, p.SEODescription,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

func (r *sqlPostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return expectAffected(res)
}

func (r *sqlPostRepo) ViewPublished(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return r.one(ctx, `WITH p AS (
		UPDATE posts SET views = views + 1 WHERE id = $1 AND status = 'published' RETURNING *
	) SELECT `+postFields+` FROM p LEFT JOIN users u ON u.id = p.author_id`, id)
}

func (r *sqlPostRepo) Like(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	return r.one(ctx, `WITH p AS (
		UPDATE posts SET likes = likes + 1 WHERE id = $1 RETURNING *
	) SELECT `+postFields+` FROM p LEFT JOIN users u ON u.id = p.author_id`, id)
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

var ErrPostNotFound = errors.New("post not found")

type PostService struct {
	postRepo repository.PostRepository
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

func (s *PostService) Published(ctx context.Context) ([]model.Post, error) {
	return s.published(ctx, 0)
}

func (s *PostService) Featured(ctx context.Context, limit int) ([]model.Post, error) {
	return s.published(ctx, limit)
}

func (s *PostService) published(ctx context.Context, limit int) ([]model.Post, error) {
	posts, err := s.postRepo.ListPublished(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

func (s *PostService) All(ctx context.Context) ([]model.Post, error) {
	posts, err := s.postRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// View returns a published post and counts the read.
func (s *PostService) View(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	post, err := s.postRepo.ViewPublished(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("view post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) Like(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	post, err := s.postRepo.Like(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("like post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *PostService) Create(ctx context.Context, authorID uuid.UUID, req dto.CreatePostRequest) (*model.Post, error) {
	post := &model.Post{
		Title:          req.Title,
		Content:        req.Content,
		Excerpt:        req.Excerpt,
		FeaturedImage:  req.FeaturedImage,
		Images:         req.Images,
		AuthorID:       authorID,
		Status:         req.Status,
		SEOTitle:       req.SEOTitle,
		SEODescription: req.SEODescription,
	}
	if post.Status == "" {
		post.Status = model.PostStatusDraft
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

func (s *PostService) Update(ctx context.Context, id uuid.UUID, req dto.UpdatePostRequest) (*model.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if post == nil {
		return nil, ErrPostNotFound
	}

	if req.Title != nil {
		post.Title = *req.Title
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.Excerpt != nil {
		post.Excerpt = *req.Excerpt
	}
	if req.FeaturedImage != nil {
		post.FeaturedImage = *req.FeaturedImage
	}
	if req.Images != nil {
		post.Images = *req.Images
	}
	if req.Status != nil {
		post.Status = *req.Status
	}
	if req.SEOTitle != nil {
		post.SEOTitle = *req.SEOTitle
	}
	if req.SEODescription != nil {
		post.SEODescription = *req.SEODescription
	}

	if err := s.postRepo.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("update post: %w", err)
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.postRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrPostNotFound
		}
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

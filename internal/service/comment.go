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

var ErrCommentNotFound = errors.New("comment not found")

type CommentService struct {
	commentRepo repository.CommentRepository
	productRepo repository.ProductRepository
}

func NewCommentService(commentRepo repository.CommentRepository, productRepo repository.ProductRepository) *CommentService {
	return &CommentService{commentRepo: commentRepo, productRepo: productRepo}
}

func (s *CommentService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Comment, error) {
	comments, err := s.commentRepo.ListByProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) Create(ctx context.Context, userID uuid.UUID, req dto.CreateCommentRequest) (*model.Comment, error) {
	product, err := s.productRepo.GetByID(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	comment := &model.Comment{ProductID: req.ProductID, UserID: userID, Content: req.Content, Rating: req.Rating}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.ProductName = product.Name
	return comment, nil
}

// Delete removes a comment written by the actor, or any comment for admins.
func (s *CommentService) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	comment, err := s.commentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get comment: %w", err)
	}
	if comment == nil {
		return ErrCommentNotFound
	}
	if !actor.CanAccess(comment.UserID) {
		return ErrForbidden
	}
	return s.remove(ctx, id)
}

func (s *CommentService) AdminDelete(ctx context.Context, id uuid.UUID) error {
	return s.remove(ctx, id)
}

func (s *CommentService) remove(ctx context.Context, id uuid.UUID) error {
	if err := s.commentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCommentNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}
	return nil
}

func (s *CommentService) AdminList(ctx context.Context, q dto.PageQuery) (*dto.CommentListResponse, error) {
	comments, total, err := s.commentRepo.List(ctx, q.Limit, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return &dto.CommentListResponse{
		Comments: dto.NewCommentResponses(comments),
		Page:     q.Page,
		Pages:    dto.Pages(total, q.Limit),
		Total:    total,
	}, nil
}

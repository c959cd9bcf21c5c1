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

var (
	ErrContactNotFound   = errors.New("contact not found")
	ErrAlreadySubscribed = errors.New("email already subscribed")
)

type ContactService struct {
	contactRepo    repository.ContactRepository
	subscriberRepo repository.SubscriberRepository
}

func NewContactService(contactRepo repository.ContactRepository, subscriberRepo repository.SubscriberRepository) *ContactService {
	return &ContactService{contactRepo: contactRepo, subscriberRepo: subscriberRepo}
}

func (s *ContactService) Submit(ctx context.Context, req dto.CreateContactRequest) (*model.Contact, error) {
	contact := &model.Contact{Name: req.Name, Email: req.Email, Message: req.Message}
	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("create contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) List(ctx context.Context) ([]model.Contact, error) {
	contacts, err := s.contactRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactService) Complete(ctx context.Context, id uuid.UUID) (*model.Contact, error) {
	contact, err := s.contactRepo.SetStatus(ctx, id, model.ContactStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("complete contact: %w", err)
	}
	if contact == nil {
		return nil, ErrContactNotFound
	}
	return contact, nil
}

func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContactNotFound
		}
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

func (s *ContactService) Subscribe(ctx context.Context, email string) error {
	if err := s.subscriberRepo.Create(ctx, &model.Subscriber{Email: normalizeEmail(email)}); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrAlreadySubscribed
		}
		return fmt.Errorf("subscribe: %w", err)
	}
	return nil
}

func (s *ContactService) Subscribers(ctx context.Context) ([]model.Subscriber, error) {
	subs, err := s.subscriberRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	return subs, nil
}

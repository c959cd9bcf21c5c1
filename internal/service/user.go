package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/repository"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrTooManyAddresses     = fmt.Errorf("at most %d shipping addresses allowed", model.MaxShippingAddresses)
	ErrInvalidAddressIndex  = errors.New("invalid address index")
	ErrWrongPassword        = errors.New("current password is incorrect")
	ErrAlreadyFavorite      = errors.New("product already in favorites")
	ErrMissingAddressField  = errors.New("missing shipping address field")
	ErrCannotDeleteYourself = errors.New("cannot delete your own account")
)

type UserService struct {
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
}

func NewUserService(userRepo repository.UserRepository, productRepo repository.ProductRepository) *UserService {
	return &UserService{userRepo: userRepo, productRepo: productRepo}
}

func (s *UserService) get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) save(ctx context.Context, user *model.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return ErrUserNotFound
		case errors.Is(err, repository.ErrDuplicate):
			return ErrUserAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	return nil
}

func (s *UserService) Profile(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return s.get(ctx, id)
}

func (s *UserService) UpdateShipping(ctx context.Context, id uuid.UUID, addrs []model.Address) ([]model.Address, error) {
	if len(addrs) > model.MaxShippingAddresses {
		return nil, ErrTooManyAddresses
	}
	for _, a := range addrs {
		if field := a.MissingField(); field != "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingAddressField, field)
		}
	}

	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.ShippingAddresses = addrs
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user.ShippingAddresses, nil
}

func (s *UserService) DeleteShipping(ctx context.Context, id uuid.UUID, index int) ([]model.Address, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(user.ShippingAddresses) {
		return nil, ErrInvalidAddressIndex
	}
	user.ShippingAddresses = append(user.ShippingAddresses[:index], user.ShippingAddresses[index+1:]...)
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user.ShippingAddresses, nil
}

func (s *UserService) UpdateAvatar(ctx context.Context, id uuid.UUID, url string) (*model.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	user.AvatarURL = url
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(ctx context.Context, id uuid.UUID, req dto.ChangePasswordRequest) error {
	user, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return ErrWrongPassword
	}
	if user.Password, err = hashPassword(req.NewPassword); err != nil {
		return err
	}
	return s.save(ctx, user)
}

// --- Favorites ---

func (s *UserService) Favorites(ctx context.Context, id uuid.UUID) ([]model.Product, error) {
	products, err := s.userRepo.ListFavorites(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	return products, nil
}

func (s *UserService) AddFavorite(ctx context.Context, id, productID uuid.UUID) ([]model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if err := s.userRepo.AddFavorite(ctx, id, productID); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadyFavorite
		}
		return nil, fmt.Errorf("add favorite: %w", err)
	}
	return s.Favorites(ctx, id)
}

func (s *UserService) RemoveFavorite(ctx context.Context, id, productID uuid.UUID) ([]model.Product, error) {
	if err := s.userRepo.RemoveFavorite(ctx, id, productID); err != nil {
		return nil, fmt.Errorf("remove favorite: %w", err)
	}
	return s.Favorites(ctx, id)
}

// --- Admin ---

func (s *UserService) List(ctx context.Context, q dto.PageQuery) (*dto.UserListResponse, error) {
	users, total, err := s.userRepo.List(ctx, q.Limit, q.Offset())
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return &dto.UserListResponse{Users: items, Page: q.Page, Pages: dto.Pages(total, q.Limit), Total: total}, nil
}

func (s *UserService) Create(ctx context.Context, req dto.AdminCreateUserRequest) (*model.User, error) {
	hashed, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	role := req.Role
	if role == "" {
		role = model.RoleCustomer
	}
	user := &model.User{Name: req.Name, Email: normalizeEmail(req.Email), Password: hashed, Role: role}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, req dto.AdminUpdateUserRequest) (*model.User, error) {
	user, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = normalizeEmail(*req.Email)
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if err := s.save(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) Delete(ctx context.Context, actorID, id uuid.UUID) error {
	if actorID == id {
		return ErrCannotDeleteYourself
	}
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}

package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/model"
)

// --- Pagination ---

type PageQuery struct {
	Page  int `form:"page,default=1" binding:"min=1"`
	Limit int `form:"limit,default=10" binding:"min=1,max=100"`
}

func (q PageQuery) Offset() int { return (q.Page - 1) * q.Limit }

// Pages is the number of pages needed for total rows.
func Pages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

type MessageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// --- Users ---

type UserResponse struct {
	ID                uuid.UUID       `json:"id"`
	Name              string          `json:"name"`
	Email             string          `json:"email"`
	Role              string          `json:"role"`
	AvatarURL         string          `json:"avatarUrl"`
	ShippingAddresses []model.Address `json:"shippingAddresses"`
	CreatedAt         time.Time       `json:"createdAt"`
}

func NewUserResponse(u *model.User) UserResponse {
	addrs := u.ShippingAddresses
	if addrs == nil {
		addrs = []model.Address{}
	}
	return UserResponse{
		ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role,
		AvatarURL: u.AvatarURL, ShippingAddresses: addrs, CreatedAt: u.CreatedAt,
	}
}

type UpdateShippingRequest struct {
	ShippingAddresses []model.Address `json:"shippingAddresses" binding:"required"`
}

type ShippingResponse struct {
	ShippingAddresses []model.Address `json:"shippingAddresses"`
}

type UpdateAvatarRequest struct {
	AvatarURL string `json:"avatarUrl" binding:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,min=6"`
}

type AdminCreateUserRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"omitempty,oneof=customer admin"`
}

type AdminUpdateUserRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email" binding:"omitempty,email"`
	Role  *string `json:"role" binding:"omitempty,oneof=customer admin"`
}

type UserListResponse struct {
	Users []UserResponse `json:"users"`
	Page  int            `json:"page"`
	Pages int            `json:"pages"`
	Total int            `json:"total"`
}

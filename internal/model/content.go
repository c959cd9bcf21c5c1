package model

import (
	"time"

	"github.com/google/uuid"
)

type Comment struct {
	ID        uuid.UUID
	ProductID uuid.UUID
	UserID    uuid.UUID
	Content   string
	Rating    int
	CreatedAt time.Time
	UpdatedAt time.Time

	AuthorName   string
	AuthorAvatar string
	ProductName  string
}

const (
	PostStatusDraft     = "draft"
	PostStatusPublished = "published"
)

type Post struct {
	ID             uuid.UUID
	Title          string
	Content        string
	Excerpt        string
	FeaturedImage  string
	Images         []string
	AuthorID       uuid.UUID
	Status         string
	Views          int
	Likes          int
	SEOTitle       string
	SEODescription string
	CreatedAt      time.Time
	UpdatedAt      time.Time

	AuthorName   string
	AuthorAvatar string
}

type Category struct {
	ID          uuid.UUID
	Name        string
	Slug        string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const (
	ContactStatusPending   = "pending"
	ContactStatusCompleted = "completed"
)

type Contact struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Message   string
	Status    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Subscriber struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
}

package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/model"
)

// --- Comments ---

type CreateCommentRequest struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Content   string    `json:"content" binding:"required"`
	Rating    int       `json:"rating" binding:"required,min=1,max=5"`
}

type CommentAuthor struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name,omitempty"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
}

type CommentResponse struct {
	ID          uuid.UUID     `json:"id"`
	ProductID   uuid.UUID     `json:"product"`
	ProductName string        `json:"productName,omitempty"`
	User        CommentAuthor `json:"user"`
	Content     string        `json:"content"`
	Rating      int           `json:"rating"`
	CreatedAt   time.Time     `json:"createdAt"`
}

func NewCommentResponses(comments []model.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for _, c := range comments {
		out = append(out, CommentResponse{
			ID: c.ID, ProductID: c.ProductID, ProductName: c.ProductName,
			User:    CommentAuthor{ID: c.UserID, Name: c.AuthorName, AvatarURL: c.AuthorAvatar},
			Content: c.Content, Rating: c.Rating, CreatedAt: c.CreatedAt,
		})
	}
	return out
}

type CommentListResponse struct {
	Comments []CommentResponse `json:"comments"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
	Total    int               `json:"total"`
}

// --- Posts ---

type CreatePostRequest struct {
	Title          string   `json:"title" binding:"required,max=120"`
	Content        string   `json:"content" binding:"required"`
	Excerpt        string   `json:"excerpt" binding:"max=200"`
	FeaturedImage  string   `json:"featuredImage" binding:"required"`
	Images         []string `json:"images"`
	Status         string   `json:"status" binding:"omitempty,oneof=draft published"`
	SEOTitle       string   `json:"seoTitle"`
	SEODescription string   `json:"seoDescription"`
}

type UpdatePostRequest struct {
	Title          *string   `json:"title" binding:"omitempty,min=1,max=120"`
	Content        *string   `json:"content" binding:"omitempty,min=1"`
	Excerpt        *string   `json:"excerpt" binding:"omitempty,max=200"`
	FeaturedImage  *string   `json:"featuredImage" binding:"omitempty,min=1"`
	Images         *[]string `json:"images"`
	Status         *string   `json:"status" binding:"omitempty,oneof=draft published"`
	SEOTitle       *string   `json:"seoTitle"`
	SEODescription *string   `json:"seoDescription"`
}

type FeaturedPostsQuery struct {
	Limit int `form:"limit,default=8" binding:"min=1,max=50"`
}

type PostMeta struct {
	Views int `json:"views"`
	Likes int `json:"likes"`
}

type PostSEO struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type PostResponse struct {
	ID            uuid.UUID     `json:"id"`
	Title         string        `json:"title"`
	Content       string        `json:"content"`
	Excerpt       string        `json:"excerpt"`
	FeaturedImage string        `json:"featuredImage"`
	Images        []string      `json:"images"`
	Author        CommentAuthor `json:"author"`
	Status        string        `json:"status"`
	Meta          PostMeta      `json:"meta"`
	SEO           PostSEO       `json:"seo"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

func NewPostResponse(p *model.Post) PostResponse {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	return PostResponse{
		ID: p.ID, Title: p.Title, Content: p.Content, Excerpt: p.Excerpt,
		FeaturedImage: p.FeaturedImage, Images: images,
		Author: CommentAuthor{ID: p.AuthorID, Name: p.AuthorName, AvatarURL: p.AuthorAvatar},
		Status: p.Status, Meta: PostMeta{Views: p.Views, Likes: p.Likes},
		SEO:       PostSEO{Title: p.SEOTitle, Description: p.SEODescription},
		CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func NewPostResponses(posts []model.Post) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, NewPostResponse(&posts[i]))
	}
	return out
}

// --- Categories ---

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

// --- Contacts & subscribers ---

type CreateContactRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

type SubscribeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// --- Upload ---

type UploadResponse struct {
	ImageURL string `json:"imageUrl"`
}

type CategoryResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func NewCategoryResponse(c *model.Category) CategoryResponse {
	return CategoryResponse{
		ID: c.ID, Name: c.Name, Slug: c.Slug, Description: c.Description,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func NewCategoryResponses(categories []model.Category) []CategoryResponse {
	out := make([]CategoryResponse, 0, len(categories))
	for i := range categories {
		out = append(out, NewCategoryResponse(&categories[i]))
	}
	return out
}

type ContactResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func NewContactResponse(c *model.Contact) ContactResponse {
	return ContactResponse{
		ID: c.ID, Name: c.Name, Email: c.Email, Message: c.Message, Status: c.Status,
		CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt,
	}
}

func NewContactResponses(contacts []model.Contact) []ContactResponse {
	out := make([]ContactResponse, 0, len(contacts))
	for i := range contacts {
		out = append(out, NewContactResponse(&contacts[i]))
	}
	return out
}

type SubscriberResponse struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

func NewSubscriberResponses(subs []model.Subscriber) []SubscriberResponse {
	out := make([]SubscriberResponse, 0, len(subs))
	for _, s := range subs {
		out = append(out, SubscriberResponse{ID: s.ID, Email: s.Email, SubscribedAt: s.CreatedAt})
	}
	return out
}

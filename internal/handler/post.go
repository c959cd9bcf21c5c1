package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/middleware"
	"github.com/flicky/rabbit-store-api/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) Published(c *gin.Context) {
	posts, err := h.postService.Published(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostResponses(posts))
}

func (h *PostHandler) Featured(c *gin.Context) {
	var q dto.FeaturedPostsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	posts, err := h.postService.Featured(c.Request.Context(), q.Limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostResponses(posts))
}

func (h *PostHandler) View(c *gin.Context) {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return
	}

	post, err := h.postService.View(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostResponse(post))
}

func (h *PostHandler) Like(c *gin.Context) {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return
	}

	post, err := h.postService.Like(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.PostMeta{Views: post.Views, Likes: post.Likes})
}

// --- Admin ---

func (h *PostHandler) All(c *gin.Context) {
	posts, err := h.postService.All(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostResponses(posts))
}

func (h *PostHandler) Create(c *gin.Context) {
	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	post, err := h.postService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if u := middleware.GetUser(c); u != nil {
		post.AuthorName, post.AuthorAvatar = u.Name, u.AvatarURL
	}
	c.JSON(http.StatusCreated, dto.NewPostResponse(post))
}

func (h *PostHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return
	}

	var req dto.UpdatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	post, err := h.postService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewPostResponse(post))
}

func (h *PostHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "post")
	if !ok {
		return
	}

	if err := h.postService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "post deleted"})
}

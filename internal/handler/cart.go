package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/middleware"
	"github.com/flicky/rabbit-store-api/internal/service"
)

type CartHandler struct {
	svc *service.CartService
}

func NewCartHandler(svc *service.CartService) *CartHandler {
	return &CartHandler{svc: svc}
}

// owner prefers the authenticated user and falls back to a guest id taken
// from the body or the query string.
func owner(c *gin.Context, guestID string) service.CartOwner {
	if guestID == "" {
		guestID = c.Query("guestId")
	}
	return service.CartOwner{UserID: middleware.OptionalUserID(c), GuestID: guestID}
}

func (h *CartHandler) GetCart(c *gin.Context) {
	cart, err := h.svc.Get(c.Request.Context(), owner(c, ""))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) AddItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cart, created, err := h.svc.AddItem(c.Request.Context(), owner(c, req.GuestID), req)
	if err != nil {
		respondError(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, dto.NewCartResponse(cart))
}

func (h *CartHandler) UpdateItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cart, err := h.svc.UpdateItem(c.Request.Context(), owner(c, req.GuestID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) DeleteItem(c *gin.Context) {
	var req dto.CartItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cart, err := h.svc.RemoveItem(c.Request.Context(), owner(c, req.GuestID), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

func (h *CartHandler) DeleteEntire(c *gin.Context) {
	var req dto.CartOwnerRequest
	// The guest id may arrive in the query string with no body at all.
	_ = c.ShouldBindJSON(&req)

	id, err := h.svc.DeleteEntire(c.Request.Context(), owner(c, req.GuestID))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.DeleteCartResponse{Message: "cart deleted", DeletedCartID: id})
}

func (h *CartHandler) Merge(c *gin.Context) {
	var req dto.MergeCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	cart, err := h.svc.Merge(c.Request.Context(), middleware.GetUserID(c), req.GuestID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCartResponse(cart))
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/middleware"
	"github.com/flicky/rabbit-store-api/internal/service"
)

type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

func (h *CheckoutHandler) Create(c *gin.Context) {
	var req dto.CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	checkout, err := h.checkoutService.Create(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewCheckoutResponse(checkout))
}

func (h *CheckoutHandler) Pay(c *gin.Context) {
	id, ok := parseID(c, "id", "checkout")
	if !ok {
		return
	}

	var req dto.PayCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	checkout, err := h.checkoutService.Pay(c.Request.Context(), actorFrom(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewCheckoutResponse(checkout))
}

func (h *CheckoutHandler) Finalize(c *gin.Context) {
	id, ok := parseID(c, "id", "checkout")
	if !ok {
		return
	}

	order, err := h.checkoutService.Finalize(c.Request.Context(), actorFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewOrderResponse(order))
}

package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/flicky/rabbit-store-api/internal/middleware"
	"github.com/flicky/rabbit-store-api/internal/model"
	"github.com/flicky/rabbit-store-api/internal/service"
	"github.com/flicky/rabbit-store-api/internal/storage"
)

func init() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("orderstatus", func(fl validator.FieldLevel) bool {
		return model.OrderStatus(fl.Field().String()).Valid()
	})
}

// errorStatus maps service sentinels to HTTP codes. Anything absent is a 500.
var errorStatus = []struct {
	err    error
	status int
}{
	{service.ErrInvalidCredentials, http.StatusUnauthorized},
	{service.ErrForbidden, http.StatusForbidden},
	{service.ErrCannotDeleteYourself, http.StatusForbidden},

	{service.ErrUserNotFound, http.StatusNotFound},
	{service.ErrProductNotFound, http.StatusNotFound},
	{service.ErrCartNotFound, http.StatusNotFound},
	{service.ErrCartItemNotFound, http.StatusNotFound},
	{service.ErrGuestCartNotFound, http.StatusNotFound},
	{service.ErrCheckoutNotFound, http.StatusNotFound},
	{service.ErrOrderNotFound, http.StatusNotFound},
	{service.ErrCouponNotFound, http.StatusNotFound},
	{service.ErrCommentNotFound, http.StatusNotFound},
	{service.ErrPostNotFound, http.StatusNotFound},
	{service.ErrCategoryNotFound, http.StatusNotFound},
	{service.ErrContactNotFound, http.StatusNotFound},

	{service.ErrUserAlreadyExists, http.StatusBadRequest},
	{service.ErrTooManyAddresses, http.StatusBadRequest},
	{service.ErrInvalidAddressIndex, http.StatusBadRequest},
	{service.ErrWrongPassword, http.StatusBadRequest},
	{service.ErrAlreadyFavorite, http.StatusBadRequest},
	{service.ErrMissingAddressField, http.StatusBadRequest},
	{service.ErrDuplicateSKU, http.StatusBadRequest},
	{service.ErrInvalidPrice, http.StatusBadRequest},
	{service.ErrNegativePrice, http.StatusBadRequest},
	{service.ErrNegativeStock, http.StatusBadRequest},
	{service.ErrInvalidDiscount, http.StatusBadRequest},
	{service.ErrGuestCartEmpty, http.StatusBadRequest},
	{service.ErrInvalidQuantity, http.StatusBadRequest},
	{service.ErrCheckoutNotPayable, http.StatusBadRequest},
	{service.ErrCheckoutAlreadyPaid, http.StatusBadRequest},
	{service.ErrInvalidPaymentStatus, http.StatusBadRequest},
	{service.ErrEmptyCheckout, http.StatusBadRequest},
	{service.ErrInsufficientStock, http.StatusBadRequest},
	{service.ErrDuplicateCoupon, http.StatusBadRequest},
	{service.ErrCouponInvalid, http.StatusBadRequest},
	{service.ErrCouponExpired, http.StatusBadRequest},
	{service.ErrCouponMinPurchase, http.StatusBadRequest},
	{service.ErrCouponAlreadyUsed, http.StatusBadRequest},
	{service.ErrInvalidStatus, http.StatusBadRequest},
	{service.ErrInvalidTransition, http.StatusBadRequest},
	{service.ErrInvalidPeriod, http.StatusBadRequest},
	{service.ErrCategoryExists, http.StatusBadRequest},
	{service.ErrEmptySlug, http.StatusBadRequest},
	{service.ErrAlreadySubscribed, http.StatusBadRequest},

	{storage.ErrNotConfigured, http.StatusServiceUnavailable},
}

// respondError writes the service error as {"error": msg}. Wrapped sentinels
// keep their detail (e.g. the product that ran out of stock).
func respondError(c *gin.Context, err error) {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			c.JSON(e.status, gin.H{"error": err.Error()})
			return
		}
	}
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

// bindError reports the first failing field in a readable form.
func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": validationMessage(err)})
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "invalid request body"
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	case "orderstatus":
		return "invalid order status"
	}
	return "invalid value for " + fe.Field()
}

func parseID(c *gin.Context, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " ID"})
		return uuid.Nil, false
	}
	return id, true
}

func actorFrom(c *gin.Context) service.Actor {
	return service.Actor{
		UserID:  middleware.GetUserID(c),
		IsAdmin: middleware.GetUserRole(c) == model.RoleAdmin,
	}
}

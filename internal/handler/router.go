package handler

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups every HTTP handler the API exposes.
type Handlers struct {
	Auth     *AuthHandler
	User     *UserHandler
	Product  *ProductHandler
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Order    *OrderHandler
	Coupon   *CouponHandler
	Comment  *CommentHandler
	Post     *PostHandler
	Category *CategoryHandler
	Contact  *ContactHandler
	Upload   *UploadHandler
	Health   *HealthHandler
}

// Guards are the middleware chains routes opt into.
type Guards struct {
	Auth         gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	Admin        gin.HandlerFunc
	LoginLimit   gin.HandlerFunc
}

func (h Handlers) Register(router *gin.Engine, g Guards) {
	if h.Health != nil {
		router.GET("/healthz", h.Health.Healthz)
		router.GET("/readyz", h.Health.Readyz)
	}

	api := router.Group("/api")
	admin := []gin.HandlerFunc{g.Auth, g.Admin}

	users := api.Group("/users")
	{
		users.POST("/register", h.Auth.Register)
		users.POST("/login", g.LoginLimit, h.Auth.Login)

		profile := users.Group("/profile", g.Auth)
		profile.GET("", h.User.Profile)
		profile.PUT("/shipping", h.User.UpdateShipping)
		profile.DELETE("/shipping/:index", h.User.DeleteShipping)
		profile.PUT("/avatar", h.User.UpdateAvatar)
		profile.PUT("/password", h.User.ChangePassword)
	}

	favorites := api.Group("/favorites", g.Auth)
	{
		favorites.GET("", h.User.Favorites)
		favorites.POST("/:productId", h.User.AddFavorite)
		favorites.DELETE("/:productId", h.User.RemoveFavorite)
	}

	products := api.Group("/products")
	{
		products.GET("", h.Product.List)
		products.GET("/:id", h.Product.GetByID)

		manage := products.Group("", admin...)
		manage.POST("", h.Product.Create)
		manage.PUT("/:id", h.Product.Update)
		manage.DELETE("/:id", h.Product.Delete)
	}

	cart := api.Group("/cart", g.OptionalAuth)
	{
		cart.GET("", h.Cart.GetCart)
		cart.POST("", h.Cart.AddItem)
		cart.PUT("", h.Cart.UpdateItem)
		cart.DELETE("", h.Cart.DeleteItem)
		cart.DELETE("/entire-cart", h.Cart.DeleteEntire)
	}
	api.POST("/cart/merge", g.Auth, h.Cart.Merge)

	checkout := api.Group("/checkout", g.Auth)
	{
		checkout.POST("", h.Checkout.Create)
		checkout.PUT("/:id/pay", h.Checkout.Pay)
		checkout.POST("/:id/finalize", h.Checkout.Finalize)
	}

	orders := api.Group("/orders", g.Auth)
	{
		orders.GET("/my-orders", h.Order.MyOrders)
		orders.GET("/:id", h.Order.GetOrder)
		orders.PUT("/:id/status", h.Order.UpdateStatus)
	}

	coupons := api.Group("/coupons")
	{
		coupons.POST("/check", g.OptionalAuth, h.Coupon.Check)
		coupons.POST("/use", g.Auth, h.Coupon.Use)

		manage := coupons.Group("", admin...)
		manage.GET("", h.Coupon.List)
		manage.POST("", h.Coupon.Create)
		manage.PUT("/:id", h.Coupon.Update)
		manage.DELETE("/:id", h.Coupon.Delete)
	}

	comments := api.Group("/comments")
	{
		comments.GET("/product/:productId", h.Comment.ListByProduct)
		comments.POST("", g.Auth, h.Comment.Create)
		comments.DELETE("/:id", g.Auth, h.Comment.Delete)
	}

	posts := api.Group("/posts")
	{
		posts.GET("", h.Post.Published)
		posts.GET("/featured", h.Post.Featured)
		posts.GET("/:id", h.Post.View)
		posts.POST("/:id/like", h.Post.Like)

		posts.GET("/admin", append(admin, h.Post.All)...)
		manage := posts.Group("", admin...)
		manage.POST("", h.Post.Create)
		manage.PUT("/:id", h.Post.Update)
		manage.DELETE("/:id", h.Post.Delete)
	}

	categories := api.Group("/categories")
	{
		categories.GET("", h.Category.List)

		manage := categories.Group("", admin...)
		manage.POST("", h.Category.Create)
		manage.PUT("/:id", h.Category.Update)
		manage.DELETE("/:id", h.Category.Delete)
	}

	contacts := api.Group("/contacts")
	{
		contacts.POST("", h.Contact.Submit)

		manage := contacts.Group("", admin...)
		manage.GET("", h.Contact.List)
		manage.PUT("/:id/complete", h.Contact.Complete)
		manage.DELETE("/:id", h.Contact.Delete)
	}
	api.POST("/subscribe", h.Contact.Subscribe)

	api.POST("/upload", g.Auth, h.Upload.Upload)

	adm := api.Group("/admin", admin...)
	{
		adm.GET("/users", h.User.List)
		adm.POST("/users", h.User.Create)
		adm.PUT("/users/:id", h.User.Update)
		adm.DELETE("/users/:id", h.User.Delete)

		adm.GET("/products", h.Product.List)
		adm.PUT("/products/:id", h.Product.Update)
		adm.DELETE("/products/:id", h.Product.Delete)

		adm.GET("/orders", h.Order.AdminList)
		adm.PUT("/orders/:id", h.Order.AdminUpdate)
		adm.DELETE("/orders/:id", h.Order.AdminDelete)

		adm.GET("/revenue/summary", h.Order.RevenueSummary)
		adm.GET("/revenue/sales/:period", h.Order.Sales)
		adm.GET("/revenue/statistics/:period", h.Order.Statistics)
		adm.GET("/revenue/orders/recent", h.Order.RecentOrders)

		adm.GET("/comments", h.Comment.AdminList)
		adm.DELETE("/comments/:id", h.Comment.AdminDelete)

		adm.GET("/subscribers", h.Contact.Subscribers)
	}
}

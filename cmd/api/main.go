package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/rabbit-store-api/internal/config"
	"github.com/flicky/rabbit-store-api/internal/handler"
	"github.com/flicky/rabbit-store-api/internal/mailer"
	"github.com/flicky/rabbit-store-api/internal/middleware"
	"github.com/flicky/rabbit-store-api/internal/repository"
	"github.com/flicky/rabbit-store-api/internal/service"
	"github.com/flicky/rabbit-store-api/internal/storage"
	"github.com/flicky/rabbit-store-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	sqlDB := stdlib.OpenDBFromPool(dbPool)
	defer sqlDB.Close()
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	consumeCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer consumeCh.Close()

	if err := worker.SetupRabbitMQ(consumeCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}

	// Publishing from request goroutines gets its own channel.
	publishCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ publish channel", "error", err)
		os.Exit(1)
	}
	defer publishCh.Close()
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	checkoutRepo := repository.NewCheckoutRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	couponRepo := repository.NewCouponRepository(dbPool)
	txRunner := repository.NewTxRunner(dbPool)
	commentRepo := repository.NewCommentRepository(sqlDB)
	postRepo := repository.NewPostRepository(sqlDB)
	categoryRepo := repository.NewCategoryRepository(sqlDB)
	contactRepo := repository.NewContactRepository(sqlDB)
	subscriberRepo := repository.NewSubscriberRepository(sqlDB)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	userSvc := service.NewUserService(userRepo, productRepo)
	productSvc := service.NewProductService(productRepo, redisClient, cfg.Redis.ProductCacheTTL)
	cartSvc := service.NewCartService(cartRepo, productRepo, txRunner)
	couponSvc := service.NewCouponService(couponRepo)
	checkoutSvc := service.NewCheckoutService(checkoutRepo, couponRepo, txRunner, productSvc, worker.NewOrderPublisher(publishCh), log)
	orderSvc := service.NewOrderService(orderRepo, userRepo)
	commentSvc := service.NewCommentService(commentRepo, productRepo)
	postSvc := service.NewPostService(postRepo)
	categorySvc := service.NewCategoryService(categoryRepo)
	contactSvc := service.NewContactService(contactRepo, subscriberRepo)

	// Handlers
	handlers := handler.Handlers{
		Auth:     handler.NewAuthHandler(authSvc),
		User:     handler.NewUserHandler(userSvc),
		Product:  handler.NewProductHandler(productSvc),
		Cart:     handler.NewCartHandler(cartSvc),
		Checkout: handler.NewCheckoutHandler(checkoutSvc),
		Order:    handler.NewOrderHandler(orderSvc),
		Coupon:   handler.NewCouponHandler(couponSvc),
		Comment:  handler.NewCommentHandler(commentSvc),
		Post:     handler.NewPostHandler(postSvc),
		Category: handler.NewCategoryHandler(categorySvc),
		Contact:  handler.NewContactHandler(contactSvc),
		Upload:   handler.NewUploadHandler(storage.NewCloudinary(cfg.ImageHost), cfg.Server.MaxUploadSize),
		Health:   handler.NewHealthHandler(dbPool, redisClient, amqpConn),
	}

	// Worker
	emailWorker := worker.NewOrderEmailWorker(
		consumeCh, orderRepo, userRepo, worker.NewRedisDeduper(redisClient),
		mailer.New(cfg.Mail, log), cfg.Mail.StoreName, log,
	)

	// Router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))
	router.MaxMultipartMemory = cfg.Server.MaxUploadSize

	handlers.Register(router, handler.Guards{
		Auth:         middleware.AuthMiddleware(cfg.JWT.Secret, userRepo),
		OptionalAuth: middleware.OptionalAuth(cfg.JWT.Secret, userRepo),
		Admin:        middleware.AdminOnly(),
		LoginLimit:   middleware.RateLimit(redisClient, log, "login", cfg.RateLimit.Requests, cfg.RateLimit.Window),
	})

	if err := emailWorker.Start(ctx); err != nil {
		log.Error("start order email worker", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	emailWorker.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}

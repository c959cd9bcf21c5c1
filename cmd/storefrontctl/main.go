package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"github.com/flicky/rabbit-store-api/internal/config"
	"github.com/flicky/rabbit-store-api/internal/dto"
	"github.com/flicky/rabbit-store-api/internal/repository"
	"github.com/flicky/rabbit-store-api/internal/seed"
	"github.com/flicky/rabbit-store-api/internal/service"
	"github.com/flicky/rabbit-store-api/migrations"
)

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	if err := rootCmd(log).Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd(log *slog.Logger) *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:          "storefrontctl",
		Short:        "Operational tasks for the storefront API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before reading the environment (default .env if present)")

	connect := func(ctx context.Context) (*pgxpool.Pool, error) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := config.Load(files...)
		if err != nil {
			return nil, err
		}
		pool, err := pgxpool.New(ctx, cfg.DB.DSN())
		if err != nil {
			return nil, fmt.Errorf("connect to database: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return pool, nil
	}

	root.AddCommand(
		migrateCmd(log, connect),
		createAdminCmd(log, connect),
		seedCmd(log, connect),
	)
	return root
}

type connectFunc func(ctx context.Context) (*pgxpool.Pool, error)

func migrateCmd(log *slog.Logger, connect connectFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := migrations.Apply(cmd.Context(), pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				log.Info("schema up to date")
			}
			for _, name := range applied {
				log.Info("applied migration", "name", name)
			}
			return nil
		},
	}
}

func createAdminCmd(log *slog.Logger, connect connectFunc) *cobra.Command {
	var req dto.AdminCreateUserRequest

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			req.Role = "admin"
			users := service.NewUserService(repository.NewUserRepository(pool), repository.NewProductRepository(pool))
			user, err := users.Create(cmd.Context(), req)
			if err != nil {
				return err
			}
			log.Info("admin created", "id", user.ID, "email", user.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "Admin", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "login e-mail")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password (min 6 characters)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func seedCmd(log *slog.Logger, connect connectFunc) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load categories, products and coupons from a YAML catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			catalog, err := seed.LoadFile(file)
			if err != nil {
				return err
			}

			pool, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			sqlDB := stdlib.OpenDBFromPool(pool)
			defer sqlDB.Close()

			// No Redis here: the product service runs without its cache.
			seeder := &seed.Seeder{
				Categories: service.NewCategoryService(repository.NewCategoryRepository(sqlDB)),
				Products:   service.NewProductService(repository.NewProductRepository(pool), nil, 0),
				Coupons:    service.NewCouponService(repository.NewCouponRepository(pool)),
				Log:        log,
			}
			res, err := seeder.Apply(cmd.Context(), catalog)
			if err != nil {
				return err
			}
			log.Info("seed complete", "created", res.Created, "skipped", res.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "catalog.yaml", "catalog file")
	return cmd
}

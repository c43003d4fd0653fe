package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/lightwaver/gallerix/config"
	_ "github.com/lightwaver/gallerix/docs"
	"github.com/lightwaver/gallerix/internal/handler"
	"github.com/lightwaver/gallerix/internal/ports"
	"github.com/lightwaver/gallerix/internal/repository"
	"github.com/lightwaver/gallerix/internal/security"
	"github.com/lightwaver/gallerix/internal/service"
	"github.com/spf13/cobra"
)

// @title Gallerix
// @version 1.0
// @description Role-gated media gallery backed by S3 compatible storage.

// @host localhost:8080

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "gallerix",
		Short:        "Role-gated media gallery",
		SilenceUsage: true,
	}
	root.AddCommand(newServeCommand(), newHashPasswordCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "config.yaml", "path to the YAML configuration")
	return cmd
}

func newHashPasswordCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash of a password for users.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := security.HashPassword(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}

func serve(parent context.Context, configPath string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	redisClient, err := config.SetupRedis(&cfg.RedisConfig)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	var cache ports.CacheRepository
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Printf("[Main] %v", err)
			}
		}()
		cache = repository.NewCacheRepository(redisClient, cfg.RedisConfig.TTL)
	}

	s3Service, err := service.NewS3Service(ctx, &cfg.S3Config, &cfg.Containers, cfg.Upload.PartSize)
	if err != nil {
		return fmt.Errorf("create s3 service: %w", err)
	}
	srv, router := config.SetupServer(cfg.ServerAddr)
	if err := setupApplication(ctx, router, cfg, s3Service, cache); err != nil {
		return err
	}

	return runServer(ctx, srv)
}

// setupApplication wires services over store and registers every route on router.
func setupApplication(ctx context.Context, router chi.Router, cfg *config.AppConfig, store ports.ObjectStore, cache ports.CacheRepository) error {
	configRepo := repository.NewConfigRepository(store, cache, cfg.Containers.Config)

	jwtService := security.NewJWTService(&cfg.JWT)
	authenticator := security.NewAuthenticator(jwtService, cfg.Cookie.Name)

	authService := service.NewAuthenticationService(configRepo, jwtService)
	galleryService := service.NewGalleryService(store, configRepo, &cfg.Containers)
	mediaService := service.NewMediaService(store, configRepo, &cfg.Containers, &cfg.Media)
	adminService := service.NewAdminService(configRepo)

	if err := adminService.Bootstrap(ctx, &cfg.Admin); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	setupMiddleware(router, cfg)
	setupOpsRoutes(router)
	router.Route("/api", func(api chi.Router) {
		setupAuthRoutes(api, handler.NewAuthenticationHandler(authService, &cfg.Cookie, cfg.JWT.TTL()), authenticator, &cfg.RateLimit)
		setupGalleryRoutes(api, handler.NewGalleryHandler(galleryService, &cfg.Upload), authenticator)
		setupAdminRoutes(api, handler.NewAdminHandler(adminService), authenticator)
	})
	setupMediaRoutes(router, handler.NewMediaHandler(mediaService, jwtService, cfg.Cookie.Name))
	return nil
}

func runServer(ctx context.Context, server *http.Server) error {
	serverErrors := make(chan error, 1)
	go func() {
		log.Println("[Main] listening on " + server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	signalChannel := make(chan os.Signal, 1)
	signal.Notify(signalChannel, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signalChannel)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case sig := <-signalChannel:
		log.Printf("[Main] received %v, shutting down", sig)
	case <-ctx.Done():
		log.Println("[Main] context cancelled, shutting down")
	}

	shutDownCtx, shutDownCancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer shutDownCancel()

	if err := server.Shutdown(shutDownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Println("[Main] server stopped")
	return nil
}

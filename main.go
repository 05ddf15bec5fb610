package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"tiffin/internal/config"
	"tiffin/internal/events"
	"tiffin/internal/handlers"
	"tiffin/internal/identity"
	"tiffin/internal/metrics"
	"tiffin/internal/middleware"
	"tiffin/internal/repositories"
	"tiffin/internal/server"
	"tiffin/internal/services"
	"tiffin/internal/validation"
	"tiffin/pkg/rabbitmq"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(envFile)
		},
	}
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return migrate(envFile)
		},
	}

	rootCmd := &cobra.Command{
		Use:          "tiffin",
		Short:        "Tiffin catalog and ordering service",
		SilenceUsage: true,
		// Serving is the default when no subcommand is given.
		RunE: serveCmd.RunE,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional dotenv file loaded before the environment")
	rootCmd.AddCommand(serveCmd, migrateCmd)
	return rootCmd
}

func migrate(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log := cfg.NewLogger()

	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return err
	}
	if err := repositories.Migrate(db); err != nil {
		return err
	}
	log.WithField("driver", cfg.DatabaseDriver).Info("database schema is up to date")
	return nil
}

func serve(envFile string) error {
	// --- Configuration ---
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	log := cfg.NewLogger()

	// --- Database ---
	db, err := repositories.Open(cfg.DatabaseDriver, cfg.DatabaseDSN, log)
	if err != nil {
		return err
	}
	if err := repositories.Migrate(db); err != nil {
		return err
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	tiffinRepo := repositories.NewGORMTiffinRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Identity ---
	verifier, err := newVerifier(cfg.Identity)
	if err != nil {
		return err
	}
	if verifier == nil {
		log.Warn("no identity authority configured; protected routes will refuse every request")
	}
	if !cfg.Admin.Configured() {
		log.Warn("no administrator designation configured; admin routes will refuse every request")
	}

	// --- Order events ---
	eventHandler := events.NewHandler(tiffinRepo, log)
	var publisher events.Publisher = events.NewInlinePublisher(eventHandler)
	if cfg.RabbitMQURL != "" {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL, Queue: cfg.RabbitMQQueue}, log)
		if err != nil {
			return err
		}
		defer mqClient.Close()

		if err := mqClient.Consume(eventHandler.Delivery); err != nil {
			return err
		}
		publisher = events.NewAMQPPublisher(mqClient)
	} else {
		log.Info("RABBITMQ_URL not set; order events are handled in-process")
	}

	// --- Initialize Services ---
	m := metrics.New()
	authService := services.NewAuthService(verifier, userRepo, cfg.Admin, log)
	tiffinService := services.NewTiffinService(tiffinRepo, log)
	orderService := services.NewOrderService(orderRepo, tiffinRepo, publisher, m, log)
	userService := services.NewUserService(userRepo, cfg.Admin, log)

	// --- Initialize Handlers ---
	v := validation.New()
	app := server.NewApp(server.Deps{
		DB:             db,
		Gate:           middleware.NewGate(authService, m, log),
		Metrics:        m,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		Tiffins:        handlers.NewTiffinHandler(tiffinService, v),
		Orders:         handlers.NewOrderHandler(orderService, v),
		Users:          handlers.NewUserHandler(userService, v),
	})

	// --- Start HTTP Server ---
	listenErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.AppPort).Info("starting server")
		listenErr <- app.Listen(cfg.AppPort)
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-listenErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server gracefully stopped")
	return nil
}

// newVerifier picks the signature source from configuration. It returns a
// nil verifier when no identity authority is configured.
func newVerifier(cfg config.IdentityConfig) (identity.Verifier, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	opts := identity.Options{
		Issuer:   cfg.Issuer,
		Audience: cfg.Audience,
	}
	if cfg.HMACSecret != "" {
		opts.HMACSecret = []byte(cfg.HMACSecret)
	}
	switch {
	case cfg.PublicKeysFile != "":
		keys, err := identity.LoadStaticKeySource(cfg.PublicKeysFile)
		if err != nil {
			return nil, err
		}
		opts.Keys = keys
	case cfg.CertsURL != "":
		opts.Keys = identity.NewRemoteKeySource(cfg.CertsURL, &http.Client{Timeout: 5 * time.Second})
	}

	verifier, err := identity.NewJWTVerifier(opts)
	if err != nil {
		return nil, err
	}
	return verifier, nil
}

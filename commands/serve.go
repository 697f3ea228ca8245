package commands

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"tour-backend/config"
	"tour-backend/controllers"
	"tour-backend/routes"
	"tour-backend/services"
	"tour-backend/utils"
)

func ServeCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != "" {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config) error {
	gin.SetMode(cfg.Server.Mode)

	db, err := getDB(cfg, cfg.Database.AutoMigrate)
	if err != nil {
		return err
	}
	defer closeDB(db)
	log.Println("✅ Database connection established")

	images, err := services.NewImageStore(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	mailer := utils.NewMailer(cfg.Email)
	channels := []services.NotificationChannel{
		services.NewEmailChannel(mailer, cfg.Site.Name, cfg.Site.FrontendURL),
	}
	telegram, err := utils.NewTelegramSender(cfg.Telegram)
	if err != nil {
		log.Printf("⚠️  %v; Telegram alerts disabled", err)
	} else if telegram != nil {
		channels = append(channels, services.NewTelegramChannel(telegram))
	}

	dispatcher := services.NewNotificationDispatcher(cfg.Notifications.QueueSize, cfg.Notifications.Timeout, channels...)
	dispatcher.Start()

	tokens := utils.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.AccessTokenTTL, cfg.JWT.ConfirmTokenTTL)

	// Initialize services
	bookingService := services.NewBookingService(db, dispatcher, mailer, tokens, cfg.Location())
	tourService := services.NewTourService(db, images, cfg.Storage.MaxUploadBytes)
	messageService := services.NewMessageService(db, dispatcher)
	settingService := services.NewSettingService(db)
	authService := services.NewAuthService(db, tokens)

	// Initialize controllers
	handlers := routes.Handlers{
		Bookings: controllers.NewBookingController(bookingService, settingService, cfg.Site.WhatsAppNumber),
		Tours:    controllers.NewTourController(tourService),
		Messages: controllers.NewMessageController(messageService),
		Settings: controllers.NewSettingsController(settingService),
		Auth:     controllers.NewAuthController(authService),
	}

	opts := routes.Options{CORSOrigins: cfg.CORS.AllowedOrigins}
	if cfg.Storage.Driver == "local" {
		opts.UploadsDir = cfg.Storage.LocalDir
		opts.UploadsPath = cfg.Storage.PublicBaseURL
	}
	router := routes.SetupRouter(handlers, authService, opts)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("🚀 Server starting on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case <-quit:
		log.Println("⚠️  Shutdown signal received, shutting down server...")
	case err := <-errCh:
		_ = dispatcher.Close(context.Background())
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}
	// Drain queued notifications within the same deadline.
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Printf("⚠️  notification queue not drained: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
	return nil
}

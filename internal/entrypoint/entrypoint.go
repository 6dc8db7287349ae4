package entrypoint

import (
	"context"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/alaya/internal/auth"
	"github.com/mrlokans/alaya/internal/config"
	"github.com/mrlokans/alaya/internal/database"
	"github.com/mrlokans/alaya/internal/database/books"
	"github.com/mrlokans/alaya/internal/database/users"
	http_controllers "github.com/mrlokans/alaya/internal/http"
	"github.com/mrlokans/alaya/internal/library"
	"github.com/mrlokans/alaya/internal/scheduler"
	"github.com/mrlokans/alaya/internal/summary"
	"github.com/mrlokans/alaya/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM.
func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("Starting server at http://%s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
	}()

	// kill (no param) sends SIGTERM, kill -2 is SIGINT
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("listen: %w", err)
	case <-quit:
	}
	log.Printf("Shutdown Server, waiting %v before killing", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server goes away
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Println("Server exiting")
	return nil
}

// csrfSecret decodes AUTH_SESSION_SECRET or generates a throwaway one.
func csrfSecret(configured string) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		// Not hex, use as raw bytes
		return []byte(configured), nil
	}

	secret, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, err
	}
	log.Printf("Generated session secret (set AUTH_SESSION_SECRET to persist)")
	return hex.DecodeString(secret)
}

// Run wires every component and serves until shutdown. A failed schema
// migration is returned before anything listens.
func Run(cfg *config.Config, version string) error {
	log.Printf("Starting alaya v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	bookRepo := books.NewRepository(db.DB)
	summaryClient := summary.NewClient(cfg.Summary)
	if !summaryClient.HasAPIKey() {
		log.Printf("WARNING: OPENAI_API_KEY is not set. Summaries, quick-add and edit-chat are disabled.")
	}

	authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth)
	sqlDB, err := db.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
	}
	sessionManager := auth.NewSessionManager(sqlDB, cfg.Auth)
	defer sessionManager.Close()

	secret, err := csrfSecret(cfg.Auth.SessionSecret)
	if err != nil {
		return fmt.Errorf("failed to generate CSRF secret: %w", err)
	}

	authController := auth.NewAuthController(authService, sessionManager, cfg.UI.TemplatesPath, cfg.Auth)
	defer authController.Stop()

	if hasUsers, _ := authService.HasUsers(); !hasUsers {
		if cfg.Auth.DisableSignups {
			log.Printf("No users found and signups are disabled. Create one with the create-user command.")
		} else {
			log.Printf("No users found. Visit /signup to create an account.")
		}
	}

	var (
		taskClient    *tasks.Client
		taskCtxCancel context.CancelFunc
		scanScheduler *scheduler.LibraryScanScheduler
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks))
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewScanLibraryQueue(library.NewScanner(), bookRepo),
			tasks.NewSummarizeBookQueue(summaryClient, bookRepo),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		if cfg.Library.ScanEnabled {
			scanScheduler = scheduler.NewLibraryScanScheduler(taskClient, cfg.Library.Path, cfg.Library.ScanSchedule)
			if err := scanScheduler.Start(taskCtx); err != nil {
				taskCtxCancel()
				return err
			}
		}
	} else if cfg.Library.ScanEnabled {
		log.Printf("WARNING: LIBRARY_SCAN_ENABLED is set but TASKS_ENABLED is off; scheduled scans are disabled.")
	}

	routerCfg := http_controllers.RouterConfig{
		Books:          bookRepo,
		Database:       db,
		AuthService:    authService,
		AuthController: authController,
		AuthMiddleware: auth.NewMiddleware(authService, sessionManager),
		SessionManager: sessionManager,
		CSRFSecret:     secret,
		SecureCookies:  cfg.Auth.SecureCookies,
		Summary:        summaryClient,
		LibraryPath:    cfg.Library.Path,
		TemplatesPath:  cfg.UI.TemplatesPath,
		StaticPath:     cfg.UI.StaticPath,
		Version:        version,
	}
	// A nil *tasks.Client must not become a non-nil TaskQueue.
	if taskClient != nil {
		routerCfg.Tasks = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if scanScheduler != nil {
			scanScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	return Serve(router, cfg, onShutdown)
}

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

	"github.com/readspace/readspace/internal/config"
	"github.com/readspace/readspace/internal/crypto"
	http_controllers "github.com/readspace/readspace/internal/http"
	"github.com/readspace/readspace/internal/library"
	"github.com/readspace/readspace/internal/session"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt, then shut down with a timeout
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before closing the listener
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting ReadSpace v%s", version)
	log.Printf("Library API at %s", cfg.API.BaseURL)

	client := library.NewClient(cfg.API.BaseURL, cfg.API.Timeout)

	store, err := session.NewStore(session.Config{
		DatabasePath:  cfg.Session.DatabasePath,
		EncryptionKey: cfg.Session.EncryptionKey,
		KeyFilePath:   cfg.Session.KeyFilePath,
	})
	if err != nil {
		log.Fatalf("Failed to initialize session store: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Error closing session store: %v", err)
		}
	}()

	sessions := session.NewHandler(client, store)

	// The flash session shares the session store's SQLite file
	sqlDB, err := store.DB()
	if err != nil {
		log.Fatalf("Failed to get SQL DB for flash sessions: %v", err)
	}
	flash, err := http_controllers.NewFlashManager(sqlDB, cfg.HTTP.SecureCookies)
	if err != nil {
		log.Fatalf("Failed to initialize flash sessions: %v", err)
	}

	// Use the configured CSRF secret, or generate one per process
	var csrfSecret []byte
	if cfg.HTTP.SessionSecret != "" {
		csrfSecret, err = hex.DecodeString(cfg.HTTP.SessionSecret)
		if err != nil {
			// Not hex, use as raw bytes
			csrfSecret = []byte(cfg.HTTP.SessionSecret)
		}
	} else {
		secret, err := crypto.GenerateKey()
		if err != nil {
			log.Fatalf("Failed to generate CSRF secret: %v", err)
		}
		csrfSecret = []byte(secret)
		log.Printf("Generated session secret (set SESSION_SECRET to persist)")
	}

	var validator *session.Validator
	if cfg.Session.CheckEnabled {
		validator = session.NewValidator(client, store, cfg.Session.CheckSchedule)
		if err := validator.Start(); err != nil {
			log.Fatalf("Failed to start session validator: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Library:       client,
		Sessions:      sessions,
		Store:         store,
		Flash:         flash,
		CSRFSecret:    csrfSecret,
		SecureCookies: cfg.HTTP.SecureCookies,
		TemplatesPath: cfg.UI.TemplatesPath,
		StaticPath:    cfg.UI.StaticPath,
		Version:       version,
	})

	onShutdown := func(ctx context.Context) {
		if validator != nil {
			validator.Stop()
		}
	}

	Serve(router, cfg, onShutdown)
}

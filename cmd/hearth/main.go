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

	"github.com/joho/godotenv"

	"github.com/dukerupert/hearth/internal/backup"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/database"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/logging"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/server"
)

func main() {
	// Optional .env for local development
	godotenv.Load()

	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel)

	if cfg.TokenSecret == "" {
		log.Fatal("HEARTH_TOKEN_SECRET is required")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(cfg.PostmarkToken, cfg.EmailFrom, cfg.AppBaseURL)
	if !emailClient.Configured() {
		logger.Info("email disabled: postmark token missing")
	}

	pushSvc := push.NewService(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.VAPIDSubject)
	if !pushSvc.Configured() {
		logger.Info("web push disabled: VAPID keys missing")
	}

	backupMgr := backup.NewManager(backup.Config{
		Bucket:    cfg.BackupBucket,
		Region:    cfg.BackupRegion,
		Endpoint:  cfg.BackupEndpoint,
		AccessKey: cfg.BackupAccessKey,
		SecretKey: cfg.BackupSecretKey,
		Interval:  cfg.BackupInterval,
	}, db, logger)
	backupMgr.Start(context.Background())
	defer backupMgr.Stop()

	srv := server.New(db, cfg, emailClient, pushSvc, logger)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Hearth running at http://localhost:%s\n", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Reidond/subsctl/internal/backup"
	"github.com/Reidond/subsctl/internal/database"
	"github.com/Reidond/subsctl/internal/logging"
	"github.com/Reidond/subsctl/internal/notify"
	"github.com/Reidond/subsctl/internal/server"
)

func main() {
	genKeys := flag.Bool("genkeys", false, "print a fresh VAPID key pair and exit")
	flag.Parse()

	if *genKeys {
		pub, priv, err := notify.GenerateVAPIDKeys()
		if err != nil {
			log.Fatalf("generate VAPID keys: %v", err)
		}
		fmt.Printf("SUBSCTL_VAPID_PUBLIC_KEY=%s\nSUBSCTL_VAPID_PRIVATE_KEY=%s\n", pub, priv)
		return
	}

	port := envOr("SUBSCTL_PORT", "8080")
	dbPath := envOr("SUBSCTL_DB_PATH", "subsctl.db")

	logger := logging.Setup(os.Getenv("SUBSCTL_LOG_LEVEL"), os.Getenv("SUBSCTL_LOG_FORMAT"))

	jwtSecret := os.Getenv("SUBSCTL_JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("SUBSCTL_JWT_SECRET is required")
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	cfg := server.Config{
		JWTSecret:       []byte(jwtSecret),
		FXBaseURL:       envOr("SUBSCTL_FX_URL", "https://openexchangerates.org/api/latest.json"),
		FXAppID:         os.Getenv("SUBSCTL_FX_APP_ID"),
		VAPIDPublicKey:  os.Getenv("SUBSCTL_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("SUBSCTL_VAPID_PRIVATE_KEY"),
		PushSubscriber:  envOr("SUBSCTL_PUSH_SUBSCRIBER", "mailto:admin@localhost"),
		SweepInterval:   envDuration("SUBSCTL_SWEEP_INTERVAL", time.Hour),
		Backup: backup.Config{
			S3: backup.S3Config{
				Endpoint:  os.Getenv("SUBSCTL_S3_ENDPOINT"),
				Bucket:    os.Getenv("SUBSCTL_S3_BUCKET"),
				Region:    envOr("SUBSCTL_S3_REGION", "auto"),
				AccessKey: os.Getenv("SUBSCTL_S3_ACCESS_KEY"),
				SecretKey: os.Getenv("SUBSCTL_S3_SECRET_KEY"),
			},
			DBPath:        dbPath,
			Passphrase:    os.Getenv("SUBSCTL_BACKUP_PASSPHRASE"),
			RetentionDays: envInt("SUBSCTL_BACKUP_RETENTION_DAYS", 30),
			Hour:          envInt("SUBSCTL_BACKUP_HOUR", 3),
		},
	}

	srv := server.New(db, cfg, logger)

	ctx := context.Background()
	srv.Scheduler().Start(ctx)
	srv.BackupManager().Start(ctx)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			srv.RateLimiter().Cleanup()
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("subsctl running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
	srv.Scheduler().Stop()
	srv.BackupManager().Stop()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

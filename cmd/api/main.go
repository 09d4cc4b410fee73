package main

import (
	"context"
	"io"
	"log"
	"os"
	"time"

	"github.com/soundloop/soundloop-api/internal/config"
	"github.com/soundloop/soundloop-api/internal/logging"
	"github.com/soundloop/soundloop-api/internal/repository/minio"
	"github.com/soundloop/soundloop-api/internal/repository/ports"
	"github.com/soundloop/soundloop-api/internal/repository/postgres"
	"github.com/soundloop/soundloop-api/internal/service"
	"github.com/soundloop/soundloop-api/internal/transport/http"
	"github.com/soundloop/soundloop-api/internal/transport/mail"
	"github.com/soundloop/soundloop-api/internal/util"
)

func main() {
	cfg := config.Load()

	if cfg.LogstashTCPAddr != "" {
		if w, err := logging.NewWriter(cfg.LogstashTCPAddr); err != nil {
			log.Printf("Warning: logstash mirroring disabled: %v", err)
		} else {
			defer w.Close()
			log.SetOutput(io.MultiWriter(os.Stderr, w))
		}
	}

	db, err := postgres.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if err := postgres.RunMigrations(ctx, db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	users := postgres.NewUserRepo(db)
	otps := postgres.NewOTPRepo(db)

	var storage ports.ObjectStorage
	if cfg.MinIOEndpoint != "" {
		client, err := minio.NewClient(cfg.MinIOEndpoint, cfg.MinIOAccessKey, cfg.MinIOSecretKey, cfg.MinIOUseSSL)
		if err != nil {
			log.Fatalf("connect to minio: %v", err)
		}
		storage = minio.NewStorage(client, cfg.MinIOPublicURL, cfg.MinIOUseSSL)
	} else {
		log.Println("Warning: MINIO_ENDPOINT not set, avatar caching disabled")
	}

	sessionTTL := parseDuration(cfg.SessionTTL, 24*time.Hour)
	otpTTL := parseDuration(cfg.OTPTTL, 15*time.Minute)

	sessions := util.NewJWTManager(cfg.JWTSecret, sessionTTL)
	mailer := mail.NewOTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)

	auth := service.NewAuthService(
		users,
		otps,
		storage,
		mailer,
		sessions,
		cfg.GoogleAudience,
		cfg.MinIOBucketAvatars,
		otpTTL,
		cfg.OTPLength,
	)

	e := http.NewRouter(cfg.AllowOrigins)
	http.RegisterAuth(e, auth)
	http.RegisterSwagger(e)

	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

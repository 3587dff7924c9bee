package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"docman/pkg/email"
	"docman/pkg/token"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var logger *zap.Logger

func main() {
	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}

	if cfg.production() {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	// A missing or empty signing secret is fatal here, never per-request.
	issuer, err := token.NewIssuer(cfg.JWTSecret, cfg.AccessTokenTTL)
	if err != nil {
		logger.Fatal("token issuer misconfigured", zap.Error(err))
	}

	// Support a lightweight migrate command: `./docman migrate` runs
	// AutoMigrate and seeding then exits. Useful for CI or manual DB setup.
	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		initDB(cfg)
		logger.Info("migration and seeding completed")
		return
	}

	initDB(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	startRevocationSweeper(ctx, cfg.RevocationSweepInterval)

	var mailer email.Sender = email.NopSender{}
	if cfg.ResendAPIKey != "" {
		mailer = email.NewResendSender(cfg.ResendAPIKey, cfg.MailFrom, cfg.AppURL)
	} else {
		logger.Warn("RESEND_API_KEY not set; password reset emails are disabled")
	}

	if cfg.production() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	setupRoutes(r, &app{cfg: cfg, issuer: issuer, mailer: mailer})

	logger.Info("listening", zap.String("addr", cfg.ListenAddr), zap.String("env", cfg.Env))
	if err := r.Run(cfg.ListenAddr); err != nil {
		logger.Fatal("server exited", zap.Error(err))
	}
}

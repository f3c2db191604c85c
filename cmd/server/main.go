package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"

	"github.com/example/otpauth/internal/config"
	"github.com/example/otpauth/internal/database"
	"github.com/example/otpauth/internal/handlers"
	"github.com/example/otpauth/internal/repository"
	"github.com/example/otpauth/internal/routes"
	"github.com/example/otpauth/internal/services"
)

func main() {
	cfg := config.Load()

	zlog, err := newLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()

	db, err := database.Connect(cfg.DatabaseURL, cfg.DBLogLevel, zlog)
	if err != nil {
		zlog.Fatal("database unavailable", zap.Error(err))
	}

	gateway := services.NewGateway(
		services.NewEmailSender(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword),
		services.NewSMSSender(cfg.TwilioBaseURL, cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhone),
		cfg.NotifyTimeout(),
		zlog.Named("notify"),
	)
	identity := services.NewIdentityService(
		repository.NewUserRepository(db),
		repository.NewOTPRepository(db),
		gateway,
		cfg,
		zlog.Named("identity"),
	)

	app := fiber.New(fiber.Config{
		AppName:      "OTP Auth",
		ErrorHandler: handlers.ErrorHandler(zlog),
	})

	app.Use(recover.New())
	app.Use(logger.New())

	routes.Register(app, identity, cfg)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		zlog.Info("shutting down")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			zlog.Error("shutdown", zap.Error(err))
		}
	}()

	zlog.Info("starting server",
		zap.String("port", cfg.AppPort),
		zap.Bool("sms_enabled", cfg.SMSEnabled))
	if err := app.Listen(":" + cfg.AppPort); err != nil {
		zlog.Fatal("fiber.Listen error", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, err
	}
	zcfg := zap.NewProductionConfig()
	if lvl.Level() == zap.DebugLevel {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = lvl
	return zcfg.Build()
}

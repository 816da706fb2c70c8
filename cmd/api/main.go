package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"earnbot/internal/bot"
	"earnbot/internal/config"
	"earnbot/internal/database"
	"earnbot/internal/logger"
	"earnbot/internal/middleware"
	"earnbot/internal/server"
	"earnbot/internal/services"
	"earnbot/internal/telegram"
	"earnbot/internal/validator"
	"earnbot/internal/verification"

	_ "earnbot/internal/docs" // Import swagger docs
)

// @title           earnbot API
// @version         1.0
// @description     earnbot keeps the accounts and earning ledger behind the Telegram verification bot and its web app.
// @termsOfService  http://swagger.io/terms/

// @host      localhost:8080
// @BasePath  /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the launch token.

const shutdownTimeout = 15 * time.Second

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("failed to close database: %v", err)
		}
	}()

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	tokens := middleware.NewLaunchTokens(appConfig.LaunchTokenSecret, appConfig.LaunchTokenTTL)
	tracker := telegram.NewStatusTracker()

	router := server.NewRouter(server.Dependencies{
		DB:           dbManager.DB(),
		Pinger:       dbManager,
		BotStatus:    tracker,
		LaunchTokens: tokens,
	})

	botDone := make(chan struct{})
	if appConfig.BotEnabled() {
		stopBot, err := startBot(ctx, appConfig, dbManager, tokens, tracker, botDone)
		if err != nil {
			// the API keeps serving; /bot-status reports the failure
			tracker.Set(telegram.StatusError, err)
			log.Errorf("Telegram bot failed to start: %v", err)
			close(botDone)
		} else {
			defer stopBot()
		}
	} else {
		log.Warn("BOT_TOKEN not set, Telegram bot disabled")
		close(botDone)
	}

	srv := &http.Server{
		Addr:              ":" + appConfig.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Infof("Starting earnbot server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-botDone
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warnf("HTTP shutdown: %v", err)
	}
	<-botDone
	log.Info("Shutdown complete")
	return nil
}

// startBot connects to Telegram and runs the update loop until ctx ends.
// done is closed once the loop has drained.
func startBot(ctx context.Context, cfg *config.Config, dbManager *database.Manager, tokens *middleware.LaunchTokens, tracker *telegram.StatusTracker, done chan struct{}) (func(), error) {
	log := logger.Named("telegram")

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to connect bot: %w", err)
	}
	log.Infof("Authorized on account %s", api.Self.UserName)

	if err := telegram.SetBotCommands(api); err != nil {
		log.Warnf("failed to set bot commands: %v", err)
	}

	username := cfg.BotUsername
	if api.Self.UserName != "" {
		username = api.Self.UserName
	}

	client := telegram.NewClient(api, cfg.RequiredChannel)
	checker := verification.NewChecker(client, cfg.MembershipTimeout, cfg.MembershipRetries)
	accountService := services.NewAccountService(dbManager.DB())
	machine := verification.NewMachine(accountService, checker)

	handler := bot.NewHandler(accountService, machine, client, tokens, bot.Settings{
		BotUsername:   username,
		ChannelURL:    cfg.ChannelURL,
		WebAppURL:     cfg.WebAppURL,
		AdminPanelURL: cfg.AdminPanelURL,
	})

	heartbeat, err := telegram.StartHeartbeat(api, tracker, cfg.BotHeartbeatInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to start heartbeat: %w", err)
	}

	runner := telegram.NewRunner(api, handler)
	go func() {
		defer close(done)
		runner.Run(ctx)
	}()

	return func() {
		if err := heartbeat.Stop(); err != nil {
			log.Warnf("heartbeat shutdown: %v", err)
		}
	}, nil
}

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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"lifeos/internal/calendar"
	"lifeos/internal/config"
	"lifeos/internal/notify"
	"lifeos/internal/repository"
	"lifeos/internal/server"
	"lifeos/internal/service"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:   "lifeos",
		Short: "LifeOS personal dashboard server",
	}
	root.PersistentFlags().StringVar(&configPath, "config", config.DefaultConfigFileName, "path to the config file")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configPath)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadOrCreate(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			_, err = repository.NewDB(cfg.Database.Path)
			return err
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(configPath string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	userRepo := repository.NewUserRepository(db)
	devRepo := repository.NewDevelopmentRepository(db)
	personalRepo := repository.NewPersonalRepository(db)
	financeRepo := repository.NewFinanceRepository(db)
	habitRepo := repository.NewHabitRepository(db)
	journalRepo := repository.NewJournalRepository(db)
	tokenRepo := repository.NewCalendarTokenRepository(db)

	bridge := calendar.NewBridge(
		cfg.Calendar.ClientID,
		cfg.Calendar.ClientSecret,
		cfg.Calendar.RedirectURL,
		tokenRepo,
		log,
	)

	sessions := server.NewSessions(devRepo, personalRepo, financeRepo, habitRepo, journalRepo, cfg.Search, log)
	api := server.New(sessions, userRepo, bridge, log)

	scheduler := service.NewScheduler(time.Local)
	if cfg.Telegram.Token != "" && cfg.Digest.Time != "" {
		notifier, err := notify.NewTelegram(cfg.Telegram.Token, log)
		if err != nil {
			return fmt.Errorf("init telegram: %w", err)
		}
		digest := service.NewDigestService(userRepo, personalRepo, devRepo, habitRepo, notifier, log)
		if _, err := scheduler.ScheduleDaily(cfg.Digest.Time, func() {
			jobCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := digest.Broadcast(jobCtx, time.Now()); err != nil && !errors.Is(err, context.Canceled) {
				log.Warn("digest broadcast failed", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule digest: %w", err)
		}
		scheduler.Start()
		defer scheduler.Stop()
	}

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = httpServer.Shutdown(shutdownCtx)
	}()

	log.Info("lifeos server started", zap.String("addr", cfg.Server.Addr))
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	log.Info("shutdown complete")
	return nil
}

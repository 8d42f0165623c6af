package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/studybot/internal/bot"
	"github.com/example/studybot/internal/config"
	"github.com/example/studybot/internal/database"
	"github.com/example/studybot/internal/gamification"
	"github.com/example/studybot/internal/planner"
	"github.com/example/studybot/internal/scheduler"
)

func main() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Profiles always live in SQL, plan states in the configured backend
	err := database.Connect(database.Config{
		Driver:  cfg.DatabaseDriver,
		URL:     cfg.DatabaseURL,
		DataDir: cfg.DataDir,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	store, closeStore, err := database.OpenPlanStore(cfg.StorageBackend, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to open plan storage: %v", err)
	}
	defer closeStore()

	careers := gamification.DefaultCareers()
	if cfg.CareersFile != "" {
		careers, err = gamification.LoadCareers(cfg.CareersFile)
		if err != nil {
			log.Fatalf("Failed to load careers: %v", err)
		}
	}
	if !careers.Has(cfg.DefaultCareer) {
		log.Printf("Warning: unknown DEFAULT_CAREER %q, using %q", cfg.DefaultCareer, careers.DefaultID())
		cfg.DefaultCareer = careers.DefaultID()
	}

	registry := planner.NewRegistry(store, planner.Options{
		Careers:         careers,
		RefreshInterval: cfg.TimerRefreshInterval,
	})
	defer registry.Close()

	users := database.NewUserRepository()
	botConfig := bot.DefaultConfig()
	botConfig.AdminUserIDs = cfg.AdminUserIDs
	botConfig.DefaultCareer = cfg.DefaultCareer

	opts := bot.Options{
		Registry: registry,
		Users:    users,
		Careers:  careers,
		Config:   botConfig,
	}
	if cfg.StorageBackend == database.BackendRedis {
		opts.States = store
	}
	b, err := bot.New(cfg.TelegramToken, opts)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	if cfg.EnableScheduler {
		s := scheduler.New(b, users, registry, scheduler.Config{
			StartHour: cfg.NotificationStartHour,
			EndHour:   cfg.NotificationEndHour,
			Interval:  cfg.ReminderInterval,
		})
		if err := s.Start(ctx); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer s.Stop()
		b.SetScheduler(s)
	}

	done := make(chan struct{})

	go func() {
		sig := <-sigChan
		log.Printf("Received signal: %v", sig)
		cancel()
		b.Stop()
		close(done)
	}()

	log.Println("Bot started. Press Ctrl+C to stop.")
	go func() {
		if err := b.Start(ctx); err != nil && err != context.Canceled {
			log.Printf("Bot error: %v", err)
		}
	}()

	<-done
	log.Println("Bot stopped successfully")
}

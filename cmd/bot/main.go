// Command bot runs the Instagram downloader Telegram bot.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/plushpepe/instabot/core/broadcast"
	coreconfig "github.com/plushpepe/instabot/core/config"
	coredatabase "github.com/plushpepe/instabot/core/database"
	"github.com/plushpepe/instabot/core/fetch"
	"github.com/plushpepe/instabot/core/logger"
	"github.com/plushpepe/instabot/core/ratelimit"
	"github.com/plushpepe/instabot/core/screen"
	"github.com/plushpepe/instabot/core/session"
	"github.com/plushpepe/instabot/core/store"
	coretelegram "github.com/plushpepe/instabot/core/telegram"
	"github.com/plushpepe/instabot/core/telegram/handlers"
	"github.com/plushpepe/instabot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

const defaultConfigPath = "config.yaml"

func main() {
	if err := run(); err != nil {
		log.Fatalf("bot: %v", err)
	}
}

func run() error {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = defaultConfigPath
	}

	cfg, err := coreconfig.Load(cfgPath)
	if err != nil {
		return err
	}

	if err := logger.Init(logger.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Dir:    cfg.Logging.Dir,
		File:   cfg.Logging.File,
	}); err != nil {
		return err
	}
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()

	db, err := coredatabase.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := coredatabase.RunMigrations(cfg.Database); err != nil {
		return err
	}

	st := store.NewSQL(db)
	limiter := ratelimit.New(st, ratelimit.Policy{
		Cooldown:  time.Duration(cfg.RateLimit.CooldownSeconds) * time.Second,
		Window:    time.Duration(cfg.RateLimit.WindowSeconds) * time.Second,
		Threshold: cfg.RateLimit.HourlyThreshold,
		BlockFor:  time.Duration(cfg.RateLimit.BlockSeconds) * time.Second,
	})
	sessions := session.NewManager()
	fetcher := fetch.New(
		cfg.Fetcher.BaseURL,
		cfg.Fetcher.APIKey,
		time.Duration(cfg.Fetcher.TimeoutSeconds)*time.Second,
		coretelegram.BuildHTTPClient(),
	)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startedAt := time.Now()
	return coretelegram.Run(ctx, coretelegram.RunOptions{
		Config: cfg,
		Middlewares: []coretelegram.Middleware{
			{Name: "recover", Use: middleware.Recover},
			{Name: "logging", Use: middleware.Logging},
		},
		Setup: func(bot *tele.Bot, transport *coretelegram.Transport) error {
			screens := screen.NewManager(transport)
			caster := broadcast.New(coretelegram.NewCaster(transport), st)

			h := handlers.New(cfg, st, limiter, sessions, screens, fetcher, caster, bot)
			h.Register()

			logger.Info(ctx, "app", "app ready",
				slog.Duration("startup_duration", logger.Took(startedAt)),
			)
			return nil
		},
	})
}

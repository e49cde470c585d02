package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"darkroom/internal/config"
	"darkroom/internal/daemon"
	"darkroom/internal/dashboard"
	"darkroom/internal/journal"
	"darkroom/internal/logging"
	"darkroom/internal/notifications"
	"darkroom/internal/queue"
	"darkroom/internal/snapshot"
	"darkroom/internal/telegram"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store := snapshot.NewStore(cfg.SnapshotPath())
	engine := queue.New(store, cfg.Queue.Capacity, logger)

	jrnl, err := journal.Open(cfg.JournalPath())
	if err != nil {
		logger.Error("open audit journal", logging.Error(err))
		return
	}

	notifier := notifications.NewService(cfg)
	client := telegram.NewClient(cfg.Telegram.APIBaseURL, cfg.Telegram.BotToken)
	bot := telegram.NewBot(cfg, client, engine, jrnl, notifier, logger)
	dash := dashboard.NewServer(cfg, engine, client, jrnl, notifier, logger)

	d, err := daemon.New(cfg, engine, jrnl, notifier, bot, dash, logger)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("darkroomd shutting down")
	d.Stop()
}

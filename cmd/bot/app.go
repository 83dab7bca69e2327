package main

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/config"
	"github.com/namiferry/ferrybot/internal/bot"
	"github.com/namiferry/ferrybot/internal/clients/caldav"
	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/service"
	"github.com/namiferry/ferrybot/internal/storage"
)

// simulatedDelay mimics the round trip of a real Bot API call
const simulatedDelay = 300 * time.Millisecond

type app struct {
	cfg   *config.Config
	log   *zap.Logger
	store storage.Store
	sn    *storage.Snapshots
	live  *bot.LiveSender
	svc   bot.Services
}

func newApp(cfg *config.Config, log *zap.Logger) (*app, error) {
	store, err := storage.Open(cfg.StorageDriver, cfg.DatabasePath, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	sn := storage.NewSnapshots(store, log)

	a := &app{cfg: cfg, log: log, store: store, sn: sn}

	var sender service.Sender
	if cfg.IsLive() {
		a.live = bot.NewLiveSender(log)
		sender = a.live
	} else {
		sender = bot.NewSimulatedSender(log, simulatedDelay)
	}

	var clock service.Clock
	members := service.NewMemberService(sn, service.DefaultUsers(), clock, cfg.Timezone, log)
	ships := service.NewShipService(sn, service.DefaultShips())
	logs := service.NewLogService(sn, members, ships, clock, cfg.Timezone, log)
	tg := service.NewTelegramService(sn, members, sender, cfg.TelegramToken, log)
	calClient := caldav.NewClient(cfg.CalDAVURL, cfg.CalDAVUsername, cfg.CalDAVPassword, cfg.CalDAVCalendar)
	calendar := service.NewCalendarService(calClient, cfg.Timezone, log)

	members.OnDelete(func(ctx context.Context, id string) {
		if err := tg.RemoveRecipient(ctx, id); err != nil {
			log.Warn("Failed to drop deleted member from recipients", zap.String("user_id", id), zap.Error(err))
		}
	})
	logs.OnComplete(func(ctx context.Context, l domain.OperationLog) {
		if err := calendar.Publish(ctx, l); err != nil {
			log.Warn("Failed to publish voyage", zap.String("log_id", l.ID), zap.Error(err))
		}
		tg.Notify(ctx, logs.FormatCompleted(l))
	})

	a.svc = bot.Services{
		Members:   members,
		Ships:     ships,
		Logs:      logs,
		Dashboard: service.NewDashboardService(logs, ships, clock),
		Telegram:  tg,
		Session:   service.NewSession(members),
		Calendar:  calendar,
	}
	return a, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

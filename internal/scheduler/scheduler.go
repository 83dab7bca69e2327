package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/namiferry/ferrybot/config"
	"github.com/namiferry/ferrybot/internal/service"
)

// Notifier delivers a message to the selected Telegram recipients
type Notifier interface {
	Notify(ctx context.Context, text string)
}

type Scheduler struct {
	cron      *cron.Cron
	cfg       *config.Config
	dashboard *service.DashboardService
	logs      *service.LogService
	notifier  Notifier
	log       *zap.Logger
}

func New(cfg *config.Config, dashboard *service.DashboardService, logs *service.LogService, notifier Notifier, log *zap.Logger) *Scheduler {
	c := cron.New(cron.WithLocation(cfg.Timezone))

	return &Scheduler{
		cron:      c,
		cfg:       cfg,
		dashboard: dashboard,
		logs:      logs,
		notifier:  notifier,
		log:       log,
	}
}

// cronSpec turns "HH:MM" into a daily cron expression
func cronSpec(hhmm string) (string, error) {
	h, m, err := config.ParseClock(hhmm)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d %d * * *", m, h), nil
}

// Start registers the daily jobs and runs them until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	// Morning briefing
	morningSpec, err := cronSpec(s.cfg.MorningTime)
	if err != nil {
		return fmt.Errorf("parse morning time: %w", err)
	}
	if _, err := s.cron.AddFunc(morningSpec, func() { s.morningBriefing(ctx) }); err != nil {
		return fmt.Errorf("add morning briefing: %w", err)
	}

	// Evening check of voyages still out
	eveningSpec, err := cronSpec(s.cfg.EveningTime)
	if err != nil {
		return fmt.Errorf("parse evening time: %w", err)
	}
	if _, err := s.cron.AddFunc(eveningSpec, func() { s.eveningCheck(ctx) }); err != nil {
		return fmt.Errorf("add evening check: %w", err)
	}

	s.cron.Start()
	s.log.Info("Scheduler started",
		zap.String("tz", s.cfg.Timezone.String()),
		zap.String("morning", s.cfg.MorningTime),
		zap.String("evening", s.cfg.EveningTime))

	<-ctx.Done()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) morningBriefing(ctx context.Context) {
	s.notifier.Notify(ctx, s.BriefingText(ctx))
}

// BriefingText is the morning summary of the fleet
func (s *Scheduler) BriefingText(ctx context.Context) string {
	st := s.dashboard.Stats(ctx)

	text := "☀️ <b>좋은 아침입니다!</b>\n\n"
	text += fmt.Sprintf("🚢 선박 %d척 · 오늘 운항 %d건\n", st.TotalShips, st.TodayVoyages)
	if op := s.dashboard.OperatingLogs(ctx); len(op) > 0 {
		text += fmt.Sprintf("\n<b>운항중 %d척</b>\n", len(op))
		text += s.logs.FormatLogList(op)
	} else {
		text += "현재 운항중인 선박이 없습니다."
	}
	return text
}

func (s *Scheduler) eveningCheck(ctx context.Context) {
	text, ok := s.EveningText(ctx)
	if !ok {
		s.log.Debug("All voyages closed, evening check skipped")
		return
	}
	s.notifier.Notify(ctx, text)
}

// EveningText lists voyages that are still open. ok is false when there are none.
func (s *Scheduler) EveningText(ctx context.Context) (string, bool) {
	op := s.logs.Operating(ctx)
	if len(op) == 0 {
		return "", false
	}
	text := fmt.Sprintf("🌙 <b>도착 미기록 %d건</b>\n\n", len(op))
	text += s.logs.FormatLogList(op)
	text += "\n도착 시간을 입력해 운항일지를 완료해주세요."
	return text, true
}

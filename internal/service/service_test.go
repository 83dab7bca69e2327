package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/namiferry/ferrybot/internal/domain"
	"github.com/namiferry/ferrybot/internal/storage"
)

var kst = time.FixedZone("KST", 9*3600)

// 2026-03-01 10:00 in Seoul
var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, kst)

type sentMessage struct {
	Token  string
	ChatID int64
	Text   string
}

type fakeSender struct {
	mu      sync.Mutex
	sent    []sentMessage
	failFor map[int64]bool
}

func (f *fakeSender) Send(_ context.Context, token string, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failFor[chatID] {
		return errors.New("chat not found")
	}
	f.sent = append(f.sent, sentMessage{Token: token, ChatID: chatID, Text: text})
	return nil
}

func (f *fakeSender) Ping(_ context.Context, token string) (string, error) {
	if token == "bad" {
		return "", errors.New("unauthorized")
	}
	return "nami_ferry_bot", nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type testEnv struct {
	ctx       context.Context
	sn        *storage.Snapshots
	members   *MemberService
	ships     *ShipService
	logs      *LogService
	telegram  *TelegramService
	dashboard *DashboardService
	session   *Session
	sender    *fakeSender
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		ctx:    context.Background(),
		sn:     storage.NewSnapshots(storage.NewMemStore(), nil),
		sender: &fakeSender{},
		now:    fixedNow,
	}
	clock := Clock(func() time.Time { return env.now })

	env.members = NewMemberService(env.sn, DefaultUsers(), clock, kst, nil)
	env.ships = NewShipService(env.sn, DefaultShips())
	env.logs = NewLogService(env.sn, env.members, env.ships, clock, kst, nil)
	env.telegram = NewTelegramService(env.sn, env.members, env.sender, "", nil)
	env.dashboard = NewDashboardService(env.logs, env.ships, clock)
	env.session = NewSession(env.members)
	env.members.OnDelete(func(ctx context.Context, id string) {
		_ = env.telegram.RemoveRecipient(ctx, id)
	})
	return env
}

func (e *testEnv) user(t *testing.T, id string) domain.User {
	t.Helper()
	u, err := e.members.Get(e.ctx, id)
	if err != nil {
		t.Fatalf("get user %s: %v", id, err)
	}
	return *u
}

func ptr[T any](v T) *T { return &v }

package billing

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"linkhub/internal/customdomain"
	"linkhub/internal/eventbus"
	"linkhub/internal/graceperiod"
	"linkhub/internal/model"
	"linkhub/internal/notification"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(&model.CustomDomain{}, &model.GracePeriod{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

type fakeNotifier struct {
	mu    sync.Mutex
	sends []string
}

func (f *fakeNotifier) Send(_ context.Context, template, recipient string, _ map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sends = append(f.sends, template+" "+recipient)
	return nil
}

func (f *fakeNotifier) sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sends...)
}

func newTestHandlers(t *testing.T) (*Handlers, *gorm.DB, *fakeNotifier) {
	t.Helper()
	db := openTestDB(t)
	domains := customdomain.NewService(db, nil, nil, testLogger(), "edge.linkhub.app")
	gracePeriods := graceperiod.NewService(db, domains, testLogger(), 7)
	notifier := &fakeNotifier{}
	return NewHandlers(gracePeriods, domains, notifier, testLogger()), db, notifier
}

func TestOnSubscriptionCanceled(t *testing.T) {
	h, db, notifier := newTestHandlers(t)

	h.onSubscriptionCanceled(context.Background(), SubscriptionCanceled{
		UserID: 1, Email: "alice@example.com", FirstName: "Alice",
	})

	var gp model.GracePeriod
	if err := db.Where("user_id = ?", 1).First(&gp).Error; err != nil {
		t.Fatalf("no grace period created: %v", err)
	}
	if !gp.Pending() {
		t.Error("grace period not pending")
	}
	wantEnd := time.Now().Add(7 * 24 * time.Hour)
	if diff := gp.GracePeriodEndsAt.Sub(wantEnd); diff < -time.Minute || diff > time.Minute {
		t.Errorf("deadline = %v, want about %v", gp.GracePeriodEndsAt, wantEnd)
	}

	sends := notifier.sent()
	if len(sends) != 1 || !strings.HasPrefix(sends[0], notification.TemplateSubscriptionCanceled) {
		t.Errorf("notifications = %v, want one %s", sends, notification.TemplateSubscriptionCanceled)
	}
}

func TestOnSubscriptionActivated(t *testing.T) {
	t.Run("within grace period", func(t *testing.T) {
		h, db, notifier := newTestHandlers(t)

		domain := model.CustomDomain{
			Domain: "links.alice.com", UserID: 1,
			VerificationPhase: model.PhaseEdgeSSL, IsEnabled: false,
		}
		if err := db.Create(&domain).Error; err != nil {
			t.Fatalf("seed: %v", err)
		}
		h.onSubscriptionCanceled(context.Background(), SubscriptionCanceled{
			UserID: 1, Email: "alice@example.com", FirstName: "Alice",
		})

		h.onSubscriptionActivated(context.Background(), SubscriptionActivated{
			UserID: 1, Email: "alice@example.com", FirstName: "Alice",
		})

		var stored model.CustomDomain
		db.First(&stored, domain.ID)
		if !stored.IsEnabled {
			t.Error("domain not re-enabled on reactivation")
		}

		var count int64
		db.Model(&model.GracePeriod{}).Where("user_id = ?", 1).Count(&count)
		if count != 0 {
			t.Errorf("grace period not cleared, %d records remain", count)
		}

		sends := notifier.sent()
		if len(sends) != 2 || !strings.HasPrefix(sends[1], notification.TemplateSubscriptionReactivated) {
			t.Errorf("notifications = %v, want canceled then reactivated", sends)
		}
	})

	t.Run("first-time subscriber", func(t *testing.T) {
		h, _, notifier := newTestHandlers(t)

		h.onSubscriptionActivated(context.Background(), SubscriptionActivated{
			UserID: 2, Email: "bob@example.com", FirstName: "Bob",
		})

		// No grace period was pending, so no welcome-back email
		if sends := notifier.sent(); len(sends) != 0 {
			t.Errorf("notifications = %v, want none", sends)
		}
	})
}

func TestSubscriptionLifecycleViaBus(t *testing.T) {
	h, db, _ := newTestHandlers(t)

	bus := eventbus.New(10, testLogger())
	h.Register(bus)

	ctx := context.Background()
	if err := bus.Emit(ctx, SubscriptionCanceled{UserID: 1, Email: "alice@example.com"}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	if err := bus.Emit(ctx, SubscriptionActivated{UserID: 1, Email: "alice@example.com"}); err != nil {
		t.Fatalf("Emit() error = %v", err)
	}
	bus.Close()

	// Reactivation arrived before the deadline: the grace period is gone and
	// nothing is left for the expiry scheduler to pick up
	var count int64
	db.Model(&model.GracePeriod{}).Where("user_id = ?", 1).Count(&count)
	if count != 0 {
		t.Errorf("%d grace periods remain after reactivation, want 0", count)
	}
}

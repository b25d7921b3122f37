package graceperiod

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"linkhub/internal/model"
	"linkhub/internal/notification"
)

// schedulerLeaseKey is the redis key used to elect one instance per tick
const schedulerLeaseKey = "linkhub:grace-expiry:lease"

// SchedulerConfig holds configuration for the expiry scheduler
type SchedulerConfig struct {
	Enabled     bool
	IntervalSec int
	BatchSize   int
}

// Scheduler periodically scans for due grace periods, disables the owning
// user's domains and notifies them. Items are processed independently: a
// failure on one record is logged and the rest of the batch continues.
// Failed records stay unprocessed and are retried on the next tick
// (at-least-once semantics).
type Scheduler struct {
	service  *Service
	notifier notification.Notifier
	redis    *redis.Client // optional, nil disables the cross-instance lease
	config   SchedulerConfig
	logger   *logrus.Entry
	stopCh   chan struct{}
	mu       sync.Mutex
}

// NewScheduler creates a new expiry scheduler
func NewScheduler(service *Service, notifier notification.Notifier, redisClient *redis.Client, config SchedulerConfig, logger *logrus.Entry) *Scheduler {
	return &Scheduler{
		service:  service,
		notifier: notifier,
		redis:    redisClient,
		config:   config,
		logger:   logger.WithField("component", "grace-expiry-scheduler"),
		stopCh:   make(chan struct{}),
	}
}

// Start starts the scheduler loop
func (s *Scheduler) Start() {
	if !s.config.Enabled {
		s.logger.Info("Disabled, not starting")
		return
	}

	s.logger.Infof("Starting with interval=%ds, batch_size=%d",
		s.config.IntervalSec, s.config.BatchSize)

	go s.run()
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping...")
	close(s.stopCh)
}

// run is the main scheduler loop
func (s *Scheduler) run() {
	ticker := time.NewTicker(time.Duration(s.config.IntervalSec) * time.Second)
	defer ticker.Stop()

	// Run immediately on start
	s.Tick()

	for {
		select {
		case <-ticker.C:
			s.Tick()
		case <-s.stopCh:
			s.logger.Info("Stopped")
			return
		}
	}
}

// Tick processes one batch of due grace periods. A tick that is still
// running when the next one is due makes the new tick a no-op (skip, not
// overlap); the same applies across instances via the redis lease.
func (s *Scheduler) Tick() {
	if !s.mu.TryLock() {
		s.logger.Warn("Previous tick still running, skipping")
		return
	}
	defer s.mu.Unlock()

	ctx := context.Background()

	if !s.acquireLease(ctx) {
		s.logger.Info("Lease held by another instance, skipping tick")
		return
	}

	records, err := s.service.DuePending(s.config.BatchSize)
	if err != nil {
		s.logger.Errorf("Failed to query due grace periods: %v", err)
		return
	}

	if len(records) == 0 {
		return
	}

	s.logger.Infof("Processing %d due grace periods", len(records))

	processed := 0
	for i := range records {
		if s.processRecord(ctx, &records[i]) {
			processed++
		}
	}

	s.logger.Infof("Tick done: due=%d, processed=%d, failed=%d",
		len(records), processed, len(records)-processed)
}

// processRecord handles a single grace period. Returns false on failure;
// the record then stays pending and is retried next tick.
func (s *Scheduler) processRecord(ctx context.Context, gp *model.GracePeriod) bool {
	if err := s.service.DisableDomainsAndMarkProcessed(gp); err != nil {
		s.logger.Errorf("Grace period %d (user %d): %v", gp.ID, gp.UserID, err)
		return false
	}

	vars := map[string]string{"first_name": gp.FirstName}
	if err := s.notifier.Send(ctx, notification.TemplateDomainsDisabled, gp.Email, vars); err != nil {
		// The domains are already disabled and the record marked; losing
		// the notification is preferable to re-mailing on every retry.
		s.logger.Errorf("Grace period %d: notification failed: %v", gp.ID, err)
	}

	return true
}

// acquireLease claims the per-tick lease when redis is configured. Without
// redis (single instance, tests) the in-process lock is enough.
func (s *Scheduler) acquireLease(ctx context.Context) bool {
	if s.redis == nil {
		return true
	}

	ttl := time.Duration(s.config.IntervalSec) * time.Second
	ok, err := s.redis.SetNX(ctx, schedulerLeaseKey, "1", ttl).Result()
	if err != nil {
		s.logger.Warnf("Lease check failed, proceeding without it: %v", err)
		return true
	}
	return ok
}

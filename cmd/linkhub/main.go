package main

import (
	"log"
	"os"

	v1 "linkhub/api/v1"
	"linkhub/internal/auth"
	"linkhub/internal/billing"
	"linkhub/internal/cache"
	"linkhub/internal/config"
	"linkhub/internal/customdomain"
	"linkhub/internal/db"
	"linkhub/internal/dnslookup"
	"linkhub/internal/edge/cloudflare"
	"linkhub/internal/eventbus"
	"linkhub/internal/graceperiod"
	"linkhub/internal/notification"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		os.Exit(1)
	}
	log.Println("✓ Configuration loaded")

	// 2. Initialize MySQL
	if err := db.InitMySQL(cfg.MySQL.DSN); err != nil {
		log.Fatalf("Failed to initialize MySQL: %v", err)
		os.Exit(1)
	}
	defer db.Close()

	if cfg.Migrate {
		if err := db.Migrate(db.DB); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}

	// 3. Initialize Redis
	if err := cache.InitRedis(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
		os.Exit(1)
	}
	defer cache.Close()

	// 4. Initialize JWT
	auth.InitJWT(cfg.JWT.Secret)

	logger := logrus.NewEntry(logrus.StandardLogger())

	// 5. Notifier: Postmark when configured, log-only otherwise
	var notifier notification.Notifier
	if cfg.Postmark.ServerToken != "" {
		notifier, err = notification.NewPostmarkNotifier(notification.PostmarkConfig{
			ServerToken:  cfg.Postmark.ServerToken,
			AccountToken: cfg.Postmark.AccountToken,
			FromEmail:    cfg.Postmark.FromEmail,
		})
		if err != nil {
			log.Fatalf("Failed to initialize Postmark: %v", err)
			os.Exit(1)
		}
		log.Println("✓ Postmark notifier configured")
	} else {
		notifier = notification.NewLogNotifier(logger)
		log.Println("✓ Log-only notifier configured (no Postmark tokens)")
	}

	// 6. Domain verification services
	provider := cloudflare.NewProvider(cfg.Edge.ZoneID, cfg.Edge.Email, cfg.Edge.APIToken)
	domainService := customdomain.NewService(db.DB, dnslookup.NewNetResolver(), provider, logger, cfg.Edge.CNAMETarget)
	gracePeriodService := graceperiod.NewService(db.DB, domainService, logger, cfg.GracePeriod.Days)

	// 7. Billing events
	bus := eventbus.New(eventbus.DefaultBufferSize, logger)
	defer bus.Close()
	billing.NewHandlers(gracePeriodService, domainService, notifier, logger).Register(bus)

	// 8. Grace period expiry scheduler
	scheduler := graceperiod.NewScheduler(gracePeriodService, notifier, cache.Client, graceperiod.SchedulerConfig{
		Enabled:     cfg.ExpiryScheduler.Enabled,
		IntervalSec: cfg.ExpiryScheduler.IntervalSec,
		BatchSize:   cfg.ExpiryScheduler.BatchSize,
	}, logger)
	scheduler.Start()
	defer scheduler.Stop()

	// 9. Initialize Gin router
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	// Setup API v1 routes
	v1.SetupRouter(r, db.DB, cfg, domainService)

	log.Printf("✓ Server starting on %s", cfg.HTTPAddr)

	// Start server
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
		os.Exit(1)
	}
}

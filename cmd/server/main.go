package main

import (
	"context"
	"database/sql"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"bloodbank/internal/audit"
	"bloodbank/internal/donation"
	"bloodbank/internal/eligibility"
	"bloodbank/internal/inventory"
	"bloodbank/internal/ledger"
	"bloodbank/internal/platform/config"
	"bloodbank/internal/platform/httpserver"
	"bloodbank/internal/platform/logger"
	"bloodbank/internal/platform/metrics"
	platformredis "bloodbank/internal/platform/redis"
	"bloodbank/internal/profile"
	"bloodbank/internal/request"
	httptransport "bloodbank/internal/transport/http"
	"bloodbank/pkg/platform/middleware/auth"
	txrunner "bloodbank/pkg/platform/tx"
)

// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal services packages. Without a
// DATABASE_URL the process runs fully in memory, which is what the tests and
// local development use.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	m := metrics.New()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		led          ledger.Ledger
		donationStor donation.Store
		requestStor  request.Store
		profileStor  profile.Store
		auditStor    audit.Store
		donationTx   donation.Tx
		requestTx    request.Tx
	)

	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.Error("open database", "error", err)
			return
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("ping database", "error", err)
			return
		}

		pgLedger := ledger.NewPostgresLedger(db)
		if err := pgLedger.Seed(ctx); err != nil {
			log.Error("seed inventory", "error", err)
			return
		}
		led = pgLedger
		donationStor = donation.NewPostgresStore(db)
		requestStor = request.NewPostgresStore(db)
		profileStor = profile.NewPostgresStore(db)
		auditStor = audit.NewPostgresStore(db)
		runner := txrunner.NewRunner(db)
		donationTx, requestTx = runner, runner
		log.Info("using postgres storage")
	} else {
		led = ledger.NewInMemoryLedger()
		donationStor = donation.NewInMemoryStore()
		requestStor = request.NewInMemoryStore()
		profileStor = profile.NewInMemoryStore()
		auditStor = audit.NewInMemoryStore()
		donationTx = donation.NewShardedTx()
		requestTx = request.NewShardedTx()
		log.Info("using in-memory storage")
	}

	// The cache fronts only the dashboard and stock reads. Processors keep
	// the authoritative ledger so no Redis call runs inside their
	// transactions.
	inventoryLed := led
	rdb, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		return
	}
	if rdb != nil {
		defer rdb.Close()
		inventoryLed = ledger.NewCachedLedger(led, rdb.Client, cfg.StockCacheTTL, log)
		log.Info("stock cache enabled")
	}

	group, groupCtx := errgroup.WithContext(ctx)

	auditPublisher := audit.NewPublisher(auditStor)
	if len(cfg.KafkaBrokers) > 0 {
		sink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			return
		}
		defer sink.Close()
		relay := make(chan audit.Event, 256)
		auditPublisher = auditPublisher.WithRelay(relay)
		worker := audit.NewWorker(sink, relay, log)
		group.Go(func() error {
			err := worker.Run(groupCtx)
			if err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
		log.Info("audit stream enabled", "topic", cfg.AuditTopic)
	}

	donationSvc, err := donation.New(donationStor, led, donationTx,
		donation.WithLogger(log),
		donation.WithAuditPublisher(auditPublisher),
		donation.WithMetrics(m),
		donation.WithCooldownDays(cfg.CooldownDays),
		donation.WithMaxUnits(cfg.MaxUnitsPerDonation),
	)
	if err != nil {
		log.Error("build donation service", "error", err)
		return
	}
	requestSvc, err := request.New(requestStor, led, requestTx,
		request.WithLogger(log),
		request.WithAuditPublisher(auditPublisher),
		request.WithMetrics(m),
		request.WithMaxUnits(cfg.MaxUnitsPerRequest),
	)
	if err != nil {
		log.Error("build request service", "error", err)
		return
	}
	inventorySvc, err := inventory.New(inventoryLed,
		inventory.WithLogger(log),
		inventory.WithAuditPublisher(auditPublisher),
		inventory.WithMetrics(m),
	)
	if err != nil {
		log.Error("build inventory service", "error", err)
		return
	}
	eligibilitySvc, err := eligibility.New(donationStor,
		eligibility.WithCooldownDays(cfg.CooldownDays),
	)
	if err != nil {
		log.Error("build eligibility service", "error", err)
		return
	}

	handler := httptransport.NewHandler(
		donationSvc, requestSvc, inventorySvc, eligibilitySvc,
		auditPublisher, profileStor, log,
	)
	validator := auth.NewValidator(cfg.JWTSigningKey)
	router := httptransport.NewRouter(handler, validator, log)
	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting bloodbank server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
	}
}

package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/twmb/franz-go/pkg/kgo"

	alertdetector "insighthub/internal/alert/detector"
	alerthandler "insighthub/internal/alert/handler"
	alertmetrics "insighthub/internal/alert/metrics"
	alertservice "insighthub/internal/alert/service"
	alertstore "insighthub/internal/alert/store"
	audithandler "insighthub/internal/audit/handler"
	auditmetrics "insighthub/internal/audit/metrics"
	auditservice "insighthub/internal/audit/service"
	auditstore "insighthub/internal/audit/store"
	"insighthub/internal/audit/stream"
	exechandler "insighthub/internal/execution/handler"
	execmetrics "insighthub/internal/execution/metrics"
	execservice "insighthub/internal/execution/service"
	insightgen "insighthub/internal/insight/generator"
	insighthandler "insighthub/internal/insight/handler"
	insightmetrics "insighthub/internal/insight/metrics"
	insightservice "insighthub/internal/insight/service"
	insightstore "insighthub/internal/insight/store"
	jwttoken "insighthub/internal/jwt_token"
	"insighthub/internal/platform/config"
	"insighthub/internal/platform/metrics"
	platformnats "insighthub/internal/platform/nats"
	"insighthub/internal/platform/postgres"
	platformredis "insighthub/internal/platform/redis"
	playbookhandler "insighthub/internal/playbook/handler"
	playbookservice "insighthub/internal/playbook/service"
	playbookstore "insighthub/internal/playbook/store"
	segmenthandler "insighthub/internal/segment/handler"
	segmentservice "insighthub/internal/segment/service"
	segmentstore "insighthub/internal/segment/store"
	httptransport "insighthub/internal/transport/http"
	"insighthub/internal/warehouse"
	"insighthub/migrations"
	"insighthub/pkg/platform/sentinel"
	"insighthub/pkg/platform/snapshot"
	"insighthub/pkg/platform/tx"
)

type buildOptions struct {
	migrate bool
	seed    bool
}

type app struct {
	router  http.Handler
	closers []func()
	workers sync.WaitGroup
	cancel  context.CancelFunc
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// drain stops background workers and waits for their queues to flush.
func (a *app) drain(ctx context.Context) {
	a.cancel()
	done := make(chan struct{})
	go func() {
		a.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// abort unwinds a partially built app: workers stop first so nothing
// publishes through a client that is about to close.
func (a *app) abort() {
	a.cancel()
	a.workers.Wait()
	a.close()
}

// offlineWarehouse stands in when no warehouse is configured. Executions
// still produce FAILED audit records.
type offlineWarehouse struct{}

func (offlineWarehouse) RunQuery(context.Context, string, ...any) (*warehouse.ResultSet, error) {
	return nil, fmt.Errorf("warehouse not configured: %w", sentinel.ErrUnavailable)
}

func build(ctx context.Context, cfg config.Config, log *slog.Logger, opts buildOptions) (_ *app, err error) {
	workerCtx, cancel := context.WithCancel(context.Background())
	a := &app{cancel: cancel}
	defer func() {
		if err != nil {
			a.abort()
		}
	}()
	health := map[string]httptransport.HealthCheck{}

	var db *sql.DB
	if cfg.Database.URL != "" {
		db, err = postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = db.Close() })
		health["postgres"] = db.PingContext
		if opts.migrate {
			if err := migrations.Apply(ctx, db); err != nil {
				return nil, err
			}
			log.Info("migrations applied")
		}
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	whDB := db
	if cfg.Warehouse.URL != "" && cfg.Warehouse.URL != cfg.Database.URL {
		whDB, err = postgres.Open(ctx, cfg.Warehouse.URL, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { _ = whDB.Close() })
		health["warehouse"] = whDB.PingContext
	}

	rc, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	if rc != nil {
		a.closers = append(a.closers, func() { _ = rc.Close() })
		health["redis"] = rc.Health
	}
	newCache := func(prefix string, ttl time.Duration) snapshot.Cache {
		if rc != nil {
			return rc.Snapshots(prefix, ttl)
		}
		return snapshot.NewLocal(64, ttl)
	}

	// Playbooks
	var playbookBase interface {
		playbookstore.Store
		playbookstore.Saver
	}
	if db != nil {
		playbookBase = playbookstore.NewPostgres(db)
	} else {
		playbookBase = playbookstore.NewInMemory()
	}
	if db == nil || opts.seed {
		catalog, err := playbookstore.LoadCatalogFile(cfg.Governance.PlaybookSeedFile)
		if err != nil {
			return nil, err
		}
		var txr playbookstore.Transactor
		if db != nil {
			txr = tx.NewRunner(db)
		}
		if err := playbookstore.SeedCatalog(ctx, txr, playbookBase, catalog); err != nil {
			return nil, err
		}
		log.Info("playbook catalog seeded", "count", len(catalog))
	}
	playbooks := playbookservice.New(
		playbookstore.NewCached(playbookBase, cfg.Cache.PlaybookSize, cfg.Cache.PlaybookTTL),
		playbookservice.WithLogger(log),
	)

	// Audit ledger and its optional compliance mirror
	var ledger auditservice.Store
	if db != nil {
		ledger = auditstore.NewPostgres(db)
	} else {
		ledger = auditstore.NewInMemory()
	}
	auditMetrics := auditmetrics.New()
	auditOpts := []auditservice.Option{
		auditservice.WithLogger(log),
		auditservice.WithMetrics(auditMetrics),
		auditservice.WithPageLimit(cfg.Governance.AuditPageLimit, 1000),
	}
	if len(cfg.Kafka.Brokers) > 0 {
		kc, err := stream.NewClient(cfg.Kafka.Brokers, cfg.Kafka.AuditTopic)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, kc.Close)
		if err := stream.EnsureTopic(ctx, kc, cfg.Kafka.AuditTopic, 3, 1); err != nil {
			log.Warn("could not ensure audit topic", "topic", cfg.Kafka.AuditTopic, "error", err)
		}
		health["kafka"] = func(ctx context.Context) error { return pingKafka(ctx, kc) }

		worker := stream.NewWorker(kc, stream.WithLogger(log), stream.WithMetrics(auditMetrics))
		a.workers.Add(1)
		go func() {
			defer a.workers.Done()
			_ = worker.Run(workerCtx)
		}()
		auditOpts = append(auditOpts, auditservice.WithMirror(worker))
	}
	audit := auditservice.New(ledger, auditOpts...)

	// Execution gateway
	var runner execservice.QueryRunner = offlineWarehouse{}
	var wh *warehouse.Client
	if whDB != nil {
		wh = warehouse.New(whDB)
		runner = wh
	} else {
		log.Warn("no warehouse configured, playbook executions will fail")
	}
	gateway := execservice.New(playbooks, runner, audit,
		execservice.WithLogger(log),
		execservice.WithMetrics(execmetrics.New()),
		execservice.WithDefaultOrganization(cfg.Governance.DefaultOrganization),
	)

	// Alerts
	var alerts alertservice.Store
	if db != nil {
		alerts = alertstore.NewPostgres(db)
	} else {
		alerts = alertstore.NewInMemory()
	}
	alertOpts := []alertservice.Option{
		alertservice.WithLogger(log),
		alertservice.WithMetrics(alertmetrics.New()),
	}
	nc, err := platformnats.Connect(cfg.NATS.URL, log)
	if err != nil {
		return nil, err
	}
	switch {
	case nc != nil:
		a.closers = append(a.closers, nc.Close)
		health["nats"] = natsHealth(nc)
		alertOpts = append(alertOpts, alertservice.WithDetector(
			alertdetector.NewNATSDetector(nc, cfg.NATS.DetectSubject, cfg.NATS.DetectTimeout)))
	case wh != nil:
		alertOpts = append(alertOpts, alertservice.WithDetector(
			alertdetector.NewProcedureDetector(wh, cfg.Warehouse.DetectProcedure)))
	}
	alertSvc := alertservice.New(alerts, alertOpts...)

	// Insights
	var insightBase insightstore.Store
	if db != nil {
		insightBase = insightstore.NewPostgres(db)
	} else {
		insightBase = insightstore.NewInMemory()
	}
	insightMetrics := insightmetrics.New()
	insightOpts := []insightservice.Option{
		insightservice.WithLogger(log),
		insightservice.WithMetrics(insightMetrics),
	}
	if whDB != nil {
		explainer, err := warehouse.NewExplainer(whDB, cfg.Warehouse.ExplainFunction)
		if err != nil {
			return nil, err
		}
		insightOpts = append(insightOpts,
			insightservice.WithGenerator(insightgen.New(explainer,
				insightgen.WithFailureThreshold(cfg.Warehouse.BreakerThreshold),
				insightgen.WithOpenTimeout(cfg.Warehouse.BreakerTimeout),
				insightgen.WithStateChange(func(from, to string) {
					insightMetrics.BreakerTransition(from, to)
					log.Warn("explanation breaker state changed", "from", from, "to", to)
				}),
			)),
			insightservice.WithBatchProcedure(wh, cfg.Warehouse.GenerateAllProc),
		)
	}
	insights := insightservice.New(
		insightstore.NewCached(insightBase, newCache("insights", cfg.Cache.InsightTTL), log),
		insightOpts...,
	)

	// Segments
	var segmentBase segmentservice.Store
	if db != nil {
		segmentBase = segmentstore.NewPostgres(db)
	} else {
		segmentBase = segmentstore.NewInMemory()
	}
	segments := segmentservice.New(segmentBase,
		segmentservice.WithLogger(log),
		segmentservice.WithCache(newCache("segments", cfg.Cache.SegmentTTL)),
	)

	a.router = httptransport.NewRouter(httptransport.Config{
		Logger:         log,
		Metrics:        metrics.New(),
		Validator:      jwttoken.NewJWTService(cfg.Server.JWTSigningKey, "insighthub"),
		RequestTimeout: cfg.Server.RequestTimeout,
		Health:         health,
	},
		playbookhandler.New(playbooks, log),
		exechandler.New(gateway, log),
		audithandler.New(audit, log),
		alerthandler.New(alertSvc, log),
		insighthandler.New(insights, log),
		segmenthandler.New(segments, log),
	)
	return a, nil
}

func pingKafka(ctx context.Context, kc *kgo.Client) error {
	return kc.Ping(ctx)
}

func natsHealth(nc *nats.Conn) httptransport.HealthCheck {
	return func(context.Context) error {
		if !nc.IsConnected() {
			return fmt.Errorf("nats status %s", nc.Status())
		}
		return nil
	}
}

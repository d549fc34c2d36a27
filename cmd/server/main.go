// Command server runs the CampusLink identity core: account signup and login,
// admission-backed verification, the review queue, and the deadline sweep.
//
// All backing services are optional. Without a database URL the stores run in
// memory, without Redis the OTP challenges do too, and without Kafka seeds
// audit events and notifications stay in-process. That keeps local
// development a single binary.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	admissionhandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/handler"
	admissionmetrics "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/metrics"
	admissionservice "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/service"
	admissionstore "github.com/Faheem-Musthafa/CampusLink-sub000/internal/admission/store"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/auth/token"
	httpapi "github.com/Faheem-Musthafa/CampusLink-sub000/internal/http"
	lifecyclehandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/lifecycle/handler"
	lifecyclemetrics "github.com/Faheem-Musthafa/CampusLink-sub000/internal/lifecycle/metrics"
	lifecycleservice "github.com/Faheem-Musthafa/CampusLink-sub000/internal/lifecycle/service"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/notification"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/platform/config"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/platform/httpserver"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/platform/logger"
	platformredis "github.com/Faheem-Musthafa/CampusLink-sub000/internal/platform/redis"
	principalhandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/handler"
	principalservice "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/service"
	principalstore "github.com/Faheem-Musthafa/CampusLink-sub000/internal/principal/store"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/evidence"
	verificationhandler "github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/handler"
	verificationmetrics "github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/metrics"
	"github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/otp"
	verificationservice "github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/service"
	verificationstore "github.com/Faheem-Musthafa/CampusLink-sub000/internal/verification/store"
	"github.com/Faheem-Musthafa/CampusLink-sub000/pkg/platform/audit"
)

const (
	tokenIssuer = "campuslink"
	tokenTTL    = 24 * time.Hour

	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "server exited:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when configured, in-memory otherwise.
	var (
		principals = principalstore.Store(principalstore.NewInMemory())
		admissions = admissionstore.Store(admissionstore.NewInMemory())
		requests   = verificationstore.Store(verificationstore.NewInMemory())
	)
	if cfg.DatabaseURL != "" {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			return fmt.Errorf("ping database: %w", err)
		}
		principals = principalstore.NewPostgres(db)
		admissions = admissionstore.NewPostgres(db)
		requests = verificationstore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		log.Warn("no database configured, state is in-memory and volatile")
	}

	// OTP challenges: Redis when configured so codes survive restarts.
	otpStore := otp.Store(otp.NewMemoryStore())
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		otpStore = otp.NewRedisStore(redisClient)
		log.Info("using redis OTP store")
	}

	// Audit and notification sinks: Kafka when configured.
	auditStore := audit.Store(audit.NewInMemoryStore())
	notifier := notification.Notifier(notification.NewLogNotifier(log))
	if len(cfg.Kafka.Seeds) > 0 {
		kafkaAudit, err := audit.NewKafkaStore(cfg.Kafka.Seeds, cfg.Kafka.AuditTopic)
		if err != nil {
			return fmt.Errorf("connect kafka audit sink: %w", err)
		}
		defer kafkaAudit.Close()
		auditStore = kafkaAudit

		kafkaNotifier, err := notification.NewKafkaNotifier(cfg.Kafka.Seeds, cfg.Kafka.NotificationTopic)
		if err != nil {
			return fmt.Errorf("connect kafka notification sink: %w", err)
		}
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
		log.Info("using kafka sinks", "seeds", cfg.Kafka.Seeds)
	}
	auditPublisher := audit.NewPublisher(auditStore)

	tokens := token.NewService(cfg.JWTSigningKey, tokenIssuer, tokenTTL)

	admissionSvc, err := admissionservice.New(admissions,
		admissionservice.WithLogger(log),
		admissionservice.WithMetrics(admissionmetrics.New()),
		admissionservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("build admission service: %w", err)
	}

	otpSvc, err := otp.New(otpStore, otp.NewLogSender(log), otp.WithLogger(log))
	if err != nil {
		return fmt.Errorf("build otp service: %w", err)
	}

	verificationSvc, err := verificationservice.New(admissionSvc, requests, principals, otpSvc,
		verificationservice.WithLogger(log),
		verificationservice.WithMetrics(verificationmetrics.New()),
		verificationservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("build verification service: %w", err)
	}

	deadline := time.Duration(cfg.Verification.DeadlineDays) * 24 * time.Hour
	principalSvc, err := principalservice.New(principals, tokens, deadline,
		principalservice.WithLogger(log),
		principalservice.WithAuditPublisher(auditPublisher),
	)
	if err != nil {
		return fmt.Errorf("build principal service: %w", err)
	}

	lifecycleSvc, err := lifecycleservice.New(principals, notifier,
		lifecycleservice.WithLogger(log),
		lifecycleservice.WithMetrics(lifecyclemetrics.New()),
		lifecycleservice.WithAuditPublisher(auditPublisher),
		lifecycleservice.WithWarningWindow(cfg.Lifecycle.WarningWindow),
	)
	if err != nil {
		return fmt.Errorf("build lifecycle service: %w", err)
	}

	runner := lifecycleservice.NewRunner(lifecycleSvc, cfg.Lifecycle.SweepSchedule, log)
	if err := runner.Start(); err != nil {
		return fmt.Errorf("start lifecycle runner: %w", err)
	}
	defer runner.Stop()

	evidenceStore, err := evidence.NewLocalStore(cfg.Evidence.Dir, cfg.Evidence.BaseURL)
	if err != nil {
		return fmt.Errorf("build evidence store: %w", err)
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Tokens:       tokens,
		Principal:    principalhandler.New(principalSvc, log),
		Verification: verificationhandler.New(verificationSvc, evidenceStore, log),
		Admission:    admissionhandler.New(admissionSvc, log),
		Lifecycle:    lifecyclehandler.New(lifecycleSvc, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

package main

import (
	"context"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/stacklane/saasbase/internal/audit"
	"github.com/stacklane/saasbase/internal/config"
	"github.com/stacklane/saasbase/internal/database"
	"github.com/stacklane/saasbase/internal/mail"
	"github.com/stacklane/saasbase/internal/metrics"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/notification"
	"github.com/stacklane/saasbase/internal/queue"
	"github.com/stacklane/saasbase/internal/queue/workers"
	"github.com/stacklane/saasbase/internal/subscription"
	"github.com/stacklane/saasbase/internal/tenant"
	"github.com/stacklane/saasbase/internal/user"
)

// billingDirectory glues the billing worker's lookups onto the stores.
type billingDirectory struct {
	tenants *tenant.PostgresStore
	users   *user.PostgresStore
	subs    *subscription.PostgresStore
}

func (d billingDirectory) GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error) {
	return d.tenants.GetByID(ctx, id)
}

func (d billingDirectory) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return d.users.GetByID(ctx, id)
}

func (d billingDirectory) GetSubscription(ctx context.Context, tenantID uuid.UUID) (*models.Subscription, error) {
	return d.subs.GetByTenant(ctx, tenantID)
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := database.NewPool(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	mailer, err := mail.NewMailer(cfg.Mail)
	if err != nil {
		slog.Error("failed to build mailer", "error", err)
		os.Exit(1)
	}

	qc := queue.NewClient(cfg.Redis)
	defer qc.Close()

	m := metrics.New()

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				queue.QueueEmail:        3,
				queue.QueueBilling:      3,
				queue.QueueNotification: 2,
				queue.QueueAuditLog:     2,
			},
			// Exponential backoff from a 2s base: 2s, 4s, 8s.
			RetryDelayFunc: func(n int, err error, t *asynq.Task) time.Duration {
				return time.Duration(math.Pow(2, float64(n))) * time.Second
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				m.JobsFailedTotal.WithLabelValues(task.Type()).Inc()
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				if retried >= maxRetry {
					slog.Error("job failed permanently", "type", task.Type(), "error", err, "retries", retried)
					return
				}
				slog.Warn("job failed, will retry", "type", task.Type(), "error", err, "attempt", retried+1)
			}),
		},
	)

	registry := queue.NewHandlersRegistry()

	// Register workers
	workers.NewEmailWorker(mailer).Register(registry)
	workers.NewNotificationWorker(notification.NewService(notification.NewPostgresStore(db))).Register(registry)
	workers.NewAuditWorker(audit.NewService(audit.NewPostgresStore(db))).Register(registry)
	workers.NewBillingWorker(billingDirectory{
		tenants: tenant.NewPostgresStore(db),
		users:   user.NewPostgresStore(db),
		subs:    subscription.NewPostgresStore(db),
	}, qc).Register(registry)

	registry.Mux().Use(func(next asynq.Handler) asynq.Handler {
		return asynq.HandlerFunc(func(ctx context.Context, t *asynq.Task) error {
			err := next.ProcessTask(ctx, t)
			if err == nil {
				m.JobsProcessedTotal.WithLabelValues(t.Type()).Inc()
			}
			return err
		})
	})

	slog.Info("starting worker", "concurrency", 10)
	if err := srv.Run(registry.Mux()); err != nil {
		slog.Error("worker error", "error", err)
		os.Exit(1)
	}
}

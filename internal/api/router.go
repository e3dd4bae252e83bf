package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/stacklane/saasbase/internal/api/handlers"
	"github.com/stacklane/saasbase/internal/api/middleware"
	"github.com/stacklane/saasbase/internal/apikey"
	"github.com/stacklane/saasbase/internal/audit"
	"github.com/stacklane/saasbase/internal/auth"
	"github.com/stacklane/saasbase/internal/cache"
	"github.com/stacklane/saasbase/internal/config"
	"github.com/stacklane/saasbase/internal/invitation"
	"github.com/stacklane/saasbase/internal/metrics"
	"github.com/stacklane/saasbase/internal/models"
	"github.com/stacklane/saasbase/internal/notification"
	"github.com/stacklane/saasbase/internal/queue"
	"github.com/stacklane/saasbase/internal/subscription"
	"github.com/stacklane/saasbase/internal/tenant"
	"github.com/stacklane/saasbase/internal/user"
)

type Router struct {
	mux     *chi.Mux
	db      *pgxpool.Pool
	redis   *redis.Client
	cfg     *config.Config
	queue   *queue.Client
	metrics *metrics.Metrics
}

func NewRouter(db *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, qc *queue.Client, m *metrics.Metrics) *Router {
	return &Router{
		mux:     chi.NewRouter(),
		db:      db,
		redis:   rdb,
		cfg:     cfg,
		queue:   qc,
		metrics: m,
	}
}

func (rt *Router) Setup() http.Handler {
	r := rt.mux

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS([]string{"*"}))
	r.Use(middleware.Metrics(rt.metrics))

	rl := middleware.NewRateLimiter(100, 200)
	r.Use(rl.Limit)

	// Health and metrics endpoints (no auth)
	health := handlers.NewHealthHandler(rt.db, rt.redis)
	r.Get("/healthz", health.Healthz)
	r.Get("/readyz", health.Readyz)
	r.Handle("/metrics", rt.metrics.Handler())

	// Stores and services
	tenantStore := tenant.NewPostgresStore(rt.db)
	tenantSvc := tenant.NewService(tenantStore, cache.New(rt.redis), rt.queue)

	issuer := user.NewTokenIssuer(
		rt.cfg.Auth.JWTSecret, rt.cfg.Auth.JWTRefreshSecret,
		rt.cfg.Auth.AccessTokenTTL, rt.cfg.Auth.RefreshTokenTTL,
	)
	userSvc := user.NewService(user.NewPostgresStore(rt.db), tenantSvc, issuer, rt.queue)

	invitationSvc := invitation.NewService(invitation.NewPostgresStore(rt.db), tenantSvc, userSvc, rt.queue)
	keySvc := apikey.NewService(apikey.NewPostgresStore(rt.db), tenantSvc)
	subscriptionSvc := subscription.NewService(subscription.NewPostgresStore(rt.db), rt.queue)
	notificationSvc := notification.NewService(notification.NewPostgresStore(rt.db))
	auditSvc := audit.NewService(audit.NewPostgresStore(rt.db))

	jwtMW := auth.NewJWTMiddleware(rt.cfg.Auth.JWTSecret, userSvc)
	keyMW := auth.NewAPIKeyMiddleware(keySvc, tenantSvc, rt.cfg.Auth.APIKeyHeader)
	engine := auth.NewEngine(tenantStore)

	authH := handlers.NewAuthHandler(userSvc)
	tenantH := handlers.NewTenantHandler(tenantSvc)
	invitationH := handlers.NewInvitationHandler(invitationSvc)
	keyH := handlers.NewAPIKeyHandler(keySvc)
	notificationH := handlers.NewNotificationHandler(notificationSvc)
	subscriptionH := handlers.NewSubscriptionHandler(subscriptionSvc)
	auditH := handlers.NewAuditHandler(auditSvc)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public: no token needed
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)
		r.Get("/invitations/verify", invitationH.Verify)
		r.Get("/subscriptions/plans", subscriptionH.Plans)

		// Authenticated: API key first, then JWT
		r.Group(func(r chi.Router) {
			r.Use(keyMW.Authenticate)
			r.Use(jwtMW.Authenticate)

			r.Post("/auth/logout", authH.Logout)
			r.Get("/auth/profile", authH.Profile)

			r.Route("/tenants", func(r chi.Router) {
				r.Post("/", tenantH.Create)
				r.Get("/", tenantH.List)
				r.Get("/by-slug", tenantH.GetBySlug)
				r.Get("/{id}", tenantH.Get)

				r.With(engine.RequireRoles(models.RoleOwner)).Put("/{id}", tenantH.Update)
				r.With(engine.RequireRoles(models.RoleOwner)).Delete("/{id}", tenantH.Delete)

				r.Get("/{id}/members", tenantH.ListMembers)
				r.With(engine.RequireRoles(models.RoleOwner, models.RoleAdmin)).
					Post("/{id}/members", tenantH.AddMember)
				r.With(engine.RequireRoles(models.RoleOwner, models.RoleAdmin)).
					Delete("/{id}/members/{userID}", tenantH.RemoveMember)

				r.With(engine.RequireRoles(models.RoleOwner, models.RoleAdmin)).
					Get("/{id}/invitations", invitationH.ListByTenant)
				r.With(engine.RequireRoles(models.RoleOwner, models.RoleAdmin)).
					Get("/{id}/audit-logs", auditH.List)

				r.Get("/{id}/subscription", subscriptionH.Get)
				r.With(engine.RequireRoles(models.RoleOwner)).
					Put("/{id}/subscription", subscriptionH.ChangeTier)
				r.With(engine.RequireRoles(models.RoleOwner)).
					Delete("/{id}/subscription", subscriptionH.Cancel)
			})

			r.Route("/invitations", func(r chi.Router) {
				r.With(engine.RequireRoles(models.RoleOwner, models.RoleAdmin)).
					Post("/", invitationH.Create)
				r.Post("/accept", invitationH.Accept)
				r.With(engine.RequireRoles(models.RoleOwner, models.RoleAdmin)).
					Post("/{id}/resend", invitationH.Resend)
				r.With(engine.RequireRoles(models.RoleOwner, models.RoleAdmin)).
					Delete("/{id}", invitationH.Cancel)
			})

			r.Route("/api-keys", func(r chi.Router) {
				r.Use(engine.RequireRoles(models.RoleOwner, models.RoleAdmin))
				r.Post("/", keyH.Create)
				r.Get("/", keyH.List)
				r.Delete("/{id}", keyH.Revoke)
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationH.List)
				r.Get("/unread-count", notificationH.UnreadCount)
				r.Post("/read-all", notificationH.MarkAllRead)
				r.Patch("/{id}/read", notificationH.MarkRead)
				r.Delete("/{id}", notificationH.Delete)
			})
		})
	})

	return r
}

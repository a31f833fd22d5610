package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Reidond/subsctl/internal/backup"
	"github.com/Reidond/subsctl/internal/fx"
	"github.com/Reidond/subsctl/internal/handler"
	"github.com/Reidond/subsctl/internal/middleware"
	"github.com/Reidond/subsctl/internal/notify"
	"github.com/Reidond/subsctl/internal/service"
	"github.com/Reidond/subsctl/internal/stats"
	"github.com/Reidond/subsctl/internal/store"
	ws "github.com/Reidond/subsctl/internal/websocket"
)

type Config struct {
	JWTSecret       []byte
	FXBaseURL       string
	FXAppID         string
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	PushSubscriber  string
	SweepInterval   time.Duration
	Backup          backup.Config
}

type Server struct {
	db            *sql.DB
	hub           *ws.Hub
	subscriptionH *handler.SubscriptionHandler
	categoryH     *handler.CategoryHandler
	statsH        *handler.StatsHandler
	fxH           *handler.FxHandler
	settingsH     *handler.SettingsHandler
	pushH         *handler.PushHandler
	userStore     *store.UserStore
	rateLimiter   *middleware.RateLimiter
	scheduler     *notify.Scheduler
	backupManager *backup.Manager
	webpush       *notify.WebPush
	jwtSecret     []byte
	logger        *slog.Logger
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	subscriptionStore := store.NewSubscriptionStore(db)
	eventStore := store.NewEventStore(db)
	categoryStore := store.NewCategoryStore(db)
	fxStore := store.NewFxStore(db)
	pushStore := store.NewPushStore(db)
	snoozeStore := store.NewSnoozeStore(db)
	userStore := store.NewUserStore(db)

	fxSvc := fx.NewService(fxStore, cfg.FXBaseURL, cfg.FXAppID, logger)
	subscriptionSvc := service.NewSubscriptionService(subscriptionStore, eventStore, categoryStore, userStore, fxSvc, logger)
	categorySvc := service.NewCategoryService(categoryStore, logger)
	statsSvc := stats.NewService(subscriptionStore, eventStore, categoryStore, userStore, fxSvc, logger)

	// Reminders only fire when VAPID keys are configured.
	var webpush *notify.WebPush
	var sweeper *notify.Sweeper
	if cfg.VAPIDPublicKey != "" && cfg.VAPIDPrivateKey != "" {
		webpush = notify.NewWebPush(cfg.VAPIDPublicKey, cfg.VAPIDPrivateKey, cfg.PushSubscriber)
		sweeper = notify.NewSweeper(subscriptionStore, pushStore, snoozeStore, webpush, logger.With("component", "sweeper"))
	}

	interval := cfg.SweepInterval
	if interval <= 0 {
		interval = time.Hour
	}
	scheduler := notify.NewScheduler(fxSvc, sweeper, interval, logger)

	return &Server{
		db:            db,
		hub:           hub,
		subscriptionH: handler.NewSubscriptionHandler(subscriptionSvc, hub, logger.With("component", "subscription")),
		categoryH:     handler.NewCategoryHandler(categorySvc, hub, logger.With("component", "category")),
		statsH:        handler.NewStatsHandler(statsSvc, logger.With("component", "stats")),
		fxH:           handler.NewFxHandler(fxSvc, logger.With("component", "fx")),
		settingsH:     handler.NewSettingsHandler(userStore, logger.With("component", "settings")),
		pushH:         handler.NewPushHandler(pushStore, snoozeStore, userStore, subscriptionStore, webpush, logger.With("component", "push")),
		userStore:     userStore,
		rateLimiter:   middleware.NewRateLimiter(),
		scheduler:     scheduler,
		backupManager: backup.NewManager(cfg.Backup, db, logger),
		webpush:       webpush,
		jwtSecret:     cfg.JWTSecret,
		logger:        logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Scheduler returns the background rate-refresh and reminder scheduler.
func (s *Server) Scheduler() *notify.Scheduler {
	return s.scheduler
}

// BackupManager returns the backup manager.
func (s *Server) BackupManager() *backup.Manager {
	return s.backupManager
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireOwner middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireOwner(s.jwtSecret, s.userStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.OwnerKey("write"), 60, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// Subscription API routes
	mux.HandleFunc("GET /api/subscriptions", s.subscriptionH.List)
	mux.HandleFunc("POST /api/subscriptions", s.rateLimitedHandler(s.subscriptionH.Create))
	mux.HandleFunc("GET /api/subscriptions/{id}", s.subscriptionH.Get)
	mux.HandleFunc("PATCH /api/subscriptions/{id}", s.rateLimitedHandler(s.subscriptionH.Update))
	mux.HandleFunc("DELETE /api/subscriptions/{id}", s.rateLimitedHandler(s.subscriptionH.Delete))
	mux.HandleFunc("POST /api/subscriptions/{id}/pause", s.rateLimitedHandler(s.subscriptionH.Pause))
	mux.HandleFunc("POST /api/subscriptions/{id}/resume", s.rateLimitedHandler(s.subscriptionH.Resume))
	mux.HandleFunc("POST /api/subscriptions/{id}/archive", s.rateLimitedHandler(s.subscriptionH.Archive))
	mux.HandleFunc("POST /api/subscriptions/{id}/restore", s.rateLimitedHandler(s.subscriptionH.Restore))
	mux.HandleFunc("POST /api/subscriptions/{id}/mark-paid", s.rateLimitedHandler(s.subscriptionH.MarkPaid))
	mux.HandleFunc("GET /api/subscriptions/{id}/events", s.subscriptionH.Events)
	mux.HandleFunc("POST /api/subscriptions/{id}/snooze", s.rateLimitedHandler(s.pushH.Snooze))

	// Category API routes
	mux.HandleFunc("GET /api/categories", s.categoryH.List)
	mux.HandleFunc("POST /api/categories", s.rateLimitedHandler(s.categoryH.Create))
	mux.HandleFunc("PATCH /api/categories/{id}", s.rateLimitedHandler(s.categoryH.Update))
	mux.HandleFunc("DELETE /api/categories/{id}", s.rateLimitedHandler(s.categoryH.Delete))

	// Stats and exchange rates
	mux.HandleFunc("GET /api/stats/summary", s.statsH.Summary)
	mux.HandleFunc("GET /api/fx/rates", s.fxH.Rates)

	// Settings API routes
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.rateLimitedHandler(s.settingsH.Update))

	// Onboarding steps
	mux.HandleFunc("POST /api/onboarding/timezone", s.rateLimitedHandler(s.settingsH.OnboardingTimezone))
	mux.HandleFunc("POST /api/onboarding/currency", s.rateLimitedHandler(s.settingsH.OnboardingCurrency))
	mux.HandleFunc("POST /api/onboarding/complete", s.rateLimitedHandler(s.settingsH.CompleteOnboarding))

	// Push registration routes, only when delivery is configured
	if s.webpush != nil {
		mux.HandleFunc("GET /api/push/vapid-public-key", s.pushH.VAPIDPublicKey)
		mux.HandleFunc("POST /api/push/subscribe", s.rateLimitedHandler(s.pushH.Subscribe))
		mux.HandleFunc("POST /api/push/unsubscribe", s.rateLimitedHandler(s.pushH.Unsubscribe))
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handle(s.hub, s.logger.With("component", "websocket")))
}

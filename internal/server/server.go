// Package server wires the stores, services, and handlers into one HTTP
// router.
package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/hearth/internal/auth"
	"github.com/dukerupert/hearth/internal/chore"
	"github.com/dukerupert/hearth/internal/config"
	"github.com/dukerupert/hearth/internal/email"
	"github.com/dukerupert/hearth/internal/handler"
	"github.com/dukerupert/hearth/internal/household"
	"github.com/dukerupert/hearth/internal/identity"
	"github.com/dukerupert/hearth/internal/middleware"
	"github.com/dukerupert/hearth/internal/notify"
	"github.com/dukerupert/hearth/internal/push"
	"github.com/dukerupert/hearth/internal/store"
	ws "github.com/dukerupert/hearth/internal/websocket"
)

type Server struct {
	db             *sql.DB
	hub            *ws.Hub
	tokens         *auth.TokenManager
	userStore      *store.UserStore
	householdStore *store.HouseholdStore
	authH          *handler.AuthHandler
	choreH         *handler.ChoreHandler
	householdH     *handler.HouseholdHandler
	notificationH  *handler.NotificationHandler
	pushH          *handler.PushHandler
	rateLimiter    *middleware.RateLimiter
	logger         *slog.Logger
}

func New(db *sql.DB, cfg config.Config, emailClient *email.Client, pushSvc *push.Service, logger *slog.Logger) *Server {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	householdStore := store.NewHouseholdStore(db)
	choreStore := store.NewChoreStore(db)
	notificationStore := store.NewNotificationStore(db)
	pushStore := store.NewPushStore(db)

	tokens := auth.NewTokenManager(cfg.TokenSecret, cfg.TokenTTL)

	notifySvc := notify.NewService(notificationStore, pushStore, pushSvc, logger)
	engine := chore.NewEngine(choreStore, householdStore, notifySvc, cfg.MaxChores, logger)
	householdSvc := household.NewService(householdStore, userStore, notifySvc, emailClient, cfg.MaxMembers, logger)
	identitySvc := identity.NewService(userStore, tokens, emailClient, logger)

	var pushH *handler.PushHandler
	if pushSvc != nil && pushSvc.Configured() {
		pushH = handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler"))
	}

	return &Server{
		db:             db,
		hub:            hub,
		tokens:         tokens,
		userStore:      userStore,
		householdStore: householdStore,
		authH:          handler.NewAuthHandler(identitySvc, notificationStore, logger.With("component", "auth")),
		choreH:         handler.NewChoreHandler(engine, hub, logger.With("component", "chore")),
		householdH:     handler.NewHouseholdHandler(householdSvc, hub, logger.With("component", "household")),
		notificationH:  handler.NewNotificationHandler(notifySvc, hub, logger.With("component", "notification")),
		pushH:          pushH,
		rateLimiter:    middleware.NewRateLimiter(),
		logger:         logger,
	}
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes (no auth required)
	outerMux.HandleFunc("POST /api/user/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/user/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	// Protected routes — wrapped with RequireAuth middleware
	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.tokens, s.userStore, s.householdStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	// User routes
	mux.HandleFunc("GET /api/user", s.authH.Me)

	// Household routes; create and join are for users without a household
	mux.HandleFunc("POST /api/household/create", s.householdH.Create)
	mux.HandleFunc("PATCH /api/household/join", s.householdH.Join)
	mux.Handle("GET /api/household", requireHousehold(s.householdH.Get))
	mux.Handle("PATCH /api/household/leave", requireHousehold(s.householdH.Leave))
	mux.Handle("POST /api/household/invite", requireHousehold(s.householdH.Invite))
	mux.Handle("PATCH /api/household/chores", requireHousehold(s.householdH.ReorderChores))
	mux.Handle("PATCH /api/household/profile/photo", requireHousehold(s.householdH.UpdateProfilePhoto))

	// Chore routes, all household-scoped
	mux.Handle("GET /api/chore", requireHousehold(s.choreH.Get))
	mux.Handle("GET /api/chore/all", requireHousehold(s.choreH.List))
	mux.Handle("POST /api/chore", requireHousehold(s.choreH.Create))
	mux.Handle("PATCH /api/chore", requireHousehold(s.choreH.Update))
	mux.Handle("PATCH /api/chore/assign/random", requireHousehold(s.choreH.AssignRandom))
	mux.Handle("PATCH /api/chore/assign/self", requireHousehold(s.choreH.AssignSelf))
	mux.Handle("PATCH /api/chore/assign/request", requireHousehold(s.choreH.RequestAssignment))
	mux.Handle("PATCH /api/chore/assign/request/respond", requireHousehold(s.choreH.RespondToRequest))
	mux.Handle("PATCH /api/chore/assign/random/decline", requireHousehold(s.choreH.DeclineAssignment))
	mux.Handle("PATCH /api/chore/complete", requireHousehold(s.choreH.Complete))
	mux.Handle("DELETE /api/chore", requireHousehold(s.choreH.Delete))

	// Notification routes
	mux.HandleFunc("GET /api/notification", s.notificationH.List)
	mux.HandleFunc("DELETE /api/notification", s.notificationH.Clear)
	mux.HandleFunc("PATCH /api/notification/read", s.notificationH.MarkRead)
	mux.HandleFunc("PATCH /api/notification/support", s.notificationH.Support)

	// Push subscription routes
	if s.pushH != nil {
		mux.HandleFunc("POST /api/push/subscribe", s.pushH.Subscribe)
		mux.HandleFunc("DELETE /api/push/subscribe", s.pushH.Unsubscribe)
		mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	}

	// WebSocket
	mux.HandleFunc("GET /ws", ws.HandleWebSocket(s.hub))
}

func requireHousehold(h http.HandlerFunc) http.Handler {
	return middleware.RequireHousehold(h)
}

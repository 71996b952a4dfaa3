// Package server assembles the HTTP surface: Connect services, the realtime
// websocket endpoint, metrics and the JSON fallbacks.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/middleware"
	"github.com/mmynk/splitledger/internal/realtime"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/pkg/api"
)

const rpcPrefix = "/splitledger.v1."

// Services are the Connect implementations to mount.
type Services struct {
	Auth          *service.AuthService
	Friends       *service.FriendService
	Trips         *service.TripService
	Ledger        *service.LedgerService
	Balances      *service.BalanceService
	Budgets       *service.BudgetService
	Notifications *service.NotificationService
}

// Deps is everything the router needs.
type Deps struct {
	Services       Services
	JWT            *auth.JWTManager
	Hub            *realtime.Hub
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
	// Pinger, when set, backs /health.
	Pinger interface {
		Ping(ctx context.Context) error
	}
}

// NewRouter builds the root handler.
func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(recoverer(logger))
	router.Use(cors.Handler(corsOptions(d.AllowedOrigins)))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusNotFound, map[string]string{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})

	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{
			"message": "Expense Tracker Backend",
			"title":   "Split Ledger",
			"status":  "running",
		})
	})
	router.Get("/health", health(d.Pinger))
	if d.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
	if d.Hub != nil {
		router.Get("/ws", serveWS(d.JWT, d.Hub, d.AllowedOrigins))
	}

	interceptors := []connect.Interceptor{}
	if d.Metrics != nil {
		interceptors = append(interceptors, middleware.MetricsInterceptor(d.Metrics))
	}
	interceptors = append(interceptors,
		middleware.RequireAuth(d.JWT, api.PublicProcedures...),
		middleware.LoggingInterceptor(logger),
	)
	opts := connect.WithInterceptors(interceptors...)

	s := d.Services
	mount := func(path string, handler http.Handler) {
		router.Handle(path+"*", handler)
	}
	mount(service.NewAuthServiceHandler(s.Auth, opts))
	mount(service.NewFriendServiceHandler(s.Friends, opts))
	mount(service.NewTripServiceHandler(s.Trips, opts))
	mount(service.NewLedgerServiceHandler(s.Ledger, opts))
	mount(service.NewBalanceServiceHandler(s.Balances, opts))
	mount(service.NewBudgetServiceHandler(s.Budgets, opts))
	mount(service.NewNotificationServiceHandler(s.Notifications, opts))

	return router
}

func corsOptions(origins []string) cors.Options {
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	wildcard := len(origins) == 1 && origins[0] == "*"
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept", "Authorization", "Content-Type", "X-Request-ID",
			"Connect-Protocol-Version", "Connect-Timeout-Ms",
		},
		ExposedHeaders:   []string{"Connect-Protocol-Version", "Connect-Timeout-Ms"},
		AllowCredentials: !wildcard,
		MaxAge:           300,
	}
}

// serveWS authenticates with the token query parameter, or the
// Authorization header for non-browser clients, then hands over to the hub.
// Browser origins are checked against the same list as CORS.
func serveWS(jwt *auth.JWTManager, hub *realtime.Hub, origins []string) http.HandlerFunc {
	upgrader := realtime.NewUpgrader(origins)
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token, _ = middleware.BearerToken(r.Header.Get("Authorization"))
		}
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing token")
			return
		}
		claims, err := jwt.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		realtime.ServeWS(w, r, hub, upgrader, claims.UserID())
	}
}

func health(pinger interface{ Ping(context.Context) error }) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.Ping(ctx); err != nil {
				respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
				return
			}
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// requestLogger logs every request with its status and duration.
// Connect calls are logged again, with the caller, by the RPC interceptor.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			level := slog.LevelDebug
			if ww.Status() >= http.StatusInternalServerError {
				level = slog.LevelError
			} else if !strings.HasPrefix(r.URL.Path, rpcPrefix) && r.URL.Path != "/metrics" {
				level = slog.LevelInfo
			}
			logger.Log(r.Context(), level, "Request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"request_id", chimiddleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
				"duration_ms", time.Since(start).Milliseconds(),
			)
		})
	}
}

// recoverer turns a panic into a JSON 500.
func recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("Panic recovered",
					"panic", rec,
					"path", r.URL.Path,
					"stack", string(debug.Stack()),
				)
				respondJSON(w, http.StatusInternalServerError, map[string]any{
					"success": false,
					"error":   "Internal Server Error",
					"message": "Something went wrong",
				})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

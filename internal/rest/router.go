package rest

import (
	"net/http"
	"time"

	"wallet-ledger-go/internal/api"
	"wallet-ledger-go/internal/auth"
	"wallet-ledger-go/internal/metrics"
	"wallet-ledger-go/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterConfig wires the HTTP surface. Admins and Tokens are optional; the
// admin routes are mounted only when both are set.
type RouterConfig struct {
	Ledger         *api.LedgerService
	Admins         *api.AdminService
	Tokens         *auth.TokenManager
	Metrics        *metrics.Metrics
	AllowedOrigins []string
	RequestTimeout time.Duration
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggerMiddleware(zap.L()))
	r.Use(middleware.Recoverer)
	if cfg.RequestTimeout > 0 {
		r.Use(middleware.Timeout(cfg.RequestTimeout))
	}

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "signature", "verif-hash"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		Error(w, http.StatusNotFound, "Route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	ledger := NewLedgerHandler(cfg.Ledger)

	r.Get("/health", ledger.Health)
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics.Handler())
	}

	r.Post("/deposit", ledger.Deposit)
	r.Post("/withdraw", ledger.Withdraw)
	r.Post("/transfer", ledger.Transfer)
	r.Post("/webhook", ledger.Webhook)
	r.Get("/transactions/user/{userId}", ledger.UserTransactions)
	r.Route("/api/transactions", func(r chi.Router) {
		r.Post("/deposit", ledger.Deposit)
		r.Post("/withdraw", ledger.Withdraw)
		r.Post("/transfer", ledger.Transfer)
		r.Post("/webhook", ledger.Webhook)
		r.Get("/user/{userId}", ledger.UserTransactions)
	})

	if cfg.Admins != nil && cfg.Tokens != nil {
		admin := NewAdminHandler(cfg.Admins, cfg.Ledger)
		superAdmin := auth.RequireRole(Error, models.AdminRoleSuperAdmin)

		r.Route("/api/admin", func(r chi.Router) {
			r.Post("/signin", admin.SignIn)

			r.Group(func(r chi.Router) {
				r.Use(auth.Middleware(cfg.Tokens, Error))

				r.Get("/profile", admin.Profile)
				r.Get("/dashboard", admin.Dashboard)

				r.Get("/users", admin.ListUsers)
				r.Get("/users/{id}", admin.GetUser)
				r.Put("/users/{id}/status", admin.UpdateUserStatus)

				r.Get("/transactions", admin.ListTransactions)
				r.Get("/transactions/{id}", admin.GetTransaction)

				r.With(superAdmin).Post("/create", admin.CreateAdmin)
				r.With(superAdmin).Get("/admins", admin.ListAdmins)
				r.With(superAdmin).Put("/admins/{id}/status", admin.UpdateAdminStatus)
				r.With(superAdmin).Put("/transactions/{id}/status", admin.UpdateTransactionStatus)
			})
		})
	} else {
		zap.L().Warn("Admin routes disabled (JWT_SECRET not configured)")
	}

	return r
}

// LoggerMiddleware logs one line per request
func LoggerMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info("http request",
				zap.String("request_id", middleware.GetReqID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr))
		})
	}
}

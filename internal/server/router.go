package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/iudanet/checkkeeper/internal/server/config"
	"github.com/iudanet/checkkeeper/internal/server/handlers"
	"github.com/iudanet/checkkeeper/internal/server/middleware"
)

// Services are the domain services the router dispatches to
type Services struct {
	Accounts handlers.AccountService
	Tokens   handlers.TokenService
	Checks   handlers.CheckService
}

// NewRateLimiter ограничивает запросы с одного IP. Вход (POST /tokens)
// считается отдельно, чтобы замедлить подбор паролей.
func NewRateLimiter(cfg config.RateLimitConfig, logger *slog.Logger) *middleware.RouteRateLimiter {
	return middleware.NewRouteRateLimiter(
		middleware.Limit{Requests: cfg.Requests, Window: cfg.Window},
		[]middleware.RouteLimit{{
			Method: http.MethodPost,
			Path:   "/tokens",
			Limit:  middleware.Limit{Requests: cfg.LoginRequests, Window: cfg.LoginWindow},
		}},
		logger,
	)
}

// NewRouter собирает маршруты users, tokens, checks и ping.
// limit может быть nil, тогда частота запросов не ограничивается.
func NewRouter(logger *slog.Logger, svc Services, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	// Порядок: RealIP -> request id + логирование -> recovery -> rate limit -> token.
	// StripSlashes: /users/ обслуживается как /users
	r.Use(chimw.RealIP)
	r.Use(chimw.StripSlashes)
	r.Use(middleware.LoggingWithSkip(logger, []string{"/ping"}))
	r.Use(middleware.RecoveryMiddleware(logger))
	if limit != nil {
		r.Use(limit)
	}
	r.Use(middleware.TokenMiddleware)

	ping := handlers.NewPingHandler(logger)
	r.NotFound(ping.NotFound)
	r.MethodNotAllowed(ping.MethodNotAllowed)
	r.HandleFunc("/ping", ping.Ping)

	users := handlers.NewUserHandler(logger, svc.Accounts)
	r.Post("/users", users.Create)
	r.Get("/users", users.Get)
	r.Put("/users", users.Update)
	r.Delete("/users", users.Delete)

	tokens := handlers.NewTokenHandler(logger, svc.Tokens)
	r.Post("/tokens", tokens.Create)
	r.Get("/tokens", tokens.Get)
	r.Put("/tokens", tokens.Update)
	r.Delete("/tokens", tokens.Delete)

	checks := handlers.NewCheckHandler(logger, svc.Checks, svc.Tokens)
	r.Post("/checks", checks.Create)
	r.Get("/checks", checks.Get)
	r.Put("/checks", checks.Update)
	r.Delete("/checks", checks.Delete)

	return r
}

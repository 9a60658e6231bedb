package routers

import (
	"fmt"
	"github.com/bootcamp67/ms-transaction/internal/di"
	http2 "github.com/bootcamp67/ms-transaction/internal/infrastructure/api/http"
	"github.com/bootcamp67/ms-transaction/internal/infrastructure/api/middlewares"
	"github.com/bootcamp67/ms-transaction/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"net/http"
)

func NewRouter(container *di.Container) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.RealIP, middleware.Logger, middleware.Recoverer, middlewares.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	router.Handle("/metrics", metrics.Handler())

	// Set up v1 routes with a path prefix
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/transactions", func(r chi.Router) {
			r.Use(middlewares.IdentityMiddleware(container.JWTSecret))
			th := container.TransactionHandler
			qh := container.QueryHandler

			r.With(middlewares.RequireAdmin).Get("/", qh.ListAll)
			r.Get(fmt.Sprintf("/{%s}", http2.TransactionIDParam), qh.Get)
			r.Route(fmt.Sprintf("/customer/{%s}", http2.CustomerIDParam), func(r chi.Router) {
				r.Get("/", qh.ListByCustomer)
				r.Get("/date-range", qh.ListByDateRange)
			})
			r.Get(fmt.Sprintf("/account/{%s}", http2.AccountIDParam), qh.ListByAccount)
			r.Get(fmt.Sprintf("/card/{%s}", http2.CardIDParam), qh.ListByCard)
			r.Get(fmt.Sprintf("/credit/{%s}", http2.CreditIDParam), qh.ListByCredit)

			r.Post("/deposit", th.Deposit)
			r.Post("/withdrawal", th.Withdrawal)
			r.Post("/transfer", th.Transfer)
			r.With(middlewares.RequireAdmin).Post(fmt.Sprintf("/{%s}/reverse", http2.TransactionIDParam), th.Reverse)
		})
	})

	return router
}

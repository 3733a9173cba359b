package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"

	"github.com/condorlabs/comprobantes/internal/auth"
	"github.com/condorlabs/comprobantes/internal/category"
	"github.com/condorlabs/comprobantes/internal/client"
	"github.com/condorlabs/comprobantes/internal/credential"
	"github.com/condorlabs/comprobantes/internal/expense"
	"github.com/condorlabs/comprobantes/internal/project"
	"github.com/condorlabs/comprobantes/internal/transport/middleware"
	"github.com/condorlabs/comprobantes/internal/transport/swagger"
	"github.com/condorlabs/comprobantes/internal/user"
)

type Handlers struct {
	Auth       *auth.Handler
	User       *user.Handler
	Expense    *expense.Handler
	Credential *credential.Handler
	Client     *client.Handler
	Project    *project.Handler
	Category   *category.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))

	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	router.Handle("/swagger/*", swagger.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		if h.Auth != nil {
			r.Route("/auth", func(sr chi.Router) {
				sr.Post("/login", h.Auth.Login)
				sr.Post("/refresh", h.Auth.RefreshToken)
				sr.Post("/logout", h.Auth.Logout)
			})
		}

		if h.Auth == nil {
			return
		}

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			pr.Use(middleware.LoggingMiddleware(logger))

			if h.Expense != nil {
				pr.Route("/expenses", func(er chi.Router) {
					er.Post("/analyze", h.Expense.AnalyzeImage)
					er.Post("/validate-file", h.Expense.ValidateFile)
					er.Post("/", h.Expense.Create)
					er.Get("/", h.Expense.List)
					er.Get("/{id}", h.Expense.Get)
					er.Patch("/{id}", h.Expense.Update)
					er.Delete("/{id}", h.Expense.Delete)
					er.Patch("/{id}/approve", h.Expense.Approve)
					er.Patch("/{id}/reject", h.Expense.Reject)
					er.Get("/{id}/sunat", h.Expense.SunatInfo)
				})
			}

			if h.Credential != nil {
				pr.Route("/sunat-credentials", func(cr chi.Router) {
					cr.Post("/", h.Credential.Create)
					cr.Get("/{clientId}", h.Credential.Get)
					cr.Patch("/{clientId}", h.Credential.Update)
					cr.Delete("/{clientId}", h.Credential.Delete)
					cr.Post("/{clientId}/test-token", h.Credential.TestToken)
				})
			}

			if h.User != nil {
				pr.Route("/users", func(ur chi.Router) {
					ur.Post("/", h.User.Create)
					ur.Get("/", h.User.List)
					ur.Get("/{id}", h.User.Get)
					ur.Patch("/{id}", h.User.Update)
				})
			}

			if h.Client != nil {
				pr.Route("/clients", func(cr chi.Router) {
					cr.Post("/", h.Client.Create)
					cr.Get("/", h.Client.List)
					cr.Get("/{id}", h.Client.Get)
					cr.Patch("/{id}", h.Client.Update)
				})
			}

			if h.Project != nil {
				pr.Route("/projects", func(pjr chi.Router) {
					pjr.Post("/", h.Project.Create)
					pjr.Get("/", h.Project.List)
					pjr.Get("/{id}", h.Project.Get)
					pjr.Patch("/{id}", h.Project.Update)
					pjr.Delete("/{id}", h.Project.Delete)
				})
			}

			if h.Category != nil {
				pr.Route("/categories", func(ctr chi.Router) {
					ctr.Get("/", h.Category.GetCategories)
					ctr.Post("/", h.Category.Create)
					ctr.Get("/{id}", h.Category.Get)
					ctr.Patch("/{id}", h.Category.Update)
					ctr.Delete("/{id}", h.Category.Delete)
				})
			}
		})
	})
}

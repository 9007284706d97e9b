package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/querytask/internal/api"
	apiMiddleware "github.com/phrazzld/querytask/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))

	taskHandler := api.NewTaskHandler(app.dispatcher, app.statusReader, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/query", taskHandler.SubmitQuery)
		r.Post("/longtask", taskHandler.SubmitLongTask)
		r.Get("/status/{id}", taskHandler.GetStatus)
	})

	r.Method(http.MethodGet, "/metrics", app.metrics.Handler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

type Handlers struct {
	Draft   *DraftHandler
	Orders  *OrdersHandler
	Catalog *CatalogHandler
	Auth    *AuthHandler
	System  *SystemHandler
}

// NewRouter assembles the local HTTP surface the browser UI talks to.
func NewRouter(h Handlers, requestTimeout time.Duration, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestIDMiddleware)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", h.Auth.Login)

		r.Get("/catalog", h.Catalog.Browse)
		r.Get("/rubros", h.Catalog.Rubros)

		r.Route("/draft", func(r chi.Router) {
			r.Get("/", h.Draft.GetDraft)
			r.Delete("/", h.Draft.Clear)
			r.Post("/lines", h.Draft.AddLine)
			r.Patch("/lines/{article_id}", h.Draft.UpdateLine)
			r.Delete("/lines/{article_id}", h.Draft.RemoveLine)
			r.Put("/client", h.Draft.SetClientName)
			r.Put("/note", h.Draft.SetGeneralNote)
			r.Put("/schedule", h.Draft.SetScheduledAt)
			r.Post("/submit", h.Draft.Submit)
			r.Get("/snapshot", h.Draft.GetSnapshot)
			r.Post("/snapshot/restore", h.Draft.RestoreSnapshot)
			r.Delete("/snapshot", h.Draft.DiscardSnapshot)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{order_id}", h.Orders.GetOrder)
			r.Post("/pending/send-all", h.Orders.SendAllPending)
			r.Post("/pending/{local_id}/send", h.Orders.SendOne)
		})

		r.Get("/connectivity", h.System.GetConnectivity)
		r.Put("/connectivity", h.System.SetConnectivity)
		r.Post("/lifecycle/suspend", h.System.Suspend)
	})

	// The UI is browser-hosted on its own origin.
	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
	})

	return c.Handler(r)
}

package httpserver

import (
	"net/http"
	"time"

	"family-calendar-go/internal/config"
	"family-calendar-go/internal/transport/httpserver/handler"
	authmw "family-calendar-go/internal/transport/httpserver/middleware"
	"family-calendar-go/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func NewRouter(cfg config.Config, handlers *handler.Handlers, users authmw.UserSaver, log logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(authmw.NewCORS([]string{"http://localhost:5173"}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", handlers.Health)

		auth := authmw.NewTokenAuth(cfg.Auth, users, log)
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Get("/profile", handlers.GetProfile)
			r.Put("/profile", handlers.UpdateProfile)

			r.Post("/families", handlers.CreateFamily)
			r.Get("/families/me", handlers.GetFamilyMe)
			r.Post("/families/join", handlers.JoinFamily)
			r.Patch("/families/{id}", handlers.RenameFamily)
			r.Delete("/families/{id}", handlers.DeleteFamily)
			r.Post("/families/{id}/leave", handlers.LeaveFamily)
			r.Get("/families/{id}/members", handlers.ListFamilyMembers)
			r.Patch("/families/{id}/members/{user_id}", handlers.ChangeMemberRole)

			r.Get("/events", handlers.ListEvents)
			r.Post("/events", handlers.CreateEvent)
			r.Patch("/events/{id}", handlers.UpdateEvent)
			r.Delete("/events/{id}", handlers.DeleteEvent)
			r.Post("/events/{id}/done", handlers.MarkEventDone)
		})
	})

	return r
}

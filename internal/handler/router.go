package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/smartevent/internal/metrics"
	"github.com/Shivanand-hulikatti/smartevent/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// Deps are the collaborators the router needs.
type Deps struct {
	Users          *service.UserService
	Events         *service.EventService
	Registrations  *service.RegistrationService
	Tokens         TokenValidator
	Store          Pinger
	LoginLimiter   *RateLimiter
	AllowedOrigins []string
	Logger         zerolog.Logger
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) http.Handler {
	authH := NewAuthHandler(d.Users)
	eventH := NewEventHandler(d.Events)
	regH := NewRegistrationHandler(d.Registrations)
	requireAuth := Authenticate(d.Tokens)

	loginLimiter := d.LoginLimiter
	if loginLimiter == nil {
		loginLimiter = NewRateLimiter(0, 0)
	}

	r := chi.NewRouter()

	// Global middleware stack
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RealIP)
	r.Use(CorrelationID(d.Logger))
	r.Use(Tracing)
	r.Use(RequestLogging)
	r.Use(metrics.HTTPMiddleware)
	r.Use(CORS(d.AllowedOrigins))

	// Health & metrics
	r.Get("/health", HealthCheck)
	r.Get("/ready", Readiness(d.Store))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authH.Register)
			r.With(loginLimiter.Middleware).Post("/login", authH.Login)
			r.With(requireAuth).Get("/current", authH.Current)
			r.With(requireAuth).Post("/logout", authH.Logout)
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventH.ListEvents)
			r.Get("/{id}", eventH.GetEvent)

			r.Group(func(r chi.Router) {
				r.Use(requireAuth)
				r.Post("/", eventH.CreateEvent)
				r.Put("/{id}", eventH.UpdateEvent)
				r.Delete("/{id}", eventH.DeleteEvent)
			})
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/event/{eventId}", regH.ListForEvent)
			r.Get("/user", regH.ListForCaller)
			r.Post("/{eventId}", regH.Register)
			r.Delete("/{eventId}", regH.Cancel)
			r.Get("/{eventId}/ticket", regH.Ticket)
		})
	})

	return r
}

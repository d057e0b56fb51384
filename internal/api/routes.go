package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	r.Use(CORSMiddleware)

	r.Get("/health", h.Health)

	// The method check runs before anything else so preflights and 405s
	// never count against the rate limit.
	r.Route("/functions", func(r chi.Router) {
		r.With(allowMethod(http.MethodPost, rejectText)).
			HandleFunc("/airtable", h.LogActivity)
		r.With(allowMethod(http.MethodGet, rejectText)).
			HandleFunc("/players", h.ListPlayers)
		r.With(allowMethod(http.MethodPost, rejectMessage)).
			HandleFunc("/players-verify", h.VerifyPlayer)
		r.With(allowMethod(http.MethodPost, rejectText), h.limiter.Middleware).
			HandleFunc("/players-update", h.UpdatePlayerStatus)
	})

	return r
}

// allowMethod answers OPTIONS preflights and rejects every method other than
// method with 405.
func allowMethod(method string, reject func(http.ResponseWriter)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodOptions:
				preflight(w, method)
			case method:
				next.ServeHTTP(w, r)
			default:
				w.Header().Set("Allow", method+", "+http.MethodOptions)
				reject(w)
			}
		})
	}
}

func rejectText(w http.ResponseWriter) {
	writeText(w, http.StatusMethodNotAllowed, "Method Not Allowed")
}

func rejectMessage(w http.ResponseWriter) {
	writeMessage(w, http.StatusMethodNotAllowed, "Method not allowed.")
}

package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"server/internal/http/handlers"
	"server/internal/infra"
	"server/internal/middleware"
)

// Options carries the router-level wiring that is not part of the
// handler container.
type Options struct {
	Logger        infra.Logger
	RateLimit     int
	DefaultLocale string
	CountryLookup middleware.CountryLookup
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		chimw.RealIP,
		chimw.Recoverer,
		middleware.RequestID,
		middleware.Logger(opts.Logger),
		middleware.CORS([]string{"*"}),
		middleware.Locale(opts.DefaultLocale, opts.CountryLookup),
	)
	if opts.RateLimit > 0 {
		r.Use(middleware.RateLimit(opts.RateLimit, time.Minute))
	}

	r.Get("/v1/healthz", app.Health)

	r.Route("/v1/credits", func(r chi.Router) {
		r.Get("/", app.CreditsCheck)
		r.Post("/spend", app.CreditsSpend)
	})

	r.Route("/v1/coach", func(r chi.Router) {
		r.Post("/access", app.CoachAccess)
		r.Post("/chat", app.CoachChat)
	})

	r.Route("/v1/voice", func(r chi.Router) {
		r.Post("/token", app.VoiceToken)
		r.Post("/analyze", app.VoiceAnalyze)
	})

	r.Get("/v1/stats/summary", app.StatsSummary)

	return r
}

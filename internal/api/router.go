package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"pizza-rush/internal/editor"
	"pizza-rush/internal/game"
	"pizza-rush/internal/world"
)

// EngineInterface is the engine surface the API layer uses. Narrow on
// purpose so tests can mock it without the full tick loop.
type EngineInterface interface {
	GetSnapshot() *game.GameSnapshot
	ApplyInput(game.InputState)

	Profile() game.Profile
	PurchaseUpgrade(track string) bool
	UpgradeCost(track string) int
	TopRuns(n int) []game.RunEntry
	FinishRun() string

	ExportLevel(name string) ([]byte, error)
	ImportLevel(data []byte) error
	City() *world.City

	EditorActive() bool
	EnterEditor()
	ExitEditor()
	ApplyEditorAction(a editor.Action) error
	EditorUndo() bool

	EventLogStats() map[string]interface{}
	TickCount() uint64
}

// RouterConfig carries the router's dependencies. Construction is pure:
// no goroutines, no listeners, safe under httptest.
type RouterConfig struct {
	Engine EngineInterface

	// RateLimiter overrides the default per-IP limiter when set.
	RateLimiter *IPRateLimiter

	// RateLimitConfig is used only when RateLimiter is nil.
	RateLimitConfig *RateLimitConfig

	// CORSOrigins replaces the default localhost origins when set.
	CORSOrigins []string

	// StaticFilesDir serves the game client. Defaults to "./web".
	StaticFilesDir string

	// DisableLogging drops the request logger (benchmarks, tests).
	DisableLogging bool
}

type routerHandlers struct {
	engine EngineInterface
}

// NewRouter builds the HTTP router with middleware and all routes.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	// Rate limit before CORS to reject early
	rateLimiter := cfg.RateLimiter
	if rateLimiter == nil {
		rateLimitCfg := DefaultRateLimitConfig
		if cfg.RateLimitConfig != nil {
			rateLimitCfg = *cfg.RateLimitConfig
		}
		rateLimiter = NewIPRateLimiter(rateLimitCfg)
	}
	r.Use(rateLimiter.Middleware)

	corsOrigins := cfg.CORSOrigins
	if corsOrigins == nil {
		corsOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	h := &routerHandlers{engine: cfg.Engine}

	r.Route("/api", func(r chi.Router) {
		// Simulation
		r.Get("/state", h.handleGetState)
		r.Get("/stats", h.handleGetStats)
		r.Post("/input", h.handleInput)

		// Economy
		r.Get("/profile", h.handleGetProfile)
		r.Post("/upgrade", h.handleUpgrade)
		r.Get("/runs", h.handleGetRuns)
		r.Post("/runs/finish", h.handleFinishRun)

		// Levels
		r.Get("/level", h.handleDownloadLevel)
		r.Post("/level", h.handleUploadLevel)
		r.Get("/minimap.png", h.handleMinimap)

		// Editor
		r.Route("/editor", func(r chi.Router) {
			r.Post("/enter", h.handleEditorEnter)
			r.Post("/exit", h.handleEditorExit)
			r.Post("/action", h.handleEditorAction)
			r.Post("/undo", h.handleEditorUndo)
		})
	})

	// Game client
	staticDir := cfg.StaticFilesDir
	if staticDir == "" {
		staticDir = "./web"
	}
	r.Handle("/play/*", http.StripPrefix("/play/", http.FileServer(http.Dir(staticDir))))
	r.Get("/play", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/play/", http.StatusMovedPermanently)
	})
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/play/", http.StatusFound)
	})

	return r
}

// Package api provides the HTTP API server and handlers for the Recipebox application.
package api

import (
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recipebox/recipebox-server/internal/ratelimit"
	"github.com/recipebox/recipebox-server/internal/service"
	"github.com/recipebox/recipebox-server/internal/store"
)

// APIVersion is reported in the OpenAPI document.
const APIVersion = "1.0.0"

// Login limits used when Config leaves them unset.
const (
	DefaultLoginRatePerMinute = 20
	DefaultLoginRateBurst     = 10
)

// Path prefixes.
const (
	apiPrefix   = "/api/v1"
	mediaPrefix = "/static/media/"
)

// Services groups all business logic services used by the API server.
type Services struct {
	Users       *service.UserService
	Auth        *service.AuthService
	Recipes     *service.RecipeService
	Tags        *service.AttributeService
	Ingredients *service.AttributeService
}

// Config holds the HTTP-level settings of the server.
type Config struct {
	// MediaRoot is served read-only under /static/media/.
	MediaRoot          string
	CORSAllowedOrigins []string
	LoginRatePerMinute int
	LoginRateBurst     int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        store.Store
	services     *Services
	router       *chi.Mux
	api          huma.API
	metrics      *Metrics
	loginLimiter *ratelimit.KeyedRateLimiter
	mediaRoot    string
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st store.Store, services *Services, cfg Config, logger *slog.Logger) *Server {
	if cfg.LoginRatePerMinute <= 0 {
		cfg.LoginRatePerMinute = DefaultLoginRatePerMinute
	}
	if cfg.LoginRateBurst <= 0 {
		cfg.LoginRateBurst = DefaultLoginRateBurst
	}

	router := chi.NewRouter()

	s := &Server{
		store:        st,
		services:     services,
		router:       router,
		metrics:      NewMetrics(),
		loginLimiter: NewLoginRateLimiter(cfg.LoginRatePerMinute, cfg.LoginRateBurst),
		mediaRoot:    cfg.MediaRoot,
		logger:       logger,
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("Recipebox API", APIVersion)
	humaConfig.CreateHooks = nil
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
		"token": {
			Type:        "apiKey",
			In:          "header",
			Name:        "Authorization",
			Description: `Token scheme: "Token <token>"`,
		},
	}
	humaConfig.Transformers = []huma.Transformer{EnvelopeTransformer}

	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.setupRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// API returns the huma API, mainly for tests and OpenAPI export.
func (s *Server) API() huma.API {
	return s.api
}

// Close stops background work owned by the server.
func (s *Server) Close() {
	s.loginLimiter.Stop()
}

// setupMiddleware configures the middleware stack. chi requires it to be in
// place before any route is registered.
func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(s.metrics.Middleware)

	if len(cfg.CORSAllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Retry-After", "X-Request-ID"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}

	s.router.Use(authMiddleware(s.services.Auth, s.logger))
}

// setupRoutes registers every route on the router.
func (s *Server) setupRoutes() {
	s.router.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, statusToCode(http.StatusNotFound), "Not found.")
	})
	s.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed,
			`Method "`+r.Method+`" not allowed.`)
	})

	s.router.Handle("/metrics", s.metrics.Handler())
	if s.mediaRoot != "" {
		s.router.Handle(mediaPrefix+"*", http.StripPrefix(mediaPrefix,
			http.FileServer(filesOnly{http.Dir(s.mediaRoot)})))
	}

	s.registerHealthRoutes()
	s.registerUserRoutes()
	s.registerRecipeRoutes()
	registerAttributeRoutes(s, s.services.Tags)
	registerAttributeRoutes(s, s.services.Ingredients)
}

// filesOnly hides directories so the media root cannot be listed.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	if strings.HasSuffix(name, "/") {
		return nil, os.ErrNotExist
	}

	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}

	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, os.ErrNotExist
	}

	return file, nil
}

// bearerSecurity documents that an operation needs an API token.
var bearerSecurity = []map[string][]string{{"bearer": {}}, {"token": {}}}

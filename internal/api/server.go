package api

import (
	"context"
	"net/http"
	"time"

	"github.com/falmar/swarmkeeper/internal/manager"
	"github.com/falmar/swarmkeeper/internal/observability"
	"github.com/falmar/swarmkeeper/internal/registry"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Registry is the registry browsing surface; *registry.Client satisfies it.
type Registry interface {
	ListRepositories(ctx context.Context) []string
	ListTags(ctx context.Context, repository string) []string
	GetTag(ctx context.Context, repository, tag string) (*registry.TagDetail, error)
	DeleteTag(ctx context.Context, repository, tag string) error
}

type Config struct {
	Addr        string
	Version     string
	ProjectsDir string

	Manager  *manager.Service
	Registry Registry
	Logger   *zerolog.Logger
}

type server struct {
	version     string
	projectsDir string
	svc         *manager.Service
	registry    Registry
}

func NewServer(cfg *Config) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func NewRouter(cfg *Config) http.Handler {
	s := &server{
		version:     cfg.Version,
		projectsDir: cfg.ProjectsDir,
		svc:         cfg.Manager,
		registry:    cfg.Registry,
	}

	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	observability.RegisterMetrics()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(observability.RequestLogger(logger))
	router.Use(observability.RequestMetrics)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "route not found")
	})

	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/health/detailed", s.handleHealthDetailed)

		r.Route("/nodes", func(r chi.Router) {
			r.Get("/", s.handleListNodes)
			r.Get("/{id}", s.handleGetNode)
			r.Post("/{id}/drain", s.handleDrainNode)
			r.Post("/{id}/activate", s.handleActivateNode)
		})

		r.Route("/services", func(r chi.Router) {
			r.Get("/", s.handleListServices)
			r.Post("/", s.handleCreateService)
			r.Get("/live", s.handleLiveServices)
			r.Get("/{name}", s.handleGetService)
			r.Put("/{name}", s.handleUpdateService)
			r.Delete("/{name}", s.handleDeleteService)
			r.Post("/{name}/deploy", s.handleDeploy)
			r.Post("/{name}/update", s.handleRedeploy)
			r.Post("/{name}/stop", s.handleStop)
			r.Post("/{name}/scale", s.handleScale)
			r.Post("/{name}/build", s.handleBuild)
			r.Get("/{name}/logs", s.handleLogs)
		})

		r.Get("/builds/{id}", s.handleGetBuild)
		r.Get("/projects", s.handleListProjects)

		r.Route("/registry", func(r chi.Router) {
			r.Get("/repositories", s.handleListRepositories)
			r.Get("/tags", s.handleListTags)
			r.Get("/tag", s.handleGetTag)
			r.Delete("/tag", s.handleDeleteTag)
		})
	})

	return router
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": s.version,
	})
}

func (s *server) handleHealthDetailed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Health(r.Context()))
}

package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/sandeepkv93/product-catalog-api/internal/health"
	"github.com/sandeepkv93/product-catalog-api/internal/http/handler"
	"github.com/sandeepkv93/product-catalog-api/internal/http/middleware"
	"github.com/sandeepkv93/product-catalog-api/internal/http/response"
)

const defaultMaxBodyBytes = 10 << 20

type Dependencies struct {
	ProductHandler *handler.ProductHandler
	MediaHandler   *handler.MediaHandler
	CORSOrigins    []string
	MaxBodyBytes   int64
	Readiness      *health.ProbeRunner
	EnableOTelHTTP bool
	Logger         *slog.Logger
}

func NewRouter(dep Dependencies) http.Handler {
	maxBody := dep.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(dep.Logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(dep.CORSOrigins))
	r.Use(middleware.BodyLimit(maxBody))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "Rota não encontrada", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, r, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Método não permitido", nil)
	})

	r.Get("/health/live", func(w http.ResponseWriter, r *http.Request) {
		response.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if dep.Readiness == nil {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": []any{}})
			return
		}
		ready, results := dep.Readiness.Ready(r.Context())
		if ready {
			response.JSON(w, r, http.StatusOK, map[string]any{"status": "ready", "checks": results})
			return
		}
		response.Error(w, r, http.StatusServiceUnavailable, "DEPENDENCY_UNREADY", "dependencies are not ready", map[string]any{"checks": results})
	})

	r.Post("/upload", dep.MediaHandler.Upload)
	r.Route("/products", func(r chi.Router) {
		r.Get("/", dep.ProductHandler.List)
		r.Post("/", dep.ProductHandler.Create)
		r.Get("/{id}", dep.ProductHandler.GetByID)
		r.Put("/{id}", dep.ProductHandler.Update)
		r.Delete("/{id}", dep.ProductHandler.Delete)
	})

	var h http.Handler = r
	if dep.EnableOTelHTTP {
		h = otelhttp.NewHandler(r, "http.server")
	}
	return h
}

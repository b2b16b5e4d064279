/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestLogger: Request logging to the shared log output
  2. Recoverer:     Panic recovery (500 instead of crash)
  3. RequestID:     Unique ID per request for tracing
  4. CORS:          Cross-origin requests from the dashboard UI

ROUTE GROUPS:
  /api/reports/*     Reports and their exports
  /api/stats         Dashboard counters
  /api/schema        Table layout
  /api/notifications Toast history
  /api/sync/log      Remote interaction journal
  /api/remote        Remote endpoint settings
  /ws                Live notifications
  /metrics           Prometheus
  /health            Liveness
  /                  API index

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/opsreport/serve.go: Server startup
*/
package api

import (
	"io"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions tunes the router.
type RouterOptions struct {
	// AllowedOrigins for CORS and WebSocket origin checks.
	AllowedOrigins []string
	// LogOutput receives request logs. Nil means stderr.
	LogOutput io.Writer
	// Gatherer backs /metrics. Nil means the default registry.
	Gatherer prometheus.Gatherer
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	if opts.LogOutput == nil {
		opts.LogOutput = os.Stderr
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(opts.LogOutput, "[http] ", log.LstdFlags),
		NoColor: true,
	}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition", "X-Archive-Location"},
		AllowCredentials: false,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Report routes
		r.Route("/reports", func(r chi.Router) {
			r.Get("/", h.ListReports)
			r.Post("/", h.SaveReport)
			r.Get("/{date}", h.GetReport)
			r.Delete("/{date}", h.DeleteReport)
			r.Get("/{date}/issues", h.GetIssues)
			r.Get("/{date}/print", h.PrintReport)
			r.Get("/{date}/download", h.DownloadReport)
			r.Get("/{date}/export.xlsx", h.ExportXLSX)
			r.Post("/{date}/publish", h.PublishReport)
		})

		r.Get("/stats", h.GetStats)
		r.Get("/schema", h.GetSchema)
		r.Get("/notifications", h.ListNotifications)
		r.Get("/sync/log", h.ListSyncLog)

		// Remote settings
		r.Get("/remote", h.GetRemote)
		r.Put("/remote", h.UpdateRemote)
	})

	if h.Hub != nil {
		h.Hub.OriginPatterns = originPatterns(opts.AllowedOrigins)
		r.Handle("/ws", h.Hub)
	}
	r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	r.Get("/health", h.Health)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>IT Ops Report</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>IT Ops Report API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/reports">/api/reports</a> - List reports</li>
<li><a href="/api/stats">/api/stats</a> - Issue statistics</li>
<li><a href="/api/schema">/api/schema</a> - Table layout</li>
<li><a href="/api/notifications">/api/notifications</a> - Recent notifications</li>
<li><a href="/api/sync/log">/api/sync/log</a> - Sync history</li>
<li><a href="/api/remote">/api/remote</a> - Remote settings</li>
</ul>
</body>
</html>`))
	})

	return r
}

// originPatterns converts CORS origins ("http://localhost:*") into the host
// patterns websocket.Accept expects ("localhost:*").
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if rest, ok := strings.CutPrefix(o, "https://"); ok {
			o = rest
		} else if rest, ok := strings.CutPrefix(o, "http://"); ok {
			o = rest
		}
		patterns = append(patterns, o)
	}
	return patterns
}

package web

import (
	"context"
	"embed"
	"net/http"
	"time"

	"memberadmin/internal/adapters/http/middleware"
	"memberadmin/internal/adapters/http/perf"
	"memberadmin/internal/adapters/metrics"
	"memberadmin/internal/application/orchestrators"
	"memberadmin/internal/application/workspace"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Options holds the dependencies of the HTTP surface.
type Options struct {
	Production     bool
	Workspaces     *middleware.WorkspaceStore
	Source         orchestrators.MemberSource
	Metrics        *metrics.Metrics            // optional
	Alerts         *orchestrators.FetchAlerter // optional
	Collector      *perf.Collector             // optional
	CSRFKey        []byte
	TrustedOrigins []string
	SlowRequest    time.Duration

	// Limiter is created from RateLimitPerSecond when nil.
	Limiter *middleware.RateLimiter

	// Banner is markdown shown above the table.
	Banner string
}

// Global workspace registry (set by NewMux)
var workspaces *middleware.WorkspaceStore

// Global member source used for initial loads and reloads
var memberSource orchestrators.MemberSource

// Global metrics instance; nil disables /metrics
var appMetrics *metrics.Metrics

// Global fetch-failure alerter; nil disables alerts
var fetchAlerts *orchestrators.FetchAlerter

// Global perf collector (set by NewMux)
var perfCollector *perf.Collector

// Markdown banner rendered on the members page
var banner string

// RateLimitPerSecond controls the per-IP rate limit. Tests can increase this.
var RateLimitPerSecond = 10

// NewMux wires HTTP handlers for the app.
// PRE: opts.Workspaces and opts.Source are non-nil; opts.CSRFKey is 32 bytes
// POST: Returns the fully wrapped handler
func NewMux(opts Options) http.Handler {
	workspaces = opts.Workspaces
	memberSource = opts.Source
	appMetrics = opts.Metrics
	fetchAlerts = opts.Alerts
	perfCollector = opts.Collector
	banner = opts.Banner
	middleware.SecureCookies = opts.Production

	mux := http.NewServeMux()
	mux.Handle("GET /static/", http.FileServerFS(staticFS))
	registerRoutes(mux)

	limiter := opts.Limiter
	if limiter == nil {
		limiter = middleware.NewRateLimiter(RateLimitPerSecond, time.Second)
	}

	// Apply middleware: Timing -> RateLimit -> CSRF -> SecurityHeaders -> Mux
	return middleware.Chain(mux,
		middleware.SecurityHeaders,
		middleware.CSRF(opts.CSRFKey, opts.TrustedOrigins),
		middleware.RateLimit(limiter),
		middleware.Timing(opts.Collector, opts.SlowRequest),
	)
}

// registerRoutes maps every route. Table routes run inside the caller's workspace.
func registerRoutes(mux *http.ServeMux) {
	inWorkspace := middleware.Workspaces(workspaces, loadWorkspace)
	handle := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, inWorkspace(h))
	}

	mux.HandleFunc("GET /{$}", handleRoot)
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /debug/perf", handlePerfSnapshot)
	if appMetrics != nil {
		mux.Handle("GET /metrics", appMetrics.Handler())
	}

	// HTML
	handle("GET /members", handleMembers)
	handle("POST /members/{id}/edit", handleBeginEdit)
	handle("POST /members/{id}/save", handleSaveEdit)
	handle("POST /members/{id}/cancel", handleCancelEdit)
	handle("POST /members/{id}/delete", handleDeleteMember)
	handle("POST /members/selection", handleSetSelection)
	handle("POST /members/selection/delete", handleDeleteSelected)
	handle("POST /members/reload", handleReload)

	// JSON API
	handle("GET /api/members", handleAPIMembers)
	handle("POST /api/search", handleAPISearch)
	handle("POST /api/page", handleAPIPage)
	handle("POST /api/edit/begin", handleAPIBeginEdit)
	handle("PATCH /api/edit/draft", handleAPISetDraft)
	handle("POST /api/edit/commit", handleAPICommitEdit)
	handle("POST /api/edit/cancel", handleAPICancelEdit)
	handle("DELETE /api/members/{id}", handleAPIDeleteMember)
	handle("PUT /api/selection", handleAPISetSelection)
	handle("POST /api/selection/delete", handleAPIDeleteSelected)
	handle("POST /api/reload", handleAPIReload)
}

// loadWorkspace runs the initial fetch for a new workspace.
// Failures are recorded on the workspace and logged by the orchestrator.
func loadWorkspace(ctx context.Context, ws *workspace.Workspace) {
	_, _ = orchestrators.ExecuteLoadMembers(ctx, orchestrators.LoadMembersInput{}, loadDeps(ws))
}

func loadDeps(ws *workspace.Workspace) orchestrators.LoadMembersDeps {
	deps := orchestrators.LoadMembersDeps{
		Workspace: ws,
		Source:    memberSource,
		Alerts:    fetchAlerts,
	}
	if appMetrics != nil {
		deps.Metrics = appMetrics
	}
	return deps
}

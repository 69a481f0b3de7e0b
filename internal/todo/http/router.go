package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/tasklet-dev/tasklet/internal/todo/metrics"
	"github.com/tasklet-dev/tasklet/internal/todo/service"
	"github.com/tasklet-dev/tasklet/internal/todo/store"
	"github.com/tasklet-dev/tasklet/pkg/httpx"
	"github.com/tasklet-dev/tasklet/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store            store.Store
	collector        *metrics.Collector
	UserService      *service.UserService
	TaskService      *service.TaskService
	SessionService   *service.SessionService
	AuthorizeService *service.AuthorizeService
}

func NewRouter(
	buildVersion string,
	st store.Store,
	collector *metrics.Collector,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		collector:    collector,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
		r.collector.HTTPMiddleware,
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerTasks()
	r.registerUsers()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	h := &AuthHandler{
		Users:    r.UserService,
		Sessions: r.SessionService,
	}

	session := SessionMiddleware(r.SessionService)

	r.Mux.Handle("POST /v1/auth/login", http.HandlerFunc(h.Login))
	r.Mux.Handle("POST /v1/auth/logout",
		httpx.Chain(http.HandlerFunc(h.Logout), session))
	r.Mux.Handle("POST /v1/auth/renew",
		httpx.Chain(http.HandlerFunc(h.Renew), session))
	r.Mux.Handle("GET /v1/auth/me",
		httpx.Chain(http.HandlerFunc(h.Me), session))
}

func (r *Router) registerTasks() {
	h := &TasksHandler{Tasks: r.TaskService}

	session := SessionMiddleware(r.SessionService)
	secured := func(fn http.HandlerFunc) http.Handler {
		return httpx.Chain(fn, session)
	}

	r.Mux.Handle("GET /v1/tasks", secured(h.List))
	r.Mux.Handle("POST /v1/tasks", secured(h.Create))
	r.Mux.Handle("DELETE /v1/tasks", secured(h.DeleteAll))
	r.Mux.Handle("POST /v1/tasks/samples", secured(h.GenerateSamples))
	r.Mux.Handle("GET /v1/tasks/{id}", secured(h.Get))
	r.Mux.Handle("PATCH /v1/tasks/{id}", secured(h.Update))
	r.Mux.Handle("DELETE /v1/tasks/{id}", secured(h.Delete))
}

func (r *Router) registerUsers() {
	h := &UsersHandler{Users: r.UserService}

	session := SessionMiddleware(r.SessionService)
	admin := AdminMiddleware(r.AuthorizeService)
	adminOnly := func(fn http.HandlerFunc) http.Handler {
		// order matters: the session middleware runs first and puts the
		// token on the context for the admin check
		return httpx.Chain(fn, session, admin)
	}

	r.Mux.Handle("POST /v1/users", http.HandlerFunc(h.Create))
	r.Mux.Handle("POST /v1/admin/users", adminOnly(h.CreateAsAdmin))
	r.Mux.Handle("GET /v1/users", adminOnly(h.List))
	r.Mux.Handle("GET /v1/users/{id}", adminOnly(h.Get))
	r.Mux.Handle("PATCH /v1/users/{id}", adminOnly(h.Update))
	r.Mux.Handle("DELETE /v1/users/{id}", adminOnly(h.Delete))
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
	r.Mux.Handle("GET /metrics", r.collector.Handler())
}

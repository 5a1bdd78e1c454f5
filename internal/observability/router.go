package observability

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/danpasecinic/spindle"
	"github.com/danpasecinic/spindle/internal/container"
)

type grapher interface {
	Graph() container.GraphInfo
	SprintGraphDOT() string
}

// Router serves metrics, health and resolver introspection.
type Router struct {
	resolver *spindle.Resolver
	gatherer prometheus.Gatherer
	logger   *zap.Logger
}

func NewRouter(r *spindle.Resolver, gatherer prometheus.Gatherer, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{resolver: r, gatherer: gatherer, logger: logger}
}

func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(chimiddleware.Recoverer)
	router.Use(rt.logRequests)

	router.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	router.Get("/healthz", rt.live)
	router.Get("/readyz", rt.ready)

	router.Route(
		"/debug", func(r chi.Router) {
			r.Get("/containers", rt.containers)
			r.Get("/containers/{name}/graph", rt.graph)
			r.Get("/resolve", rt.resolve)
		},
	)
	return router
}

func (rt *Router) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(
		func(w http.ResponseWriter, req *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, req.ProtoMajor)
			next.ServeHTTP(ww, req)
			rt.logger.Debug(
				"request served",
				zap.String("path", req.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("request_id", chimiddleware.GetReqID(req.Context())),
			)
		},
	)
}

type healthResponse struct {
	Status  spindle.HealthStatus `json:"status"`
	Reports []healthEntry        `json:"reports"`
}

type healthEntry struct {
	Name      string               `json:"name"`
	Status    spindle.HealthStatus `json:"status"`
	Error     string               `json:"error,omitempty"`
	LatencyMS float64              `json:"latency_ms"`
}

func (rt *Router) live(w http.ResponseWriter, req *http.Request) {
	rt.writeHealth(w, rt.resolver.Health(req.Context()))
}

func (rt *Router) ready(w http.ResponseWriter, req *http.Request) {
	rt.writeHealth(w, rt.resolver.Readiness(req.Context()))
}

func (rt *Router) writeHealth(w http.ResponseWriter, reports []spindle.HealthReport) {
	resp := healthResponse{Status: spindle.HealthStatusUp, Reports: make([]healthEntry, 0, len(reports))}
	for _, r := range reports {
		entry := healthEntry{Name: r.Name, Status: r.Status, LatencyMS: float64(r.Latency.Microseconds()) / 1000}
		if r.Error != nil {
			entry.Error = r.Error.Error()
		}
		if r.Status == spindle.HealthStatusDown {
			resp.Status = spindle.HealthStatusDown
		}
		resp.Reports = append(resp.Reports, entry)
	}

	status := http.StatusOK
	if resp.Status == spindle.HealthStatusDown {
		status = http.StatusServiceUnavailable
	}
	rt.writeJSON(w, status, resp)
}

type containersResponse struct {
	Attached map[string]string `json:"attached"`
	Modules  []moduleEntry     `json:"modules"`
}

type moduleEntry struct {
	Name   string `json:"name"`
	Loaded bool   `json:"loaded"`
}

func (rt *Router) containers(w http.ResponseWriter, _ *http.Request) {
	resp := containersResponse{Attached: make(map[string]string), Modules: []moduleEntry{}}
	for _, role := range rt.resolver.Containers() {
		c, _ := rt.resolver.AttachedContainer(role)
		resp.Attached[role] = spindle.ContainerName(role, c)
	}
	for _, name := range rt.resolver.ModuleContainers() {
		_, loaded := rt.resolver.ModuleContainer(name)
		resp.Modules = append(resp.Modules, moduleEntry{Name: name, Loaded: loaded})
	}
	rt.writeJSON(w, http.StatusOK, resp)
}

// graph accepts an attached role or a module container name.
func (rt *Router) graph(w http.ResponseWriter, req *http.Request) {
	name := chi.URLParam(req, "name")

	c, ok := rt.resolver.AttachedContainer(name)
	if !ok {
		c, ok = rt.resolver.ModuleContainer(name)
	}
	if !ok {
		rt.writeError(w, http.StatusNotFound, fmt.Errorf("container %s is not attached or not loaded", name))
		return
	}

	g, ok := c.(grapher)
	if !ok {
		rt.writeError(w, http.StatusNotImplemented, fmt.Errorf("container %s cannot describe its graph", name))
		return
	}

	if req.URL.Query().Get("format") == "dot" {
		w.Header().Set("Content-Type", "text/vnd.graphviz")
		_, _ = w.Write([]byte(g.SprintGraphDOT()))
		return
	}
	rt.writeJSON(w, http.StatusOK, g.Graph())
}

type resolveResponse struct {
	ID     string          `json:"id"`
	Found  bool            `json:"found"`
	Type   string          `json:"type,omitempty"`
	Error  string          `json:"error,omitempty"`
	Checks []spindle.Check `json:"checks,omitempty"`
}

func (rt *Router) resolve(w http.ResponseWriter, req *http.Request) {
	id := req.URL.Query().Get("id")
	if id == "" {
		rt.writeError(w, http.StatusBadRequest, errors.New("missing id query parameter"))
		return
	}

	resp := resolveResponse{ID: id}
	v, err := rt.resolver.Get(id)
	switch {
	case err != nil:
		resp.Error = err.Error()
		var e *spindle.Error
		if errors.As(err, &e) {
			resp.Checks = e.Checks
		}
		status := http.StatusInternalServerError
		if spindle.IsNotFound(err) {
			status = http.StatusNotFound
		}
		rt.writeJSON(w, status, resp)
		return
	case v == nil:
		rt.writeJSON(w, http.StatusNotFound, resp)
		return
	}

	resp.Found = true
	resp.Type = fmt.Sprintf("%T", v)
	rt.writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) writeError(w http.ResponseWriter, status int, err error) {
	rt.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (rt *Router) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		rt.logger.Warn("failed to encode response", zap.Error(err))
	}
}

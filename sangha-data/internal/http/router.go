package httpapi

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Router uses the standard library http.ServeMux.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
	r.mux.ServeHTTP(sw, req)
	r.logger.Debug("HTTP request",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", sw.status),
		zap.Duration("duration", time.Since(start)),
	)
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// RegisterHealthRoutes registers liveness and the form catalog.
func (r *Router) RegisterHealthRoutes(h *HealthHandler) {
	r.Handle("/healthz", h.Healthz)
	r.Handle("/api/v1/catalog", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		h.Catalog(w, req)
	})
}

// RegisterMemberRoutes registers member CRUD, snapshot and spreadsheet routes.
func (r *Router) RegisterMemberRoutes(m *MembersHandler) {
	r.Handle("/api/v1/members", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodGet:
			m.List(w, req)
		case http.MethodPost:
			m.Save(w, req)
		default:
			methodNotAllowed(w)
		}
	})

	r.Handle("/api/v1/members/", func(w http.ResponseWriter, req *http.Request) {
		rest := strings.TrimPrefix(req.URL.Path, "/api/v1/members/")
		switch {
		case rest == "draft":
			onlyMethod(w, req, http.MethodGet, m.Draft)
		case rest == "snapshot":
			onlyMethod(w, req, http.MethodGet, m.Snapshot)
		case rest == "export":
			onlyMethod(w, req, http.MethodGet, m.Export)
		case rest == "import":
			onlyMethod(w, req, http.MethodPost, m.Import)
		case rest == "" || strings.Contains(rest, "/"):
			w.WriteHeader(http.StatusNotFound)
		default:
			switch req.Method {
			case http.MethodGet:
				m.Get(w, req, rest)
			case http.MethodPut:
				m.Replace(w, req, rest)
			case http.MethodPatch:
				m.Edit(w, req, rest)
			case http.MethodDelete:
				m.Delete(w, req, rest)
			default:
				methodNotAllowed(w)
			}
		}
	})
}

// RegisterStatsRoutes registers the search-view statistics and the dashboard.
func (r *Router) RegisterStatsRoutes(s *StatsHandler) {
	r.Handle("/api/v1/stats", func(w http.ResponseWriter, req *http.Request) {
		onlyMethod(w, req, http.MethodGet, s.Report)
	})
	r.Handle("/api/v1/stats/dashboard", func(w http.ResponseWriter, req *http.Request) {
		onlyMethod(w, req, http.MethodGet, s.Dashboard)
	})
	r.Handle("/api/v1/stats/breakdown/", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		kind := strings.TrimPrefix(req.URL.Path, "/api/v1/stats/breakdown/")
		if kind == "" || strings.Contains(kind, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.Breakdown(w, req, kind)
	})
}

func onlyMethod(w http.ResponseWriter, req *http.Request, method string, h http.HandlerFunc) {
	if req.Method != method {
		methodNotAllowed(w)
		return
	}
	h(w, req)
}

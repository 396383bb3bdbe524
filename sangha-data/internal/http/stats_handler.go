package httpapi

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"sangha/sangha-common/domain"
	"sangha/sangha-data/internal/service"
)

// StatsHandler serves the aggregate views.
type StatsHandler struct {
	stats  service.StatsService
	logger *zap.Logger
}

func NewStatsHandler(stats service.StatsService, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, logger: logger}
}

// GET /api/v1/stats?search=&members=false
// The filtered member list is included unless members=false.
func (h *StatsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.stats.Report(r.Context(), r.URL.Query().Get("search"))
	if err != nil {
		h.logger.Error("Stats report failed", zap.Error(err))
		writeError(w, err)
		return
	}
	if r.URL.Query().Get("members") == "false" {
		report.Members = nil
	}
	writeJSON(w, http.StatusOK, Ok(report))
}

// GET /api/v1/stats/breakdown/{kind}?search=
func (h *StatsHandler) Breakdown(w http.ResponseWriter, r *http.Request, kind string) {
	k, ok := domain.ParseStatusKind(kind)
	if !ok {
		writeJSON(w, http.StatusNotFound, Fail(fmt.Sprintf("unknown status kind %q", kind)))
		return
	}
	tally, err := h.stats.Breakdown(r.Context(), k, r.URL.Query().Get("search"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"kind":   k,
		"monk":   tally.Monk,
		"novice": tally.Novice,
		"total":  tally.Total,
	}))
}

// GET /api/v1/stats/dashboard
func (h *StatsHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.stats.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("Dashboard failed", zap.Error(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(d))
}

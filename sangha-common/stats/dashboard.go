package stats

import (
	"time"

	"sangha/sangha-common/domain"
)

// Dashboard sources.
const (
	SourceAggregator = "aggregator"
	SourceLocal      = "local"
)

// Dashboard is the unfiltered summary the aggregator caches and broadcasts.
type Dashboard struct {
	Epoch      string    `json:"epoch"`
	Revision   uint64    `json:"revision"`
	ComputedAt time.Time `json:"computedAt"`
	Source     string    `json:"source"`
	Summary    Summary   `json:"summary"`
	Cards      []Card    `json:"cards"`
}

// NewDashboard strips the member list from an unfiltered report.
func NewDashboard(r Report, source string, at time.Time) Dashboard {
	return Dashboard{
		Epoch:      r.Epoch,
		Revision:   r.Revision,
		ComputedAt: at.UTC(),
		Source:     source,
		Summary:    r.Summary,
		Cards:      r.Cards,
	}
}

// Version returns the store version the dashboard describes.
func (d Dashboard) Version() domain.Version {
	return domain.Version{Epoch: d.Epoch, Revision: d.Revision}
}

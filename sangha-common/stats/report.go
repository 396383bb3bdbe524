package stats

import (
	"sync"

	"sangha/sangha-common/domain"
)

// Report is everything the search view renders for one (snapshot, term) pair.
type Report struct {
	Term     string          `json:"term"`
	Epoch    string          `json:"epoch"`
	Revision uint64          `json:"revision"`
	Total    int             `json:"total"`
	Members  []domain.Member `json:"members"`
	Summary  Summary         `json:"summary"`
	Cards    []Card          `json:"cards"`
}

// Compute filters snap by term and aggregates the result.
func Compute(snap domain.Snapshot, term string) Report {
	filtered := Filter(snap.Members, term)
	summary := Summarize(filtered)
	return Report{
		Term:     term,
		Epoch:    snap.Epoch,
		Revision: snap.Revision,
		Total:    len(snap.Members),
		Members:  filtered,
		Summary:  summary,
		Cards:    Cards(summary),
	}
}

// DefaultMemoSize bounds the number of search terms cached per revision.
const DefaultMemoSize = 64

// Version returns the store version the report was computed from.
func (r Report) Version() domain.Version {
	return domain.Version{Epoch: r.Epoch, Revision: r.Revision}
}

// Memo caches reports by (snapshot version, normalized term).
//
// A snapshot with a newer revision or from another store epoch drops every
// cached term. A report computed from an older snapshot is returned to its
// caller but never cached, so a slow computation cannot replace the results
// of a newer one.
type Memo struct {
	mu      sync.Mutex
	primed  bool
	version domain.Version
	limit   int
	reports map[string]Report
	order   []string
}

// NewMemo returns a memo holding at most limit terms (DefaultMemoSize if limit <= 0).
func NewMemo(limit int) *Memo {
	if limit <= 0 {
		limit = DefaultMemoSize
	}
	return &Memo{limit: limit, reports: make(map[string]Report)}
}

// Report returns the report for snap and term and whether it came from cache.
// Callers must treat the returned report as read-only.
func (m *Memo) Report(snap domain.Snapshot, term string) (Report, bool) {
	key := NormalizeTerm(term)

	m.mu.Lock()
	switch {
	case !m.primed || m.version.Epoch != snap.Epoch || m.version.Before(snap.Version()):
		m.reset(snap.Version())
	case snap.Version() == m.version:
		if r, ok := m.reports[key]; ok {
			m.mu.Unlock()
			r.Term = term
			return r, true
		}
	}
	m.mu.Unlock()

	r := Compute(snap, term)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.version == snap.Version() {
		m.store(key, r)
	}
	return r, false
}

// Revision reports the revision the memo currently caches for.
func (m *Memo) Revision() uint64 {
	return m.Version().Revision
}

// Version reports the store version the memo currently caches for.
func (m *Memo) Version() domain.Version {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.version
}

// Len reports the number of cached terms.
func (m *Memo) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.reports)
}

func (m *Memo) reset(v domain.Version) {
	m.primed = true
	m.version = v
	m.reports = make(map[string]Report)
	m.order = m.order[:0]
}

func (m *Memo) store(key string, r Report) {
	if _, ok := m.reports[key]; !ok {
		if len(m.order) >= m.limit {
			oldest := m.order[0]
			m.order = m.order[1:]
			delete(m.reports, oldest)
		}
		m.order = append(m.order, key)
	}
	m.reports[key] = r
}

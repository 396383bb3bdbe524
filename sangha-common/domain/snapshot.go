package domain

// Version identifies one state of the member store.
//
// Epoch names a store instance: the in-memory store draws a new one each time
// it starts, Postgres keeps one for the life of its tables. Revisions count
// mutations within an epoch and are only comparable inside it.
type Version struct {
	Epoch    string `json:"epoch"`
	Revision uint64 `json:"revision"`
}

// Before reports whether v is an older state of the same store than o.
// Versions from different epochs are never ordered.
func (v Version) Before(o Version) bool {
	return v.Epoch == o.Epoch && v.Revision < o.Revision
}

// Covers reports whether a dashboard computed at v already reflects state o.
func (v Version) Covers(o Version) bool {
	return v.Epoch == o.Epoch && v.Revision >= o.Revision
}

// Snapshot is an immutable, ordered view of the member store.
// Two snapshots with the same version hold the same members.
type Snapshot struct {
	Epoch    string   `json:"epoch"`
	Revision uint64   `json:"revision"`
	Members  []Member `json:"members"`
}

func (s Snapshot) Version() Version {
	return Version{Epoch: s.Epoch, Revision: s.Revision}
}

package domain

// Member event types published on every store mutation.
const (
	EventMemberCreated = "member.created"
	EventMemberUpdated = "member.updated"
	EventMemberDeleted = "member.deleted"
)

// MemberEvent announces that the collection changed and which version it
// reached. Consumers recompute from a fresh snapshot rather than from the event.
type MemberEvent struct {
	EventType string `json:"eventType"`
	MemberID  string `json:"memberId"`
	Epoch     string `json:"epoch"`
	Revision  uint64 `json:"revision"`
	Timestamp int64  `json:"timestamp"`
}

func (e MemberEvent) Version() Version {
	return Version{Epoch: e.Epoch, Revision: e.Revision}
}

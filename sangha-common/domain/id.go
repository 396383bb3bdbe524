package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidID is returned for a member id that cannot be addressed as
// /api/v1/members/{id}.
var ErrInvalidID = errors.New("invalid member id")

// reservedIDs are path segments the members routes claim for themselves.
var reservedIDs = map[string]struct{}{
	"draft":    {},
	"snapshot": {},
	"export":   {},
	"import":   {},
}

// CheckID rejects ids that collide with a members route or span path segments.
// The empty id is accepted; callers assign one.
func CheckID(id string) error {
	if _, ok := reservedIDs[id]; ok {
		return fmt.Errorf("%w: %q is reserved", ErrInvalidID, id)
	}
	if strings.Contains(id, "/") {
		return fmt.Errorf("%w: %q contains a slash", ErrInvalidID, id)
	}
	return nil
}

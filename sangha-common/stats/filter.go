package stats

import (
	"strings"

	"golang.org/x/text/cases"

	"sangha/sangha-common/domain"
)

// Filter returns the members whose id code or full name contains term,
// ignoring case. Input order is kept and an empty term keeps every member.
// The result never aliases the input slice.
func Filter(members []domain.Member, term string) []domain.Member {
	out := make([]domain.Member, 0, len(members))
	if term == "" {
		return append(out, members...)
	}

	// A Caser is stateful; one per call keeps Filter safe for concurrent use.
	folder := cases.Fold()
	needle := folder.String(term)
	for _, m := range members {
		if strings.Contains(folder.String(m.IDCode), needle) ||
			strings.Contains(folder.String(m.FullName), needle) {
			out = append(out, m)
		}
	}
	return out
}

// NormalizeTerm returns the key under which equivalent search terms share a
// cached report.
func NormalizeTerm(term string) string {
	if term == "" {
		return ""
	}
	return cases.Fold().String(term)
}

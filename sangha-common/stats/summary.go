package stats

import "sangha/sangha-common/domain"

// Tally is the monk/novice split of one status counter.
type Tally struct {
	Monk   int `json:"monk"`
	Novice int `json:"novice"`
	Total  int `json:"total"`
}

// EthnicTally counts members per ethnic-language group.
type EthnicTally struct {
	LaoTai       int `json:"laoTai"`
	MonKhmer     int `json:"monKhmer"`
	TibetoBurman int `json:"tibetoBurman"`
	HmongIuMien  int `json:"hmongIuMien"`
}

// Get returns the count for g.
func (e EthnicTally) Get(g domain.EthnicGroup) int {
	switch g {
	case domain.EthnicLaoTai:
		return e.LaoTai
	case domain.EthnicMonKhmer:
		return e.MonKhmer
	case domain.EthnicTibetoBurman:
		return e.TibetoBurman
	case domain.EthnicHmongIuMien:
		return e.HmongIuMien
	}
	return 0
}

// Summary is the aggregate over one filtered member list.
//
// TemplesWithMonks, TemplesWithoutMonks and TotalSims count members whose flag
// is set, while TotalTemples counts distinct temples. Percentages that divide
// the former by the latter can exceed 100.
type Summary struct {
	TotalSangha         int         `json:"totalSangha"`
	TotalMonks          int         `json:"totalMonks"`
	TotalNovices        int         `json:"totalNovices"`
	MoveOut             Tally       `json:"moveOut"`
	MoveIn              Tally       `json:"moveIn"`
	Resigned            Tally       `json:"resigned"`
	Dead                Tally       `json:"dead"`
	TotalTemples        int         `json:"totalTemples"`
	TemplesWithMonks    int         `json:"templesWithMonks"`
	TemplesWithoutMonks int         `json:"templesWithoutMonks"`
	TotalSims           int         `json:"totalSims"`
	EthnicGroups        EthnicTally `json:"ethnicGroups"`
}

// Summarize aggregates filtered in a single pass.
func Summarize(filtered []domain.Member) Summary {
	s := Summary{TotalSangha: len(filtered)}
	temples := make(map[string]struct{})

	for i := range filtered {
		m := &filtered[i]

		switch m.Title {
		case domain.TitleMonk:
			s.TotalMonks++
		case domain.TitleNovice:
			s.TotalNovices++
		}

		addTally(&s.MoveOut, m.MoveOut.Monk, m.MoveOut.Novice)
		addTally(&s.MoveIn, m.MoveIn.Monk, m.MoveIn.Novice)
		addTally(&s.Resigned, m.Resigned.Monk, m.Resigned.Novice)
		addTally(&s.Dead, m.Dead.Monk, m.Dead.Novice)

		if t := m.CurrentAddress.Temple; t != "" {
			temples[t] = struct{}{}
		}
		if m.HasTempleMonks.Has() {
			s.TemplesWithMonks++
		}
		if m.NoTempleMonks.Has() {
			s.TemplesWithoutMonks++
		}
		if m.HasSim.Has() {
			s.TotalSims++
		}

		switch m.EthnicGroup {
		case domain.EthnicLaoTai:
			s.EthnicGroups.LaoTai++
		case domain.EthnicMonKhmer:
			s.EthnicGroups.MonKhmer++
		case domain.EthnicTibetoBurman:
			s.EthnicGroups.TibetoBurman++
		case domain.EthnicHmongIuMien:
			s.EthnicGroups.HmongIuMien++
		}
	}

	s.TotalTemples = len(temples)
	return s
}

func addTally(t *Tally, monk, novice domain.Count) {
	t.Monk += monk.Int()
	t.Novice += novice.Int()
	t.Total = t.Monk + t.Novice
}

// Breakdown returns the tally for kind; unknown kinds yield a zero tally.
func (s Summary) Breakdown(kind domain.StatusKind) Tally {
	switch kind {
	case domain.StatusMoveOut:
		return s.MoveOut
	case domain.StatusMoveIn:
		return s.MoveIn
	case domain.StatusResigned:
		return s.Resigned
	case domain.StatusDead:
		return s.Dead
	}
	return Tally{}
}

// Percentage is value/base*100, or 0 when base is not positive.
func Percentage(value, base int) float64 {
	if base <= 0 {
		return 0
	}
	return float64(value) / float64(base) * 100
}

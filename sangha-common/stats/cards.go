package stats

import (
	"fmt"

	"sangha/sangha-common/domain"
)

// Card is one dashboard tile.
type Card struct {
	Key        string  `json:"key"`
	Title      string  `json:"title"`
	Value      int     `json:"value"`
	Base       int     `json:"base"`
	Percentage float64 `json:"percentage"`
	Display    string  `json:"display"`
	// Breakdown is set on the status cards that open a monk/novice detail view.
	Breakdown *Tally `json:"breakdown,omitempty"`
}

func newCard(key, title string, value, base int) Card {
	p := Percentage(value, base)
	return Card{
		Key:        key,
		Title:      title,
		Value:      value,
		Base:       base,
		Percentage: p,
		Display:    fmt.Sprintf("%.1f%%", p),
	}
}

func statusCard(key, title string, t Tally, base int) Card {
	c := newCard(key, title, t.Total, base)
	tally := t
	c.Breakdown = &tally
	return c
}

// Cards lays out the fifteen dashboard tiles. People counts are relative to the
// sangha total and temple counts to the distinct-temple total; the two totals
// are relative to themselves, so they read 100% unless empty.
func Cards(s Summary) []Card {
	cards := []Card{
		newCard("totalSangha", "ພຣະສົງ-ສາມະເນນທັງໝົດ", s.TotalSangha, s.TotalSangha),
		newCard("totalMonks", "ພຣະສົງທັງໝົດ", s.TotalMonks, s.TotalSangha),
		newCard("totalNovices", "ສ.ນ ທັງໝົດ", s.TotalNovices, s.TotalSangha),
		statusCard(string(domain.StatusMoveOut), "ຍ້າຍອອກ", s.MoveOut, s.TotalSangha),
		statusCard(string(domain.StatusMoveIn), "ຍ້າຍເຂົ້າ", s.MoveIn, s.TotalSangha),
		statusCard(string(domain.StatusResigned), "ລາສິກຂາ", s.Resigned, s.TotalSangha),
		newCard("totalTemples", "ວັດທັງໝົດ", s.TotalTemples, s.TotalTemples),
		newCard("templesWithMonks", "ວັດທີ່ມີພຣະສົງ", s.TemplesWithMonks, s.TotalTemples),
		newCard("templesWithoutMonks", "ວັດທີ່ບໍ່ມີພຣະສົງ", s.TemplesWithoutMonks, s.TotalTemples),
		statusCard(string(domain.StatusDead), "ມໍລະນະພາບ", s.Dead, s.TotalSangha),
		newCard("totalSims", "ຈໍານວນສິມ", s.TotalSims, s.TotalTemples),
	}
	for _, g := range domain.EthnicGroups {
		cards = append(cards, newCard(ethnicKey(g), g.Label(), s.EthnicGroups.Get(g), s.TotalSangha))
	}
	return cards
}

func ethnicKey(g domain.EthnicGroup) string {
	switch g {
	case domain.EthnicLaoTai:
		return "laoTai"
	case domain.EthnicMonKhmer:
		return "monKhmer"
	case domain.EthnicTibetoBurman:
		return "tibetoBurman"
	case domain.EthnicHmongIuMien:
		return "hmongIuMien"
	}
	return string(g)
}

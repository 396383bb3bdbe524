package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Title is the role tag of a member.
type Title string

const (
	TitleMonk   Title = "Monk"
	TitleNovice Title = "Novice"
)

var titleAliases = map[string]Title{
	"monk":   TitleMonk,
	"ພຣະ":    TitleMonk,
	"novice": TitleNovice,
	"ສ.ນ":    TitleNovice,
}

// ParseTitle resolves a title id or its Lao label.
func ParseTitle(s string) (Title, bool) {
	return lookupTag(s, titleAliases)
}

func (t *Title) UnmarshalJSON(data []byte) error {
	return unmarshalTag(data, "title", titleAliases, t)
}

// EthnicGroup is one of the four ethnic-language group classifications.
type EthnicGroup string

const (
	EthnicLaoTai       EthnicGroup = "Lao-Tai"
	EthnicMonKhmer     EthnicGroup = "Mon-Khmer"
	EthnicTibetoBurman EthnicGroup = "Tibeto-Burman"
	EthnicHmongIuMien  EthnicGroup = "Hmong-IuMien"
)

// EthnicGroups lists the groups in reporting order.
var EthnicGroups = []EthnicGroup{EthnicLaoTai, EthnicMonKhmer, EthnicTibetoBurman, EthnicHmongIuMien}

var ethnicLabels = map[EthnicGroup]string{
	EthnicLaoTai:       "ໝວດພາສາລາວ-ໄຕ",
	EthnicMonKhmer:     "ໝວດພາສາມອນ-ຂະແມ",
	EthnicTibetoBurman: "ໝວດພາສາຈີນ-ຕີເບດ",
	EthnicHmongIuMien:  "ໝວດພາສາມົ້ງ-ອິວມ້ຽນ",
}

var ethnicAliases = func() map[string]EthnicGroup {
	m := make(map[string]EthnicGroup, len(EthnicGroups)*2)
	for _, g := range EthnicGroups {
		m[strings.ToLower(string(g))] = g
		m[ethnicLabels[g]] = g
	}
	return m
}()

// Label returns the Lao display label.
func (g EthnicGroup) Label() string { return ethnicLabels[g] }

// ParseEthnicGroup resolves a group id or its Lao label.
func ParseEthnicGroup(s string) (EthnicGroup, bool) {
	return lookupTag(s, ethnicAliases)
}

func (g *EthnicGroup) UnmarshalJSON(data []byte) error {
	return unmarshalTag(data, "ethnic group", ethnicAliases, g)
}

// Presence is the two-valued has/none tag used by the temple flags.
type Presence string

const (
	PresenceHas  Presence = "has"
	PresenceNone Presence = "none"
)

var presenceAliases = map[string]Presence{
	"has":   PresenceHas,
	"ມີ":    PresenceHas,
	"none":  PresenceNone,
	"ບໍ່ມີ": PresenceNone,
}

// ParsePresence resolves has/none or the Lao labels.
func ParsePresence(s string) (Presence, bool) {
	return lookupTag(s, presenceAliases)
}

// Has reports whether p is the "has" tag.
func (p Presence) Has() bool { return p == PresenceHas }

func (p *Presence) UnmarshalJSON(data []byte) error {
	return unmarshalTag(data, "presence", presenceAliases, p)
}

// FamilyRelation describes how the member's parents live.
type FamilyRelation string

const (
	RelationTogether  FamilyRelation = "together"
	RelationSeparated FamilyRelation = "separated"
	RelationDivorced  FamilyRelation = "divorced"
	RelationOther     FamilyRelation = "other"
)

var relationAliases = map[string]FamilyRelation{
	"together":        RelationTogether,
	"ພໍ່ແມ່ຢູ່ນໍາກັນ": RelationTogether,
	"separated":       RelationSeparated,
	"ແຍກກັນ":          RelationSeparated,
	"divorced":        RelationDivorced,
	"ຢ່າຮ້າງ":         RelationDivorced,
	"other":           RelationOther,
	"ອື່ນໆ":           RelationOther,
}

// ParseFamilyRelation resolves a relation id or its Lao label.
func ParseFamilyRelation(s string) (FamilyRelation, bool) {
	return lookupTag(s, relationAliases)
}

func (r *FamilyRelation) UnmarshalJSON(data []byte) error {
	return unmarshalTag(data, "family relation", relationAliases, r)
}

func lookupTag[T ~string](s string, aliases map[string]T) (T, bool) {
	s = strings.TrimSpace(s)
	if v, ok := aliases[s]; ok {
		return v, true
	}
	v, ok := aliases[strings.ToLower(s)]
	return v, ok
}

func unmarshalTag[T ~string](data []byte, what string, aliases map[string]T, out *T) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%s must be a string: %w", what, err)
	}
	v, ok := lookupTag(s, aliases)
	if !ok {
		return fmt.Errorf("unknown %s %q", what, s)
	}
	*out = v
	return nil
}

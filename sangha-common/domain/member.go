package domain

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Address is shared by the four address blocks and the family members' homes.
// Temple is only meaningful for the member's own addresses.
type Address struct {
	Temple   string `json:"temple,omitempty"`
	Village  string `json:"village"`
	District string `json:"district"`
	Province string `json:"province"`
}

// FamilyMember is the shape of the father, mother and guardian blocks.
type FamilyMember struct {
	FullName       string  `json:"fullName"`
	Age            Count   `json:"age"`
	Occupation     string  `json:"occupation"`
	Nationality    string  `json:"nationality"`
	Race           string  `json:"race"`
	Ethnicity      string  `json:"ethnicity"`
	CurrentAddress Address `json:"currentAddress"`
	Phone          string  `json:"phone"`
}

// StatusCounter counts monks and novices affected by a move or resignation.
type StatusCounter struct {
	Monk   Count  `json:"monk"`
	Novice Count  `json:"novice"`
	Date   string `json:"date"`
	Note   string `json:"note"`
}

// Total is derived on read.
func (s StatusCounter) Total() int { return s.Monk.Int() + s.Novice.Int() }

// DeathCounter counts deceased monks and novices. It carries no date.
type DeathCounter struct {
	Monk   Count `json:"monk"`
	Novice Count `json:"novice"`
}

// Total is derived on read.
func (d DeathCounter) Total() int { return d.Monk.Int() + d.Novice.Int() }

// Member is one monk or novice record.
type Member struct {
	ID         string    `json:"id"`
	RecordYear string    `json:"recordYear"`
	PhotoURL   string    `json:"photoUrl,omitempty"`
	IDCode     string    `json:"idCode"`
	FullName   string    `json:"fullName"`
	BirthDate  string    `json:"birthDate"`
	Age        Count     `json:"age"`
	Pansa      Count     `json:"pansa"`
	Title      Title     `json:"title"`
	CreatedAt  time.Time `json:"createdAt"`

	OriginalAddress            Address `json:"originalAddress"`
	OrdinationPlace            Address `json:"ordinationPlace"`
	OrdinationDate             string  `json:"ordinationDate"`
	OrdinationPermissionNumber string  `json:"ordinationPermissionNumber"`
	OrdinationPermissionDate   string  `json:"ordinationPermissionDate"`
	UpajjhayaName              string  `json:"upajjhayaName"`
	TransferDate               string  `json:"transferDate"`
	SuttiBookNumber            string  `json:"suttiBookNumber"`
	EducationLevel             string  `json:"educationLevel"`
	Nationality                string  `json:"nationality"`
	Race                       string  `json:"race"`
	Ethnicity                  string  `json:"ethnicity"`
	BirthPlace                 Address `json:"birthPlace"`
	CurrentAddress             Address `json:"currentAddress"`
	Phone                      string  `json:"phone"`

	Father   FamilyMember `json:"father"`
	Mother   FamilyMember `json:"mother"`
	Guardian FamilyMember `json:"guardian"`

	FamilyRelation      FamilyRelation `json:"familyRelation"`
	FamilyRelationOther string         `json:"familyRelationOther,omitempty"`

	Documents []string `json:"documents"`

	MoveOut  StatusCounter `json:"moveOut"`
	MoveIn   StatusCounter `json:"moveIn"`
	Resigned StatusCounter `json:"resigned"`
	Dead     DeathCounter  `json:"dead"`

	AllTemples     string   `json:"allTemples"`
	HasTempleMonks Presence `json:"hasTempleMonks"`
	NoTempleMonks  Presence `json:"noTempleMonks"`
	HasSim         Presence `json:"hasSim"`
	SimTemple      string   `json:"simTemple"`

	EthnicGroup EthnicGroup `json:"ethnicGroup"`
}

// FamilyRole selects one of the three family blocks.
type FamilyRole string

const (
	RoleFather   FamilyRole = "father"
	RoleMother   FamilyRole = "mother"
	RoleGuardian FamilyRole = "guardian"
)

// FamilyRoles lists the roles in form order.
var FamilyRoles = []FamilyRole{RoleFather, RoleMother, RoleGuardian}

// AddressKind selects one of the member's own address blocks.
type AddressKind string

const (
	AddressOriginal   AddressKind = "original"
	AddressOrdination AddressKind = "ordination"
	AddressBirth      AddressKind = "birth"
	AddressCurrent    AddressKind = "current"
)

// AddressKinds lists the kinds in form order.
var AddressKinds = []AddressKind{AddressOriginal, AddressOrdination, AddressBirth, AddressCurrent}

// StatusKind selects one of the four status counters.
type StatusKind string

const (
	StatusMoveOut  StatusKind = "moveOut"
	StatusMoveIn   StatusKind = "moveIn"
	StatusResigned StatusKind = "resigned"
	StatusDead     StatusKind = "dead"
)

// StatusKinds lists the counters in dashboard order.
var StatusKinds = []StatusKind{StatusMoveOut, StatusMoveIn, StatusResigned, StatusDead}

// ParseStatusKind resolves a counter name.
func ParseStatusKind(s string) (StatusKind, bool) {
	for _, k := range StatusKinds {
		if string(k) == s {
			return k, true
		}
	}
	return "", false
}

// Family returns the block for role, or nil for an unknown role.
func (m *Member) Family(role FamilyRole) *FamilyMember {
	switch role {
	case RoleFather:
		return &m.Father
	case RoleMother:
		return &m.Mother
	case RoleGuardian:
		return &m.Guardian
	}
	return nil
}

// Address returns the block for kind, or nil for an unknown kind.
func (m *Member) Address(kind AddressKind) *Address {
	switch kind {
	case AddressOriginal:
		return &m.OriginalAddress
	case AddressOrdination:
		return &m.OrdinationPlace
	case AddressBirth:
		return &m.BirthPlace
	case AddressCurrent:
		return &m.CurrentAddress
	}
	return nil
}

// StatusCounts returns monk and novice counts for kind.
func (m *Member) StatusCounts(kind StatusKind) (monk, novice int) {
	switch kind {
	case StatusMoveOut:
		return m.MoveOut.Monk.Int(), m.MoveOut.Novice.Int()
	case StatusMoveIn:
		return m.MoveIn.Monk.Int(), m.MoveIn.Novice.Int()
	case StatusResigned:
		return m.Resigned.Monk.Int(), m.Resigned.Novice.Int()
	case StatusDead:
		return m.Dead.Monk.Int(), m.Dead.Novice.Int()
	}
	return 0, 0
}

func emptyAddress() Address {
	return Address{Province: Provinces[0]}
}

func emptyFamily() FamilyMember {
	return FamilyMember{
		Nationality:    Nationalities[0],
		Race:           Races[0],
		Ethnicity:      Ethnicities[0],
		CurrentAddress: emptyAddress(),
	}
}

// NewMember returns a blank record with the entry-form defaults and a fresh id.
func NewMember(now time.Time) Member {
	today := now.Format("2006-01-02")
	return Member{
		ID:              uuid.NewString(),
		RecordYear:      strconv.Itoa(now.Year()),
		BirthDate:       today,
		Title:           TitleMonk,
		CreatedAt:       now.UTC(),
		OriginalAddress: emptyAddress(),
		OrdinationPlace: emptyAddress(),
		OrdinationDate:  today,
		EducationLevel:  EducationLevels[0],
		Nationality:     Nationalities[0],
		Race:            Races[0],
		Ethnicity:       Ethnicities[0],
		BirthPlace:      emptyAddress(),
		CurrentAddress:  emptyAddress(),
		Father:          emptyFamily(),
		Mother:          emptyFamily(),
		Guardian:        emptyFamily(),
		FamilyRelation:  RelationTogether,
		Documents:       []string{},
		AllTemples:      Temples[0],
		HasTempleMonks:  PresenceHas,
		NoTempleMonks:   PresenceNone,
		HasSim:          PresenceHas,
		SimTemple:       Temples[0],
		EthnicGroup:     EthnicLaoTai,
	}
}

// Normalize fills tags left empty by a partial payload with the form defaults,
// so every stored record has a valid title, ethnic group and presence flags.
func (m *Member) Normalize() {
	if m.Title == "" {
		m.Title = TitleMonk
	}
	if m.EthnicGroup == "" {
		m.EthnicGroup = EthnicLaoTai
	}
	if m.HasTempleMonks == "" {
		m.HasTempleMonks = PresenceHas
	}
	if m.NoTempleMonks == "" {
		m.NoTempleMonks = PresenceNone
	}
	if m.HasSim == "" {
		m.HasSim = PresenceHas
	}
	if m.FamilyRelation == "" {
		m.FamilyRelation = RelationTogether
	}
	if m.Documents == nil {
		m.Documents = []string{}
	}
}

// Clone returns a deep copy.
func (m Member) Clone() Member {
	out := m
	if m.Documents != nil {
		out.Documents = append([]string(nil), m.Documents...)
	}
	return out
}

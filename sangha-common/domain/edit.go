package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownEdit is returned for an edit group or target that does not exist.
var ErrUnknownEdit = errors.New("unknown edit")

// Edit replaces one logical field group of a member.
// The set of implementations is closed; DecodeEdit is the only place that maps
// wire tags to them.
type Edit interface {
	Apply(m *Member) error
	group() EditGroup
}

// EditGroup is the wire tag of an edit.
type EditGroup string

const (
	GroupIdentity       EditGroup = "identity"
	GroupBiography      EditGroup = "biography"
	GroupOrdination     EditGroup = "ordination"
	GroupClassification EditGroup = "classification"
	GroupAddress        EditGroup = "address"
	GroupFamily         EditGroup = "family"
	GroupRelation       EditGroup = "relation"
	GroupStatus         EditGroup = "status"
	GroupAffiliation    EditGroup = "affiliation"
	GroupDocuments      EditGroup = "documents"
)

type IdentityEdit struct {
	RecordYear string `json:"recordYear"`
	PhotoURL   string `json:"photoUrl"`
	IDCode     string `json:"idCode"`
	FullName   string `json:"fullName"`
}

func (e IdentityEdit) group() EditGroup { return GroupIdentity }

func (e IdentityEdit) Apply(m *Member) error {
	m.RecordYear = e.RecordYear
	m.PhotoURL = e.PhotoURL
	m.IDCode = e.IDCode
	m.FullName = e.FullName
	return nil
}

type BiographyEdit struct {
	BirthDate      string `json:"birthDate"`
	Age            Count  `json:"age"`
	Pansa          Count  `json:"pansa"`
	EducationLevel string `json:"educationLevel"`
	Nationality    string `json:"nationality"`
	Race           string `json:"race"`
	Ethnicity      string `json:"ethnicity"`
	Phone          string `json:"phone"`
}

func (e BiographyEdit) group() EditGroup { return GroupBiography }

func (e BiographyEdit) Apply(m *Member) error {
	m.BirthDate = e.BirthDate
	m.Age = e.Age
	m.Pansa = e.Pansa
	m.EducationLevel = e.EducationLevel
	m.Nationality = e.Nationality
	m.Race = e.Race
	m.Ethnicity = e.Ethnicity
	m.Phone = e.Phone
	return nil
}

type OrdinationEdit struct {
	OrdinationDate             string `json:"ordinationDate"`
	OrdinationPermissionNumber string `json:"ordinationPermissionNumber"`
	OrdinationPermissionDate   string `json:"ordinationPermissionDate"`
	UpajjhayaName              string `json:"upajjhayaName"`
	TransferDate               string `json:"transferDate"`
	SuttiBookNumber            string `json:"suttiBookNumber"`
}

func (e OrdinationEdit) group() EditGroup { return GroupOrdination }

func (e OrdinationEdit) Apply(m *Member) error {
	m.OrdinationDate = e.OrdinationDate
	m.OrdinationPermissionNumber = e.OrdinationPermissionNumber
	m.OrdinationPermissionDate = e.OrdinationPermissionDate
	m.UpajjhayaName = e.UpajjhayaName
	m.TransferDate = e.TransferDate
	m.SuttiBookNumber = e.SuttiBookNumber
	return nil
}

type ClassificationEdit struct {
	Title       Title       `json:"title"`
	EthnicGroup EthnicGroup `json:"ethnicGroup"`
}

func (e ClassificationEdit) group() EditGroup { return GroupClassification }

func (e ClassificationEdit) Apply(m *Member) error {
	if e.Title != "" {
		m.Title = e.Title
	}
	if e.EthnicGroup != "" {
		m.EthnicGroup = e.EthnicGroup
	}
	return nil
}

type AddressEdit struct {
	Kind    AddressKind
	Address Address
}

func (e AddressEdit) group() EditGroup { return GroupAddress }

func (e AddressEdit) Apply(m *Member) error {
	target := m.Address(e.Kind)
	if target == nil {
		return fmt.Errorf("%w: address kind %q", ErrUnknownEdit, e.Kind)
	}
	*target = e.Address
	return nil
}

type FamilyEdit struct {
	Role   FamilyRole
	Member FamilyMember
}

func (e FamilyEdit) group() EditGroup { return GroupFamily }

func (e FamilyEdit) Apply(m *Member) error {
	target := m.Family(e.Role)
	if target == nil {
		return fmt.Errorf("%w: family role %q", ErrUnknownEdit, e.Role)
	}
	*target = e.Member
	return nil
}

type RelationEdit struct {
	Relation FamilyRelation `json:"familyRelation"`
	Other    string         `json:"familyRelationOther"`
}

func (e RelationEdit) group() EditGroup { return GroupRelation }

func (e RelationEdit) Apply(m *Member) error {
	if e.Relation != "" {
		m.FamilyRelation = e.Relation
	}
	m.FamilyRelationOther = e.Other
	return nil
}

// StatusEdit replaces one counter. Date and Note are dropped for StatusDead.
type StatusEdit struct {
	Kind    StatusKind
	Counter StatusCounter
}

func (e StatusEdit) group() EditGroup { return GroupStatus }

func (e StatusEdit) Apply(m *Member) error {
	switch e.Kind {
	case StatusMoveOut:
		m.MoveOut = e.Counter
	case StatusMoveIn:
		m.MoveIn = e.Counter
	case StatusResigned:
		m.Resigned = e.Counter
	case StatusDead:
		m.Dead = DeathCounter{Monk: e.Counter.Monk, Novice: e.Counter.Novice}
	default:
		return fmt.Errorf("%w: status kind %q", ErrUnknownEdit, e.Kind)
	}
	return nil
}

type AffiliationEdit struct {
	AllTemples     string   `json:"allTemples"`
	HasTempleMonks Presence `json:"hasTempleMonks"`
	NoTempleMonks  Presence `json:"noTempleMonks"`
	HasSim         Presence `json:"hasSim"`
	SimTemple      string   `json:"simTemple"`
}

func (e AffiliationEdit) group() EditGroup { return GroupAffiliation }

func (e AffiliationEdit) Apply(m *Member) error {
	m.AllTemples = e.AllTemples
	if e.HasTempleMonks != "" {
		m.HasTempleMonks = e.HasTempleMonks
	}
	if e.NoTempleMonks != "" {
		m.NoTempleMonks = e.NoTempleMonks
	}
	if e.HasSim != "" {
		m.HasSim = e.HasSim
	}
	m.SimTemple = e.SimTemple
	return nil
}

type DocumentsEdit struct {
	Documents []string `json:"documents"`
}

func (e DocumentsEdit) group() EditGroup { return GroupDocuments }

func (e DocumentsEdit) Apply(m *Member) error {
	m.Documents = append([]string{}, e.Documents...)
	return nil
}

// GroupOf returns the wire tag of e.
func GroupOf(e Edit) EditGroup { return e.group() }

type editEnvelope struct {
	Group  EditGroup       `json:"group"`
	Target string          `json:"target,omitempty"`
	Value  json.RawMessage `json:"value"`
}

// DecodeEdit parses {"group": ..., "target": ..., "value": {...}}.
// Target names the address kind, family role or status kind for the groups
// that have several blocks.
func DecodeEdit(data []byte) (Edit, error) {
	var env editEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode edit: %w", err)
	}
	if len(env.Value) == 0 {
		env.Value = json.RawMessage("{}")
	}

	var (
		edit Edit
		err  error
	)
	switch env.Group {
	case GroupIdentity:
		edit, err = decodeValue[IdentityEdit](env.Value)
	case GroupBiography:
		edit, err = decodeValue[BiographyEdit](env.Value)
	case GroupOrdination:
		edit, err = decodeValue[OrdinationEdit](env.Value)
	case GroupClassification:
		edit, err = decodeValue[ClassificationEdit](env.Value)
	case GroupRelation:
		edit, err = decodeValue[RelationEdit](env.Value)
	case GroupAffiliation:
		edit, err = decodeValue[AffiliationEdit](env.Value)
	case GroupDocuments:
		edit, err = decodeValue[DocumentsEdit](env.Value)
	case GroupAddress:
		var a Address
		if err = json.Unmarshal(env.Value, &a); err == nil {
			edit = AddressEdit{Kind: AddressKind(env.Target), Address: a}
		}
	case GroupFamily:
		var f FamilyMember
		if err = json.Unmarshal(env.Value, &f); err == nil {
			edit = FamilyEdit{Role: FamilyRole(env.Target), Member: f}
		}
	case GroupStatus:
		var c StatusCounter
		if err = json.Unmarshal(env.Value, &c); err == nil {
			edit = StatusEdit{Kind: StatusKind(env.Target), Counter: c}
		}
	default:
		return nil, fmt.Errorf("%w: group %q", ErrUnknownEdit, env.Group)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s edit: %w", env.Group, err)
	}
	return edit, nil
}

func decodeValue[T Edit](raw json.RawMessage) (Edit, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

package domain

// Option lists offered by the entry form. The first entry of each list is the
// default of a new record.
var (
	Provinces = []string{
		"ນະຄອນຫຼວງວຽງຈັນ", "ຜົ້ງສາລີ", "ຫຼວງນໍ້າທາ", "ອຸດົມໄຊ", "ບໍ່ແກ້ວ", "ຫຼວງພຣະບາງ",
		"ຫົວພັນ", "ໄຊຍະບູລີ", "ຊຽງຂວາງ", "ວຽງຈັນ", "ບໍລິຄໍາໄຊ", "ຄໍາມ່ວນ", "ສະຫວັນນະເຂດ",
		"ສາລະວັນ", "ເຊກອງ", "ຈໍາປາສັກ", "ອັດຕະປື", "ໄຊສົມບູນ",
	}
	Nationalities   = []string{"ລາວ", "ອື່ນໆ"}
	Races           = []string{"ລາວ", "ອື່ນໆ"}
	Ethnicities     = []string{"ລາວ", "ມົ້ງ", "ກຶມມຸ", "ໄທ", "ພວນ", "ລື້", "ອື່ນໆ"}
	EducationLevels = []string{"ບໍ່ໄດ້ຮຽນ", "ປະຖົມ", "ມັດທະຍົມຕົ້ນ", "ມັດທະຍົມປາຍ", "ປະລິນຍາຕີ", "ປະລິນຍາໂທ", "ປະລິນຍາເອກ"}
	Temples         = []string{"ວັດອົງຕື້", "ວັດສີສະເກດ", "ວັດທາດຫຼວງ", "ວັດສີເມືອງ", "ວັດໄຊຍະພູມ", "ວັດພຣະບາດ", "ອື່ນໆ"}
)

// Catalog bundles the option lists for clients building the entry form.
type Catalog struct {
	Provinces       []string          `json:"provinces"`
	Nationalities   []string          `json:"nationalities"`
	Races           []string          `json:"races"`
	Ethnicities     []string          `json:"ethnicities"`
	EducationLevels []string          `json:"educationLevels"`
	Temples         []string          `json:"temples"`
	EthnicGroups    map[string]string `json:"ethnicGroups"`
}

// DefaultCatalog returns the built-in option lists.
func DefaultCatalog() Catalog {
	groups := make(map[string]string, len(EthnicGroups))
	for _, g := range EthnicGroups {
		groups[string(g)] = g.Label()
	}
	return Catalog{
		Provinces:       Provinces,
		Nationalities:   Nationalities,
		Races:           Races,
		Ethnicities:     Ethnicities,
		EducationLevels: EducationLevels,
		Temples:         Temples,
		EthnicGroups:    groups,
	}
}

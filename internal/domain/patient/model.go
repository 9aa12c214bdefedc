package patient

import (
	"time"

	"github.com/ehr/fhirstore/internal/platform/delimited"
	"github.com/ehr/fhirstore/internal/platform/versioning"
)

type Gender string

const (
	GenderUnknown      Gender = "unknown"
	GenderMale         Gender = "male"
	GenderFemale       Gender = "female"
	GenderUndetermined Gender = "undetermined"
)

// Patient maps to the patient table. Name and address components are kept
// as parallel lists: index i of every list describes the same name or
// address, with "" standing in for a missing component.
type Patient struct {
	versioning.State
	FirstNames    delimited.Strings `db:"first_names" json:"first_names"`
	LastNames     delimited.Strings `db:"last_names" json:"last_names"`
	AddressLines1 delimited.Strings `db:"address_lines1" json:"address_lines1"`
	AddressLines2 delimited.Strings `db:"address_lines2" json:"address_lines2"`
	PostalCodes   delimited.Strings `db:"postal_codes" json:"postal_codes"`
	Cities        delimited.Strings `db:"cities" json:"cities"`
	Countries     delimited.Strings `db:"countries" json:"countries"`
	States        delimited.Strings `db:"states" json:"states"`
	PeriodStarts  delimited.Strings `db:"period_starts" json:"period_starts"`
	PeriodEnds    delimited.Strings `db:"period_ends" json:"period_ends"`
	BirthDate     *time.Time        `db:"birth_date" json:"birth_date,omitempty"`
	Gender        Gender            `db:"gender" json:"gender"`
	Email         string            `db:"email" json:"email,omitempty"`
	Phone         string            `db:"phone" json:"phone,omitempty"`
	Mobile        string            `db:"mobile" json:"mobile,omitempty"`
	Active        bool              `db:"active" json:"active"`
	Deceased      bool              `db:"deceased" json:"deceased"`
	Nationality   string            `db:"nationality" json:"nationality,omitempty"`
}

// New returns a patient with the defaults of an unmapped resource.
func New() *Patient {
	return &Patient{Gender: GenderUnknown, Active: true}
}

func (p *Patient) Clone() *Patient {
	c := *p
	if p.BirthDate != nil {
		t := *p.BirthDate
		c.BirthDate = &t
	}
	return &c
}

// Table describes the patient and patient_record tables.
var Table = versioning.Table[*Patient]{
	Name:  "Patient",
	Table: "patient",
	Columns: []string{
		"first_names", "last_names", "address_lines1", "address_lines2",
		"postal_codes", "cities", "countries", "states", "period_starts", "period_ends",
		"birth_date", "gender", "email", "phone", "mobile", "active", "deceased", "nationality",
	},
	New: func() *Patient { return New() },
	Values: func(p *Patient) []any {
		return []any{
			p.FirstNames, p.LastNames, p.AddressLines1, p.AddressLines2,
			p.PostalCodes, p.Cities, p.Countries, p.States, p.PeriodStarts, p.PeriodEnds,
			p.BirthDate, string(p.Gender), p.Email, p.Phone, p.Mobile, p.Active, p.Deceased, p.Nationality,
		}
	},
	Targets: func(p *Patient) []any {
		return []any{
			&p.FirstNames, &p.LastNames, &p.AddressLines1, &p.AddressLines2,
			&p.PostalCodes, &p.Cities, &p.Countries, &p.States, &p.PeriodStarts, &p.PeriodEnds,
			&p.BirthDate, &p.Gender, &p.Email, &p.Phone, &p.Mobile, &p.Active, &p.Deceased, &p.Nationality,
		}
	},
}

package patient

import (
	"strconv"

	"github.com/ehr/fhirstore/internal/platform/delimited"
	"github.com/ehr/fhirstore/internal/platform/fhir"
)

// NationalityURL identifies the nationality extension.
const NationalityURL = "http://www.englishclub.com/vocabulary/world-countries-nationality.htm"

const resourceType = "Patient"

// MapResource converts a wire Patient into an entity. The entity ID is left
// for the caller to assign.
func MapResource(r fhir.Resource) (*Patient, error) {
	src, ok := r.(*fhir.Patient)
	if !ok || src == nil {
		return nil, fhir.NewWrongType(resourceType, r)
	}

	p := New()
	if src.Active != nil {
		p.Active = *src.Active
	}
	if src.DeceasedBoolean != nil {
		p.Deceased = *src.DeceasedBoolean
	}

	var first, last []string
	for _, name := range src.Name {
		first = append(first, firstOf(name.Given))
		last = append(last, firstOf(name.Family))
	}
	p.FirstNames = delimited.NewStrings(first...)
	p.LastNames = delimited.NewStrings(last...)

	for _, tp := range src.Telecom {
		switch {
		case tp.System == fhir.ContactSystemPhone && tp.Use == fhir.ContactUseHome && p.Phone == "":
			p.Phone = tp.Value
		case tp.System == fhir.ContactSystemPhone && tp.Use == fhir.ContactUseMobile && p.Mobile == "":
			p.Mobile = tp.Value
		case tp.System == fhir.ContactSystemEmail && tp.Use == fhir.ContactUseHome && p.Email == "":
			p.Email = tp.Value
		}
	}

	p.Gender = genderFromWire(src.Gender)

	if v, ok := src.ExtensionValue(NationalityURL); ok {
		p.Nationality = v
	}

	if src.BirthDate != "" {
		t, err := fhir.ParseDateTime(src.BirthDate)
		if err != nil {
			return nil, fhir.NewInvalidInput(resourceType, "birthDate: %v", err)
		}
		p.BirthDate = &t
	}

	var lines1, lines2, postal, cities, countries, states, starts, ends []string
	for _, a := range src.Address {
		lines1 = append(lines1, at(a.Line, 0))
		lines2 = append(lines2, at(a.Line, 1))
		postal = append(postal, a.PostalCode)
		cities = append(cities, a.City)
		countries = append(countries, a.Country)
		states = append(states, a.State)
		var start, end string
		if a.Period != nil {
			start, end = a.Period.Start, a.Period.End
		}
		starts = append(starts, start)
		ends = append(ends, end)
	}
	p.AddressLines1 = delimited.NewStrings(lines1...)
	p.AddressLines2 = delimited.NewStrings(lines2...)
	p.PostalCodes = delimited.NewStrings(postal...)
	p.Cities = delimited.NewStrings(cities...)
	p.Countries = delimited.NewStrings(countries...)
	p.States = delimited.NewStrings(states...)
	p.PeriodStarts = delimited.NewStrings(starts...)
	p.PeriodEnds = delimited.NewStrings(ends...)

	return p, nil
}

// MapModel converts an entity into a wire Patient.
func MapModel(p *Patient) (*fhir.Patient, error) {
	if p == nil {
		return nil, fhir.NewNullInput(resourceType)
	}

	active, deceased := p.Active, p.Deceased
	out := &fhir.Patient{
		Base:            fhir.Base{ID: strconv.FormatInt(p.ID, 10)},
		Active:          &active,
		DeceasedBoolean: &deceased,
		Gender:          genderToWire(p.Gender),
	}

	if p.Nationality != "" {
		out.Extension = []fhir.Extension{{URL: NationalityURL, ValueString: p.Nationality}}
	}

	for i := 0; i < maxLen(p.FirstNames, p.LastNames); i++ {
		name := fhir.HumanName{Use: "official"}
		if v := p.LastNames.At(i); v != "" {
			name.Family = []string{v}
		}
		if v := p.FirstNames.At(i); v != "" {
			name.Given = []string{v}
		}
		out.Name = append(out.Name, name)
	}

	if p.Phone != "" {
		out.Telecom = append(out.Telecom, fhir.ContactPoint{System: fhir.ContactSystemPhone, Value: p.Phone, Use: fhir.ContactUseHome})
	}
	if p.Mobile != "" {
		out.Telecom = append(out.Telecom, fhir.ContactPoint{System: fhir.ContactSystemPhone, Value: p.Mobile, Use: fhir.ContactUseMobile})
	}
	if p.Email != "" {
		out.Telecom = append(out.Telecom, fhir.ContactPoint{System: fhir.ContactSystemEmail, Value: p.Email, Use: fhir.ContactUseHome})
	}

	if p.BirthDate != nil {
		out.BirthDate = fhir.FormatDate(*p.BirthDate)
	}

	n := maxLen(p.AddressLines1, p.AddressLines2, p.PostalCodes, p.Cities,
		p.Countries, p.States, p.PeriodStarts, p.PeriodEnds)
	for i := 0; i < n; i++ {
		a := fhir.Address{
			PostalCode: p.PostalCodes.At(i),
			City:       p.Cities.At(i),
			Country:    p.Countries.At(i),
			State:      p.States.At(i),
		}
		switch l1, l2 := p.AddressLines1.At(i), p.AddressLines2.At(i); {
		case l2 != "":
			a.Line = []string{l1, l2}
		case l1 != "":
			a.Line = []string{l1}
		}
		if start, end := p.PeriodStarts.At(i), p.PeriodEnds.At(i); start != "" || end != "" {
			a.Period = &fhir.Period{Start: start, End: end}
		}
		out.Address = append(out.Address, a)
	}

	return out, nil
}

func genderFromWire(code string) Gender {
	switch code {
	case "male":
		return GenderMale
	case "female":
		return GenderFemale
	case "other":
		return GenderUndetermined
	default:
		return GenderUnknown
	}
}

func genderToWire(g Gender) string {
	switch g {
	case GenderMale:
		return "male"
	case GenderFemale:
		return "female"
	case GenderUndetermined:
		return "other"
	default:
		return "unknown"
	}
}

func firstOf(s []string) string { return at(s, 0) }

func at(s []string, i int) string {
	if i < len(s) {
		return s[i]
	}
	return ""
}

func maxLen(lists ...delimited.Strings) int {
	n := 0
	for _, l := range lists {
		if l.Len() > n {
			n = l.Len()
		}
	}
	return n
}

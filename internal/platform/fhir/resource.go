package fhir

// Namespace is the FHIR XML namespace.
const Namespace = "http://hl7.org/fhir"

// Resource is implemented by every wire resource the server exchanges.
type Resource interface {
	ResourceType() string
	ResourceID() string
	SetResourceID(id string)
}

// Base carries the elements shared by all resources.
type Base struct {
	ID   string `json:"id,omitempty"`
	Meta *Meta  `json:"meta,omitempty"`
}

func (b *Base) ResourceID() string      { return b.ID }
func (b *Base) SetResourceID(id string) { b.ID = id }
func (b *Base) SetMeta(m *Meta)         { b.Meta = m }

type Meta struct {
	VersionID   string `json:"versionId,omitempty"`
	LastUpdated string `json:"lastUpdated,omitempty"`
}

type Coding struct {
	System  string `json:"system,omitempty"`
	Code    string `json:"code,omitempty"`
	Display string `json:"display,omitempty"`
}

type CodeableConcept struct {
	Coding []Coding `json:"coding,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// FirstCoding returns the first coding, or an empty one.
func (cc *CodeableConcept) FirstCoding() Coding {
	if cc == nil || len(cc.Coding) == 0 {
		return Coding{}
	}
	return cc.Coding[0]
}

type Reference struct {
	Reference string `json:"reference,omitempty"`
	Display   string `json:"display,omitempty"`
}

// HumanName follows the DSTU2 shape where family is repeating.
type HumanName struct {
	Use    string   `json:"use,omitempty"`
	Family []string `json:"family,omitempty"`
	Given  []string `json:"given,omitempty"`
}

type ContactPoint struct {
	System string `json:"system,omitempty"`
	Value  string `json:"value,omitempty"`
	Use    string `json:"use,omitempty"`
}

type Address struct {
	Use        string   `json:"use,omitempty"`
	Line       []string `json:"line,omitempty"`
	City       string   `json:"city,omitempty"`
	State      string   `json:"state,omitempty"`
	PostalCode string   `json:"postalCode,omitempty"`
	Country    string   `json:"country,omitempty"`
	Period     *Period  `json:"period,omitempty"`
}

// Period holds FHIR dateTime strings as received on the wire.
type Period struct {
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type Extension struct {
	URL         string `json:"url" fhir:"attr"`
	ValueString string `json:"valueString,omitempty"`
}

type Quantity struct {
	Value  *float64 `json:"value,omitempty"`
	Unit   string   `json:"unit,omitempty"`
	System string   `json:"system,omitempty"`
	Code   string   `json:"code,omitempty"`
}

type SampledData struct {
	Origin     *Quantity `json:"origin,omitempty"`
	Period     *float64  `json:"period,omitempty"`
	Dimensions *int      `json:"dimensions,omitempty"`
	Data       string    `json:"data,omitempty"`
}

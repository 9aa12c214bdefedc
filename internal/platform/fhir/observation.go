package fhir

import "encoding/json"

// ValueKind discriminates the value[x] choice of an Observation or component.
type ValueKind int

const (
	ValueNone ValueKind = iota
	ValueQuantity
	ValueCodeableConcept
	ValueString
	ValueSampledData
	ValuePeriod
)

func (k ValueKind) String() string {
	switch k {
	case ValueQuantity:
		return "Quantity"
	case ValueCodeableConcept:
		return "CodeableConcept"
	case ValueString:
		return "string"
	case ValueSampledData:
		return "SampledData"
	case ValuePeriod:
		return "Period"
	}
	return "none"
}

// Value is the value[x] choice. At most one field is set on a valid resource.
type Value struct {
	ValueQuantity        *Quantity        `json:"valueQuantity,omitempty"`
	ValueCodeableConcept *CodeableConcept `json:"valueCodeableConcept,omitempty"`
	ValueString          *string          `json:"valueString,omitempty"`
	ValueSampledData     *SampledData     `json:"valueSampledData,omitempty"`
	ValuePeriod          *Period          `json:"valuePeriod,omitempty"`
}

// Kinds lists every populated choice in declaration order.
func (v Value) Kinds() []ValueKind {
	var kinds []ValueKind
	if v.ValueQuantity != nil {
		kinds = append(kinds, ValueQuantity)
	}
	if v.ValueCodeableConcept != nil {
		kinds = append(kinds, ValueCodeableConcept)
	}
	if v.ValueString != nil {
		kinds = append(kinds, ValueString)
	}
	if v.ValueSampledData != nil {
		kinds = append(kinds, ValueSampledData)
	}
	if v.ValuePeriod != nil {
		kinds = append(kinds, ValuePeriod)
	}
	return kinds
}

// Kind returns the populated choice, ValueNone when nothing is set.
func (v Value) Kind() ValueKind {
	if kinds := v.Kinds(); len(kinds) > 0 {
		return kinds[0]
	}
	return ValueNone
}

type Component struct {
	Code *CodeableConcept `json:"code,omitempty"`
	Value
}

type Observation struct {
	Base
	Status            string           `json:"status,omitempty"`
	Category          *CodeableConcept `json:"category,omitempty"`
	Code              *CodeableConcept `json:"code,omitempty"`
	Subject           *Reference       `json:"subject,omitempty"`
	EffectiveDateTime string           `json:"effectiveDateTime,omitempty"`
	EffectivePeriod   *Period          `json:"effectivePeriod,omitempty"`
	Issued            string           `json:"issued,omitempty"`
	Performer         []Reference      `json:"performer,omitempty"`
	Value
	Interpretation *CodeableConcept `json:"interpretation,omitempty"`
	Comments       string           `json:"comments,omitempty"`
	BodySite       *CodeableConcept `json:"bodySite,omitempty"`
	Device         *Reference       `json:"device,omitempty"`
	Component      []Component      `json:"component,omitempty"`
}

func (*Observation) ResourceType() string { return "Observation" }

func (o Observation) MarshalJSON() ([]byte, error) {
	type alias Observation
	return json.Marshal(struct {
		ResourceType string `json:"resourceType"`
		alias
	}{"Observation", alias(o)})
}

package fhir

import "encoding/json"

type Device struct {
	Base
	Type         *CodeableConcept `json:"type,omitempty"`
	Status       string           `json:"status,omitempty"`
	Manufacturer string           `json:"manufacturer,omitempty"`
	Model        string           `json:"model,omitempty"`
	Expiry       string           `json:"expiry,omitempty"`
	Udi          string           `json:"udi,omitempty"`
	LotNumber    string           `json:"lotNumber,omitempty"`
	Patient      *Reference       `json:"patient,omitempty"`
}

func (*Device) ResourceType() string { return "Device" }

func (d Device) MarshalJSON() ([]byte, error) {
	type alias Device
	return json.Marshal(struct {
		ResourceType string `json:"resourceType"`
		alias
	}{"Device", alias(d)})
}

package fhir

import "encoding/json"

// Contact point systems and uses recognised by the Patient mapping.
const (
	ContactSystemPhone = "phone"
	ContactSystemEmail = "email"
	ContactUseHome     = "home"
	ContactUseMobile   = "mobile"
)

type Patient struct {
	Base
	Extension       []Extension    `json:"extension,omitempty"`
	Active          *bool          `json:"active,omitempty"`
	Name            []HumanName    `json:"name,omitempty"`
	Telecom         []ContactPoint `json:"telecom,omitempty"`
	Gender          string         `json:"gender,omitempty"`
	BirthDate       string         `json:"birthDate,omitempty"`
	DeceasedBoolean *bool          `json:"deceasedBoolean,omitempty"`
	Address         []Address      `json:"address,omitempty"`
}

func (*Patient) ResourceType() string { return "Patient" }

func (p Patient) MarshalJSON() ([]byte, error) {
	type alias Patient
	return json.Marshal(struct {
		ResourceType string `json:"resourceType"`
		alias
	}{"Patient", alias(p)})
}

// ExtensionValue returns the valueString of the first extension with url.
func (p *Patient) ExtensionValue(url string) (string, bool) {
	for _, ext := range p.Extension {
		if ext.URL == url {
			return ext.ValueString, true
		}
	}
	return "", false
}

package device

import (
	"strconv"

	"github.com/ehr/fhirstore/internal/platform/fhir"
)

const resourceType = "Device"

func MapResource(r fhir.Resource) (*Device, error) {
	src, ok := r.(*fhir.Device)
	if !ok || src == nil {
		return nil, fhir.NewWrongType(resourceType, r)
	}

	d := New()
	if src.Type != nil {
		c := src.Type.FirstCoding()
		d.TypeSystem, d.TypeCode, d.TypeDisplay = c.System, c.Code, c.Display
		d.TypeText = src.Type.Text
	}
	d.Status = statusFromWire(src.Status)
	d.Manufacturer = src.Manufacturer
	d.Model = src.Model
	d.Udi = src.Udi
	d.LotNumber = src.LotNumber
	if src.Patient != nil {
		d.PatientReference = src.Patient.Reference
	}
	if src.Expiry != "" {
		t, err := fhir.ParseDateTime(src.Expiry)
		if err != nil {
			return nil, fhir.NewInvalidInput(resourceType, "expiry: %v", err)
		}
		d.Expiry = &t
	}
	return d, nil
}

func MapModel(d *Device) (*fhir.Device, error) {
	if d == nil {
		return nil, fhir.NewNullInput(resourceType)
	}

	out := &fhir.Device{
		Base:         fhir.Base{ID: strconv.FormatInt(d.ID, 10)},
		Status:       string(statusFromWire(string(d.Status))),
		Manufacturer: d.Manufacturer,
		Model:        d.Model,
		Udi:          d.Udi,
		LotNumber:    d.LotNumber,
	}
	if d.TypeSystem != "" || d.TypeCode != "" || d.TypeDisplay != "" || d.TypeText != "" {
		out.Type = &fhir.CodeableConcept{Text: d.TypeText}
		if d.TypeSystem != "" || d.TypeCode != "" || d.TypeDisplay != "" {
			out.Type.Coding = []fhir.Coding{{System: d.TypeSystem, Code: d.TypeCode, Display: d.TypeDisplay}}
		}
	}
	if d.Expiry != nil {
		out.Expiry = fhir.FormatDateTime(*d.Expiry)
	}
	if d.PatientReference != "" {
		out.Patient = &fhir.Reference{Reference: d.PatientReference}
	}
	return out, nil
}

// statusFromWire resolves unknown and missing codes to entered-in-error.
func statusFromWire(code string) Status {
	switch Status(code) {
	case StatusAvailable, StatusNotAvailable:
		return Status(code)
	default:
		return StatusEnteredInError
	}
}

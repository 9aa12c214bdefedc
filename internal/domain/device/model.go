package device

import (
	"time"

	"github.com/ehr/fhirstore/internal/platform/versioning"
)

type Status string

const (
	StatusAvailable      Status = "available"
	StatusNotAvailable   Status = "not-available"
	StatusEnteredInError Status = "entered-in-error"
)

// Device maps to the device table (FHIR Device resource).
type Device struct {
	versioning.State
	TypeSystem       string     `db:"type_system" json:"type_system,omitempty"`
	TypeCode         string     `db:"type_code" json:"type_code,omitempty"`
	TypeDisplay      string     `db:"type_display" json:"type_display,omitempty"`
	TypeText         string     `db:"type_text" json:"type_text,omitempty"`
	Status           Status     `db:"status" json:"status"`
	Manufacturer     string     `db:"manufacturer" json:"manufacturer,omitempty"`
	Model            string     `db:"model" json:"model,omitempty"`
	Expiry           *time.Time `db:"expiry" json:"expiry,omitempty"`
	Udi              string     `db:"udi" json:"udi,omitempty"`
	LotNumber        string     `db:"lot_number" json:"lot_number,omitempty"`
	PatientReference string     `db:"patient_reference" json:"patient_reference,omitempty"`
}

func New() *Device {
	return &Device{Status: StatusEnteredInError}
}

func (d *Device) Clone() *Device {
	c := *d
	if d.Expiry != nil {
		t := *d.Expiry
		c.Expiry = &t
	}
	return &c
}

var Table = versioning.Table[*Device]{
	Name:  "Device",
	Table: "device",
	Columns: []string{
		"type_system", "type_code", "type_display", "type_text", "status",
		"manufacturer", "model", "expiry", "udi", "lot_number", "patient_reference",
	},
	New: func() *Device { return New() },
	Values: func(d *Device) []any {
		return []any{
			d.TypeSystem, d.TypeCode, d.TypeDisplay, d.TypeText, string(d.Status),
			d.Manufacturer, d.Model, d.Expiry, d.Udi, d.LotNumber, d.PatientReference,
		}
	},
	Targets: func(d *Device) []any {
		return []any{
			&d.TypeSystem, &d.TypeCode, &d.TypeDisplay, &d.TypeText, &d.Status,
			&d.Manufacturer, &d.Model, &d.Expiry, &d.Udi, &d.LotNumber, &d.PatientReference,
		}
	},
}

package observation

import (
	"time"

	"github.com/ehr/fhirstore/internal/platform/delimited"
	"github.com/ehr/fhirstore/internal/platform/versioning"
)

type Status string

const (
	StatusRegistered     Status = "registered"
	StatusPreliminary    Status = "preliminary"
	StatusFinal          Status = "final"
	StatusAmended        Status = "amended"
	StatusCancelled      Status = "cancelled"
	StatusEnteredInError Status = "entered-in-error"
	StatusUnknown        Status = "unknown"
)

// Observation maps to the observation table.
//
// Value lists serve both modes. Without components each populated list
// holds exactly one element describing value[x]. With components, element
// i of the component code lists and of the populated value lists describe
// component i. Only the lists of one value shape are ever populated.
type Observation struct {
	versioning.State
	Status Status `db:"status" json:"status"`

	CategorySystem  delimited.Strings `db:"category_system" json:"category_system"`
	CategoryCode    delimited.Strings `db:"category_code" json:"category_code"`
	CategoryDisplay delimited.Strings `db:"category_display" json:"category_display"`
	CategoryText    string            `db:"category_text" json:"category_text,omitempty"`

	CodeSystem  delimited.Strings `db:"code_system" json:"code_system"`
	CodeCode    delimited.Strings `db:"code_code" json:"code_code"`
	CodeDisplay delimited.Strings `db:"code_display" json:"code_display"`
	CodeText    string            `db:"code_text" json:"code_text,omitempty"`

	PatientReference    string            `db:"patient_reference" json:"patient_reference,omitempty"`
	DeviceReference     string            `db:"device_reference" json:"device_reference,omitempty"`
	PerformerReferences delimited.Strings `db:"performer_references" json:"performer_references"`

	EffectiveDateTime    *time.Time `db:"effective_date_time" json:"effective_date_time,omitempty"`
	EffectivePeriodStart *time.Time `db:"effective_period_start" json:"effective_period_start,omitempty"`
	EffectivePeriodEnd   *time.Time `db:"effective_period_end" json:"effective_period_end,omitempty"`
	Issued               *time.Time `db:"issued" json:"issued,omitempty"`

	InterpretationSystem  string `db:"interpretation_system" json:"interpretation_system,omitempty"`
	InterpretationCode    string `db:"interpretation_code" json:"interpretation_code,omitempty"`
	InterpretationDisplay string `db:"interpretation_display" json:"interpretation_display,omitempty"`
	InterpretationText    string `db:"interpretation_text" json:"interpretation_text,omitempty"`

	Comments string `db:"comments" json:"comments,omitempty"`

	BodySiteSystem  string `db:"body_site_system" json:"body_site_system,omitempty"`
	BodySiteCode    string `db:"body_site_code" json:"body_site_code,omitempty"`
	BodySiteDisplay string `db:"body_site_display" json:"body_site_display,omitempty"`
	BodySiteText    string `db:"body_site_text" json:"body_site_text,omitempty"`

	ComponentCodeSystem  delimited.Strings `db:"component_code_system" json:"component_code_system"`
	ComponentCodeCode    delimited.Strings `db:"component_code_code" json:"component_code_code"`
	ComponentCodeDisplay delimited.Strings `db:"component_code_display" json:"component_code_display"`
	ComponentCodeText    delimited.Strings `db:"component_code_text" json:"component_code_text"`

	ValueQuantitySystem delimited.Strings  `db:"value_quantity_system" json:"value_quantity_system"`
	ValueQuantityCode   delimited.Strings  `db:"value_quantity_code" json:"value_quantity_code"`
	ValueQuantityUnit   delimited.Strings  `db:"value_quantity_unit" json:"value_quantity_unit"`
	ValueQuantityValue  delimited.Decimals `db:"value_quantity_value" json:"value_quantity_value"`

	ValueSystem  delimited.Strings `db:"value_system" json:"value_system"`
	ValueCode    delimited.Strings `db:"value_code" json:"value_code"`
	ValueDisplay delimited.Strings `db:"value_display" json:"value_display"`
	ValueText    delimited.Strings `db:"value_text" json:"value_text"`

	ValueString delimited.Strings `db:"value_string" json:"value_string"`

	ValueSampledDataOriginSystem delimited.Strings  `db:"value_sampled_data_origin_system" json:"value_sampled_data_origin_system"`
	ValueSampledDataOriginCode   delimited.Strings  `db:"value_sampled_data_origin_code" json:"value_sampled_data_origin_code"`
	ValueSampledDataOriginUnit   delimited.Strings  `db:"value_sampled_data_origin_unit" json:"value_sampled_data_origin_unit"`
	ValueSampledDataOriginValue  delimited.Decimals `db:"value_sampled_data_origin_value" json:"value_sampled_data_origin_value"`
	ValueSampledDataPeriod       delimited.Decimals `db:"value_sampled_data_period" json:"value_sampled_data_period"`
	ValueSampledDataDimensions   delimited.Ints     `db:"value_sampled_data_dimensions" json:"value_sampled_data_dimensions"`
	ValueSampledDataData         delimited.Strings  `db:"value_sampled_data_data" json:"value_sampled_data_data"`

	ValuePeriodStart delimited.DateTimes `db:"value_period_start" json:"value_period_start"`
	ValuePeriodEnd   delimited.DateTimes `db:"value_period_end" json:"value_period_end"`
}

func New() *Observation {
	return &Observation{Status: StatusEnteredInError}
}

func (o *Observation) Clone() *Observation {
	c := *o
	c.EffectiveDateTime = cloneTime(o.EffectiveDateTime)
	c.EffectivePeriodStart = cloneTime(o.EffectivePeriodStart)
	c.EffectivePeriodEnd = cloneTime(o.EffectivePeriodEnd)
	c.Issued = cloneTime(o.Issued)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

var Table = versioning.Table[*Observation]{
	Name:  "Observation",
	Table: "observation",
	Columns: []string{
		"status",
		"category_system", "category_code", "category_display", "category_text",
		"code_system", "code_code", "code_display", "code_text",
		"patient_reference", "device_reference", "performer_references",
		"effective_date_time", "effective_period_start", "effective_period_end", "issued",
		"interpretation_system", "interpretation_code", "interpretation_display", "interpretation_text",
		"comments",
		"body_site_system", "body_site_code", "body_site_display", "body_site_text",
		"component_code_system", "component_code_code", "component_code_display", "component_code_text",
		"value_quantity_system", "value_quantity_code", "value_quantity_unit", "value_quantity_value",
		"value_system", "value_code", "value_display", "value_text",
		"value_string",
		"value_sampled_data_origin_system", "value_sampled_data_origin_code", "value_sampled_data_origin_unit",
		"value_sampled_data_origin_value", "value_sampled_data_period", "value_sampled_data_dimensions",
		"value_sampled_data_data",
		"value_period_start", "value_period_end",
	},
	New: func() *Observation { return New() },
	Values: func(o *Observation) []any {
		return []any{
			string(o.Status),
			o.CategorySystem, o.CategoryCode, o.CategoryDisplay, o.CategoryText,
			o.CodeSystem, o.CodeCode, o.CodeDisplay, o.CodeText,
			o.PatientReference, o.DeviceReference, o.PerformerReferences,
			o.EffectiveDateTime, o.EffectivePeriodStart, o.EffectivePeriodEnd, o.Issued,
			o.InterpretationSystem, o.InterpretationCode, o.InterpretationDisplay, o.InterpretationText,
			o.Comments,
			o.BodySiteSystem, o.BodySiteCode, o.BodySiteDisplay, o.BodySiteText,
			o.ComponentCodeSystem, o.ComponentCodeCode, o.ComponentCodeDisplay, o.ComponentCodeText,
			o.ValueQuantitySystem, o.ValueQuantityCode, o.ValueQuantityUnit, o.ValueQuantityValue,
			o.ValueSystem, o.ValueCode, o.ValueDisplay, o.ValueText,
			o.ValueString,
			o.ValueSampledDataOriginSystem, o.ValueSampledDataOriginCode, o.ValueSampledDataOriginUnit,
			o.ValueSampledDataOriginValue, o.ValueSampledDataPeriod, o.ValueSampledDataDimensions,
			o.ValueSampledDataData,
			o.ValuePeriodStart, o.ValuePeriodEnd,
		}
	},
	Targets: func(o *Observation) []any {
		return []any{
			&o.Status,
			&o.CategorySystem, &o.CategoryCode, &o.CategoryDisplay, &o.CategoryText,
			&o.CodeSystem, &o.CodeCode, &o.CodeDisplay, &o.CodeText,
			&o.PatientReference, &o.DeviceReference, &o.PerformerReferences,
			&o.EffectiveDateTime, &o.EffectivePeriodStart, &o.EffectivePeriodEnd, &o.Issued,
			&o.InterpretationSystem, &o.InterpretationCode, &o.InterpretationDisplay, &o.InterpretationText,
			&o.Comments,
			&o.BodySiteSystem, &o.BodySiteCode, &o.BodySiteDisplay, &o.BodySiteText,
			&o.ComponentCodeSystem, &o.ComponentCodeCode, &o.ComponentCodeDisplay, &o.ComponentCodeText,
			&o.ValueQuantitySystem, &o.ValueQuantityCode, &o.ValueQuantityUnit, &o.ValueQuantityValue,
			&o.ValueSystem, &o.ValueCode, &o.ValueDisplay, &o.ValueText,
			&o.ValueString,
			&o.ValueSampledDataOriginSystem, &o.ValueSampledDataOriginCode, &o.ValueSampledDataOriginUnit,
			&o.ValueSampledDataOriginValue, &o.ValueSampledDataPeriod, &o.ValueSampledDataDimensions,
			&o.ValueSampledDataData,
			&o.ValuePeriodStart, &o.ValuePeriodEnd,
		}
	},
}

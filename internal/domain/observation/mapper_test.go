package observation

import (
	"database/sql"
	"database/sql/driver"
	"reflect"
	"strconv"
	"testing"
	"time"

	"github.com/ehr/fhirstore/internal/platform/delimited"
	"github.com/ehr/fhirstore/internal/platform/fhir"
)

func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }
func strPtr(s string) *string     { return &s }

func loinc(code string) *fhir.CodeableConcept {
	return &fhir.CodeableConcept{Coding: []fhir.Coding{{System: "http://loinc.org", Code: code}}}
}

func mmHg(v float64) fhir.Value {
	return fhir.Value{ValueQuantity: &fhir.Quantity{Value: floatPtr(v), Unit: "mmHg", System: "http://unitsofmeasure.org", Code: "mm[Hg]"}}
}

// bloodPressure is in the canonical form MapModel produces.
func bloodPressure() *fhir.Observation {
	return &fhir.Observation{
		Base:   fhir.Base{ID: "3"},
		Status: "final",
		Category: &fhir.CodeableConcept{
			Coding: []fhir.Coding{{System: "http://hl7.org/fhir/observation-category", Code: "vital-signs", Display: "Vital Signs"}},
		},
		Code: &fhir.CodeableConcept{
			Coding: []fhir.Coding{
				{System: "http://loinc.org", Code: "55284-4", Display: "Blood pressure systolic & diastolic"},
				{System: "http://snomed.info/sct", Code: "75367002"},
			},
			Text: "Blood pressure",
		},
		Subject:           &fhir.Reference{Reference: "Patient/12"},
		EffectiveDateTime: "2024-03-01T10:30:00Z",
		Issued:            "2024-03-01T10:35:12.5Z",
		Performer:         []fhir.Reference{{Reference: "Practitioner/1"}, {Reference: "Practitioner/2"}},
		Interpretation:    &fhir.CodeableConcept{Coding: []fhir.Coding{{System: "http://hl7.org/fhir/v2/0078", Code: "N"}}, Text: "normal"},
		Comments:          "seated, left arm",
		BodySite:          &fhir.CodeableConcept{Coding: []fhir.Coding{{System: "http://snomed.info/sct", Code: "368209003", Display: "Right arm"}}},
		Device:            &fhir.Reference{Reference: "Device/7"},
		Component: []fhir.Component{
			{Code: &fhir.CodeableConcept{Coding: []fhir.Coding{{System: "http://loinc.org", Code: "8480-6", Display: "Systolic"}}, Text: "sys"}, Value: mmHg(120)},
			{Code: &fhir.CodeableConcept{Coding: []fhir.Coding{{System: "http://loinc.org", Code: "8462-4", Display: "Diastolic"}}, Text: "dia"}, Value: mmHg(80.5)},
		},
	}
}

func TestMapResource_Components(t *testing.T) {
	o, err := MapResource(bloodPressure())
	if err != nil {
		t.Fatalf("MapResource: %v", err)
	}
	if o.Status != StatusFinal {
		t.Errorf("status = %q", o.Status)
	}
	if got := o.ComponentCodeCode.Items(); !reflect.DeepEqual(got, []string{"8480-6", "8462-4"}) {
		t.Errorf("component codes = %q", got)
	}
	if got := o.ComponentCodeText.Items(); !reflect.DeepEqual(got, []string{"sys", "dia"}) {
		t.Errorf("component texts = %q", got)
	}
	if got := o.ValueQuantityValue.Items(); !reflect.DeepEqual(got, []float64{120, 80.5}) {
		t.Errorf("quantity values = %v", got)
	}
	if got := o.CodeSystem.Items(); !reflect.DeepEqual(got, []string{"http://loinc.org", "http://snomed.info/sct"}) {
		t.Errorf("code systems = %q", got)
	}
	if got := o.CodeDisplay.Items(); !reflect.DeepEqual(got, []string{"Blood pressure systolic & diastolic", ""}) {
		t.Errorf("code displays = %q", got)
	}
	if got := o.PerformerReferences.Items(); !reflect.DeepEqual(got, []string{"Practitioner/1", "Practitioner/2"}) {
		t.Errorf("performers = %q", got)
	}
	if want := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC); o.EffectiveDateTime == nil || !o.EffectiveDateTime.Equal(want) {
		t.Errorf("effective = %v", o.EffectiveDateTime)
	}
	if o.InterpretationCode != "N" || o.InterpretationText != "normal" || o.BodySiteDisplay != "Right arm" {
		t.Errorf("interpretation/bodySite = %+v", o)
	}
	if kind, n := o.ValueShape(); kind != fhir.ValueQuantity || n != 2 {
		t.Errorf("ValueShape = %v, %d", kind, n)
	}
}

func TestWireRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		obs  *fhir.Observation
	}{
		{"components", bloodPressure()},
		{"quantity", &fhir.Observation{Base: fhir.Base{ID: "1"}, Status: "preliminary", Code: loinc("8310-5"), Value: mmHg(37.2)}},
		{"codeable concept", &fhir.Observation{
			Base:   fhir.Base{ID: "2"},
			Status: "amended",
			Value: fhir.Value{ValueCodeableConcept: &fhir.CodeableConcept{
				Coding: []fhir.Coding{{System: "http://snomed.info/sct", Code: "260385009", Display: "Negative"}},
				Text:   "negative",
			}},
		}},
		{"string", &fhir.Observation{Base: fhir.Base{ID: "3"}, Status: "final", Value: fhir.Value{ValueString: strPtr("clear")}}},
		{"sampled data", &fhir.Observation{
			Base:   fhir.Base{ID: "4"},
			Status: "final",
			Value: fhir.Value{ValueSampledData: &fhir.SampledData{
				Origin:     &fhir.Quantity{Value: floatPtr(0), Unit: "mV"},
				Period:     floatPtr(10),
				Dimensions: intPtr(1),
				Data:       "1 2 3 E",
			}},
		}},
		{"period", &fhir.Observation{
			Base:            fhir.Base{ID: "5"},
			Status:          "registered",
			EffectivePeriod: &fhir.Period{Start: "2024-01-01T08:00:00Z", End: "2024-01-01T09:00:00Z"},
			Value:           fhir.Value{ValuePeriod: &fhir.Period{Start: "2023-12-31T00:00:00Z"}},
		}},
		{"component codes without values", &fhir.Observation{
			Base:      fhir.Base{ID: "6"},
			Status:    "cancelled",
			Component: []fhir.Component{{Code: loinc("1-1")}, {Code: loinc("2-2")}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := MapResource(tt.obs)
			if err != nil {
				t.Fatalf("MapResource: %v", err)
			}
			if o.ID, err = strconv.ParseInt(tt.obs.ID, 10, 64); err != nil {
				t.Fatal(err)
			}
			got, err := MapModel(o)
			if err != nil {
				t.Fatalf("MapModel: %v", err)
			}
			if !reflect.DeepEqual(got, tt.obs) {
				t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, tt.obs)
			}
		})
	}
}

func populatedShapes(o *Observation) []fhir.ValueKind {
	var kinds []fhir.ValueKind
	if o.ValueQuantitySystem.Len()+o.ValueQuantityCode.Len()+o.ValueQuantityUnit.Len()+o.ValueQuantityValue.Len() > 0 {
		kinds = append(kinds, fhir.ValueQuantity)
	}
	if o.ValueSystem.Len()+o.ValueCode.Len()+o.ValueDisplay.Len()+o.ValueText.Len() > 0 {
		kinds = append(kinds, fhir.ValueCodeableConcept)
	}
	if o.ValueString.Len() > 0 {
		kinds = append(kinds, fhir.ValueString)
	}
	if o.ValueSampledDataOriginSystem.Len()+o.ValueSampledDataOriginCode.Len()+o.ValueSampledDataOriginUnit.Len()+
		o.ValueSampledDataOriginValue.Len()+o.ValueSampledDataPeriod.Len()+o.ValueSampledDataDimensions.Len()+
		o.ValueSampledDataData.Len() > 0 {
		kinds = append(kinds, fhir.ValueSampledData)
	}
	if o.ValuePeriodStart.Len()+o.ValuePeriodEnd.Len() > 0 {
		kinds = append(kinds, fhir.ValuePeriod)
	}
	return kinds
}

func TestSingleValueShapeExclusivity(t *testing.T) {
	values := []fhir.Value{
		mmHg(110),
		{ValueCodeableConcept: &fhir.CodeableConcept{Text: "positive"}},
		{ValueString: strPtr("text")},
		{ValueSampledData: &fhir.SampledData{Origin: &fhir.Quantity{Value: floatPtr(1)}, Period: floatPtr(2), Dimensions: intPtr(3)}},
		{ValuePeriod: &fhir.Period{Start: "2020-01-01", End: "2020-02-01"}},
	}
	for _, v := range values {
		t.Run(v.Kind().String(), func(t *testing.T) {
			o, err := MapResource(&fhir.Observation{Value: v})
			if err != nil {
				t.Fatalf("MapResource: %v", err)
			}
			got := populatedShapes(o)
			if len(got) != 1 || got[0] != v.Kind() {
				t.Errorf("populated shapes = %v, want only %v", got, v.Kind())
			}
			if o.ComponentCodeCode.Len() != 0 {
				t.Error("single value mapped as component")
			}
		})
	}
}

func TestMapResource_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		obs  *fhir.Observation
	}{
		{"quantity without value", &fhir.Observation{Value: fhir.Value{ValueQuantity: &fhir.Quantity{Unit: "kg"}}}},
		{"sampled data without period", &fhir.Observation{Value: fhir.Value{ValueSampledData: &fhir.SampledData{
			Origin: &fhir.Quantity{Value: floatPtr(0)}, Dimensions: intPtr(1),
		}}}},
		{"sampled data without origin", &fhir.Observation{Value: fhir.Value{ValueSampledData: &fhir.SampledData{
			Period: floatPtr(1), Dimensions: intPtr(1),
		}}}},
		{"two value choices", &fhir.Observation{Value: fhir.Value{ValueString: strPtr("a"), ValuePeriod: &fhir.Period{}}}},
		{"mixed component shapes", &fhir.Observation{Component: []fhir.Component{
			{Code: loinc("1"), Value: mmHg(1)},
			{Code: loinc("2"), Value: fhir.Value{ValueString: strPtr("x")}},
		}}},
		{"component without value after one with", &fhir.Observation{Component: []fhir.Component{
			{Code: loinc("1"), Value: mmHg(1)},
			{Code: loinc("2")},
		}}},
		{"component without code", &fhir.Observation{Component: []fhir.Component{{Value: mmHg(1)}}}},
		{"component with empty code", &fhir.Observation{Component: []fhir.Component{{Code: &fhir.CodeableConcept{}, Value: mmHg(1)}}}},
		{"both effective choices", &fhir.Observation{EffectiveDateTime: "2020-01-01", EffectivePeriod: &fhir.Period{}}},
		{"bad issued", &fhir.Observation{Issued: "yesterday"}},
		{"bad value period", &fhir.Observation{Value: fhir.Value{ValuePeriod: &fhir.Period{Start: "2020-13-45"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := MapResource(tt.obs); !fhir.IsMappingError(err, fhir.InvalidInput) {
				t.Errorf("err = %v, want InvalidInput", err)
			}
		})
	}
}

func TestStatusMapping(t *testing.T) {
	for _, s := range []string{"registered", "preliminary", "final", "amended", "cancelled", "entered-in-error", "unknown"} {
		if got := statusFromWire(s); string(got) != s {
			t.Errorf("statusFromWire(%q) = %q", s, got)
		}
	}
	for _, s := range []string{"", "done", "FINAL"} {
		if got := statusFromWire(s); got != StatusEnteredInError {
			t.Errorf("statusFromWire(%q) = %q, want entered-in-error", s, got)
		}
	}
}

func TestMapModel_ShapePriority(t *testing.T) {
	o := New()
	o.ValueString = delimited.NewStrings("text")
	o.ValuePeriodStart = delimited.NewDateTimes(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC))
	out, err := MapModel(o)
	if err != nil {
		t.Fatal(err)
	}
	if out.Value.Kind() != fhir.ValueString || len(out.Value.Kinds()) != 1 {
		t.Errorf("value kinds = %v, want only string", out.Value.Kinds())
	}

	o.ValueCode = delimited.NewStrings("N")
	out, _ = MapModel(o)
	if out.Value.Kind() != fhir.ValueCodeableConcept {
		t.Errorf("value kind = %v, want CodeableConcept", out.Value.Kind())
	}
}

func TestMapResource_WrongType(t *testing.T) {
	for _, r := range []fhir.Resource{&fhir.Device{}, nil} {
		if _, err := MapResource(r); !fhir.IsMappingError(err, fhir.InvalidInput) {
			t.Errorf("MapResource(%T) err = %v, want InvalidInput", r, err)
		}
	}
}

func TestMapModel_Nil(t *testing.T) {
	if _, err := MapModel(nil); !fhir.IsMappingError(err, fhir.NullInput) {
		t.Errorf("err = %v, want NullInput", err)
	}
}

func TestEntityRoundTrip(t *testing.T) {
	start := time.Date(2024, 5, 1, 6, 0, 0, 0, time.UTC)
	want := New()
	want.Status = StatusFinal
	want.CodeSystem = delimited.NewStrings("http://loinc.org")
	want.CodeCode = delimited.NewStrings("8867-4")
	want.CodeDisplay = delimited.NewStrings("Heart rate")
	want.CodeText = "HR"
	want.PatientReference = "Patient/1"
	want.EffectivePeriodStart = &start
	want.ComponentCodeSystem = delimited.NewStrings("http://loinc.org", "http://loinc.org")
	want.ComponentCodeCode = delimited.NewStrings("a", "b")
	want.ComponentCodeDisplay = delimited.NewStrings("A", "B")
	want.ComponentCodeText = delimited.NewStrings("first", "second")
	want.ValueSampledDataOriginSystem = delimited.NewStrings("s1", "s2")
	want.ValueSampledDataOriginCode = delimited.NewStrings("c1", "c2")
	want.ValueSampledDataOriginUnit = delimited.NewStrings("u1", "u2")
	want.ValueSampledDataOriginValue = delimited.NewDecimals(0, 1.5)
	want.ValueSampledDataPeriod = delimited.NewDecimals(10, 20)
	want.ValueSampledDataDimensions = delimited.NewInts(1, 2)
	want.ValueSampledDataData = delimited.NewStrings("1 2", "3 4")

	wire, err := MapModel(want)
	if err != nil {
		t.Fatal(err)
	}
	got, err := MapResource(wire)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round trip mismatch\n got: %+v\nwant: %+v", got, want)
	}
}

// persisted sends o through the column values and scan targets the
// postgres repository uses.
func persisted(t *testing.T, o *Observation) *Observation {
	t.Helper()
	out := Table.New()
	targets := Table.Targets(out)
	for i, v := range Table.Values(o) {
		if valuer, ok := v.(driver.Valuer); ok {
			col, err := valuer.Value()
			if err != nil {
				t.Fatalf("%s: Value: %v", Table.Columns[i], err)
			}
			if err := targets[i].(sql.Scanner).Scan(col); err != nil {
				t.Fatalf("%s: Scan: %v", Table.Columns[i], err)
			}
			continue
		}
		dst := reflect.ValueOf(targets[i]).Elem()
		dst.Set(reflect.ValueOf(v).Convert(dst.Type()))
	}
	return out
}

func TestColumnRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		obs  *fhir.Observation
	}{
		{
			name: "leading component without coding system",
			obs: &fhir.Observation{
				Status: "final",
				Code:   loinc("85354-9"),
				Component: []fhir.Component{
					{Code: &fhir.CodeableConcept{Coding: []fhir.Coding{{Code: "8480-6"}}}, Value: mmHg(120)},
					{Code: &fhir.CodeableConcept{Coding: []fhir.Coding{{System: "http://loinc.org", Code: "8462-4", Display: "Diastolic"}}}, Value: mmHg(80)},
				},
			},
		},
		{
			name: "leading component quantity without system",
			obs: &fhir.Observation{
				Status: "final",
				Component: []fhir.Component{
					{Code: loinc("a"), Value: fhir.Value{ValueQuantity: &fhir.Quantity{Value: floatPtr(1), Unit: "mmHg"}}},
					{Code: loinc("b"), Value: mmHg(2)},
				},
			},
		},
		{
			name: "leading component period without start",
			obs: &fhir.Observation{
				Status: "amended",
				Component: []fhir.Component{
					{Code: loinc("a"), Value: fhir.Value{ValuePeriod: &fhir.Period{End: "2024-03-01T11:00:00Z"}}},
					{Code: loinc("b"), Value: fhir.Value{ValuePeriod: &fhir.Period{Start: "2024-03-02T09:00:00Z", End: "2024-03-02T10:00:00Z"}}},
				},
			},
		},
		{
			name: "performers and category codings",
			obs: &fhir.Observation{
				Status:    "preliminary",
				Category:  &fhir.CodeableConcept{Coding: []fhir.Coding{{Code: "vital-signs"}, {System: "http://snomed.info/sct", Code: "1"}}},
				Performer: []fhir.Reference{{Reference: "Practitioner/1"}, {Reference: "Practitioner/2"}},
				Value:     fhir.Value{ValueString: strPtr("stable")},
			},
		},
		{name: "blood pressure", obs: bloodPressure()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped, err := MapResource(tt.obs)
			if err != nil {
				t.Fatalf("MapResource: %v", err)
			}
			stored := persisted(t, mapped)
			if !reflect.DeepEqual(stored, mapped) {
				t.Fatalf("column round trip mismatch\n got: %+v\nwant: %+v", stored, mapped)
			}

			want, err := MapModel(mapped)
			if err != nil {
				t.Fatal(err)
			}
			got, err := MapModel(stored)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("wire after storage\n got: %+v\nwant: %+v", got, want)
			}
		})
	}
}

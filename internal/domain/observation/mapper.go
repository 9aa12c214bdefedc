package observation

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ehr/fhirstore/internal/platform/delimited"
	"github.com/ehr/fhirstore/internal/platform/fhir"
)

const resourceType = "Observation"

func invalid(format string, args ...any) error {
	return fhir.NewInvalidInput(resourceType, format, args...)
}

// MapResource converts a wire Observation into an entity.
//
// Without components value[x] is copied into the lists of its shape. With
// components every component must carry a code and all components must use
// the same value shape, since they share one set of value lists.
func MapResource(r fhir.Resource) (*Observation, error) {
	src, ok := r.(*fhir.Observation)
	if !ok || src == nil {
		return nil, fhir.NewWrongType(resourceType, r)
	}

	o := New()
	o.Status = statusFromWire(src.Status)

	if src.Category != nil {
		o.CategorySystem, o.CategoryCode, o.CategoryDisplay = codings(src.Category.Coding)
		o.CategoryText = src.Category.Text
	}
	if src.Code != nil {
		o.CodeSystem, o.CodeCode, o.CodeDisplay = codings(src.Code.Coding)
		o.CodeText = src.Code.Text
	}

	if src.Subject != nil {
		o.PatientReference = src.Subject.Reference
	}
	if src.Device != nil {
		o.DeviceReference = src.Device.Reference
	}
	var performers []string
	for _, p := range src.Performer {
		performers = append(performers, p.Reference)
	}
	o.PerformerReferences = delimited.NewStrings(performers...)

	if err := mapEffective(o, src); err != nil {
		return nil, err
	}
	if src.Issued != "" {
		t, err := parseTime("issued", src.Issued)
		if err != nil {
			return nil, err
		}
		o.Issued = &t
	}

	if cc := src.Interpretation; cc != nil {
		c := cc.FirstCoding()
		o.InterpretationSystem, o.InterpretationCode, o.InterpretationDisplay = c.System, c.Code, c.Display
		o.InterpretationText = cc.Text
	}
	o.Comments = src.Comments
	if cc := src.BodySite; cc != nil {
		c := cc.FirstCoding()
		o.BodySiteSystem, o.BodySiteCode, o.BodySiteDisplay = c.System, c.Code, c.Display
		o.BodySiteText = cc.Text
	}

	var vals values
	if len(src.Component) == 0 {
		switch kinds := src.Value.Kinds(); len(kinds) {
		case 0:
		case 1:
			if err := vals.add(src.Value, "value"); err != nil {
				return nil, err
			}
		default:
			return nil, invalid("value[x] carries %d choices", len(kinds))
		}
		vals.apply(o)
		return o, nil
	}

	shape := src.Component[0].Value.Kind()
	var system, code, display, text []string
	for i, comp := range src.Component {
		if emptyConcept(comp.Code) {
			return nil, invalid("component[%d] has no code", i)
		}
		if n := len(comp.Value.Kinds()); n > 1 {
			return nil, invalid("component[%d].value[x] carries %d choices", i, n)
		}
		if k := comp.Value.Kind(); k != shape {
			return nil, invalid("component[%d] value is %s but component[0] value is %s", i, k, shape)
		}
		c := comp.Code.FirstCoding()
		system = append(system, c.System)
		code = append(code, c.Code)
		display = append(display, c.Display)
		text = append(text, comp.Code.Text)
		if shape != fhir.ValueNone {
			if err := vals.add(comp.Value, fmt.Sprintf("component[%d].value", i)); err != nil {
				return nil, err
			}
		}
	}
	o.ComponentCodeSystem = delimited.NewStrings(system...)
	o.ComponentCodeCode = delimited.NewStrings(code...)
	o.ComponentCodeDisplay = delimited.NewStrings(display...)
	o.ComponentCodeText = delimited.NewStrings(text...)
	vals.apply(o)
	return o, nil
}

func mapEffective(o *Observation, src *fhir.Observation) error {
	if src.EffectiveDateTime != "" && src.EffectivePeriod != nil {
		return invalid("effectiveDateTime and effectivePeriod are mutually exclusive")
	}
	if src.EffectiveDateTime != "" {
		t, err := parseTime("effectiveDateTime", src.EffectiveDateTime)
		if err != nil {
			return err
		}
		o.EffectiveDateTime = &t
	}
	if p := src.EffectivePeriod; p != nil {
		if p.Start != "" {
			t, err := parseTime("effectivePeriod.start", p.Start)
			if err != nil {
				return err
			}
			o.EffectivePeriodStart = &t
		}
		if p.End != "" {
			t, err := parseTime("effectivePeriod.end", p.End)
			if err != nil {
				return err
			}
			o.EffectivePeriodEnd = &t
		}
	}
	return nil
}

// values accumulates value[x] elements before they are frozen into the
// entity lists.
type values struct {
	qSystem, qCode, qUnit []string
	qValue                []float64

	ccSystem, ccCode, ccDisplay, ccText []string

	str []string

	sdSystem, sdCode, sdUnit []string
	sdValue, sdPeriod        []float64
	sdDimensions             []int
	sdData                   []string

	periodStart, periodEnd []time.Time
}

func (v *values) add(val fhir.Value, path string) error {
	switch val.Kind() {
	case fhir.ValueQuantity:
		q := val.ValueQuantity
		if q.Value == nil {
			return invalid("%sQuantity.value is required", path)
		}
		v.qSystem = append(v.qSystem, q.System)
		v.qCode = append(v.qCode, q.Code)
		v.qUnit = append(v.qUnit, q.Unit)
		v.qValue = append(v.qValue, *q.Value)

	case fhir.ValueCodeableConcept:
		cc := val.ValueCodeableConcept
		c := cc.FirstCoding()
		v.ccSystem = append(v.ccSystem, c.System)
		v.ccCode = append(v.ccCode, c.Code)
		v.ccDisplay = append(v.ccDisplay, c.Display)
		v.ccText = append(v.ccText, cc.Text)

	case fhir.ValueString:
		v.str = append(v.str, *val.ValueString)

	case fhir.ValueSampledData:
		sd := val.ValueSampledData
		switch {
		case sd.Origin == nil || sd.Origin.Value == nil:
			return invalid("%sSampledData.origin.value is required", path)
		case sd.Period == nil:
			return invalid("%sSampledData.period is required", path)
		case sd.Dimensions == nil:
			return invalid("%sSampledData.dimensions is required", path)
		}
		v.sdSystem = append(v.sdSystem, sd.Origin.System)
		v.sdCode = append(v.sdCode, sd.Origin.Code)
		v.sdUnit = append(v.sdUnit, sd.Origin.Unit)
		v.sdValue = append(v.sdValue, *sd.Origin.Value)
		v.sdPeriod = append(v.sdPeriod, *sd.Period)
		v.sdDimensions = append(v.sdDimensions, *sd.Dimensions)
		v.sdData = append(v.sdData, sd.Data)

	case fhir.ValuePeriod:
		var start, end time.Time
		var err error
		if s := val.ValuePeriod.Start; s != "" {
			if start, err = parseTime(path+"Period.start", s); err != nil {
				return err
			}
		}
		if s := val.ValuePeriod.End; s != "" {
			if end, err = parseTime(path+"Period.end", s); err != nil {
				return err
			}
		}
		v.periodStart = append(v.periodStart, start)
		v.periodEnd = append(v.periodEnd, end)
	}
	return nil
}

func (v *values) apply(o *Observation) {
	o.ValueQuantitySystem = delimited.NewStrings(v.qSystem...)
	o.ValueQuantityCode = delimited.NewStrings(v.qCode...)
	o.ValueQuantityUnit = delimited.NewStrings(v.qUnit...)
	o.ValueQuantityValue = delimited.NewDecimals(v.qValue...)

	o.ValueSystem = delimited.NewStrings(v.ccSystem...)
	o.ValueCode = delimited.NewStrings(v.ccCode...)
	o.ValueDisplay = delimited.NewStrings(v.ccDisplay...)
	o.ValueText = delimited.NewStrings(v.ccText...)

	o.ValueString = delimited.NewStrings(v.str...)

	o.ValueSampledDataOriginSystem = delimited.NewStrings(v.sdSystem...)
	o.ValueSampledDataOriginCode = delimited.NewStrings(v.sdCode...)
	o.ValueSampledDataOriginUnit = delimited.NewStrings(v.sdUnit...)
	o.ValueSampledDataOriginValue = delimited.NewDecimals(v.sdValue...)
	o.ValueSampledDataPeriod = delimited.NewDecimals(v.sdPeriod...)
	o.ValueSampledDataDimensions = delimited.NewInts(v.sdDimensions...)
	o.ValueSampledDataData = delimited.NewStrings(v.sdData...)

	o.ValuePeriodStart = delimited.NewDateTimes(v.periodStart...)
	o.ValuePeriodEnd = delimited.NewDateTimes(v.periodEnd...)
}

// MapModel converts an entity into a wire Observation.
func MapModel(o *Observation) (*fhir.Observation, error) {
	if o == nil {
		return nil, fhir.NewNullInput(resourceType)
	}

	out := &fhir.Observation{
		Base:           fhir.Base{ID: strconv.FormatInt(o.ID, 10)},
		Status:         string(statusFromWire(string(o.Status))),
		Category:       concept(o.CategorySystem, o.CategoryCode, o.CategoryDisplay, o.CategoryText),
		Code:           concept(o.CodeSystem, o.CodeCode, o.CodeDisplay, o.CodeText),
		Interpretation: single(o.InterpretationSystem, o.InterpretationCode, o.InterpretationDisplay, o.InterpretationText),
		Comments:       o.Comments,
		BodySite:       single(o.BodySiteSystem, o.BodySiteCode, o.BodySiteDisplay, o.BodySiteText),
	}

	if o.PatientReference != "" {
		out.Subject = &fhir.Reference{Reference: o.PatientReference}
	}
	if o.DeviceReference != "" {
		out.Device = &fhir.Reference{Reference: o.DeviceReference}
	}
	for _, ref := range o.PerformerReferences.Items() {
		if ref != "" {
			out.Performer = append(out.Performer, fhir.Reference{Reference: ref})
		}
	}

	switch {
	case o.EffectiveDateTime != nil:
		out.EffectiveDateTime = fhir.FormatDateTime(*o.EffectiveDateTime)
	case o.EffectivePeriodStart != nil || o.EffectivePeriodEnd != nil:
		out.EffectivePeriod = &fhir.Period{}
		if o.EffectivePeriodStart != nil {
			out.EffectivePeriod.Start = fhir.FormatDateTime(*o.EffectivePeriodStart)
		}
		if o.EffectivePeriodEnd != nil {
			out.EffectivePeriod.End = fhir.FormatDateTime(*o.EffectivePeriodEnd)
		}
	}
	if o.Issued != nil {
		out.Issued = fhir.FormatInstant(*o.Issued)
	}

	shape, n := o.ValueShape()
	if components := maxLen(o.ComponentCodeSystem, o.ComponentCodeCode, o.ComponentCodeDisplay, o.ComponentCodeText); components > 0 {
		if n > components {
			components = n
		}
		for i := 0; i < components; i++ {
			comp := fhir.Component{Code: &fhir.CodeableConcept{Text: o.ComponentCodeText.At(i)}}
			if c := (fhir.Coding{System: o.ComponentCodeSystem.At(i), Code: o.ComponentCodeCode.At(i), Display: o.ComponentCodeDisplay.At(i)}); c != (fhir.Coding{}) {
				comp.Code.Coding = []fhir.Coding{c}
			}
			comp.Value = o.valueAt(shape, i)
			out.Component = append(out.Component, comp)
		}
		return out, nil
	}

	out.Value = o.valueAt(shape, 0)
	return out, nil
}

// ValueShape reports which value lists are populated, testing Quantity,
// CodeableConcept, string, SampledData and Period in that order, and how
// many elements the winning lists hold.
func (o *Observation) ValueShape() (fhir.ValueKind, int) {
	if n := o.ValueQuantityValue.Len(); n > 0 {
		return fhir.ValueQuantity, n
	}
	if n := maxLen(o.ValueSystem, o.ValueCode, o.ValueDisplay, o.ValueText); n > 0 {
		return fhir.ValueCodeableConcept, n
	}
	if n := o.ValueString.Len(); n > 0 {
		return fhir.ValueString, n
	}
	if n := o.ValueSampledDataPeriod.Len(); n > 0 {
		return fhir.ValueSampledData, n
	}
	if n := max(o.ValuePeriodStart.Len(), o.ValuePeriodEnd.Len()); n > 0 {
		return fhir.ValuePeriod, n
	}
	return fhir.ValueNone, 0
}

func (o *Observation) valueAt(kind fhir.ValueKind, i int) fhir.Value {
	switch kind {
	case fhir.ValueQuantity:
		v := o.ValueQuantityValue.At(i)
		return fhir.Value{ValueQuantity: &fhir.Quantity{
			Value:  &v,
			Unit:   o.ValueQuantityUnit.At(i),
			System: o.ValueQuantitySystem.At(i),
			Code:   o.ValueQuantityCode.At(i),
		}}
	case fhir.ValueCodeableConcept:
		cc := single(o.ValueSystem.At(i), o.ValueCode.At(i), o.ValueDisplay.At(i), o.ValueText.At(i))
		if cc == nil {
			cc = &fhir.CodeableConcept{}
		}
		return fhir.Value{ValueCodeableConcept: cc}
	case fhir.ValueString:
		s := o.ValueString.At(i)
		return fhir.Value{ValueString: &s}
	case fhir.ValueSampledData:
		origin := o.ValueSampledDataOriginValue.At(i)
		period := o.ValueSampledDataPeriod.At(i)
		dims := o.ValueSampledDataDimensions.At(i)
		return fhir.Value{ValueSampledData: &fhir.SampledData{
			Origin: &fhir.Quantity{
				Value:  &origin,
				Unit:   o.ValueSampledDataOriginUnit.At(i),
				System: o.ValueSampledDataOriginSystem.At(i),
				Code:   o.ValueSampledDataOriginCode.At(i),
			},
			Period:     &period,
			Dimensions: &dims,
			Data:       o.ValueSampledDataData.At(i),
		}}
	case fhir.ValuePeriod:
		return fhir.Value{ValuePeriod: &fhir.Period{
			Start: fhir.FormatDateTime(o.ValuePeriodStart.At(i)),
			End:   fhir.FormatDateTime(o.ValuePeriodEnd.At(i)),
		}}
	}
	return fhir.Value{}
}

func statusFromWire(code string) Status {
	switch s := Status(code); s {
	case StatusRegistered, StatusPreliminary, StatusFinal, StatusAmended,
		StatusCancelled, StatusEnteredInError, StatusUnknown:
		return s
	default:
		return StatusEnteredInError
	}
}

func parseTime(field, s string) (time.Time, error) {
	t, err := fhir.ParseDateTime(s)
	if err != nil {
		return time.Time{}, invalid("%s: %v", field, err)
	}
	return t, nil
}

func codings(list []fhir.Coding) (system, code, display delimited.Strings) {
	var s, c, d []string
	for _, coding := range list {
		s = append(s, coding.System)
		c = append(c, coding.Code)
		d = append(d, coding.Display)
	}
	return delimited.NewStrings(s...), delimited.NewStrings(c...), delimited.NewStrings(d...)
}

// concept rebuilds a CodeableConcept from parallel coding lists.
func concept(system, code, display delimited.Strings, text string) *fhir.CodeableConcept {
	n := maxLen(system, code, display)
	if n == 0 && text == "" {
		return nil
	}
	cc := &fhir.CodeableConcept{Text: text}
	for i := 0; i < n; i++ {
		cc.Coding = append(cc.Coding, fhir.Coding{System: system.At(i), Code: code.At(i), Display: display.At(i)})
	}
	return cc
}

func single(system, code, display, text string) *fhir.CodeableConcept {
	if system == "" && code == "" && display == "" && text == "" {
		return nil
	}
	cc := &fhir.CodeableConcept{Text: text}
	if system != "" || code != "" || display != "" {
		cc.Coding = []fhir.Coding{{System: system, Code: code, Display: display}}
	}
	return cc
}

func emptyConcept(cc *fhir.CodeableConcept) bool {
	return cc == nil || (cc.FirstCoding() == fhir.Coding{} && cc.Text == "")
}

func maxLen(lists ...delimited.Strings) int {
	n := 0
	for _, l := range lists {
		n = max(n, l.Len())
	}
	return n
}

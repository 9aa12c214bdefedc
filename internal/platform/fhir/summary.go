package fhir

// Summary returns a copy of r without the elements that are not part of
// the resource's summary view. Resources without a summary definition are
// returned unchanged.
func Summary(r Resource) Resource {
	switch v := r.(type) {
	case *Patient:
		out := *v
		out.Extension = nil
		return &out
	case *Device:
		out := *v
		out.Udi = ""
		out.LotNumber = ""
		out.Expiry = ""
		return &out
	case *Observation:
		out := *v
		out.Comments = ""
		out.BodySite = nil
		out.Interpretation = nil
		out.Device = nil
		return &out
	}
	return r
}

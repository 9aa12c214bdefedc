package fhir

import "strings"

// Media types written on responses, one per wire format.
const (
	MediaTypeJSON = "application/json+fhir"
	MediaTypeXML  = "application/xml+fhir"
)

type Format int

const (
	FormatXML Format = iota
	FormatJSON
)

func (f Format) String() string {
	if f == FormatJSON {
		return "json"
	}
	return "xml"
}

// FormatFromQuery selects the wire format from a _format parameter. Any
// value mentioning JSON, in any case, selects JSON; everything else,
// including an absent parameter, selects XML.
func FormatFromQuery(format string) Format {
	if strings.Contains(strings.ToUpper(format), "JSON") {
		return FormatJSON
	}
	return FormatXML
}

// FormatFromContentType selects the codec used to read a request body.
func FormatFromContentType(contentType string) Format {
	return FormatFromQuery(contentType)
}

// CodecFor returns the codec for f.
func CodecFor(f Format) Codec {
	if f == FormatJSON {
		return JSONCodec{}
	}
	return XMLCodec{}
}

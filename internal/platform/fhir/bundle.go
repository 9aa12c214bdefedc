package fhir

import "encoding/json"

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	Base
	Type  string        `json:"type"`
	Total *int          `json:"total,omitempty"`
	Entry []BundleEntry `json:"entry,omitempty"`
}

func (*Bundle) ResourceType() string { return "Bundle" }

func (b Bundle) MarshalJSON() ([]byte, error) {
	type alias Bundle
	return json.Marshal(struct {
		ResourceType string `json:"resourceType"`
		alias
	}{"Bundle", alias(b)})
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource Resource        `json:"resource,omitempty"`
	Request  *BundleRequest  `json:"request,omitempty"`
	Response *BundleResponse `json:"response,omitempty"`
}

type BundleRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

type BundleResponse struct {
	Status       string `json:"status"`
	Location     string `json:"location,omitempty"`
	LastModified string `json:"lastModified,omitempty"`
}

// FormatReference returns a relative literal reference such as "Patient/1".
func FormatReference(resourceType, id string) string {
	return resourceType + "/" + id
}

package fhir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrUnknownResourceType is returned when a payload names a resource type
// this server does not handle.
var ErrUnknownResourceType = errors.New("unknown resource type")

// Codec converts wire resources to and from one serialization format.
type Codec interface {
	MediaType() string
	Encode(r Resource) ([]byte, error)
	Decode(data []byte) (Resource, error)
}

// NewResource returns an empty resource for a resourceType discriminant.
func NewResource(resourceType string) (Resource, error) {
	switch resourceType {
	case "Patient":
		return &Patient{}, nil
	case "Device":
		return &Device{}, nil
	case "Observation":
		return &Observation{}, nil
	case "":
		return nil, fmt.Errorf("%w: resourceType is missing", ErrUnknownResourceType)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownResourceType, resourceType)
}

type JSONCodec struct{}

func (JSONCodec) MediaType() string { return MediaTypeJSON }

func (JSONCodec) Encode(r Resource) ([]byte, error) {
	return json.Marshal(r)
}

func (JSONCodec) Decode(data []byte) (Resource, error) {
	var head struct {
		ResourceType string `json:"resourceType"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode json resource: %w", err)
	}
	r, err := NewResource(head.ResourceType)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("decode json %s: %w", head.ResourceType, err)
	}
	return r, nil
}

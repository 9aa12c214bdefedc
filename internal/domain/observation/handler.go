package observation

import (
	"github.com/ehr/fhirstore/internal/platform/fhir"
	"github.com/ehr/fhirstore/internal/platform/resource"
	"github.com/ehr/fhirstore/internal/platform/versioning"
)

func Definition() resource.Definition[*Observation] {
	return resource.Definition[*Observation]{
		Type:        resourceType,
		MapResource: MapResource,
		MapModel: func(o *Observation) (fhir.Resource, error) {
			r, err := MapModel(o)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// NewHandler serves /fhir/Observation and /fhir/ObservationRecord.
func NewHandler(open versioning.Opener[*Observation]) *resource.Handler[*Observation] {
	return resource.NewHandler(resource.NewService(Definition(), open))
}

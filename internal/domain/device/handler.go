package device

import (
	"github.com/ehr/fhirstore/internal/platform/fhir"
	"github.com/ehr/fhirstore/internal/platform/resource"
	"github.com/ehr/fhirstore/internal/platform/versioning"
)

func Definition() resource.Definition[*Device] {
	return resource.Definition[*Device]{
		Type:        resourceType,
		MapResource: MapResource,
		MapModel: func(d *Device) (fhir.Resource, error) {
			r, err := MapModel(d)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// NewHandler serves /fhir/Device and /fhir/DeviceRecord.
func NewHandler(open versioning.Opener[*Device]) *resource.Handler[*Device] {
	return resource.NewHandler(resource.NewService(Definition(), open))
}

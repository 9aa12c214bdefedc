package patient

import (
	"github.com/ehr/fhirstore/internal/platform/fhir"
	"github.com/ehr/fhirstore/internal/platform/resource"
	"github.com/ehr/fhirstore/internal/platform/versioning"
)

func Definition() resource.Definition[*Patient] {
	return resource.Definition[*Patient]{
		Type:        resourceType,
		MapResource: MapResource,
		MapModel: func(p *Patient) (fhir.Resource, error) {
			r, err := MapModel(p)
			if err != nil {
				return nil, err
			}
			return r, nil
		},
	}
}

// NewHandler serves /fhir/Patient and /fhir/PatientRecord.
func NewHandler(open versioning.Opener[*Patient]) *resource.Handler[*Patient] {
	return resource.NewHandler(resource.NewService(Definition(), open))
}

package versioning

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recordsWritten = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fhirstore",
		Name:      "version_records_total",
		Help:      "Version records committed, by resource type and action.",
	}, []string{"resource", "action"})

	saveConflicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fhirstore",
		Name:      "save_conflicts_total",
		Help:      "Saves rejected because a guarded write lost a race.",
	}, []string{"resource"})
)

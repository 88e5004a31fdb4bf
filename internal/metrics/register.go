package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var registerOnce sync.Once

// Register registers every taxrag collector on the default registry.
// Must be called from main; later calls are no-ops.
func Register() {
	registerOnce.Do(func() {
		MustRegisterOn(prometheus.DefaultRegisterer)
	})
}

// MustRegisterOn registers every taxrag collector on reg. Panics on duplicates.
func MustRegisterOn(reg prometheus.Registerer) {
	collectors := make([]prometheus.Collector, 0, 16)
	collectors = append(collectors, embeddingCollectors()...)
	collectors = append(collectors, indexCollectors()...)
	collectors = append(collectors, httpCollectors()...)
	reg.MustRegister(collectors...)
}

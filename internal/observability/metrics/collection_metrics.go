package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var collectionOnce sync.Once

// RegisterCollectionGauges exposes the size of each working-set collection.
// count is called on every scrape with one of the names passed in.
func RegisterCollectionGauges(count func(collection string) int, collections ...string) {
	if count == nil {
		return
	}
	collectionOnce.Do(func() {
		for _, name := range collections {
			collection := name
			prometheus.MustRegister(prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name:        metricPrefix + "collection_size",
					Help:        "Number of records per collection",
					ConstLabels: prometheus.Labels{"collection": collection},
				},
				func() float64 {
					n := count(collection)
					if n < 0 {
						return 0
					}
					return float64(n)
				},
			))
		}
	})
}

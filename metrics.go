package rastergrid

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transformerCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastergrid_transformer_cache_hits_total",
		Help: "The total number of hits on the CRS transformer cache",
	})
	transformerCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastergrid_transformer_cache_misses_total",
		Help: "The total number of misses on the CRS transformer cache",
	})
	transformerCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastergrid_transformer_cache_evictions_total",
		Help: "The total number of evictions from the CRS transformer cache",
	})
	cellsReprojected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastergrid_cells_reprojected_total",
		Help: "The total number of output cells computed by reprojection",
	})
	featuresRasterized = promauto.NewCounter(prometheus.CounterOpts{
		Name: "rastergrid_features_rasterized_total",
		Help: "The total number of features burned into rasters",
	})
)

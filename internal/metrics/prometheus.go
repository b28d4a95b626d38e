package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RankingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ethicsupply_ranking_duration_seconds",
			Help:    "Ranking pipeline duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"predictor"},
	)

	RankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethicsupply_rankings_total",
			Help: "Total ranking requests processed",
		},
		[]string{"status", "predictor"},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ethicsupply_batch_size",
			Help:    "Number of suppliers per ranking batch",
			Buckets: []float64{1, 3, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
	)

	PredictedScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ethicsupply_predicted_score",
			Help:    "Distribution of predicted supplier scores",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	PredictorFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ethicsupply_predictor_fallbacks_total",
			Help: "Times the trained predictor was replaced by the weighted scorer",
		},
	)

	PersistDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ethicsupply_persist_duration_seconds",
			Help:    "Time to persist an optimization run",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	OptimizationsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ethicsupply_optimizations_saved_total",
			Help: "Total optimization runs persisted",
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethicsupply_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ethicsupply_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	SuppliersImported = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ethicsupply_suppliers_imported_total",
			Help: "Total suppliers parsed from CSV imports",
		},
	)
)

func Init() {
	prometheus.MustRegister(RankingDuration)
	prometheus.MustRegister(RankingsTotal)
	prometheus.MustRegister(BatchSize)
	prometheus.MustRegister(PredictedScore)
	prometheus.MustRegister(PredictorFallbacks)
	prometheus.MustRegister(PersistDuration)
	prometheus.MustRegister(OptimizationsSaved)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(SuppliersImported)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}

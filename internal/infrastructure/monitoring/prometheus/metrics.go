package prometheus

// AppMetrics holds every metric the service records, registered once at
// startup and injected into the layers that need them.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Extraction engine
	ExtractionsTotal     CounterVec   // labels: mode (single|batch)
	ExtractionDuration   HistogramVec // labels: mode
	EntitiesFoundTotal   CounterVec   // labels: entity_type, match_method
	BatchSize            HistogramVec
	GazetteerTerms       GaugeVec // labels: entity_type
	GazetteerReloadTotal CounterVec // labels: outcome (ok|error)

	// Result cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec

	// Annotation store
	DBQueryDuration HistogramVec // labels: operation

	// Async pipeline
	MessagesConsumedTotal  CounterVec   // labels: topic, outcome
	MessagesPublishedTotal CounterVec   // labels: topic, outcome
	MessageProcessDuration HistogramVec // labels: topic

	// System health
	ErrorsTotal CounterVec // labels: component, code
}

// Histogram bucket presets.
var (
	DefaultHTTPDurationBuckets    = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}
	DefaultExtractDurationBuckets = []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultDBDurationBuckets      = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
	DefaultBatchSizeBuckets       = []float64{1, 2, 5, 10, 25, 50, 100, 250}
)

// NewAppMetrics registers the full metric set on the collector.
func NewAppMetrics(c MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal: c.RegisterCounter("http_requests_total",
			"Total HTTP requests by method, path, and status.", "method", "path", "status"),
		HTTPRequestDuration: c.RegisterHistogram("http_request_duration_seconds",
			"HTTP request latency.", DefaultHTTPDurationBuckets, "method", "path"),
		HTTPActiveRequests: c.RegisterGauge("http_active_requests",
			"In-flight HTTP requests."),

		ExtractionsTotal: c.RegisterCounter("extractions_total",
			"Completed extraction calls.", "mode"),
		ExtractionDuration: c.RegisterHistogram("extraction_duration_seconds",
			"Wall time of one extraction call.", DefaultExtractDurationBuckets, "mode"),
		EntitiesFoundTotal: c.RegisterCounter("entities_found_total",
			"Entities emitted by extraction.", "entity_type", "match_method"),
		BatchSize: c.RegisterHistogram("batch_size_documents",
			"Documents per batch request.", DefaultBatchSizeBuckets),
		GazetteerTerms: c.RegisterGauge("gazetteer_terms",
			"Canonical terms loaded into the store.", "entity_type"),
		GazetteerReloadTotal: c.RegisterCounter("gazetteer_reload_total",
			"Gazetteer directory reload attempts.", "outcome"),

		CacheHitsTotal: c.RegisterCounter("cache_hits_total",
			"Extraction result cache hits."),
		CacheMissesTotal: c.RegisterCounter("cache_misses_total",
			"Extraction result cache misses."),

		DBQueryDuration: c.RegisterHistogram("db_query_duration_seconds",
			"Annotation store query latency.", DefaultDBDurationBuckets, "operation"),

		MessagesConsumedTotal: c.RegisterCounter("messages_consumed_total",
			"Messages consumed from the broker.", "topic", "outcome"),
		MessagesPublishedTotal: c.RegisterCounter("messages_published_total",
			"Messages published to the broker.", "topic", "outcome"),
		MessageProcessDuration: c.RegisterHistogram("message_process_duration_seconds",
			"Per-message processing time in the worker.", nil, "topic"),

		ErrorsTotal: c.RegisterCounter("errors_total",
			"Errors by component and code.", "component", "code"),
	}
}

package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds the metrics recorded by the engine and its delivery
// surfaces.  A nil *AppMetrics is valid; every Record helper ignores it.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPInFlight        GaugeVec

	// Engine
	AssessmentsTotal           CounterVec
	AssessmentDuration         HistogramVec
	ReliabilitySourceTotal     CounterVec
	DealQualityTotal           CounterVec
	LifespanCacheRequestsTotal CounterVec
	ReferenceCatalogInfo       GaugeVec

	// Health
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets   = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5}
	DefaultEngineDurationBuckets = []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1}
)

// NewAppMetrics registers all metrics on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPInFlight = collector.RegisterGauge("http_in_flight_requests", "HTTP requests currently being served")

	m.AssessmentsTotal = collector.RegisterCounter("assessments_total", "Completed vehicle assessments by verdict", "verdict")
	m.AssessmentDuration = collector.RegisterHistogram("assessment_duration_seconds", "Engine operation duration", DefaultEngineDurationBuckets, "operation")
	m.ReliabilitySourceTotal = collector.RegisterCounter("reliability_source_total", "Reliability scores by data source", "source")
	m.DealQualityTotal = collector.RegisterCounter("deal_quality_total", "Graded asking prices by deal quality", "quality")
	m.LifespanCacheRequestsTotal = collector.RegisterCounter("lifespan_cache_requests_total", "Year lifespan cache lookups", "result")
	m.ReferenceCatalogInfo = collector.RegisterGauge("reference_catalog_info", "Loaded reference catalog (value is the vehicle count)", "version")

	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Total errors", "component", "error_type")

	return m
}

// RecordHTTPRequest records one served request.
func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordAssessment records a completed assessment.
func RecordAssessment(m *AppMetrics, verdict, reliabilitySource, dealQuality string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AssessmentsTotal.WithLabelValues(verdict).Inc()
	m.ReliabilitySourceTotal.WithLabelValues(reliabilitySource).Inc()
	if dealQuality != "" {
		m.DealQualityTotal.WithLabelValues(dealQuality).Inc()
	}
	m.AssessmentDuration.WithLabelValues("assess").Observe(duration.Seconds())
}

// RecordOperation records the duration of a partial engine workflow.
func RecordOperation(m *AppMetrics, operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.AssessmentDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDealQuality counts a graded asking price.
func RecordDealQuality(m *AppMetrics, quality string) {
	if m == nil || quality == "" {
		return
	}
	m.DealQualityTotal.WithLabelValues(quality).Inc()
}

// RecordCacheAccess counts a lifespan cache lookup.
func RecordCacheAccess(m *AppMetrics, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.LifespanCacheRequestsTotal.WithLabelValues(result).Inc()
}

// RecordCatalog publishes the loaded reference catalog version.
func RecordCatalog(m *AppMetrics, version string, vehicles int) {
	if m == nil {
		return
	}
	m.ReferenceCatalogInfo.Reset()
	m.ReferenceCatalogInfo.WithLabelValues(version).Set(float64(vehicles))
}

// RecordHealth sets a component's health gauge.
func RecordHealth(m *AppMetrics, component string, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.HealthCheckStatus.WithLabelValues(component).Set(v)
}

// RecordError counts an error by component and type.
func RecordError(m *AppMetrics, component, errorType string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(component, errorType).Inc()
}

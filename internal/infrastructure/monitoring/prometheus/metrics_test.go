package prometheus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAppMetrics(t *testing.T) (*AppMetrics, MetricsCollector) {
	t.Helper()
	c := newTestCollector(t)
	return NewAppMetrics(c), c
}

func TestNewAppMetrics_AllRegistered(t *testing.T) {
	m, _ := newTestAppMetrics(t)
	require.NotNil(t, m)
	assert.NotNil(t, m.HTTPRequestsTotal)
	assert.NotNil(t, m.AssessmentsTotal)
	assert.NotNil(t, m.AssessmentDuration)
	assert.NotNil(t, m.ReliabilitySourceTotal)
	assert.NotNil(t, m.DealQualityTotal)
	assert.NotNil(t, m.LifespanCacheRequestsTotal)
	assert.NotNil(t, m.ErrorsTotal)
}

func TestRecordAssessment(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordAssessment(m, "BUY", "database", "GOOD", 2*time.Millisecond)
	RecordAssessment(m, "BUY", "nhtsa_derived", "", time.Millisecond)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_assessments_total{verdict="BUY"} 2`)
	assert.Contains(t, out, `test_unit_reliability_source_total{source="database"} 1`)
	assert.Contains(t, out, `test_unit_reliability_source_total{source="nhtsa_derived"} 1`)
	assert.Contains(t, out, `test_unit_deal_quality_total{quality="GOOD"} 1`)
	assert.Contains(t, out, `test_unit_assessment_duration_seconds_count{operation="assess"} 2`)
}

func TestRecordCacheAccess(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordCacheAccess(m, true)
	RecordCacheAccess(m, true)
	RecordCacheAccess(m, false)

	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_lifespan_cache_requests_total{result="hit"} 2`)
	assert.Contains(t, out, `test_unit_lifespan_cache_requests_total{result="miss"} 1`)
}

func TestRecordHTTPRequest(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordHTTPRequest(m, "POST", "/api/v1/assessments", 200, 10*time.Millisecond)
	out := scrapeMetrics(t, c)
	assert.Contains(t, out, `test_unit_http_requests_total{method="POST",path="/api/v1/assessments",status_code="200"} 1`)
}

func TestRecordCatalogHealthAndErrors(t *testing.T) {
	m, c := newTestAppMetrics(t)
	RecordCatalog(m, "2024.1", 10)
	RecordCatalog(m, "2024.2", 42)
	RecordHealth(m, "redis", false)
	RecordError(m, "http", "VEH_003")
	RecordOperation(m, "price", time.Millisecond)
	RecordDealQuality(m, "FAIR")

	out := scrapeMetrics(t, c)
	assert.NotContains(t, out, `version="2024.1"`)
	assert.Contains(t, out, `test_unit_reference_catalog_info{version="2024.2"} 42`)
	assert.Contains(t, out, `test_unit_health_check_status{component="redis"} 0`)
	assert.Contains(t, out, `test_unit_errors_total{component="http",error_type="VEH_003"} 1`)
	assert.Contains(t, out, `test_unit_assessment_duration_seconds_count{operation="price"} 1`)
	assert.Contains(t, out, `test_unit_deal_quality_total{quality="FAIR"} 1`)
}

func TestRecordHelpers_NilMetrics(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordHTTPRequest(nil, "GET", "/", 200, 0)
		RecordAssessment(nil, "PASS", "default", "", 0)
		RecordOperation(nil, "x", 0)
		RecordDealQuality(nil, "GOOD")
		RecordCacheAccess(nil, true)
		RecordCatalog(nil, "v", 1)
		RecordHealth(nil, "redis", true)
		RecordError(nil, "c", "t")
	})
}

package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

func TestErrorKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{fmt.Errorf("forecast: %w", domain.ErrModelUnavailable), "model_unavailable"},
		{fmt.Errorf("select: %w", domain.ErrNoCandidates), "no_candidates"},
		{domain.ErrInvalidHistoryLength, "invalid_history_length"},
		{fmt.Errorf("x: %w", domain.ErrFeatureMismatch), "feature_mismatch"},
		{domain.ErrInvalidRequest, "invalid_request"},
		{domain.ErrUnexpectedProcessing, "unexpected"},
		{errors.New("boom"), "other"},
	}
	for _, tt := range tests {
		if got := ErrorKind(tt.err); got != tt.want {
			t.Errorf("ErrorKind(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("test", "GET", "/predict", "200"))
	RecordHTTPRequest("test", "GET", "/predict", http.StatusOK, 5*time.Millisecond)
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("test", "GET", "/predict", "200"))
	if after-before != 1 {
		t.Errorf("counter delta = %v, want 1", after-before)
	}
}

func TestRecordPipelineError(t *testing.T) {
	c := PipelineErrors.WithLabelValues("test", "no_candidates")
	before := testutil.ToFloat64(c)
	RecordPipelineError("test", nil)
	RecordPipelineError("test", domain.ErrNoCandidates)
	if got := testutil.ToFloat64(c) - before; got != 1 {
		t.Errorf("counter delta = %v, want 1", got)
	}
}

func TestSetArtifactAvailable(t *testing.T) {
	SetArtifactAvailable("test_cap", true)
	if v := testutil.ToFloat64(ArtifactAvailable.WithLabelValues("test_cap")); v != 1 {
		t.Errorf("gauge = %v", v)
	}
	SetArtifactAvailable("test_cap", false)
	if v := testutil.ToFloat64(ArtifactAvailable.WithLabelValues("test_cap")); v != 0 {
		t.Errorf("gauge = %v", v)
	}
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordCacheResult("hit")
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "restockd_decision_cache_results_total") {
		t.Error("cache counter missing from exposition")
	}
}

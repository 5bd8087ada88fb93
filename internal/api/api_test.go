package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/andresuchdata/autopo-py/restockd/internal/api/middleware"
	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

type fakeDecisions struct {
	err      error
	gotSKU   string
	gotStore string
}

func (f *fakeDecisions) Decide(ctx context.Context, sku, storeID string) (*domain.Decision, error) {
	f.gotSKU, f.gotStore = sku, storeID
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Decision{
		SKU:                  sku,
		Forecast:             10,
		OrderQuantity:        12,
		RecommendedWarehouse: "W2",
		Transport:            "truck",
		TotalCost:            1146,
		UnitCost:             95.5,
	}, nil
}

type fakeInventory struct {
	items []domain.InventoryItem
	err   error
}

func (f *fakeInventory) List(ctx context.Context) ([]domain.InventoryItem, error) {
	return f.items, f.err
}

type fakeStatus []artifact.Status

func (f fakeStatus) Status() []artifact.Status { return f }

func newTestRouter(d *fakeDecisions, inv *fakeInventory, status fakeStatus) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(&Services{Decision: d, Inventory: inv, Status: status}, nil)
}

func do(router http.Handler, method, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestPredict_OK(t *testing.T) {
	d := &fakeDecisions{}
	rec := do(newTestRouter(d, &fakeInventory{}, nil), http.MethodGet, "/predict?sku=SKU001&store_id=S001")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if d.gotSKU != "SKU001" || d.gotStore != "S001" {
		t.Errorf("service got %q %q", d.gotSKU, d.gotStore)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"sku", "forecast", "order_quantity", "recommended_warehouse", "transport", "total_cost", "unit_cost"} {
		if _, ok := body[key]; !ok {
			t.Errorf("response lacks %q: %v", key, body)
		}
	}
	if rec.Header().Get(middleware.RequestIDHeader) == "" {
		t.Error("request id header missing")
	}
}

func TestPredict_MissingQuery(t *testing.T) {
	d := &fakeDecisions{}
	router := newTestRouter(d, &fakeInventory{}, nil)

	rec := do(router, http.MethodGet, "/predict?sku=SKU001")
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "store_id") {
		t.Errorf("body should name the missing field: %s", rec.Body)
	}
	if d.gotSKU != "" {
		t.Error("pipeline must not run")
	}
}

func TestPredict_PipelineFailure(t *testing.T) {
	d := &fakeDecisions{err: fmt.Errorf("select: %w", domain.ErrNoCandidates)}
	rec := do(newTestRouter(d, &fakeInventory{}, nil), http.MethodGet, "/predict?sku=A&store_id=B")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body.Detail, "no cost candidates") {
		t.Errorf("detail = %q", body.Detail)
	}
}

func TestInventory(t *testing.T) {
	inv := &fakeInventory{items: []domain.InventoryItem{{SKU: "A", StoreID: "S001", QuantityUnits: 100}}}
	rec := do(newTestRouter(&fakeDecisions{}, inv, nil), http.MethodGet, "/inventory")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got []domain.InventoryItem
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, inv.items) {
		t.Errorf("items = %v", got)
	}

	inv = &fakeInventory{err: errors.New("open shipments.csv: no such file")}
	rec = do(newTestRouter(&fakeDecisions{}, inv, nil), http.MethodGet, "/inventory")
	if rec.Code != http.StatusInternalServerError || !strings.Contains(rec.Body.String(), "Failed to load inventory") {
		t.Errorf("status = %d body %s", rec.Code, rec.Body)
	}
}

func TestRootHealthAndMetrics(t *testing.T) {
	status := fakeStatus{
		{Name: "cost_model", Available: true},
		{Name: "forecaster", Available: false, Error: "missing"},
	}
	router := newTestRouter(&fakeDecisions{}, &fakeInventory{}, status)

	if rec := do(router, http.MethodGet, "/"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "running") {
		t.Errorf("root: %d %s", rec.Code, rec.Body)
	}

	rec := do(router, http.MethodGet, "/health")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"degraded"`) {
		t.Errorf("health: %d %s", rec.Code, rec.Body)
	}

	if rec := do(router, http.MethodGet, "/metrics"); rec.Code != http.StatusOK {
		t.Errorf("metrics: %d", rec.Code)
	}
}

func TestRecoveryReturnsJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(nil, nil)
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	rec := do(router, http.MethodGet, "/panic")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"http://a.test, http://b.test", " "})
	if all || !reflect.DeepEqual(origins, []string{"http://a.test", "http://b.test"}) {
		t.Errorf("got %v %v", origins, all)
	}
	if _, all := normalizeAllowedOrigins([]string{"*"}); !all {
		t.Error("* should allow all")
	}
}

func TestCORSPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(&Services{Decision: &fakeDecisions{}}, []string{"http://localhost:5173"})

	req := httptest.NewRequest(http.MethodOptions, "/predict", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

package restockapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/andresuchdata/autopo-py/restockd/internal/artifact"
	"github.com/andresuchdata/autopo-py/restockd/internal/domain"
)

type fakeRecommender struct {
	got   []domain.RestockItem
	err   error
	panic bool
}

func (f *fakeRecommender) RecommendBatch(ctx context.Context, items []domain.RestockItem) ([]domain.RestockRecommendation, error) {
	if f.panic {
		panic("model exploded")
	}
	f.got = items
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.RestockRecommendation, len(items))
	for i, it := range items {
		out[i] = domain.RestockRecommendation{ItemID: it.ItemID, Recommendation: domain.RecommendationHold}
	}
	return out, nil
}

type fakeStatus []artifact.Status

func (f fakeStatus) Status() []artifact.Status { return f }

func post(h http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/recommend_batch", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body, err)
	}
	return body.Error
}

const validBody = `{"inventory_items":[
	{"itemId":"A","categoryId":"3","historicalData":[{"Lag_Sales_D-1":4,"Region":"North"}],"currentStock":12},
	{"itemId":"B","categoryId":1,"historicalData":[{"Lag_Sales_D-1":2}],"currentStock":0}
]}`

func TestRecommendBatch_OK(t *testing.T) {
	svc := &fakeRecommender{}
	rec := post(NewRouter(svc, fakeStatus{}, nil), validBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body %s", rec.Code, rec.Body)
	}
	if len(svc.got) != 2 || svc.got[0].CategoryID != 3 || svc.got[0].CurrentStock != 12 {
		t.Fatalf("decoded items = %+v", svc.got)
	}
	if region := svc.got[0].HistoricalData[0]["Region"]; region != "North" {
		t.Errorf("history value = %v", region)
	}

	var recs []domain.RestockRecommendation
	if err := json.Unmarshal(rec.Body.Bytes(), &recs); err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[1].ItemID != "B" {
		t.Errorf("recommendations = %+v", recs)
	}
	if rec.Header().Get(requestIDHeader) == "" {
		t.Error("request id header missing")
	}
}

func TestRecommendBatch_ErrorMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"history length", fmt.Errorf("%w for A: got 44 days, want 45", domain.ErrInvalidHistoryLength), http.StatusBadRequest},
		{"bad category", fmt.Errorf("%w: category id 9", domain.ErrInvalidRequest), http.StatusBadRequest},
		{"model unavailable", fmt.Errorf("%w: restock_model", domain.ErrModelUnavailable), http.StatusInternalServerError},
		{"unexpected", fmt.Errorf("%w: boom", domain.ErrUnexpectedProcessing), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := post(NewRouter(&fakeRecommender{err: tt.err}, fakeStatus{}, nil), validBody)
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if got := errorBody(t, rec); got != tt.err.Error() {
				t.Errorf("error = %q, want %q", got, tt.err.Error())
			}
		})
	}
}

func TestRecommendBatch_BadBodies(t *testing.T) {
	bodies := map[string]string{
		"not json":          `{"inventory_items":`,
		"missing items":     `{}`,
		"missing item id":   `{"inventory_items":[{"categoryId":1,"historicalData":[]}]}`,
		"missing history":   `{"inventory_items":[{"itemId":"A","categoryId":1}]}`,
		"non-numeric categ": `{"inventory_items":[{"itemId":"A","categoryId":"toys","historicalData":[]}]}`,
	}
	for name, body := range bodies {
		svc := &fakeRecommender{}
		rec := post(NewRouter(svc, fakeStatus{}, nil), body)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d", name, rec.Code)
		}
		if svc.got != nil {
			t.Errorf("%s: service should not run", name)
		}
		if errorBody(t, rec) == "" {
			t.Errorf("%s: empty error message", name)
		}
	}
}

func TestRecommendBatch_EmptyBatch(t *testing.T) {
	rec := post(NewRouter(&fakeRecommender{}, fakeStatus{}, nil), `{"inventory_items":[]}`)
	if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("status = %d body %q", rec.Code, rec.Body)
	}
}

func TestRecoverer(t *testing.T) {
	rec := post(NewRouter(&fakeRecommender{panic: true}, fakeStatus{}, nil), validBody)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
	if errorBody(t, rec) == "" {
		t.Error("expected error message")
	}
}

func TestHealthAndMethods(t *testing.T) {
	h := NewRouter(&fakeRecommender{}, fakeStatus{{Name: artifact.CapRestock, Available: true}}, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("health: %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/recommend_batch", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET recommend_batch: %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := NewRouter(&fakeRecommender{}, fakeStatus{}, []string{"http://localhost:5173"})
	req := httptest.NewRequest(http.MethodOptions, "/api/recommend_batch", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Errorf("allow origin = %q", got)
	}
}

func TestCORSAllowAll(t *testing.T) {
	for _, configured := range [][]string{{"*"}, nil} {
		h := NewRouter(&fakeRecommender{}, fakeStatus{}, configured)
		req := httptest.NewRequest(http.MethodOptions, "/api/recommend_batch", nil)
		req.Header.Set("Origin", "http://dashboard.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		got := rec.Header().Get("Access-Control-Allow-Origin")
		if got != "*" && got != "http://dashboard.example.com" {
			t.Errorf("origins %v: allow origin = %q", configured, got)
		}
		if rec.Header().Get("Access-Control-Allow-Credentials") != "" {
			t.Errorf("origins %v: credentials allowed for every origin", configured)
		}
	}
}

func TestOrigins(t *testing.T) {
	tests := []struct {
		in       []string
		want     []string
		allowAll bool
	}{
		{nil, []string{"*"}, true},
		{[]string{" * "}, []string{"*"}, true},
		{[]string{"http://a.test", "", " http://b.test "}, []string{"http://a.test", "http://b.test"}, false},
	}
	for _, tt := range tests {
		got, allowAll := origins(tt.in)
		if allowAll != tt.allowAll || strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("origins(%q) = %v %v, want %v %v", tt.in, got, allowAll, tt.want, tt.allowAll)
		}
	}
}

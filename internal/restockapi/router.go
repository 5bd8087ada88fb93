// Package restockapi serves the batch restock recommendation endpoint.
package restockapi

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/andresuchdata/autopo-py/restockd/internal/api/handlers"
	"github.com/andresuchdata/autopo-py/restockd/internal/metrics"
)

const serviceName = "restock"

// NewRouter builds the restock service handler, CORS included.
func NewRouter(svc Recommender, status handlers.StatusReporter, allowedOrigins []string) http.Handler {
	h := NewHandler(svc, status)

	r := mux.NewRouter()
	r.Use(requestID, logging, recoverer)

	r.HandleFunc("/api/recommend_batch", h.RecommendBatch).Methods(http.MethodPost)
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	allowed, allowAll := origins(allowedOrigins)
	return cors.New(cors.Options{
		AllowedOrigins:   allowed,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", requestIDHeader},
		ExposedHeaders:   []string{requestIDHeader},
		AllowCredentials: !allowAll,
	}).Handler(r)
}

// origins trims the configured list. An empty list or a "*" entry allows
// every origin, without credentials.
func origins(configured []string) ([]string, bool) {
	allowed := make([]string, 0, len(configured))
	for _, o := range configured {
		o = strings.TrimSpace(o)
		if o == "*" {
			return []string{"*"}, true
		}
		if o != "" {
			allowed = append(allowed, o)
		}
	}
	if len(allowed) == 0 {
		return []string{"*"}, true
	}
	return allowed, false
}

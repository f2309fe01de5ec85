package rest

import (
	"net/http"

	"github.com/dmitrijs2005/notekeeper/internal/logging"
	"github.com/dmitrijs2005/notekeeper/internal/server/metrics"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the handlers, the auth gate and the middleware chain.
// gatherer backs GET /metrics; nil disables the endpoint.
func NewRouter(h *Handler, gate Authenticator, l logging.Logger, m *metrics.Metrics, gatherer prometheus.Gatherer) *mux.Router {
	r := mux.NewRouter()
	r.Use(RecoveryMiddleware(l), LoggingMiddleware(l), MetricsMiddleware(m))
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, msgRouteNotFound)
	})

	requireAuth := AuthMiddleware(gate, l, m)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	}

	a := r.PathPrefix("/auth").Subrouter()
	a.HandleFunc("/register", h.Register).Methods(http.MethodPost)
	a.HandleFunc("/login", h.Login).Methods(http.MethodPost)
	a.Handle("/verify-token", requireAuth(http.HandlerFunc(h.VerifyToken))).Methods(http.MethodPost)
	a.Handle("/profile", requireAuth(http.HandlerFunc(h.Profile))).Methods(http.MethodGet)

	n := r.PathPrefix("/notes").Subrouter()
	n.Use(requireAuth)
	n.HandleFunc("", h.ListNotes).Methods(http.MethodGet)
	n.HandleFunc("", h.CreateNote).Methods(http.MethodPost)
	n.HandleFunc("/{id}", h.GetNote).Methods(http.MethodGet)
	n.HandleFunc("/{id}", h.UpdateNote).Methods(http.MethodPut)
	n.HandleFunc("/{id}", h.DeleteNote).Methods(http.MethodDelete)
	n.HandleFunc("/{id}/toggle-pin", h.TogglePin).Methods(http.MethodPatch)

	return r
}

package search

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Jaryq/internal/catalog"
	"Jaryq/internal/i18n"
	"Jaryq/pkg/kit"
)

const (
	outcomeBlank = "blank"
	outcomeHit   = "hit"
	outcomeMiss  = "miss"
)

type Metrics struct {
	Queries *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: kit.Namespace,
				Name:      "search_queries_total",
				Help:      "Search queries by outcome",
			},
			[]string{"outcome"},
		),
	}
	reg.MustRegister(m.Queries)
	return m
}

func (m *Metrics) observe(outcome string) {
	if m == nil {
		return
	}
	m.Queries.WithLabelValues(outcome).Inc()
}

type Server struct {
	Index   *Index
	Bundle  *i18n.Bundle
	Metrics *Metrics
	Log     *zap.Logger
}

type hit struct {
	catalog.View
	Score float64 `json:"score"`
}

type searchResp struct {
	Query   string `json:"query"`
	Results []hit  `json:"results"`
	Message string `json:"message,omitempty"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.search)
	return r
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	l := i18n.FromRequest(r)

	results := s.Index.Search(query)

	resp := searchResp{Query: query, Results: make([]hit, 0, len(results))}
	for _, res := range results {
		resp.Results = append(resp.Results, hit{View: res.Product.Localize(l), Score: res.Score})
	}

	switch {
	case results == nil:
		s.Metrics.observe(outcomeBlank)
		resp.Message = s.message(l, "search.hint")
	case len(results) == 0:
		s.Metrics.observe(outcomeMiss)
		resp.Message = s.message(l, "stock.noResults")
		if s.Log != nil {
			s.Log.Debug("search miss", zap.String("query", query))
		}
	default:
		s.Metrics.observe(outcomeHit)
	}

	kit.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) message(l i18n.Locale, key string) string {
	if s.Bundle == nil {
		return ""
	}
	return s.Bundle.T(l, key)
}

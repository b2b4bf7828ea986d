package catalog

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Jaryq/internal/i18n"
	"Jaryq/pkg/kit"
)

type Server struct {
	Catalog *Catalog
	Log     *zap.Logger
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.list)
	r.Get("/categories", s.categories)
	r.Get("/{id}", s.get)
	r.Get("/{id}/related", s.related)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	order, err := ParseSort(q.Get("sort"))
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad sort", map[string]any{
			"sort":    q.Get("sort"),
			"allowed": []SortOrder{SortFeatured, SortPriceLow, SortPriceHigh, SortName},
		})
		return
	}

	l := i18n.FromRequest(r)
	products := s.Catalog.Query(Query{
		Text:     q.Get("q"),
		Category: q.Get("category"),
		Sort:     order,
		Locale:   l,
	})
	kit.WriteJSON(w, http.StatusOK, Localize(products, l))
}

func (s *Server) categories(w http.ResponseWriter, _ *http.Request) {
	kit.WriteJSON(w, http.StatusOK, append([]string{CategoryAll}, s.Catalog.Categories()...))
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	p, ok := s.Catalog.Get(id)
	if !ok {
		if s.Log != nil {
			s.Log.Debug("product not found", zap.String("id", id))
		}
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, p.Localize(i18n.FromRequest(r)))
}

func (s *Server) related(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if _, ok := s.Catalog.Get(id); !ok {
		kit.WriteError(w, r, http.StatusNotFound, "not found", map[string]any{"id": id})
		return
	}
	kit.WriteJSON(w, http.StatusOK, Localize(s.Catalog.Related(id, RelatedLimit), i18n.FromRequest(r)))
}

package cart

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Jaryq/internal/catalog"
	"Jaryq/internal/i18n"
	"Jaryq/internal/session"
	"Jaryq/pkg/kit"
)

const DefaultCurrency = "KZT"

type Server struct {
	Registry *Registry
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Bundle   *i18n.Bundle
	Metrics  *Metrics
	Currency string
	Log      *zap.Logger
}

type cartResp struct {
	Snapshot
	Currency       string `json:"currency"`
	FormattedTotal string `json:"formatted_total"`
}

type addReq struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
	Quantity  int    `json:"quantity"`
}

// Quantity is a pointer so an omitted field is told apart from an explicit
// zero, which removes the line.
type updateReq struct {
	ID       string `json:"id"`
	Size     string `json:"size"`
	Color    string `json:"color"`
	Quantity *int   `json:"quantity"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/", s.get)
	r.Delete("/", s.clear)
	r.Post("/items", s.add)
	r.Patch("/items", s.update)
	r.Delete("/items", s.remove)

	return r
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	store, ok := s.existingCart(w, r)
	if !ok {
		return
	}
	if store == nil {
		s.render(w, http.StatusOK, snapshotOf(nil))
		return
	}
	s.render(w, http.StatusOK, store.Snapshot())
}

func (s *Server) add(w http.ResponseWriter, r *http.Request) {
	var req addReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.Quantity < 0 {
		kit.WriteError(w, r, http.StatusBadRequest, "bad quantity", map[string]any{"quantity": req.Quantity})
		return
	}

	p, ok := s.Catalog.Get(req.ProductID)
	if !ok {
		kit.WriteError(w, r, http.StatusNotFound, "product not found", map[string]any{"id": req.ProductID})
		return
	}

	l := i18n.FromRequest(r)
	item, err := NewLineItem(p, req.Size, req.Color, req.Quantity, l)
	if err != nil {
		kit.WriteError(w, r, http.StatusUnprocessableEntity, s.Bundle.T(l, MessageKey(err)), map[string]any{
			"id":     p.ID,
			"sizes":  p.Sizes,
			"colors": p.Colors,
		})
		return
	}

	store, ok := s.newOrExistingCart(w, r)
	if !ok {
		return
	}
	snap := store.Add(item)
	s.Metrics.mutated(opAdd)

	s.render(w, http.StatusOK, snap)
}

func (s *Server) update(w http.ResponseWriter, r *http.Request) {
	var req updateReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}
	if req.ID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "id required", nil)
		return
	}
	if req.Quantity == nil {
		kit.WriteError(w, r, http.StatusBadRequest, "quantity required", nil)
		return
	}

	store, ok := s.existingCart(w, r)
	if !ok {
		return
	}
	if store == nil {
		s.render(w, http.StatusOK, snapshotOf(nil))
		return
	}
	snap := store.UpdateQuantity(Key{ID: req.ID, Size: req.Size, Color: req.Color}, *req.Quantity)
	s.Metrics.mutated(opUpdate)

	s.render(w, http.StatusOK, snap)
}

func (s *Server) remove(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	k := Key{ID: q.Get("id"), Size: q.Get("size"), Color: q.Get("color")}
	if k.ID == "" {
		kit.WriteError(w, r, http.StatusBadRequest, "id required", nil)
		return
	}

	store, ok := s.existingCart(w, r)
	if !ok {
		return
	}
	if store == nil {
		s.render(w, http.StatusOK, snapshotOf(nil))
		return
	}
	snap := store.Remove(k)
	s.Metrics.mutated(opRemove)

	s.render(w, http.StatusOK, snap)
}

func (s *Server) clear(w http.ResponseWriter, r *http.Request) {
	store, ok := s.existingCart(w, r)
	if !ok {
		return
	}
	if store == nil {
		s.render(w, http.StatusOK, snapshotOf(nil))
		return
	}
	snap := store.Clear()
	s.Metrics.mutated(opClear)

	s.render(w, http.StatusOK, snap)
}

// existingCart returns the caller's cart, or nil when the request carries
// no session. It never issues one, so reads and removals from anonymous
// clients leave no state behind.
func (s *Server) existingCart(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	id, ok := s.Sessions.Peek(r)
	if !ok {
		return nil, true
	}
	return s.load(w, r, id)
}

// newOrExistingCart issues a session when the request has none.
func (s *Server) newOrExistingCart(w http.ResponseWriter, r *http.Request) (*Store, bool) {
	id, err := s.Sessions.Resolve(w, r)
	if err != nil {
		if s.Log != nil {
			s.Log.Error("session issue failed", zap.Error(err))
		}
		kit.WriteError(w, r, http.StatusInternalServerError, "server error", nil)
		return nil, false
	}
	return s.load(w, r, id)
}

func (s *Server) load(w http.ResponseWriter, r *http.Request, id string) (*Store, bool) {
	store, err := s.Registry.Cart(r.Context(), id)
	if err != nil {
		kit.WriteError(w, r, http.StatusServiceUnavailable, "cart storage unavailable", nil)
		return nil, false
	}
	return store, true
}

func (s *Server) render(w http.ResponseWriter, status int, snap Snapshot) {
	currency := s.Currency
	if currency == "" {
		currency = DefaultCurrency
	}
	kit.WriteJSON(w, status, cartResp{
		Snapshot:       snap,
		Currency:       currency,
		FormattedTotal: i18n.FormatPrice(snap.TotalPrice, currency),
	})
}

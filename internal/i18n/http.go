package i18n

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"Jaryq/pkg/kit"
)

type Server struct {
	Bundle   *Bundle
	Notifier *Notifier
	Log      *zap.Logger
}

type localeResp struct {
	Locale       Locale            `json:"locale"`
	Supported    []Locale          `json:"supported"`
	Translations map[string]string `json:"translations"`
}

type setLocaleReq struct {
	Locale string `json:"locale"`
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Get("/", s.get)
	r.Put("/", s.set)
	return r
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	s.render(w, FromRequest(r))
}

func (s *Server) set(w http.ResponseWriter, r *http.Request) {
	var req setLocaleReq
	if err := kit.DecodeJSON(w, r, &req); err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "bad json", nil)
		return
	}

	l, ok := Parse(req.Locale)
	if !ok {
		kit.WriteError(w, r, http.StatusBadRequest, "unsupported locale", map[string]any{
			"locale":    req.Locale,
			"supported": Supported,
		})
		return
	}

	SetCookie(w, l)
	if prev := FromRequest(r); prev != l && s.Notifier != nil {
		s.Notifier.Publish(l)
	}
	if s.Log != nil {
		s.Log.Debug("locale set", zap.String("locale", string(l)))
	}

	s.render(w, l)
}

func (s *Server) render(w http.ResponseWriter, l Locale) {
	kit.WriteJSON(w, http.StatusOK, localeResp{
		Locale:       l,
		Supported:    Supported,
		Translations: s.Bundle.All(l),
	})
}

package session

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	CookieName = "cart_session"
	DefaultTTL = 30 * 24 * time.Hour
)

// Manager maps requests to cart session ids. Ids are random UUIDs carried
// in a signed, HttpOnly cookie; a missing, forged or expired cookie means
// no session.
type Manager struct {
	Tokens *TokenMaker
	TTL    time.Duration
	Secure bool
	Log    *zap.Logger
}

func NewManager(secret string, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{Tokens: NewTokenMaker(secret), TTL: ttl, Secure: secure}
}

// Peek returns the session of r without issuing one.
func (m *Manager) Peek(r *http.Request) (string, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", false
	}

	claims, err := m.Tokens.Parse(c.Value)
	if err != nil {
		if m.Log != nil {
			m.Log.Debug("rejected session cookie", zap.Error(err))
		}
		return "", false
	}
	return claims.SessionID, true
}

// Resolve returns the session of r, starting a new one and setting its
// cookie on w when r has none.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (string, error) {
	if id, ok := m.Peek(r); ok {
		return id, nil
	}

	id := uuid.NewString()
	tok, err := m.Tokens.New(id, m.TTL)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    tok,
		Path:     "/",
		MaxAge:   int(m.TTL.Seconds()),
		HttpOnly: true,
		Secure:   m.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, nil
}

// Package i18n holds the storefront's locale handling: the locale cookie,
// the translation bundle, price formatting and locale change notifications.
package i18n

import (
	"net/http"
	"time"

	"golang.org/x/text/language"
)

type Locale string

const (
	EN Locale = "en"
	RU Locale = "ru"
	KK Locale = "kk"

	Default = EN

	CookieName   = "locale"
	cookieMaxAge = 365 * 24 * time.Hour
)

var Supported = []Locale{EN, RU, KK}

// Parse accepts only the supported locale codes.
func Parse(s string) (Locale, bool) {
	for _, l := range Supported {
		if string(l) == s {
			return l, true
		}
	}
	return "", false
}

// OrDefault maps an unsupported value to Default.
func OrDefault(s string) Locale {
	if l, ok := Parse(s); ok {
		return l
	}
	return Default
}

func (l Locale) Tag() language.Tag {
	return language.Make(string(OrDefault(string(l))))
}

// FromRequest reads the locale cookie. Absent or invalid values yield
// Default.
func FromRequest(r *http.Request) Locale {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return Default
	}
	return OrDefault(c.Value)
}

func SetCookie(w http.ResponseWriter, l Locale) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(l),
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		SameSite: http.SameSiteLaxMode,
	})
}

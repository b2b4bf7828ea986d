package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"sort"
)

//go:embed locales/*.json
var localeFS embed.FS

// Bundle maps dotted keys ("cart.title") to translated strings per locale.
type Bundle struct {
	strings map[Locale]map[string]string
}

func NewBundle() (*Bundle, error) {
	b := &Bundle{strings: make(map[Locale]map[string]string, len(Supported))}

	for _, l := range Supported {
		raw, err := localeFS.ReadFile("locales/" + string(l) + ".json")
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", l, err)
		}

		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", l, err)
		}

		flat := make(map[string]string)
		flatten("", tree, flat)
		b.strings[l] = flat
	}
	return b, nil
}

// T looks key up in l, then in Default; a key missing from both is
// returned unchanged.
func (b *Bundle) T(l Locale, key string) string {
	if s, ok := b.strings[l][key]; ok && s != "" {
		return s
	}
	if s, ok := b.strings[Default][key]; ok {
		return s
	}
	return key
}

// All returns every key for l with English fallbacks applied.
func (b *Bundle) All(l Locale) map[string]string {
	out := make(map[string]string, len(b.strings[Default]))
	for k := range b.strings[Default] {
		out[k] = b.T(l, k)
	}
	return out
}

func (b *Bundle) Keys() []string {
	keys := make([]string, 0, len(b.strings[Default]))
	for k := range b.strings[Default] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func flatten(prefix string, tree map[string]any, out map[string]string) {
	for k, v := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch vv := v.(type) {
		case string:
			out[key] = vv
		case map[string]any:
			flatten(key, vv, out)
		}
	}
}

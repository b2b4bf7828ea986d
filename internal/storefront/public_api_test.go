package storefront_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"Jaryq/internal/cart"
	"Jaryq/internal/catalog"
	"Jaryq/internal/session"
	"Jaryq/internal/storefront"
)

const (
	testSecret   = "0123456789abcdef0123456789abcdef"
	metricsToken = "scrape-me"
)

type downSlots struct{ *cart.MemSlots }

func (downSlots) Ping(context.Context) error { return errors.New("disk gone") }

func newStorefrontTS(t *testing.T, slots cart.Slots, perMinute int, opts ...func(*storefront.Deps)) *httptest.Server {
	t.Helper()

	src := catalog.Embedded()
	cat, err := catalog.Load(context.Background(), src)
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}

	deps := storefront.Deps{
		Catalog:         cat,
		Source:          src,
		Slots:           slots,
		Sessions:        session.NewManager(testSecret, time.Hour, false),
		SearchPerMinute: perMinute,
	}
	for _, opt := range opts {
		opt(&deps)
	}

	h, err := storefront.NewHandler(
		deps,
		storefront.HTTPDeps{
			Log:            zap.NewNop(),
			Service:        "storefront",
			Registry:       prometheus.NewRegistry(),
			MetricsEnabled: true,
			MetricsToken:   metricsToken,
		},
	)
	if err != nil {
		t.Fatalf("storefront.NewHandler: %v", err)
	}

	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)
	return ts
}

func newClient(t *testing.T) *http.Client {
	t.Helper()

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &http.Client{Jar: jar}
}

func doJSON(t *testing.T, c *http.Client, method, url string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, url, r)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, raw
}

func decode(t *testing.T, raw []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode: %v body=%s", err, string(raw))
	}
}

type view struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	FormattedPrice string `json:"formatted_price"`
}

func TestStorefront_PublicAPI_HappyPath(t *testing.T) {
	ts := newStorefrontTS(t, cart.NewMemSlots(), 0)
	c := newClient(t)

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products?category=tops&sort=price-low", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("products status=%d body=%s", resp.StatusCode, string(raw))
		}
		var list []view
		decode(t, raw, &list)
		if len(list) != 3 || list[0].ID != "sunburst-tee" || list[2].ID != "velvet-blazer" {
			t.Fatalf("tops by price: %+v", list)
		}
		if list[0].FormattedPrice != "9,900 KZT" {
			t.Fatalf("formatted_price=%q", list[0].FormattedPrice)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/search?q=hoodie", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search status=%d", resp.StatusCode)
		}
		var sr struct {
			Results []view `json:"results"`
		}
		decode(t, raw, &sr)
		if len(sr.Results) == 0 || sr.Results[0].ID != "cosmic-hoodie" {
			t.Fatalf("search results: %+v", sr.Results)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPut, ts.URL+"/locale", map[string]any{"locale": "ru"}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("locale status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		_, raw := doJSON(t, c, http.MethodGet, ts.URL+"/products/cosmic-hoodie", nil, nil)
		var v view
		decode(t, raw, &v)
		if v.Name != "Космическое худи" {
			t.Fatalf("localized name=%q", v.Name)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/cart/items", map[string]any{
			"product_id": "cosmic-hoodie",
		}, nil)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Fatalf("add without size status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodPost, ts.URL+"/cart/items", map[string]any{
			"product_id": "cosmic-hoodie",
			"size":       "M",
			"color":      "Olive",
			"quantity":   2,
		}, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add status=%d body=%s", resp.StatusCode, string(raw))
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/cart", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("cart status=%d", resp.StatusCode)
		}
		var cr struct {
			Items          []cart.LineItem `json:"items"`
			TotalItems     int             `json:"total_items"`
			TotalPrice     int64           `json:"total_price"`
			FormattedTotal string          `json:"formatted_total"`
		}
		decode(t, raw, &cr)
		if cr.TotalItems != 2 || cr.TotalPrice != 49800 || cr.FormattedTotal != "49,800 KZT" {
			t.Fatalf("cart: %+v", cr)
		}
		if len(cr.Items) != 1 || cr.Items[0].Name != "Космическое худи" {
			t.Fatalf("items: %+v", cr.Items)
		}
	}

	{
		resp, raw := doJSON(t, c, http.MethodGet, ts.URL+"/metrics", nil, map[string]string{
			"Authorization": "Bearer " + metricsToken,
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("metrics status=%d", resp.StatusCode)
		}
		for _, name := range []string{
			"storefront_http_requests_total",
			"storefront_cart_mutations_total",
			"storefront_search_queries_total",
			"storefront_locale_changes_total",
		} {
			if !strings.Contains(string(raw), name) {
				t.Fatalf("metrics missing %s", name)
			}
		}
	}
}

func TestStorefront_MetricsRequireToken(t *testing.T) {
	ts := newStorefrontTS(t, cart.NewMemSlots(), 0)

	resp, _ := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/metrics", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("metrics without token status=%d", resp.StatusCode)
	}
}

func TestStorefront_SearchIsRateLimited(t *testing.T) {
	ts := newStorefrontTS(t, cart.NewMemSlots(), 2)

	for i := 0; i < 2; i++ {
		resp, _ := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/search?q=tee", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("search #%d status=%d", i, resp.StatusCode)
		}
	}

	resp, _ := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/search?q=tee", nil, nil)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("status=%d want 429", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Fatalf("missing Retry-After")
	}

	other, _ := doJSON(t, http.DefaultClient, http.MethodGet, ts.URL+"/products", nil, nil)
	if other.StatusCode != http.StatusOK {
		t.Fatalf("products limited too: %d", other.StatusCode)
	}
}

func TestStorefront_Readiness(t *testing.T) {
	up := newStorefrontTS(t, cart.NewMemSlots(), 0)
	if resp, _ := doJSON(t, http.DefaultClient, http.MethodGet, up.URL+"/readyz", nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz status=%d", resp.StatusCode)
	}

	down := newStorefrontTS(t, downSlots{cart.NewMemSlots()}, 0)
	if resp, _ := doJSON(t, http.DefaultClient, http.MethodGet, down.URL+"/readyz", nil, nil); resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz with broken slots status=%d", resp.StatusCode)
	}
	if resp, _ := doJSON(t, http.DefaultClient, http.MethodGet, down.URL+"/healthz", nil, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status=%d", resp.StatusCode)
	}
}

func TestStorefront_CartSurvivesRestart(t *testing.T) {
	slots := cart.NewMemSlots()
	c := newClient(t)

	first := newStorefrontTS(t, slots, 0)
	resp, raw := doJSON(t, c, http.MethodPost, first.URL+"/cart/items", map[string]any{"product_id": "daisy-tote"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add status=%d body=%s", resp.StatusCode, string(raw))
	}
	cookies := c.Jar.Cookies(mustURL(t, first.URL))

	second := newStorefrontTS(t, slots, 0)
	c2 := newClient(t)
	c2.Jar.SetCookies(mustURL(t, second.URL), cookies)

	_, raw = doJSON(t, c2, http.MethodGet, second.URL+"/cart", nil, nil)
	var cr struct {
		TotalItems int `json:"total_items"`
	}
	decode(t, raw, &cr)
	if cr.TotalItems != 1 {
		t.Fatalf("hydrated cart: %s", string(raw))
	}
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("parse url: %v", err)
	}
	return u
}

func TestStorefront_SharedSlotsAcrossReplicas(t *testing.T) {
	slots := cart.NewMemSlots()
	shared := func(d *storefront.Deps) { d.SharedSlots = true }
	a := newStorefrontTS(t, slots, 0, shared)
	b := newStorefrontTS(t, slots, 0, shared)

	c := newClient(t)
	if resp, raw := doJSON(t, c, http.MethodPost, a.URL+"/cart/items", map[string]any{"product_id": "daisy-tote"}, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("add on a status=%d body=%s", resp.StatusCode, string(raw))
	}
	if resp, raw := doJSON(t, c, http.MethodPost, b.URL+"/cart/items", map[string]any{"product_id": "daisy-tote", "quantity": 2}, nil); resp.StatusCode != http.StatusOK {
		t.Fatalf("add on b status=%d body=%s", resp.StatusCode, string(raw))
	}

	_, raw := doJSON(t, c, http.MethodGet, a.URL+"/cart", nil, nil)
	var cr struct {
		TotalItems int `json:"total_items"`
	}
	decode(t, raw, &cr)
	if cr.TotalItems != 3 {
		t.Fatalf("replica a serves a stale cart: %s", string(raw))
	}
}

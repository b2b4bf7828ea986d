package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Jaryq/internal/catalog"
	"Jaryq/internal/i18n"
)

func embeddedIndex(t *testing.T) *Index {
	t.Helper()
	c, err := catalog.Load(context.Background(), catalog.Embedded())
	require.NoError(t, err)
	return Build(c.All(), Options{})
}

func TestApproxMatch(t *testing.T) {
	cases := []struct {
		pattern, text string
		errs, start   int
	}{
		{"hood", "cosmic hoodie", 0, 7},
		{"cosmic", "cosmic hoodie", 0, 0},
		{"hodie", "cosmic hoodie", 1, 7},
		{"hoodei", "cosmic hoodie", 1, 7},
		{"xyz", "abc", 3, 0},
		{"abc", "", 3, 0},
	}
	for _, tc := range cases {
		errs, start := approxMatch([]rune(tc.pattern), []rune(tc.text))
		assert.Equal(t, tc.errs, errs, "%q in %q", tc.pattern, tc.text)
		if tc.errs < len(tc.pattern) {
			assert.Equal(t, tc.start, start, "%q in %q", tc.pattern, tc.text)
		}
	}
}

func TestSearch_BlankQuery(t *testing.T) {
	ix := embeddedIndex(t)

	assert.Nil(t, ix.Search(""))
	assert.Nil(t, ix.Search("   \t"))
}

func TestSearch_NoMatchIsEmptyNotNil(t *testing.T) {
	ix := embeddedIndex(t)

	got := ix.Search("qqqqqqqqqq")
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_SubstringOfNameIsFound(t *testing.T) {
	ix := embeddedIndex(t)

	for _, q := range []string{"Hoodie", "cosmic", "FLARES", "velvet bla"} {
		got := ix.Search(q)
		require.NotEmpty(t, got, "query %q", q)
		assert.LessOrEqual(t, len(got), DefaultLimit)
	}

	got := ix.Search("cosmic")
	assert.Equal(t, "cosmic-hoodie", got[0].Product.ID)
	assert.Zero(t, got[0].Score)
}

func TestSearch_ToleratesTypos(t *testing.T) {
	ix := embeddedIndex(t)

	got := ix.Search("hoddie")
	require.NotEmpty(t, got)
	assert.Equal(t, "cosmic-hoodie", got[0].Product.ID)
}

func TestSearch_LocalizedNames(t *testing.T) {
	ix := embeddedIndex(t)

	got := ix.Search("худи")
	require.NotEmpty(t, got)
	assert.Equal(t, "cosmic-hoodie", got[0].Product.ID)
}

func TestSearch_RankedAndCapped(t *testing.T) {
	products := make([]catalog.Product, 0, 10)
	for i := 0; i < 10; i++ {
		products = append(products, catalog.Product{
			ID:   string(rune('a' + i)),
			Name: strings.Repeat("x", i) + " star shirt",
		})
	}
	ix := Build(products, Options{})

	got := ix.Search("star")
	require.Len(t, got, DefaultLimit)
	for i := 1; i < len(got); i++ {
		assert.LessOrEqual(t, got[i-1].Score, got[i].Score)
	}
	assert.Equal(t, "a", got[0].Product.ID)
}

func TestSearch_Idempotent(t *testing.T) {
	ix := embeddedIndex(t)
	assert.Equal(t, ix.Search("tote"), ix.Search("tote"))
}

func TestServer_Search(t *testing.T) {
	b, err := i18n.NewBundle()
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	h := (&Server{Index: embeddedIndex(t), Bundle: b, Metrics: m}).Routes()

	get := func(q string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/?q="+q, nil)
		req.AddCookie(&http.Cookie{Name: i18n.CookieName, Value: "ru"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	rec := get("tote")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"daisy-tote"`)
	assert.Contains(t, rec.Body.String(), "Сумка Ромашка")

	rec = get("")
	assert.Contains(t, rec.Body.String(), `"results":[]`)
	assert.Contains(t, rec.Body.String(), b.T(i18n.RU, "search.hint"))

	rec = get("qqqqqqqqqq")
	assert.Contains(t, rec.Body.String(), b.T(i18n.RU, "stock.noResults"))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues(outcomeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues(outcomeBlank)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Queries.WithLabelValues(outcomeMiss)))
}

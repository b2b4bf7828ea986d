// Package search is the storefront's fuzzy product search.
//
// Scoring follows the usual bitap-style convention: a field scores
// errors/len(query) plus start/distance, where start is the rune offset of
// the best approximate match. Zero is a perfect match at the very start of
// a field. A product's score is its best field; products above the
// threshold are dropped.
package search

import (
	"math"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"Jaryq/internal/catalog"
)

const (
	DefaultThreshold = 0.3
	DefaultLimit     = 6
	DefaultDistance  = 100
)

type Options struct {
	Threshold float64
	Limit     int
	Distance  int
}

func (o Options) withDefaults() Options {
	if o.Threshold <= 0 {
		o.Threshold = DefaultThreshold
	}
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if o.Distance <= 0 {
		o.Distance = DefaultDistance
	}
	return o
}

type Result struct {
	Product catalog.Product
	Score   float64
}

// Index is built once and is safe for concurrent searches.
type Index struct {
	opts Options
	docs []document
}

type document struct {
	product catalog.Product
	fields  [][]rune
}

func Build(products []catalog.Product, opts Options) *Index {
	ix := &Index{opts: opts.withDefaults(), docs: make([]document, 0, len(products))}

	fold := cases.Fold()
	for _, p := range products {
		var fields [][]rune
		for _, f := range searchableFields(p) {
			if f = normalize(fold, f); f != "" {
				fields = append(fields, []rune(f))
			}
		}
		ix.docs = append(ix.docs, document{product: p, fields: fields})
	}
	return ix
}

func (ix *Index) Len() int { return len(ix.docs) }

func (ix *Index) Options() Options { return ix.opts }

// Search ranks products against query, best first, capped at the index
// limit. A blank query returns nil, which callers can tell apart from an
// empty non-nil "nothing matched" result.
func (ix *Index) Search(query string) []Result {
	pattern := []rune(normalize(cases.Fold(), query))
	if len(pattern) == 0 {
		return nil
	}

	out := make([]Result, 0, ix.opts.Limit)
	for _, d := range ix.docs {
		best := math.Inf(1)
		for _, f := range d.fields {
			if s := ix.score(pattern, f); s < best {
				best = s
			}
		}
		if best <= ix.opts.Threshold {
			out = append(out, Result{Product: d.product, Score: best})
		}
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	if len(out) > ix.opts.Limit {
		out = out[:ix.opts.Limit]
	}
	return out
}

func (ix *Index) score(pattern, field []rune) float64 {
	errs, start := approxMatch(pattern, field)
	accuracy := float64(errs) / float64(len(pattern))
	if accuracy > ix.opts.Threshold {
		return math.Inf(1)
	}
	return accuracy + float64(start)/float64(ix.opts.Distance)
}

// searchableFields are name, tagline, description and tags; translated
// names and taglines are indexed alongside the English ones.
func searchableFields(p catalog.Product) []string {
	fields := []string{
		p.Name, p.NameRu, p.NameKk,
		p.Tagline, p.TaglineRu, p.TaglineKk,
		p.Description,
	}
	return append(fields, p.Tags...)
}

func normalize(fold cases.Caser, s string) string {
	return strings.Join(strings.Fields(fold.String(s)), " ")
}

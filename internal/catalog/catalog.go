// Package catalog is the read-only view over the storefront's product list.
package catalog

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"

	"Jaryq/internal/i18n"
)

const (
	CategoryAll = "all"

	RelatedLimit = 4
)

var (
	ErrDuplicateID = errors.New("duplicate product id")
	ErrInvalid     = errors.New("invalid product")
	ErrBadSort     = errors.New("unknown sort order")
)

type SortOrder string

const (
	SortFeatured  SortOrder = "featured"
	SortPriceLow  SortOrder = "price-low"
	SortPriceHigh SortOrder = "price-high"
	SortName      SortOrder = "name"
)

func ParseSort(s string) (SortOrder, error) {
	switch o := SortOrder(s); o {
	case "":
		return SortFeatured, nil
	case SortFeatured, SortPriceLow, SortPriceHigh, SortName:
		return o, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadSort, s)
	}
}

// Catalog is immutable once built; every accessor returns a fresh slice.
type Catalog struct {
	products []Product
	byID     map[string]int
}

func New(products []Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]Product, len(products)),
		byID:     make(map[string]int, len(products)),
	}
	for i, p := range products {
		c.products[i] = p.clone()
	}

	for i, p := range c.products {
		if strings.TrimSpace(p.ID) == "" {
			return nil, fmt.Errorf("%w: empty id at position %d", ErrInvalid, i)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("%w: %s has negative price", ErrInvalid, p.ID)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

func (c *Catalog) Len() int { return len(c.products) }

func (c *Catalog) All() []Product {
	out := make([]Product, len(c.products))
	for i, p := range c.products {
		out[i] = p.clone()
	}
	return out
}

func (c *Catalog) Get(id string) (Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Product{}, false
	}
	return c.products[i].clone(), true
}

// ByCategory filters by exact category; "" and "all" select everything.
func (c *Catalog) ByCategory(category string) []Product {
	return filter(c.products, categoryPred(category))
}

// Match is a case-insensitive containment test of text against the
// product name and tagline, in l and in English. Blank text matches all.
func (c *Catalog) Match(text string, l i18n.Locale) []Product {
	return filter(c.products, matchPred(text, l))
}

// Categories lists distinct categories in first-seen order.
func (c *Catalog) Categories() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range c.products {
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		out = append(out, p.Category)
	}
	return out
}

// Related returns up to n other products from id's category.
func (c *Catalog) Related(id string, n int) []Product {
	p, ok := c.Get(id)
	if !ok || n <= 0 {
		return []Product{}
	}

	out := make([]Product, 0, n)
	for _, q := range c.products {
		if q.Category == p.Category && q.ID != p.ID {
			out = append(out, q.clone())
			if len(out) == n {
				break
			}
		}
	}
	return out
}

type Query struct {
	Text     string
	Category string
	Sort     SortOrder
	Locale   i18n.Locale
}

// Query applies the text filter, then the category filter, then the sort.
func (c *Catalog) Query(q Query) []Product {
	match, inCategory := matchPred(q.Text, q.Locale), categoryPred(q.Category)
	out := filter(c.products, func(p Product) bool { return match(p) && inCategory(p) })
	return Sort(out, q.Sort, q.Locale)
}

// Sort orders ps in place and returns it. Featured keeps catalog order;
// equal keys keep their relative order.
func Sort(ps []Product, order SortOrder, l i18n.Locale) []Product {
	switch order {
	case SortPriceLow:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price < ps[j].Price })
	case SortPriceHigh:
		sort.SliceStable(ps, func(i, j int) bool { return ps[i].Price > ps[j].Price })
	case SortName:
		col := collate.New(l.Tag(), collate.IgnoreCase)
		sort.SliceStable(ps, func(i, j int) bool {
			return col.CompareString(ps[i].NameIn(l), ps[j].NameIn(l)) < 0
		})
	}
	return ps
}

func filter(ps []Product, keep func(Product) bool) []Product {
	out := make([]Product, 0, len(ps))
	for _, p := range ps {
		if keep(p) {
			out = append(out, p.clone())
		}
	}
	return out
}

func categoryPred(category string) func(Product) bool {
	if category == "" || category == CategoryAll {
		return func(Product) bool { return true }
	}
	return func(p Product) bool { return p.Category == category }
}

func matchPred(text string, l i18n.Locale) func(Product) bool {
	fold := cases.Fold()
	needle := fold.String(strings.TrimSpace(text))
	if needle == "" {
		return func(Product) bool { return true }
	}
	return func(p Product) bool {
		for _, field := range []string{p.NameIn(l), p.TaglineIn(l), p.Name, p.Tagline} {
			if strings.Contains(fold.String(field), needle) {
				return true
			}
		}
		return false
	}
}

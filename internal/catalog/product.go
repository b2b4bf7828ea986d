package catalog

import (
	"slices"

	"Jaryq/internal/i18n"
)

const placeholderImage = "/placeholder.svg"

// Product is one record of the static catalog. Localized text lives in
// sibling fields; an empty translation falls back to English.
type Product struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	NameRu        string   `json:"nameRu,omitempty"`
	NameKk        string   `json:"nameKk,omitempty"`
	Tagline       string   `json:"tagline"`
	TaglineRu     string   `json:"taglineRu,omitempty"`
	TaglineKk     string   `json:"taglineKk,omitempty"`
	Description   string   `json:"description"`
	DescriptionRu string   `json:"descriptionRu,omitempty"`
	DescriptionKk string   `json:"descriptionKk,omitempty"`
	Price         int64    `json:"price"`
	Currency      string   `json:"currency"`
	Category      string   `json:"category"`
	Sizes         []string `json:"sizes"`
	Colors        []string `json:"colors"`
	Images        []string `json:"images"`
	Tags          []string `json:"tags,omitempty"`
	InStock       bool     `json:"inStock"`
}

func (p Product) NameIn(l i18n.Locale) string {
	return pick(l, p.Name, p.NameRu, p.NameKk)
}

func (p Product) TaglineIn(l i18n.Locale) string {
	return pick(l, p.Tagline, p.TaglineRu, p.TaglineKk)
}

func (p Product) DescriptionIn(l i18n.Locale) string {
	return pick(l, p.Description, p.DescriptionRu, p.DescriptionKk)
}

// Image is the cover image, or the placeholder when the product has none.
func (p Product) Image() string {
	if len(p.Images) > 0 && p.Images[0] != "" {
		return p.Images[0]
	}
	return placeholderImage
}

func pick(l i18n.Locale, en, ru, kk string) string {
	switch l {
	case i18n.RU:
		if ru != "" {
			return ru
		}
	case i18n.KK:
		if kk != "" {
			return kk
		}
	}
	return en
}

// View is a product rendered for one locale.
type View struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Tagline        string   `json:"tagline"`
	Description    string   `json:"description"`
	Price          int64    `json:"price"`
	Currency       string   `json:"currency"`
	FormattedPrice string   `json:"formatted_price"`
	Category       string   `json:"category"`
	Sizes          []string `json:"sizes"`
	Colors         []string `json:"colors"`
	Images         []string `json:"images"`
	InStock        bool     `json:"in_stock"`
}

// clone copies the variant, image and tag slices so callers cannot reach
// catalog storage.
func (p Product) clone() Product {
	p.Sizes = slices.Clone(p.Sizes)
	p.Colors = slices.Clone(p.Colors)
	p.Images = slices.Clone(p.Images)
	p.Tags = slices.Clone(p.Tags)
	return p
}

func (p Product) Localize(l i18n.Locale) View {
	images := p.Images
	if len(images) == 0 {
		images = []string{placeholderImage}
	}
	return View{
		ID:             p.ID,
		Name:           p.NameIn(l),
		Tagline:        p.TaglineIn(l),
		Description:    p.DescriptionIn(l),
		Price:          p.Price,
		Currency:       p.Currency,
		FormattedPrice: i18n.FormatPrice(p.Price, p.Currency),
		Category:       p.Category,
		Sizes:          nonNil(p.Sizes),
		Colors:         nonNil(p.Colors),
		Images:         images,
		InStock:        p.InStock,
	}
}

func Localize(ps []Product, l i18n.Locale) []View {
	out := make([]View, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Localize(l))
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

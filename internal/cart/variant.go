package cart

import (
	"errors"
	"slices"

	"Jaryq/internal/catalog"
	"Jaryq/internal/i18n"
)

var (
	ErrSizeRequired  = errors.New("size selection required")
	ErrColorRequired = errors.New("color selection required")
	ErrUnknownSize   = errors.New("size not offered for product")
	ErrUnknownColor  = errors.New("color not offered for product")
)

// ResolveVariant applies the add-to-cart selection rule to both variant
// dimensions the same way: with several options a choice is required,
// with exactly one option it is filled in, with none the dimension stays
// empty. A choice that is not among the options is rejected.
func ResolveVariant(p catalog.Product, size, color string) (string, string, error) {
	size, err := resolve(p.Sizes, size, ErrSizeRequired, ErrUnknownSize)
	if err != nil {
		return "", "", err
	}
	color, err = resolve(p.Colors, color, ErrColorRequired, ErrUnknownColor)
	if err != nil {
		return "", "", err
	}
	return size, color, nil
}

func resolve(options []string, chosen string, errRequired, errUnknown error) (string, error) {
	switch {
	case chosen != "":
		if !slices.Contains(options, chosen) {
			return "", errUnknown
		}
		return chosen, nil
	case len(options) > 1:
		return "", errRequired
	case len(options) == 1:
		return options[0], nil
	default:
		return "", nil
	}
}

// NewLineItem snapshots p as a line item in locale l, after resolving the
// variant selection.
func NewLineItem(p catalog.Product, size, color string, quantity int, l i18n.Locale) (LineItem, error) {
	size, color, err := ResolveVariant(p, size, color)
	if err != nil {
		return LineItem{}, err
	}
	return LineItem{
		ID:       p.ID,
		Name:     p.NameIn(l),
		Price:    p.Price,
		Image:    p.Image(),
		Size:     size,
		Color:    color,
		Quantity: quantity,
	}, nil
}

// MessageKey is the translation key shown to the shopper for a rejected
// selection.
func MessageKey(err error) string {
	switch {
	case errors.Is(err, ErrSizeRequired):
		return "product.selectSize"
	case errors.Is(err, ErrColorRequired):
		return "product.selectColor"
	default:
		return "product.unknownVariant"
	}
}

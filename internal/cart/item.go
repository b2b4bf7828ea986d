// Package cart keeps shopping carts: ordered line items keyed by product
// and variant, their totals, and their persisted form.
package cart

// LineItem is one product+variant in a cart. Name, Image and Price are
// copied from the catalog when the item is added and never refreshed.
// An empty Size or Color means the variant dimension is absent.
type LineItem struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Image    string `json:"image"`
	Size     string `json:"size,omitempty"`
	Color    string `json:"color,omitempty"`
	Quantity int    `json:"quantity"`
}

// Key is a line item's identity within a cart.
type Key struct {
	ID    string
	Size  string
	Color string
}

func (it LineItem) Key() Key {
	return Key{ID: it.ID, Size: it.Size, Color: it.Color}
}

// Subtotal is Price times Quantity.
func (it LineItem) Subtotal() int64 {
	return it.Price * int64(it.Quantity)
}

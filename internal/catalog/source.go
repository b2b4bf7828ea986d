package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

//go:embed data/products.json
var embeddedProducts []byte

// Source supplies the product list once at startup.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
	Ping(ctx context.Context) error
}

type document struct {
	Products []Product `json:"products"`
}

// Decode reads a catalog document of the form {"products": [...]}.
func Decode(r io.Reader) ([]Product, error) {
	var doc document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return doc.Products, nil
}

// Load builds a Catalog from src.
func Load(ctx context.Context, src Source) (*Catalog, error) {
	ps, err := src.Products(ctx)
	if err != nil {
		return nil, err
	}
	return New(ps)
}

// StaticSource serves a catalog document held in memory.
type StaticSource struct {
	data []byte
}

// Embedded is the catalog shipped with the binary.
func Embedded() *StaticSource {
	return &StaticSource{data: embeddedProducts}
}

func FromFile(path string) (*StaticSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return &StaticSource{data: data}, nil
}

func (s *StaticSource) Ping(context.Context) error { return nil }

func (s *StaticSource) Products(context.Context) ([]Product, error) {
	return Decode(bytes.NewReader(s.data))
}

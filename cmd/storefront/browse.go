package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"Jaryq/internal/catalog"
	"Jaryq/internal/config"
	"Jaryq/internal/i18n"
	"Jaryq/internal/search"
)

var (
	browseLocale   string
	browseCategory string
	browseSort     string
	browseQuery    string
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy-search the catalog and print ranked matches",
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List catalog products with filters and sorting",
	Args:  cobra.NoArgs,
	RunE:  runCatalog,
}

func init() {
	for _, c := range []*cobra.Command{searchCmd, catalogCmd} {
		c.Flags().StringVar(&browseLocale, "locale", string(i18n.Default), "Display locale (en, ru, kk)")
	}
	catalogCmd.Flags().StringVar(&browseCategory, "category", catalog.CategoryAll, "Category filter")
	catalogCmd.Flags().StringVar(&browseSort, "sort", string(catalog.SortFeatured), "Sort order: featured, price-low, price-high, name")
	catalogCmd.Flags().StringVarP(&browseQuery, "query", "q", "", "Text filter over name and tagline")
}

// loadCatalog reads the configured static catalog. Postgres-backed
// catalogs are only reachable through serve.
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	var src catalog.Source = catalog.Embedded()
	if cfg.Catalog.Source == config.CatalogFile {
		fs, err := catalog.FromFile(cfg.Catalog.Path)
		if err != nil {
			return nil, err
		}
		src = fs
	}
	return catalog.Load(ctx, src)
}

func parseLocale(raw string) (i18n.Locale, error) {
	l, ok := i18n.Parse(raw)
	if !ok {
		return "", fmt.Errorf("unsupported locale %q (valid: %v)", raw, i18n.Supported)
	}
	return l, nil
}

func runSearch(cmd *cobra.Command, args []string) error {
	l, err := parseLocale(browseLocale)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cmd.Context())
	if err != nil {
		return err
	}

	results := search.Build(cat.All(), search.Options{}).Search(args[0])
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		bundle, err := i18n.NewBundle()
		if err != nil {
			return err
		}
		key := "stock.noResults"
		if results == nil {
			key = "search.hint"
		}
		_, err = fmt.Fprintln(out, bundle.T(l, key))
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, r := range results {
		v := r.Product.Localize(l)
		fmt.Fprintf(tw, "%.3f\t%s\t%s\t%s\n", r.Score, v.ID, v.Name, v.FormattedPrice)
	}
	return tw.Flush()
}

func runCatalog(cmd *cobra.Command, _ []string) error {
	l, err := parseLocale(browseLocale)
	if err != nil {
		return err
	}
	order, err := catalog.ParseSort(browseSort)
	if err != nil {
		return err
	}
	cat, err := loadCatalog(cmd.Context())
	if err != nil {
		return err
	}

	products := cat.Query(catalog.Query{
		Text:     browseQuery,
		Category: browseCategory,
		Sort:     order,
		Locale:   l,
	})
	return printProducts(cmd.OutOrStdout(), catalog.Localize(products, l))
}

func printProducts(w io.Writer, views []catalog.View) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, v := range views {
		stock := ""
		if !v.InStock {
			stock = "sold out"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Category, v.FormattedPrice, stock)
	}
	return tw.Flush()
}

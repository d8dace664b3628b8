package scrape

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// productsFromJSONLD collects every JSON-LD object typed exactly "Product",
// whether it sits at the top level, inside a top-level array, or inside an
// @graph array. Scripts that fail to parse are skipped individually.
func productsFromJSONLD(doc *goquery.Document) []map[string]any {
	var out []map[string]any
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var data any
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return
		}
		var candidates []any
		switch v := data.(type) {
		case []any:
			candidates = v
		case map[string]any:
			candidates = []any{v}
		default:
			return
		}
		for _, c := range candidates {
			obj, ok := c.(map[string]any)
			if !ok {
				continue
			}
			if obj["@type"] == "Product" {
				out = append(out, obj)
			}
			if graph, ok := obj["@graph"].([]any); ok {
				for _, g := range graph {
					if gobj, ok := g.(map[string]any); ok && gobj["@type"] == "Product" {
						out = append(out, gobj)
					}
				}
			}
		}
	})
	return out
}

// priceFromOffers pulls a price and currency out of a JSON-LD offers value,
// which may be a single offer object or a list of them. Lists yield the
// first entry carrying a usable price.
func priceFromOffers(offers any) (*float64, *string) {
	switch o := offers.(type) {
	case map[string]any:
		var currency *string
		if c, ok := o["priceCurrency"].(string); ok {
			currency = &c
		}
		switch p := o["price"].(type) {
		case float64:
			return &p, currency
		case string:
			if v, err := strconv.ParseFloat(strings.TrimSpace(p), 64); err == nil {
				return &v, currency
			}
			if v, ok := ParsePrice(p); ok {
				return &v, currency
			}
		}
		return nil, currency
	case []any:
		for _, entry := range o {
			if v, c := priceFromOffers(entry); v != nil {
				return v, c
			}
		}
	}
	return nil, nil
}

package scrape

import (
	"context"
)

// PageKind classifies a fetched document
type PageKind int

const (
	// PageUnknown means no product or listing fingerprint matched
	PageUnknown PageKind = iota
	// PageProduct is a single product detail page
	PageProduct
	// PageCategory is a listing page of product cards
	PageCategory
)

// String returns the kind name
func (k PageKind) String() string {
	switch k {
	case PageProduct:
		return "product"
	case PageCategory:
		return "category"
	default:
		return "unknown"
	}
}

// Source tags recorded on items that did not come from a CSS selector hit
const (
	// SourceProduct marks a product page where no extractor matched
	SourceProduct = "product"
	// SourceJSONLD marks prices taken from structured data
	SourceJSONLD = "jsonld"
	// SourcePriceAttr marks prices taken from a data-price-amount attribute
	SourcePriceAttr = "data-price-amount"
	// SourceCategoryCard marks items extracted from listing cards
	SourceCategoryCard = "category-card"
	// SourceError marks sentinel items recording a failed fetch
	SourceError = "error"
)

// PriceNotFoundText is the price_text recorded when a product page yields no price
const PriceNotFoundText = "price_not_found_or_hidden"

// Item is one extracted result row. Pointer fields marshal as null when
// the page did not yield the value.
type Item struct {
	URL                 string   `json:"url"`
	Site                string   `json:"site"`
	Title               string   `json:"title"`
	PriceValue          *float64 `json:"price_value"`
	PriceCurrency       *string  `json:"price_currency"`
	PriceText           string   `json:"price_text"`
	DiscountedValue     *float64 `json:"discounted_value"`
	DiscountedFormatted string   `json:"discounted_formatted"`
	OriginalFormatted   string   `json:"original_formatted"`
	Source              string   `json:"source"`
	ImageURL            string   `json:"image_url"`
}

// Rules is the discount transform applied to every item of one crawl
type Rules struct {
	PercentOff  float64 `json:"percent_off"`
	AbsoluteOff float64 `json:"absolute_off"`
}

// Fetcher retrieves a page body as UTF-8 and reports the URL reached after
// redirects. Implementations own retries, timeouts and rate-limit handling.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (finalURL string, body string, err error)
}

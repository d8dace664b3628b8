package scrape

import (
	"github.com/PuerkitoBio/goquery"
)

// Page fingerprints. Listing cards come in two tiers: the primary layout
// and a combined fallback of common grid markups.
const (
	productFingerprint  = "h1.page-title, h1.product"
	listingCardsPrimary = "ul.product-listing li.item"
	listingCardsFallback = "ol.products li.product-item, div.product-item-info, div.product-card, li.product"
)

// Classify decides whether doc is a product detail page, a listing page, or
// neither. Product fingerprints (heading markup or JSON-LD Product objects)
// win over listing fingerprints.
func Classify(doc *goquery.Document) PageKind {
	if doc.Find(productFingerprint).Length() > 0 || len(productsFromJSONLD(doc)) > 0 {
		return PageProduct
	}
	if doc.Find(listingCardsPrimary).Length() > 0 || doc.Find(listingCardsFallback).Length() > 0 {
		return PageCategory
	}
	return PageUnknown
}

package scrape

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricetrawl/helpers"
)

// titleSelectors is tried in order; the first element with non-empty text
// wins, then og:title, then empty.
var titleSelectors = []string{
	"h1.page-title .base",
	`span[data-ui-id="page-title-wrapper"]`,
	"h1.product",
	"h1",
}

// priceSelectors is the text cascade tried after the document-wide
// data-price-amount attribute pass. Every match of a selector is parsed
// before moving to the next selector, and the winning selector is recorded
// as the item source.
var priceSelectors = []string{
	"span.price-final_price [data-price-amount]",
	"span.price-final_price span.price",
	"div.price-box [data-price-amount]",
	"div.price-box span.price",
	`span[id^="product-price-"] [data-price-amount]`,
	`span[id^="product-price-"] span.price`,
	"span.price",
	`[class*="price"]`,
	`[id*="price"]`,
}

const gallerySelector = ".gallery-placeholder, .product.media, .fotorama, .product-image"

const cardPriceSelector = `.price, .price-final_price .price, [class*="price"]`

// extractTitle returns the first non-empty title in cascade order
func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if t := helpers.CleanText(el.Text()); t != "" {
			return t
		}
	}
	if c, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok && c != "" {
		return helpers.CleanText(c)
	}
	return ""
}

// extractCanonicalURL prefers the canonical link, then og:url, then fallback
func extractCanonicalURL(doc *goquery.Document, fallback string) string {
	if href, ok := doc.Find(`link[rel="canonical"]`).Attr("href"); ok && href != "" {
		return href
	}
	if c, ok := doc.Find(`meta[property="og:url"]`).Attr("content"); ok && c != "" {
		return c
	}
	return fallback
}

// extractPrice finds a product price and the source that produced it. The
// first data-price-amount attribute in the document wins when it parses as
// a plain float; otherwise the text cascade runs.
func extractPrice(doc *goquery.Document) (*float64, string) {
	if raw, ok := doc.Find("[data-price-amount]").First().Attr("data-price-amount"); ok && raw != "" {
		if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
			return &v, SourcePriceAttr
		}
	}
	for _, sel := range priceSelectors {
		var found *float64
		doc.Find(sel).EachWithBreak(func(_ int, e *goquery.Selection) bool {
			if v, ok := ParsePrice(helpers.CleanText(e.Text())); ok {
				found = &v
				return false
			}
			return true
		})
		if found != nil {
			return found, sel
		}
	}
	return nil, ""
}

// extractImage returns an image URL from scope. The first img matching a
// lazy-load, srcset or src selector decides; its data-src wins over src. An
// img selected for srcset alone yields the empty string rather than falling
// through to later selectors.
func extractImage(scope *goquery.Selection) string {
	for _, sel := range []string{"img[data-src]", "img[srcset]", "img[src]"} {
		el := scope.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		if v, ok := el.Attr("data-src"); ok && v != "" {
			return v
		}
		if v, ok := el.Attr("src"); ok && v != "" {
			return v
		}
		return ""
	}
	return ""
}

// galleryScope narrows image extraction to the product gallery when one
// exists, else the whole document.
func galleryScope(doc *goquery.Document) *goquery.Selection {
	if gal := doc.Find(gallerySelector).First(); gal.Length() > 0 {
		return gal
	}
	return doc.Selection
}

// ProductItem assembles the single item for a product detail page.
// Structured data wins over markup for both title and price; the canonical
// URL replaces the fetched one when the page declares it.
func ProductItem(doc *goquery.Document, finalURL string, rules Rules) Item {
	host := hostname(finalURL)
	pageURL := extractCanonicalURL(doc, finalURL)

	title := ""
	var priceVal *float64
	var currency *string
	source := SourceProduct

	if products := productsFromJSONLD(doc); len(products) > 0 {
		obj := products[0]
		if name, ok := obj["name"].(string); ok {
			title = helpers.CleanText(name)
		}
		if v, cur := priceFromOffers(obj["offers"]); v != nil {
			priceVal, currency, source = v, cur, SourceJSONLD
		}
	}
	if title == "" {
		title = extractTitle(doc)
	}
	if priceVal == nil {
		if v, src := extractPrice(doc); v != nil {
			priceVal, source = v, src
		}
	}

	img := extractImage(galleryScope(doc))
	final := ApplyRules(priceVal, rules.PercentOff, rules.AbsoluteOff)

	priceText := ""
	if priceVal == nil {
		priceText = PriceNotFoundText
	}

	itemCurrency := currency
	if itemCurrency == nil || *itemCurrency == "" {
		hc := HostCurrency(host)
		itemCurrency = &hc
	}

	return Item{
		URL:                 pageURL,
		Site:                host,
		Title:               title,
		PriceValue:          priceVal,
		PriceCurrency:       itemCurrency,
		PriceText:           priceText,
		DiscountedValue:     final,
		DiscountedFormatted: FormatPrice(final, currency, host),
		OriginalFormatted:   FormatPrice(priceVal, currency, host),
		Source:              source,
		ImageURL:            img,
	}
}

// CategoryItems assembles one item per listing card. Cards without a link
// are skipped. Prices come from a data-price-amount attribute when present,
// else from card text; unparseable text is kept on the item so the caller
// can see what was there. Currency is always inferred from the host.
func CategoryItems(doc *goquery.Document, finalURL string, rules Rules) []Item {
	host := hostname(finalURL)

	cards := doc.Find(listingCardsPrimary)
	if cards.Length() == 0 {
		cards = doc.Find(listingCardsFallback)
	}

	var items []Item
	cards.Each(func(_ int, card *goquery.Selection) {
		a := card.Find("a[href]").First()
		if a.Length() == 0 {
			return
		}
		title := helpers.CleanText(a.Text())
		href, _ := a.Attr("href")
		prodURL := resolveURL(finalURL, href)
		image := extractImage(card)

		var priceVal *float64
		priceText := ""
		if raw, ok := card.Find("[data-price-amount]").First().Attr("data-price-amount"); ok && raw != "" {
			if v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64); err == nil {
				priceVal = &v
			}
		}
		if priceVal == nil {
			if pel := card.Find(cardPriceSelector).First(); pel.Length() > 0 {
				priceText = helpers.CleanText(pel.Text())
			}
			if v, ok := ParsePrice(priceText); ok {
				priceVal = &v
			}
		}

		final := ApplyRules(priceVal, rules.PercentOff, rules.AbsoluteOff)
		hc := HostCurrency(host)

		if priceVal != nil {
			priceText = ""
		}

		items = append(items, Item{
			URL:                 prodURL,
			Site:                host,
			Title:               title,
			PriceValue:          priceVal,
			PriceCurrency:       &hc,
			PriceText:           priceText,
			DiscountedValue:     final,
			DiscountedFormatted: FormatPrice(final, nil, host),
			OriginalFormatted:   FormatPrice(priceVal, nil, host),
			Source:              SourceCategoryCard,
			ImageURL:            image,
		})
	})
	return items
}

// errorItem records a failed fetch as a sentinel result row
func errorItem(pageURL string, err error) Item {
	return Item{
		URL:       pageURL,
		Site:      hostname(pageURL),
		PriceText: "fetch_failed: " + err.Error(),
		Source:    SourceError,
	}
}

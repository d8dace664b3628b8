package scrape

import (
	"context"

	"github.com/PuerkitoBio/goquery"
)

const nextPageSelector = `li.pages-item-next a, a.action.next, a[rel="next"]`

// findNextPageURL returns the absolute URL of the next listing page, or the
// empty string when the page has no usable next link.
func findNextPageURL(doc *goquery.Document, baseURL string) string {
	if href, ok := doc.Find(nextPageSelector).First().Attr("href"); ok && href != "" {
		return resolveURL(baseURL, href)
	}
	return ""
}

// walkCategory crawls a listing forward through next links, scraping every
// page including the first. It stops when the page budget is spent, the
// next link is missing or points at a page already visited, or a fetch
// fails, which contributes a sentinel item and ends the walk.
func (s *Scraper) walkCategory(ctx context.Context, startURL string) []Item {
	var items []Item
	seen := make(map[string]struct{})
	pageURL := startURL
	for pages := 0; pageURL != "" && pages < s.maxPages; pages++ {
		finalURL, doc, err := s.fetchDoc(ctx, pageURL, s.delay)
		if err != nil {
			s.log.Warn().Err(err).Str("url", pageURL).Msg("Listing page fetch failed")
			metricFetchError()
			items = append(items, errorItem(pageURL, err))
			break
		}
		items = append(items, CategoryItems(doc, finalURL, s.rules)...)
		seen[finalURL] = struct{}{}

		next := findNextPageURL(doc, finalURL)
		if next == "" {
			break
		}
		if _, visited := seen[next]; visited {
			break
		}
		pageURL = next
	}
	return items
}

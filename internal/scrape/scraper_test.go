package scrape

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPage is one canned response for the stub fetcher
type stubPage struct {
	finalURL string
	body     string
	err      error
}

// stubFetcher implements Fetcher from a canned url to page map. URLs with
// no entry fail as if the connection was refused.
type stubFetcher struct {
	mu    sync.Mutex
	pages map[string]stubPage
	calls []string
}

var _ Fetcher = (*stubFetcher)(nil)

func (f *stubFetcher) Fetch(_ context.Context, url string) (string, string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	p, ok := f.pages[url]
	if !ok {
		return "", "", errors.New("connection refused")
	}
	if p.err != nil {
		return "", "", p.err
	}
	final := p.finalURL
	if final == "" {
		final = url
	}
	return final, p.body, nil
}

const productPageHTML = `<html><head>
	<script type="application/ld+json">{"@type":"Product","name":"Widget","offers":{"price":"100.00","priceCurrency":"USD"}}</script>
</head><body><h1 class="page-title"><span class="base">Widget</span></h1></body></html>`

// listingPage builds a category page with one card per href/title pair and
// an optional next link.
func listingPage(next string, cards ...[2]string) string {
	var b strings.Builder
	b.WriteString(`<html><body><ul class="product-listing">`)
	for _, c := range cards {
		b.WriteString(`<li class="item"><a href="` + c[0] + `">` + c[1] + `</a><span class="price">$10.00</span></li>`)
	}
	b.WriteString(`</ul>`)
	if next != "" {
		b.WriteString(`<a class="action next" href="` + next + `">Next</a>`)
	}
	b.WriteString(`</body></html>`)
	return b.String()
}

func TestScrapeURLProduct(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://shop.example.com/widget": {body: productPageHTML},
	}}
	s := New(fetcher, Config{Rules: Rules{PercentOff: 10}, FollowPagination: true, MaxPages: 20})

	items := s.ScrapeURL(context.Background(), "https://shop.example.com/widget")

	require.Len(t, items, 1)
	assert.Equal(t, "Widget", items[0].Title)
	require.NotNil(t, items[0].PriceValue)
	assert.Equal(t, 100.00, *items[0].PriceValue)
	require.NotNil(t, items[0].DiscountedValue)
	assert.Equal(t, 90.00, *items[0].DiscountedValue)
	assert.Equal(t, SourceJSONLD, items[0].Source)
}

func TestScrapeURLUnknownFallsBackToProduct(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://example.com/about": {body: `<html><body><p>nothing to buy</p></body></html>`},
	}}
	s := New(fetcher, Config{FollowPagination: true, MaxPages: 20})

	items := s.ScrapeURL(context.Background(), "https://example.com/about")

	require.Len(t, items, 1)
	assert.Equal(t, SourceProduct, items[0].Source)
	assert.Nil(t, items[0].PriceValue)
	assert.Equal(t, PriceNotFoundText, items[0].PriceText)
}

func TestScrapeURLFetchFailure(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]stubPage{}}
	s := New(fetcher, Config{FollowPagination: true, MaxPages: 20})

	items := s.ScrapeURL(context.Background(), "https://down.example.com/p")

	require.Len(t, items, 1)
	assert.Equal(t, "https://down.example.com/p", items[0].URL)
	assert.Equal(t, "down.example.com", items[0].Site)
	assert.Equal(t, SourceError, items[0].Source)
	assert.True(t, strings.HasPrefix(items[0].PriceText, "fetch_failed: "))
	assert.Nil(t, items[0].PriceValue)
	assert.Nil(t, items[0].PriceCurrency)
	assert.Equal(t, "", items[0].DiscountedFormatted)
}

func TestScrapeBatchIsolatesFailures(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://a.example.com/p": {body: productPageHTML},
		"https://c.example.com/list": {body: listingPage("",
			[2]string{"/p/1", "One"}, [2]string{"/p/2", "Two"})},
	}}
	s := New(fetcher, Config{FollowPagination: true, MaxPages: 20})

	items := s.ScrapeBatch(context.Background(), []string{
		"https://a.example.com/p",
		"https://b.example.com/p",
		"https://c.example.com/list",
	})

	// One product item, one sentinel, two cards, in input order
	require.Len(t, items, 4)
	assert.Equal(t, SourceJSONLD, items[0].Source)
	assert.Equal(t, SourceError, items[1].Source)
	assert.Equal(t, "https://b.example.com/p", items[1].URL)
	assert.Equal(t, SourceCategoryCard, items[2].Source)
	assert.Equal(t, "https://c.example.com/p/1", items[2].URL)
	assert.Equal(t, "https://c.example.com/p/2", items[3].URL)
}

func TestScrapeURLCategoryWithoutPagination(t *testing.T) {
	fetcher := &stubFetcher{pages: map[string]stubPage{
		"https://shop.example.com/c": {body: listingPage("/c?p=2", [2]string{"/p/1", "One"})},
	}}
	s := New(fetcher, Config{FollowPagination: false, MaxPages: 20})

	items := s.ScrapeURL(context.Background(), "https://shop.example.com/c")

	require.Len(t, items, 1)
	assert.Equal(t, "https://shop.example.com/p/1", items[0].URL)
	// The single classify fetch is the only request; the next link is ignored
	assert.Equal(t, []string{"https://shop.example.com/c"}, fetcher.calls)
}

func TestScrapeBatchEmpty(t *testing.T) {
	s := New(&stubFetcher{}, Config{FollowPagination: true, MaxPages: 20})
	items := s.ScrapeBatch(context.Background(), nil)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

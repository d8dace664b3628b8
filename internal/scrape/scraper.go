package scrape

import (
	"context"
	"math/rand"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"pricetrawl/logger"
	"pricetrawl/pkg/errors"
	"pricetrawl/pkg/metrics"
)

// Config controls one scraper run
type Config struct {
	Rules            Rules
	FollowPagination bool
	MaxPages         int
	Delay            time.Duration
}

// Scraper turns URLs into extracted items using a Fetcher. Callers own
// defaulting of Config values; a MaxPages below one walks no listing pages.
type Scraper struct {
	fetcher          Fetcher
	rules            Rules
	followPagination bool
	maxPages         int
	delay            time.Duration
	log              *logger.Logger
}

// New creates a scraper
func New(fetcher Fetcher, cfg Config) *Scraper {
	return &Scraper{
		fetcher:          fetcher,
		rules:            cfg.Rules,
		followPagination: cfg.FollowPagination,
		maxPages:         cfg.MaxPages,
		delay:            cfg.Delay,
		log:              logger.ForScraper(),
	}
}

// ScrapeBatch scrapes urls in order and concatenates their items. Failures
// are isolated per URL: a broken page contributes its sentinel item and the
// batch moves on.
func (s *Scraper) ScrapeBatch(ctx context.Context, urls []string) []Item {
	start := time.Now()
	items := make([]Item, 0, len(urls))
	for _, u := range urls {
		items = append(items, s.ScrapeURL(ctx, u)...)
	}
	metrics.ItemsExtracted.Add(float64(len(items)))
	metrics.Batches.Inc()
	s.log.Info().
		Int("urls", len(urls)).
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Batch finished")
	return items
}

// ScrapeURL scrapes a single URL. Product pages yield one item, listing
// pages one item per card (walking pagination when configured), and pages
// that match neither fingerprint go down the product path.
func (s *Scraper) ScrapeURL(ctx context.Context, rawURL string) []Item {
	metrics.URLsScraped.Inc()
	finalURL, doc, err := s.fetchDoc(ctx, rawURL, 0)
	if err != nil {
		s.log.Warn().Err(err).Str("url", rawURL).Msg("Fetch failed")
		metricFetchError()
		return []Item{errorItem(rawURL, err)}
	}

	kind := Classify(doc)
	s.log.Debug().Str("url", finalURL).Str("kind", kind.String()).Msg("Page classified")

	if kind == PageCategory {
		if s.followPagination {
			return s.walkCategory(ctx, finalURL)
		}
		return CategoryItems(doc, finalURL, s.rules)
	}
	return []Item{ProductItem(doc, finalURL, s.rules)}
}

// fetchDoc fetches url and parses the body. A positive wait sleeps first,
// plus up to 50ms of jitter, and aborts early when ctx is done.
func (s *Scraper) fetchDoc(ctx context.Context, url string, wait time.Duration) (string, *goquery.Document, error) {
	if wait > 0 {
		select {
		case <-time.After(wait + time.Duration(rand.Int63n(int64(50*time.Millisecond)))):
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}
	finalURL, body, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return "", nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", nil, errors.NewParse(url, "parse document", err)
	}
	return finalURL, doc, nil
}

func metricFetchError() {
	metrics.ScrapeErrors.WithLabelValues("fetch").Inc()
}

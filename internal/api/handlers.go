package api

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"pricetrawl/helpers"
	"pricetrawl/internal/fetch"
	"pricetrawl/internal/scrape"
	"pricetrawl/logger"
	"pricetrawl/services/cache"
	"pricetrawl/services/export"
	"pricetrawl/services/publisher"
)

const (
	defaultMaxPages = 20
	defaultDelayMS  = 400
	defaultRetries  = 3
)

//go:embed index.html
var indexHTML []byte

// Handlers bundles the dependencies of the HTTP endpoints
type Handlers struct {
	cooldown     *cache.Cooldown
	publisher    publisher.Publisher
	fetchTimeout time.Duration
	log          *logger.Logger
}

// NewHandlers creates the endpoint handlers. cooldown and pub may be nil
// when the corresponding backends are not configured.
func NewHandlers(cooldown *cache.Cooldown, pub publisher.Publisher, fetchTimeout time.Duration) *Handlers {
	return &Handlers{
		cooldown:     cooldown,
		publisher:    pub,
		fetchTimeout: fetchTimeout,
		log:          logger.ForServer(),
	}
}

// URLList accepts either a newline separated string or a JSON array of URLs
type URLList []string

// UnmarshalJSON implements json.Unmarshaler
func (u *URLList) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*u = URLList(helpers.SplitLines(s))
		return nil
	}

	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("urls must be a string or an array of strings")
	}
	out := make(URLList, 0, len(list))
	for _, v := range list {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	*u = out
	return nil
}

// ScrapeRequest is the body of POST /api/scrape
type ScrapeRequest struct {
	URLs            URLList `json:"urls"`
	CrawlPagination *bool   `json:"crawl_pagination"`
	MaxPages        int     `json:"max_pages"`
	DelayMS         int     `json:"delay_ms"`
	Retries         int     `json:"retries"`
	VerifySSL       *bool   `json:"verify_ssl"`
	PercentOff      float64 `json:"percent_off"`
	AbsoluteOff     float64 `json:"absolute_off"`
}

// ScrapeResponse is the result of one scrape batch
type ScrapeResponse struct {
	BatchID string        `json:"batch_id"`
	Rules   scrape.Rules  `json:"rules"`
	Count   int           `json:"count"`
	Items   []scrape.Item `json:"items"`
}

// Scrape handles scrape batch requests
func (h *Handlers) Scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	maxPages := req.MaxPages
	if maxPages == 0 {
		maxPages = defaultMaxPages
	}
	if maxPages < 1 {
		maxPages = 1
	} else if maxPages > 100 {
		maxPages = 100
	}

	delayMS := req.DelayMS
	if delayMS <= 0 {
		delayMS = defaultDelayMS
	}

	retries := req.Retries
	if retries == 0 {
		retries = defaultRetries
	}

	crawlPagination := true
	if req.CrawlPagination != nil {
		crawlPagination = *req.CrawlPagination
	}
	verifySSL := true
	if req.VerifySSL != nil {
		verifySSL = *req.VerifySSL
	}

	urls := helpers.Dedupe(req.URLs)
	rules := scrape.Rules{PercentOff: req.PercentOff, AbsoluteOff: req.AbsoluteOff}

	client := fetch.New(fetch.Options{
		Retries:   retries,
		Timeout:   h.fetchTimeout,
		VerifySSL: verifySSL,
		Cooldown:  h.cooldown,
	})
	scraper := scrape.New(client, scrape.Config{
		Rules:            rules,
		FollowPagination: crawlPagination,
		MaxPages:         maxPages,
		Delay:            time.Duration(delayMS) * time.Millisecond,
	})

	items := scraper.ScrapeBatch(r.Context(), urls)

	resp := ScrapeResponse{
		BatchID: uuid.NewString(),
		Rules:   rules,
		Count:   len(items),
		Items:   items,
	}
	h.publish(r.Context(), resp)

	h.respondJSON(w, http.StatusOK, resp)
}

// ExportRequest is the body of POST /api/export/xlsx
type ExportRequest struct {
	Rows []json.RawMessage `json:"rows"`
}

// ExportXLSX renders posted rows as a downloadable workbook
func (h *Handlers) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	var req ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	data, err := export.ExtractWorkbook(req.Rows)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", export.XLSXContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="price_extract.xlsx"`)
	if _, err := w.Write(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to write workbook response")
	}
}

// Health reports service liveness
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Index serves the single-page UI
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(indexHTML)
}

// publish forwards the batch to the stream when a publisher is configured.
// Publish failures are logged, never surfaced to the API caller.
func (h *Handlers) publish(ctx context.Context, resp ScrapeResponse) {
	if h.publisher == nil {
		return
	}
	payload, err := json.Marshal(resp)
	if err != nil {
		h.log.Error().Err(err).Str("batch_id", resp.BatchID).Msg("Failed to marshal batch for publishing")
		return
	}
	if err := h.publisher.Publish(ctx, "b64_batch", payload); err != nil {
		h.log.Error().Err(err).Str("batch_id", resp.BatchID).Msg("Failed to publish batch")
		return
	}
	h.log.Debug().Str("batch_id", resp.BatchID).Int("count", resp.Count).Msg("Batch published")
}

// Helper methods

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

package fetch

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"time"

	retryablehttp "github.com/hashicorp/go-retryablehttp"
	"golang.org/x/net/html/charset"

	"pricetrawl/logger"
	"pricetrawl/pkg/errors"
	"pricetrawl/services/cache"
)

// Browser-like headers sent with every request. Storefronts serve degraded
// or empty markup to clients that do not identify as a browser.
var identityHeaders = map[string]string{
	"User-Agent":                "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36",
	"Accept-Language":           "en-US,en;q=0.9",
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Connection":                "keep-alive",
	"Upgrade-Insecure-Requests": "1",
}

// Transient status codes worth another attempt
var retryStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Options configures a Client
type Options struct {
	// Retries is the number of additional attempts after a transient
	// failure. Negative values are treated as zero.
	Retries int
	// Timeout bounds each attempt. Defaults to 30 seconds.
	Timeout time.Duration
	// VerifySSL controls TLS certificate verification
	VerifySSL bool
	// Cooldown, when set, makes fetches against rate-limited hosts fail
	// fast until the penalty window expires. May be nil.
	Cooldown *cache.Cooldown
}

// Client fetches pages over HTTP with retries and returns their bodies
// decoded to UTF-8.
type Client struct {
	http     *retryablehttp.Client
	cooldown *cache.Cooldown
	log      *logger.Logger
}

// New creates a Client with the given options
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !opts.VerifySSL}

	rc := retryablehttp.NewClient()
	rc.HTTPClient = &http.Client{
		Transport: transport,
		Timeout:   opts.Timeout,
	}
	rc.RetryMax = retries
	rc.RetryWaitMin = 700 * time.Millisecond
	rc.RetryWaitMax = 10 * time.Second
	rc.Logger = nil
	rc.CheckRetry = checkRetry
	// Hand the last response back instead of swallowing it so the caller
	// can see which status exhausted the retries.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	return &Client{
		http:     rc,
		cooldown: opts.Cooldown,
		log:      logger.ForFetcher(),
	}
}

// checkRetry retries connection errors and the transient status codes.
// Context cancellation always wins.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		return true, nil
	}
	return retryStatuses[resp.StatusCode], nil
}

// Fetch retrieves url following redirects and returns the URL after
// redirects together with the body decoded to UTF-8.
func (c *Client) Fetch(ctx context.Context, url string) (string, string, error) {
	host := hostOf(url)
	if c.cooldown.Active(host) {
		c.log.Warn().Str("host", host).Msg("Skipping fetch; host is cooling down")
		return "", "", errors.NewFetch(url, "host is cooling down after rate limiting", nil)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", errors.NewFetch(url, "failed to create request", err)
	}
	for k, v := range identityHeaders {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return "", "", errors.NewFetch(url, "request failed", err)
	}
	defer resp.Body.Close()

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		c.cooldown.Mark(host)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", "", errors.NewFetch(url, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), nil)
	}

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", errors.NewFetch(url, "failed to read response body", err)
	}

	body, err := toUTF8(bodyBytes, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", "", errors.NewFetch(url, "failed to decode response body", err)
	}

	return finalURL, body, nil
}

// toUTF8 converts a response body to UTF-8 based on the Content-Type header
// and the body content itself.
func toUTF8(bodyBytes []byte, contentType string) (string, error) {
	encoding, name, _ := charset.DetermineEncoding(bodyBytes, contentType)

	// If already UTF-8, return as is
	if name == "utf-8" || name == "UTF-8" {
		return string(bodyBytes), nil
	}

	utf8Reader := encoding.NewDecoder().Reader(bytes.NewReader(bodyBytes))
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, utf8Reader); err != nil {
		return "", fmt.Errorf("failed to read converted UTF-8 body: %w", err)
	}

	return buf.String(), nil
}

func hostOf(rawURL string) string {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

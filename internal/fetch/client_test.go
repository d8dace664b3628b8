package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pricetrawl/pkg/errors"
	"pricetrawl/services/cache"
)

// memoryCache is an in-memory cache.Store for cooldown tests
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

var _ cache.Store = (*memoryCache)(nil)

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("cache miss for key: %s", key)
	}
	return v, nil
}

func (m *memoryCache) Set(key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func TestFetchSetsBrowserHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")
		assert.NotEmpty(t, r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		assert.Equal(t, "1", r.Header.Get("Upgrade-Insecure-Requests"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte("<html><body>Hello, World!</body></html>"))
	}))
	defer server.Close()

	client := New(Options{VerifySSL: true})
	finalURL, body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, server.URL, finalURL)
	assert.Contains(t, body, "Hello, World!")
}

func TestFetchFollowsRedirects(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/old-product":
			http.Redirect(w, r, "/new-product", http.StatusFound)
		case "/new-product":
			w.Write([]byte("<html><body>moved here</body></html>"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(Options{VerifySSL: true})
	finalURL, body, err := client.Fetch(context.Background(), server.URL+"/old-product")
	require.NoError(t, err)
	assert.Equal(t, server.URL+"/new-product", finalURL)
	assert.Contains(t, body, "moved here")
}

func TestFetchRetriesTransientStatus(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("<html><body>finally up</body></html>"))
	}))
	defer server.Close()

	client := New(Options{Retries: 3, VerifySSL: true})
	_, body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "finally up")
	assert.Equal(t, 3, requests)
}

func TestFetchGivesUpAfterRetries(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Options{Retries: 1, VerifySSL: true})
	_, _, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 503")
	assert.True(t, errors.IsKind(err, errors.KindFetch))
	assert.Equal(t, 2, requests)
}

func TestFetchDoesNotRetryNotFound(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.NotFound(w, r)
	}))
	defer server.Close()

	client := New(Options{Retries: 3, VerifySSL: true})
	_, _, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 404")
	assert.Equal(t, 1, requests)
}

func TestFetchMarksHostCooldownOnRateLimit(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	cooldown := cache.NewCooldown(newMemoryCache(), time.Minute)
	client := New(Options{VerifySSL: true, Cooldown: cooldown})

	_, _, err := client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 429")
	assert.Equal(t, 1, requests)
	assert.True(t, cooldown.Active("127.0.0.1"))

	// Follow-up fetches fail fast without touching the host
	_, _, err = client.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cooling down")
	assert.Equal(t, 1, requests)
}

func TestFetchConvertsNonUTF8Body(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		// "Café" with an ISO-8859-1 encoded é
		w.Write([]byte("<html><body>Caf\xe9</body></html>"))
	}))
	defer server.Close()

	client := New(Options{VerifySSL: true})
	_, body, err := client.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "Café")
}

func TestFetchInsecureTLS(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body>self signed</body></html>"))
	}))
	defer server.Close()

	strict := New(Options{VerifySSL: true})
	_, _, err := strict.Fetch(context.Background(), server.URL)
	assert.Error(t, err)

	relaxed := New(Options{VerifySSL: false})
	_, body, err := relaxed.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, body, "self signed")
}

func TestFetchCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := New(Options{Retries: 3, VerifySSL: true})
	_, _, err := client.Fetch(ctx, server.URL)
	assert.Error(t, err)
}

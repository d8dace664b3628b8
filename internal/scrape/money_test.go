package scrape

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  float64
		found bool
	}{
		{"symbol and grouping", "$1,234.56", 1234.56, true},
		{"euro", "€12.00", 12.00, true},
		{"pound with space", "£ 3.99", 3.99, true},
		{"canadian prefix", "CA$2,000.00", 2000.00, true},
		{"bare integer", "1234", 1234, true},
		{"decimals no symbol", "12.34", 12.34, true},
		{"surrounded by words", "Now only $ 1,299.00 today", 1299.00, true},
		{"non-breaking space after symbol", "$ 1,299.00", 1299.00, true},
		{"grouped without cents reads leading digit", "1,234", 1, true},
		{"first number wins", "save 20% now $99.00", 20, true},
		{"no digits", "price on request", 0, false},
		{"empty", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePrice(tt.text)
			assert.Equal(t, tt.found, ok)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestHostCurrency(t *testing.T) {
	assert.Equal(t, "CAD", HostCurrency("shop.example.ca"))
	assert.Equal(t, "CAD", HostCurrency("ca.example.com"))
	assert.Equal(t, "CAD", HostCurrency("www.ca.example.com"))
	assert.Equal(t, "CAD", HostCurrency("SHOP.EXAMPLE.CA"))
	assert.Equal(t, "USD", HostCurrency("example.com"))
	assert.Equal(t, "USD", HostCurrency("decaf.example.com"))
	assert.Equal(t, "USD", HostCurrency(""))
}

func TestFormatPrice(t *testing.T) {
	usd := "USD"
	cadLower := "cad"
	eur := "EUR"
	val := 1234.5

	assert.Equal(t, "$1,234.50", FormatPrice(&val, &usd, "example.com"))
	assert.Equal(t, "CA$1,234.50", FormatPrice(&val, &cadLower, "example.com"))

	// Unknown code falls back to the host symbol
	assert.Equal(t, "$1,234.50", FormatPrice(&val, &eur, "example.com"))

	// No code at all infers from the host
	assert.Equal(t, "CA$1,234.50", FormatPrice(&val, nil, "shop.example.ca"))
	assert.Equal(t, "$1,234.50", FormatPrice(&val, nil, "example.com"))

	neg := -5.0
	assert.Equal(t, "$-5.00", FormatPrice(&neg, nil, "example.com"))

	assert.Equal(t, "", FormatPrice(nil, &usd, "example.com"))
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "shop.example.com", hostname("https://Shop.Example.com:8443/p/1?x=1"))
	assert.Equal(t, "", hostname("not a url"))
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "https://example.com/p/2", resolveURL("https://example.com/p/1", "/p/2"))
	assert.Equal(t, "https://example.com/a/c", resolveURL("https://example.com/a/b", "c"))
	assert.Equal(t, "https://other.com/x", resolveURL("https://example.com/a", "https://other.com/x"))
	assert.Equal(t, "https://example.com/p/2", resolveURL("https://example.com/p/1", "  /p/2  "))
}

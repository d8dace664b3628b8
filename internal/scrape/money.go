package scrape

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// moneyRE captures an optional currency symbol and a number that is either
// comma-grouped with cents or a plain integer with optional cents. The
// grouped alternative comes first so "1,234.56" is not read as "1".
var moneyRE = regexp.MustCompile(`([$£€]|CA\$)?[\s\p{Zs}]*([0-9]{1,3}(?:,[0-9]{3})*(?:\.[0-9]{2})|[0-9]+(?:\.[0-9]{2})?)`)

// currencySymbols maps ISO-ish currency codes to display symbols
var currencySymbols = map[string]string{
	"USD": "$",
	"CAD": "CA$",
}

// pricePrinter renders grouped en-US numbers ("1,234.50")
var pricePrinter = message.NewPrinter(language.AmericanEnglish)

// ParsePrice extracts the first money-looking number from text. Currency
// symbols and grouping commas are tolerated; anything without digits is
// reported as absent.
func ParsePrice(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	m := moneyRE.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// HostCurrency infers the currency code from a hostname. Canadian
// storefronts (".ca" TLD or "ca." subdomain) map to CAD, everything else
// to USD.
func HostCurrency(host string) string {
	host = strings.ToLower(host)
	if strings.HasSuffix(host, ".ca") || strings.HasPrefix(host, "ca.") || strings.Contains(host, ".ca.") {
		return "CAD"
	}
	return "USD"
}

// FormatPrice renders val with a currency symbol. The explicit currency code
// wins when it maps to a known symbol; otherwise the symbol is inferred from
// host. A nil val renders as the empty string.
func FormatPrice(val *float64, currency *string, host string) string {
	if val == nil {
		return ""
	}
	sym := ""
	if currency != nil {
		sym = currencySymbols[strings.ToUpper(*currency)]
	}
	if sym == "" {
		sym = currencySymbols[HostCurrency(host)]
	}
	if sym == "" {
		sym = "$"
	}
	return sym + pricePrinter.Sprintf("%.2f", *val)
}

// hostname returns the lowercased host of rawURL without the port, or the
// empty string when rawURL does not parse.
func hostname(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

// resolveURL resolves href against base the way a browser would. Unparseable
// inputs fall back to the raw href.
func resolveURL(base, href string) string {
	href = strings.TrimSpace(href)
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(href)
	if err != nil {
		return href
	}
	return b.ResolveReference(h).String()
}

package scraper

import (
	"strconv"
	"strings"
	"unicode"
)

// The closed set of currency symbols a snapshot may carry.
const (
	CurrencyINR = "₹"
	CurrencyUSD = "$"
	CurrencyEUR = "€"
	CurrencyGBP = "£"
)

// domesticDomains force ₹ regardless of any page-level signal: these
// storefronts only ever sell in rupees, and their markup routinely lies
// (mirrored templates, misconfigured metadata, icon fonts).
var domesticDomains = []string{
	"amazon.in",
	"amzn.in",
	"flipkart.com",
	"dl.flipkart.com",
	"myntra.com",
	"ajio.com",
	"croma.com",
	"robu.in",
	"snapdeal.com",
}

// maxTitleLen bounds titles against pathological markup text.
const maxTitleLen = 100

// normalizePrice converts loosely formatted price text to a number.
// Returns 0 for anything non-numeric or non-positive: the pipeline's
// per-attempt "no price found" signal, not an error.
func normalizePrice(text string) float64 {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	clean := b.String()
	if clean == "" {
		return 0
	}

	// Keep only the final dot as the decimal separator; earlier ones are
	// thousands separators (e.g. "1.299.00").
	if n := strings.Count(clean, "."); n > 1 {
		clean = strings.Replace(clean, ".", "", n-1)
	}

	price, err := strconv.ParseFloat(strings.Trim(clean, "."), 64)
	if err != nil || price <= 0 {
		return 0
	}
	return price
}

// resolveCurrency maps the detected hint to the closed symbol set. The
// final rendered URL's domain is the strongest signal: a domestic
// storefront always yields ₹ no matter what the page claimed. Without any
// signal the default is $.
func resolveCurrency(finalURL, hint string) string {
	host := hostOf(finalURL)
	for _, domain := range domesticDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return CurrencyINR
		}
	}
	return mapCurrencyHint(hint)
}

// mapCurrencyHint resolves a code or symbol to the closed set.
func mapCurrencyHint(hint string) string {
	switch strings.ToUpper(strings.TrimSpace(hint)) {
	case "₹", "INR", "RS", "RS.":
		return CurrencyINR
	case "€", "EUR":
		return CurrencyEUR
	case "£", "GBP":
		return CurrencyGBP
	case "$", "USD":
		return CurrencyUSD
	default:
		return CurrencyUSD
	}
}

// scanCurrencyHint looks for a known symbol or prefix inside raw price
// text. Empty when nothing matches.
func scanCurrencyHint(text string) string {
	switch {
	case strings.Contains(text, "₹"):
		return "₹"
	case strings.Contains(text, "Rs"), strings.Contains(text, "RS"):
		return "Rs"
	case strings.Contains(text, "€"):
		return "€"
	case strings.Contains(text, "£"):
		return "£"
	case strings.Contains(text, "$"):
		return "$"
	}
	return ""
}

// truncateTitle trims and bounds a title, falling back to a placeholder
// so snapshots are always fully populated.
func truncateTitle(title string) string {
	title = strings.Join(strings.Fields(title), " ")
	if title == "" {
		return "Unknown Item"
	}
	runes := []rune(title)
	if len(runes) > maxTitleLen {
		title = strings.TrimRightFunc(string(runes[:maxTitleLen]), unicode.IsSpace)
	}
	return title
}

// containsDigit reports whether text has at least one digit; a price
// candidate without one is rejected outright.
func containsDigit(text string) bool {
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}

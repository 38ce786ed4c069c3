package handlers

import (
	"net/url"
	"regexp"
	"strings"
)

// trackingParams are stripped from tracked URLs so that the same
// product shared through different channels dedupes to one row.
var trackingParams = map[string]struct{}{
	"utm_source":       {},
	"utm_medium":       {},
	"utm_campaign":     {},
	"utm_term":         {},
	"utm_content":      {},
	"ref":              {},
	"ref_":             {},
	"tag":              {},
	"fbclid":           {},
	"gclid":            {},
	"_branch_match_id": {},
}

// shortLinkHosts expand server-side on first navigation, so they are
// stored as-is and resolved by the browser.
var shortLinkHosts = []string{
	"amzn.in",
	"amzn.to",
	"dl.flipkart.com",
	"bitli.in",
	"fkrt.it",
}

var amazonDPRe = regexp.MustCompile(`/dp/([A-Z0-9]{10})`)

// CleanURL normalizes a product URL before it is stored: short links
// pass through untouched, Amazon URLs collapse to their canonical /dp/
// form, and tracking parameters are dropped everywhere else.
func CleanURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)

	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}

	host := strings.ToLower(u.Host)
	for _, short := range shortLinkHosts {
		if host == short || strings.HasSuffix(host, "."+short) {
			return rawURL
		}
	}

	// Amazon product URLs carry the whole search context in the path;
	// only the ASIN matters.
	if strings.Contains(host, "amazon.") {
		if m := amazonDPRe.FindStringSubmatch(u.Path); m != nil {
			return u.Scheme + "://" + u.Host + "/dp/" + m[1]
		}
	}

	q := u.Query()
	for param := range q {
		if _, tracked := trackingParams[param]; tracked {
			q.Del(param)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return u.String()
}

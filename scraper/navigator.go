package scraper

import (
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/go-rod/rod"
)

const (
	viewportWidth  = 1366
	viewportHeight = 768

	// Several source sites route through short-link redirect chains that
	// take multiple hops to resolve, so the navigation timeout is generous.
	navigationTimeout = 75 * time.Second

	// Advisory wait for slow single-page-app storefronts that keep
	// rendering after the network goes quiet.
	renderWaitTimeout = 15 * time.Second
)

// slowRenderSites maps a host substring to the price-bearing selector to
// wait for after load. The wait is advisory: a miss is swallowed and
// extraction proceeds with whatever DOM exists.
var slowRenderSites = map[string]string{
	"flipkart.": "[class*='price']",
	"myntra.":   ".pdp-price",
	"ajio.":     ".prod-sp",
}

// navigate loads the target URL and returns the final, post-redirect URL
// actually rendered. It never fails hard: on timeout it logs and returns,
// since a partial DOM is often still extractable.
func navigate(page *rod.Page, rawURL string) string {
	p := page.Timeout(navigationTimeout)

	if err := p.Navigate(rawURL); err != nil {
		log.Printf("navigation to %s failed, continuing with current state: %v", rawURL, err)
		return rawURL
	}

	if err := p.WaitLoad(); err != nil {
		log.Printf("page load wait timed out for %s, continuing: %v", rawURL, err)
	}
	// WaitRequestIdle conflicts with the mounted hijack router, so settle
	// on DOM stability instead.
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		log.Printf("DOM did not stabilize for %s, continuing: %v", rawURL, err)
	}

	finalURL := currentURL(page)
	if finalURL == "" {
		finalURL = rawURL
	}

	if sel := slowRenderWaitSelector(finalURL); sel != "" {
		if _, err := page.Timeout(renderWaitTimeout).Element(sel); err != nil {
			log.Printf("price element %q did not appear on %s, continuing: %v", sel, finalURL, err)
		}
	}

	return finalURL
}

// currentURL reads the rendered location, empty on failure.
func currentURL(page *rod.Page) string {
	res, err := page.Eval(`() => window.location.href`)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// slowRenderWaitSelector returns the selector to wait for on known
// slow-rendering storefronts, or "" when none applies.
func slowRenderWaitSelector(rawURL string) string {
	host := hostOf(rawURL)
	if host == "" {
		return ""
	}
	for sub, sel := range slowRenderSites {
		if strings.Contains(host, sub) {
			return sel
		}
	}
	return ""
}

// hostOf extracts the lowercase hostname of a URL, empty when unparsable.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

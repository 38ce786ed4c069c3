package scraper

import (
	"log"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/ysmood/gson"
)

// Strategy tags recorded on extraction attempts.
const (
	strategyStructured = "structured-metadata"
	strategySite       = "site-selector"
	strategyGeneric    = "generic-selector"
	strategyOCR        = "visual-ocr"
)

// candidate is what the DOM chain hands the normalizer: raw captured
// text plus best-effort title/image. Ephemeral, never returned to callers.
type candidate struct {
	Title        string
	ImageURL     string
	PriceText    string
	CurrencyHint string
	Strategy     string
}

// maxPriceTextLen rejects matched text too long to plausibly be a price
// rather than a paragraph.
const maxPriceTextLen = 30

// plausiblePriceText is the acceptance rule shared by the selector
// stages: the text must contain a digit and be short.
func plausiblePriceText(text string) bool {
	text = strings.TrimSpace(text)
	return containsDigit(text) && len(text) > 0 && len(text) < maxPriceTextLen
}

// extractCandidate walks the strategies in strict priority order and
// short-circuits as soon as a stage yields a price that parses positive.
// Title and image resolution run their own independent fallback chains.
func extractCandidate(page *rod.Page, finalURL string) candidate {
	var c candidate

	html, err := page.HTML()
	if err != nil {
		log.Printf("failed to read page HTML, selector stages only: %v", err)
	}

	meta := parseStructuredMetadata(html)
	c.Title = meta.Title
	c.ImageURL = meta.Image

	// Stage 1: structured metadata. Explicit and site-author-maintained,
	// so it wins whenever it parses.
	if meta.PriceText != "" && normalizePrice(meta.PriceText) > 0 {
		c.PriceText = meta.PriceText
		c.CurrencyHint = meta.Currency
		c.Strategy = strategyStructured
	}

	// Stage 2: site-specific selectors from the table.
	site := lookupSelectors(hostOf(finalURL))
	if c.PriceText == "" && site != nil {
		if text := firstAcceptedText(page, site.Price); text != "" {
			c.PriceText = text
			c.Strategy = strategySite
		}
	}

	// Stage 3: generic selectors.
	if c.PriceText == "" {
		if text := firstAcceptedText(page, genericPriceSelectors); text != "" {
			c.PriceText = text
			c.Strategy = strategyGeneric
		}
	}

	if c.CurrencyHint == "" {
		c.CurrencyHint = scanCurrencyHint(c.PriceText)
	}

	// Image chain: structured image, then site gallery selectors, then
	// the generic list.
	if c.ImageURL == "" && site != nil {
		c.ImageURL = firstImageURL(page, site.Image)
	}
	if c.ImageURL == "" {
		c.ImageURL = firstImageURL(page, genericImageSelectors)
	}

	// Title chain: structured name, then h1, then document title.
	if c.Title == "" {
		c.Title = firstText(page, "h1")
	}
	if c.Title == "" {
		if res, err := page.Eval(`() => document.title`); err == nil {
			c.Title = res.Value.Str()
		}
	}

	return c
}

// firstAcceptedText tries each selector in order and returns the first
// matched text passing the price acceptance rule and parsing positive.
func firstAcceptedText(page *rod.Page, selectors []string) string {
	for _, sel := range selectors {
		text := firstText(page, sel)
		if plausiblePriceText(text) && normalizePrice(text) > 0 {
			return strings.TrimSpace(text)
		}
	}
	return ""
}

// firstText returns the text of the first element matching sel, without
// waiting for it to appear.
func firstText(page *rod.Page, sel string) string {
	els, err := page.Elements(sel)
	if err != nil || len(els) == 0 {
		return ""
	}
	text, err := els.First().Text()
	if err != nil {
		return ""
	}
	return text
}

// firstImageURL returns the src (or lazy-load data-src) of the first
// element matching any of the selectors.
func firstImageURL(page *rod.Page, selectors []string) string {
	for _, sel := range selectors {
		els, err := page.Elements(sel)
		if err != nil || len(els) == 0 {
			continue
		}
		el := els.First()
		for _, attr := range []string{"src", "data-src", "content"} {
			if v, err := el.Attribute(attr); err == nil && v != nil && *v != "" {
				return *v
			}
		}
	}
	return ""
}

// structMeta is the machine-readable product data embedded in a page by
// its author: JSON-LD Product blocks and social-preview meta tags.
type structMeta struct {
	Title     string
	Image     string
	PriceText string
	Currency  string
}

// parseStructuredMetadata reads product markup out of rendered HTML.
// JSON-LD offers take priority over meta tags for price; og: tags take
// priority for title and image since they are curated for previews.
func parseStructuredMetadata(html string) structMeta {
	var m structMeta
	if html == "" {
		return m
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Printf("failed to parse page HTML for structured metadata: %v", err)
		return m
	}

	if v, ok := doc.Find(`meta[property="og:title"]`).Attr("content"); ok {
		m.Title = strings.TrimSpace(v)
	}
	if v, ok := doc.Find(`meta[property="og:image"]`).Attr("content"); ok {
		m.Image = strings.TrimSpace(v)
	}

	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		product := findProductNode(gson.NewFrom(sel.Text()))
		if product == nil {
			return true
		}
		if m.Title == "" {
			m.Title = strOf(product.Get("name"))
		}
		if m.Image == "" {
			m.Image = firstJSONString(product.Get("image"))
		}
		if price, currency := offerPrice(product.Get("offers")); price != "" {
			m.PriceText = price
			m.Currency = currency
			return false
		}
		return true
	})

	// Social-preview price tags as a structured fallback.
	if m.PriceText == "" {
		if v, ok := doc.Find(`meta[property="product:price:amount"]`).Attr("content"); ok {
			m.PriceText = strings.TrimSpace(v)
		}
		if v, ok := doc.Find(`meta[property="product:price:currency"]`).Attr("content"); ok && m.Currency == "" {
			m.Currency = strings.TrimSpace(v)
		}
	}
	if m.PriceText == "" {
		if v, ok := doc.Find(`meta[itemprop="price"]`).Attr("content"); ok {
			m.PriceText = strings.TrimSpace(v)
		}
	}

	return m
}

// findProductNode locates a Product object in a JSON-LD document, which
// may be the root, an array, or nested under @graph.
func findProductNode(j gson.JSON) *gson.JSON {
	if j.Nil() {
		return nil
	}
	if isProductType(j.Get("@type")) {
		return &j
	}
	for _, item := range j.Get("@graph").Arr() {
		if isProductType(item.Get("@type")) {
			return &item
		}
	}
	for _, item := range j.Arr() {
		if isProductType(item.Get("@type")) {
			return &item
		}
	}
	return nil
}

// isProductType handles @type being either a string or a list.
func isProductType(t gson.JSON) bool {
	if strings.EqualFold(strOf(t), "Product") {
		return true
	}
	for _, v := range t.Arr() {
		if strings.EqualFold(strOf(v), "Product") {
			return true
		}
	}
	return false
}

// strOf reads a gson value as a string, empty when absent. Plain Str()
// stringifies missing values.
func strOf(j gson.JSON) string {
	if j.Nil() {
		return ""
	}
	if s, ok := j.Val().(string); ok {
		return s
	}
	return ""
}

// offerPrice pulls price and currency out of a JSON-LD offers node,
// which may be a single Offer or a list.
func offerPrice(offers gson.JSON) (string, string) {
	if offers.Nil() {
		return "", ""
	}
	nodes := offers.Arr()
	if len(nodes) == 0 {
		nodes = []gson.JSON{offers}
	}
	for _, offer := range nodes {
		price := offer.Get("price")
		text := strOf(price)
		if text == "" && !price.Nil() && price.Num() > 0 {
			text = strconv.FormatFloat(price.Num(), 'f', -1, 64)
		}
		if text == "" {
			text = strOf(offer.Get("lowPrice"))
		}
		if text != "" {
			return text, strOf(offer.Get("priceCurrency"))
		}
	}
	return "", ""
}

// firstJSONString returns a JSON value that may be a string or an array
// of strings as a single string.
func firstJSONString(j gson.JSON) string {
	if s := strOf(j); s != "" {
		return s
	}
	for _, v := range j.Arr() {
		if s := strOf(v); s != "" {
			return s
		}
	}
	return ""
}

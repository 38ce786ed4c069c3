package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseStructuredMetadataJSONLD(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@context":"https://schema.org","@type":"Product",
		 "name":"Logitech MX Master 3S",
		 "image":"https://cdn.example.com/mx3s.jpg",
		 "offers":{"@type":"Offer","price":"8495.00","priceCurrency":"INR"}}
		</script>
	</head><body></body></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, "Logitech MX Master 3S", m.Title)
	assert.Equal(t, "https://cdn.example.com/mx3s.jpg", m.Image)
	assert.Equal(t, "8495.00", m.PriceText)
	assert.Equal(t, "INR", m.Currency)
}

func TestParseStructuredMetadataNumericPrice(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type":"Product","name":"Widget",
		 "offers":{"price":49.99,"priceCurrency":"USD"}}
		</script>
	</head></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, "49.99", m.PriceText)
	assert.Equal(t, "USD", m.Currency)
}

func TestParseStructuredMetadataGraph(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@context":"https://schema.org","@graph":[
			{"@type":"WebSite","name":"Example Shop"},
			{"@type":"Product","name":"Graph Widget",
			 "image":["https://cdn.example.com/a.jpg","https://cdn.example.com/b.jpg"],
			 "offers":[{"price":"199"},{"price":"249"}]}
		]}
		</script>
	</head></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, "Graph Widget", m.Title)
	assert.Equal(t, "https://cdn.example.com/a.jpg", m.Image)
	assert.Equal(t, "199", m.PriceText)
}

func TestParseStructuredMetadataOGFallback(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Acme Kettle"/>
		<meta property="og:image" content="https://cdn.example.com/kettle.jpg"/>
		<meta property="product:price:amount" content="1499"/>
		<meta property="product:price:currency" content="INR"/>
	</head><body><h1>Acme Kettle 1.5L</h1></body></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, "Acme Kettle", m.Title)
	assert.Equal(t, "https://cdn.example.com/kettle.jpg", m.Image)
	assert.Equal(t, "1499", m.PriceText)
	assert.Equal(t, "INR", m.Currency)
}

func TestParseStructuredMetadataOGTitleBeatsJSONLD(t *testing.T) {
	html := `<html><head>
		<meta property="og:title" content="Curated Title"/>
		<script type="application/ld+json">
		{"@type":"Product","name":"Raw Catalog Title 12345-SKU-XL-BLK",
		 "offers":{"price":"999"}}
		</script>
	</head></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, "Curated Title", m.Title)
	assert.Equal(t, "999", m.PriceText)
}

func TestParseStructuredMetadataNoProduct(t *testing.T) {
	testCases := []struct {
		name string
		html string
	}{
		{name: "empty document", html: ""},
		{name: "no markup at all", html: "<html><body><p>hello</p></body></html>"},
		{name: "malformed json-ld", html: `<html><head><script type="application/ld+json">{not json</script></head></html>`},
		{name: "non-product json-ld", html: `<html><head><script type="application/ld+json">{"@type":"BreadcrumbList"}</script></head></html>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			m := parseStructuredMetadata(tc.html)
			assert.Empty(t, m.PriceText)
			assert.Empty(t, m.Currency)
		})
	}
}

func TestParseStructuredMetadataItempropPrice(t *testing.T) {
	html := `<html><head>
		<meta itemprop="price" content="349.00"/>
	</head></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, "349.00", m.PriceText)
}

func TestMetadataPriceNormalizesToRupees(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type":"Product","name":"Kettle","offers":{"price":"999.00","priceCurrency":"INR"}}
		</script>
	</head></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, 999.0, normalizePrice(m.PriceText))
	assert.Equal(t, CurrencyINR, mapCurrencyHint(m.Currency))
}

func TestSelectorTextNormalizesToRupees(t *testing.T) {
	// A site selector hit like "Rs. 1,299" carries its currency inline.
	text := "Rs. 1,299"
	assert.True(t, plausiblePriceText(text))
	assert.Equal(t, 1299.0, normalizePrice(text))
	assert.Equal(t, CurrencyINR, mapCurrencyHint(scanCurrencyHint(text)))
}

func TestDigitlessSelectorTextRejected(t *testing.T) {
	assert.False(t, plausiblePriceText("Free Shipping Details"))
}

func TestIsProductTypeList(t *testing.T) {
	html := `<html><head>
		<script type="application/ld+json">
		{"@type":["Product","IndividualProduct"],"name":"Typed Widget","offers":{"price":"75"}}
		</script>
	</head></html>`

	m := parseStructuredMetadata(html)
	assert.Equal(t, "Typed Widget", m.Title)
	assert.Equal(t, "75", m.PriceText)
}

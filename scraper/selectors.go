package scraper

import "strings"

// SiteSelectors holds the ordered DOM queries configured for one known
// storefront. Adding a new site is a data change here, not a code change.
type SiteSelectors struct {
	// Domain is matched as a substring of the final URL's hostname.
	Domain string
	Price  []string
	Image  []string
}

// selectorTable is consulted by the extraction chain before the generic
// selectors are tried. Ordered; first domain match wins. Append-only.
var selectorTable = []SiteSelectors{
	{
		Domain: "amazon.",
		Price: []string{
			".a-price .a-offscreen",
			"#priceblock_ourprice",
			"#priceblock_dealprice",
			"#corePrice_feature_div .a-price-whole",
		},
		Image: []string{
			"#imgTagWrapperId img",
			"#landingImage",
		},
	},
	{
		Domain: "flipkart.",
		Price: []string{
			"div.Nx9bqj.CxhGGd",
			"div._30jeq3._16Jk6d",
			"div._30jeq3",
		},
		Image: []string{
			"img._396cs4",
			"img.DByuf4",
		},
	},
	{
		Domain: "robu.in",
		Price: []string{
			".price .woocommerce-Price-amount",
			"p.price ins .woocommerce-Price-amount",
			".price",
		},
		Image: []string{
			".wp-post-image",
		},
	},
	{
		Domain: "myntra.",
		Price: []string{
			".pdp-price strong",
			".pdp-price",
		},
		Image: []string{
			".image-grid-image",
		},
	},
	{
		Domain: "ajio.",
		Price: []string{
			".prod-sp",
		},
		Image: []string{
			".rilrtl-lazy-img",
		},
	},
	{
		Domain: "croma.com",
		Price: []string{
			".amount",
			"[data-testid='new-price']",
		},
		Image: nil,
	},
}

// genericPriceSelectors are broadly common price-bearing patterns, tried
// in fixed order after the site-specific table yields nothing.
var genericPriceSelectors = []string{
	".price",
	"[itemprop='price']",
	".product-price",
	".current-price",
	".sale-price",
	"[data-price]",
	"[class*='price']",
}

// genericImageSelectors are common gallery-image patterns, tried after
// structured metadata fails to name an image.
var genericImageSelectors = []string{
	".wp-post-image",
	".product-image img",
	".gallery-image img",
	"[itemprop='image']",
}

// lookupSelectors returns the configured selectors for a hostname, or nil
// when the domain is unknown.
func lookupSelectors(host string) *SiteSelectors {
	for i := range selectorTable {
		if strings.Contains(host, selectorTable[i].Domain) {
			return &selectorTable[i]
		}
	}
	return nil
}

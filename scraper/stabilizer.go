package scraper

import (
	"log"
	"time"

	"github.com/go-rod/rod"
)

const (
	// scrollStep and maxScrollDistance bound the lazy-load scroll so an
	// infinite-scroll page cannot trap the pipeline.
	scrollStep        = 600
	maxScrollDistance = 20000

	// settleDelay lets scroll-triggered network and image loads finish.
	settleDelay = 2500 * time.Millisecond
)

// overlayCSS is injected after load. It forces a standard font family
// (icon fonts render currency glyphs as garbage that defeats OCR) and
// hides the usual cookie/promo overlay patterns that would occlude the
// price region in a fallback screenshot.
const overlayCSS = `
* { font-family: Arial, Helvetica, sans-serif !important; }
[class*="modal"], [class*="popup"], [class*="overlay"], [class*="cookie"],
[class*="newsletter"], [class*="consent"], [class*="drawer"],
[id*="modal"], [id*="popup"], [id*="overlay"], [id*="cookie"] {
  display: none !important;
}
`

// stabilize forces lazy content to render and reduces extraction noise.
// Best-effort throughout: failures are logged and extraction proceeds.
func stabilize(page *rod.Page) {
	scrollThrough(page)

	if _, err := page.Eval(`(css) => {
		const style = document.createElement('style');
		style.textContent = css;
		document.head.appendChild(style);
	}`, overlayCSS); err != nil {
		log.Printf("failed to inject stabilizer stylesheet: %v", err)
	}

	time.Sleep(settleDelay)
}

// scrollThrough walks the full document height in bounded increments,
// then returns to the top so the above-the-fold region is what a later
// screenshot captures.
func scrollThrough(page *rod.Page) {
	res, err := page.Eval(`() => document.body.scrollHeight`)
	if err != nil {
		log.Printf("failed to read document height, skipping scroll: %v", err)
		return
	}
	height := res.Value.Int()
	if height > maxScrollDistance {
		height = maxScrollDistance
	}

	for y := 0; y < height; y += scrollStep {
		if _, err := page.Eval(`(y) => window.scrollTo(0, y)`, y); err != nil {
			log.Printf("scroll step failed at %dpx: %v", y, err)
			break
		}
		time.Sleep(150 * time.Millisecond)
	}

	if _, err := page.Eval(`() => window.scrollTo(0, 0)`); err != nil {
		log.Printf("failed to scroll back to top: %v", err)
	}
}

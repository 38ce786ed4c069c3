package scraper

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"lootlook/config"
	"lootlook/models"
)

// maxAttempts bounds the retry controller. Two attempts per URL, never
// more: a page that defeats two fresh sessions defeats a third too.
const maxAttempts = 2

// errNoPrice marks an attempt whose full strategy chain produced no
// positive price. Internal to the retry loop.
var errNoPrice = errors.New("no price found on page")

// Scraper runs the full extraction pipeline: hardened session, settled
// navigation, the DOM strategy chain, the OCR fallback and price
// normalization, under the two-attempt retry controller.
type Scraper struct {
	browserBin    string
	screenshotDir string
	ocr           *OCRClient
}

// New builds a Scraper from configuration. The OCR service is probed
// once at construction; if it is unreachable the visual fallback is
// disabled and the DOM strategies run alone.
func New(cfg *config.Config) *Scraper {
	s := &Scraper{
		browserBin:    cfg.BrowserBin,
		screenshotDir: cfg.ScreenshotDir,
	}

	if err := os.MkdirAll(cfg.ScreenshotDir, 0o755); err != nil {
		log.Printf("failed to create screenshot directory %s: %v", cfg.ScreenshotDir, err)
	}

	ocr := NewOCRClient(cfg.OCRServiceURL)
	if err := ocr.HealthCheck(); err != nil {
		log.Printf("OCR service unavailable, visual fallback disabled: %v", err)
	} else {
		log.Printf("OCR service healthy at %s", cfg.OCRServiceURL)
		s.ocr = ocr
	}

	return s
}

// retryPhase is the retry controller's state. The controller only ever
// moves forward: Idle, then Attempting 1..maxAttempts, then exactly one
// of Success or Exhausted.
type retryPhase int

const (
	phaseIdle retryPhase = iota
	phaseAttempting
	phaseSuccess
	phaseExhausted
)

// retryController bounds extraction retries. It is created per Extract
// call and never reused.
type retryController struct {
	max      int
	phase    retryPhase
	attempts int
}

func newRetryController(max int) *retryController {
	return &retryController{max: max, phase: phaseIdle}
}

// run drives the attempt function up to max times, calling reset
// between attempts. The first success wins; errors from earlier
// attempts are discarded once a later one succeeds.
func (rc *retryController) run(attempt func(n int) (*models.ProductSnapshot, error), reset func()) (*models.ProductSnapshot, error) {
	var lastErr error

	for n := 1; n <= rc.max; n++ {
		if rc.phase == phaseAttempting && reset != nil {
			reset()
		}
		rc.phase = phaseAttempting
		rc.attempts = n

		snapshot, err := attempt(n)
		if err == nil {
			rc.phase = phaseSuccess
			return snapshot, nil
		}
		lastErr = err
		log.Printf("extraction attempt %d/%d failed: %v", n, rc.max, err)
	}

	rc.phase = phaseExhausted
	return nil, fmt.Errorf("%w: %v", ErrExtractionExhausted, lastErr)
}

// Extract resolves a product URL to a snapshot. Launch failures are
// returned immediately without retry; everything after a successful
// launch falls under the retry controller. The session is torn down on
// every exit path.
func (s *Scraper) Extract(rawURL string) (*models.ProductSnapshot, error) {
	sess, err := s.newSession()
	if err != nil {
		return nil, err
	}
	defer sess.Close()

	started := time.Now()
	rc := newRetryController(maxAttempts)
	snapshot, err := rc.run(func(n int) (*models.ProductSnapshot, error) {
		return s.attempt(sess.page, rawURL, n)
	}, sess.Reset)
	if err != nil {
		s.captureDebugScreenshot(sess.page)
		return nil, err
	}

	snapshot.ScreenshotRef = s.captureScreenshot(sess.page)
	log.Printf("extracted %q via %s in %s: %s%.2f",
		snapshot.Title, snapshot.Strategy, time.Since(started).Round(time.Millisecond),
		snapshot.Currency, snapshot.Price)
	return snapshot, nil
}

// attempt runs one full pass of the pipeline: navigate, settle, strategy
// chain, normalize. Fails with errNoPrice when the chain comes up empty.
func (s *Scraper) attempt(page *rod.Page, rawURL string, n int) (*models.ProductSnapshot, error) {
	log.Printf("attempt %d/%d: %s", n, maxAttempts, rawURL)

	finalURL := navigate(page, rawURL)
	stabilize(page)

	c := extractCandidate(page, finalURL)
	if c.PriceText == "" {
		c.PriceText, c.CurrencyHint = s.visualExtract(page)
		c.Strategy = strategyOCR
	}

	price := normalizePrice(c.PriceText)
	if price <= 0 {
		return nil, errNoPrice
	}

	return &models.ProductSnapshot{
		Title:     truncateTitle(c.Title),
		ImageURL:  c.ImageURL,
		Price:     price,
		Currency:  resolveCurrency(finalURL, c.CurrencyHint),
		SourceURL: finalURL,
		Strategy:  c.Strategy,
	}, nil
}

// captureScreenshot saves a full-viewport PNG of the settled page and
// returns its path relative to the screenshot directory. Taken once,
// only after a successful extraction.
func (s *Scraper) captureScreenshot(page *rod.Page) string {
	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		log.Printf("failed to capture screenshot: %v", err)
		return ""
	}

	name := fmt.Sprintf("snapshot_%d.png", time.Now().UnixNano())
	if err := os.WriteFile(filepath.Join(s.screenshotDir, name), png, 0o644); err != nil {
		log.Printf("failed to save screenshot: %v", err)
		return ""
	}
	return name
}

// captureDebugScreenshot records what the page looked like when both
// attempts failed, for offline selector work.
func (s *Scraper) captureDebugScreenshot(page *rod.Page) {
	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return
	}
	name := fmt.Sprintf("debug_%s.png", time.Now().Format("20060102_150405"))
	if err := os.WriteFile(filepath.Join(s.screenshotDir, name), png, 0o644); err != nil {
		log.Printf("failed to save debug screenshot: %v", err)
	}
}

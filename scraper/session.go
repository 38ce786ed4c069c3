package scraper

import (
	"fmt"
	"log"
	"math/rand"
	"net/url"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// userAgents is a small fixed pool of plausible desktop identification
// strings. One is picked per session.
var userAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
}

// session owns one isolated browser subprocess and the single page used
// for an extraction. It is created per Extract invocation and torn down
// exactly once by the retry controller.
type session struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
}

// newSession launches a fingerprint-hardened browser and prepares a page.
// The only failure mode is launch failure, wrapped as ErrBrowserLaunch.
func (s *Scraper) newSession() (*session, error) {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	// Use system Chromium when configured or present (Docker), otherwise
	// let rod auto-detect.
	switch {
	case s.browserBin != "":
		l = l.Bin(s.browserBin)
	default:
		if _, err := os.Stat("/usr/bin/chromium-browser"); err == nil {
			l = l.Bin("/usr/bin/chromium-browser")
		}
	}

	// Hide the automation-detectable surface the browser exposes.
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = browser.Close()
		return nil, fmt.Errorf("%w: %v", ErrBrowserLaunch, err)
	}

	// Stealth must be injected before the first navigation.
	if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
		log.Printf("stealth injection failed, proceeding without it: %v", err)
	}

	ua := userAgents[rand.Intn(len(userAgents))]
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: "en-US,en;q=0.9",
		Platform:       "Win32",
	}); err != nil {
		log.Printf("failed to set user agent: %v", err)
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             viewportWidth,
		Height:            viewportHeight,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		log.Printf("failed to set viewport: %v", err)
	}

	// Arriving from a search engine looks less like a bot than a bare
	// direct hit.
	_ = proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeaders(map[string]string{
			"Referer":         "https://www.google.com/",
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}.Call(page)

	_ = proto.EmulationSetTimezoneOverride{TimezoneID: "Asia/Kolkata"}.Call(page)
	_ = proto.EmulationSetLocaleOverride{Locale: "en-IN"}.Call(page)

	// Block fonts and stylesheets to cut load time and request surface.
	// Images are deliberately NOT blocked: the visual fallback and the
	// product image both need them.
	router := mountResourceBlocker(page)

	return &session{browser: browser, page: page, router: router}, nil
}

// toHeaders converts a plain string map to the proto.NetworkHeaders type
// required by NetworkSetExtraHTTPHeaders.
func toHeaders(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

// blockedResourceTypes are dropped before they hit the network.
var blockedResourceTypes = map[proto.NetworkResourceType]struct{}{
	proto.NetworkResourceTypeFont:       {},
	proto.NetworkResourceTypeStylesheet: {},
}

// mountResourceBlocker intercepts all requests and fails the blocked
// resource types. Must be mounted before navigation.
func mountResourceBlocker(page *rod.Page) *rod.HijackRouter {
	router := page.HijackRequests()
	_ = router.Add("*", "", func(ctx *rod.Hijack) {
		if _, blocked := blockedResourceTypes[ctx.Request.Type()]; blocked {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
			return
		}
		ctx.ContinueRequest(&proto.FetchContinueRequest{})
	})
	// Run blocks until Stop is called.
	go router.Run()
	return router
}

// Reset clears session-local state (cookies, storage) between attempts.
// Failures here are non-fatal: the follow-up navigation is a full reload.
func (se *session) Reset() {
	if err := (proto.NetworkClearBrowserCookies{}).Call(se.page); err != nil {
		log.Printf("failed to clear cookies between attempts: %v", err)
	}
	if info, err := se.page.Info(); err == nil {
		if origin := pageOrigin(info.URL); origin != "" {
			_ = proto.StorageClearDataForOrigin{
				Origin:       origin,
				StorageTypes: "all",
			}.Call(se.page)
		}
	}
}

// pageOrigin reduces a page URL to its scheme://host origin, which is
// what the storage-clear command expects. Returns "" for URLs without
// one, like about:blank.
func pageOrigin(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// Close tears the browser subprocess down. Safe to call exactly once per
// session; the retry controller defers it on every exit path.
func (se *session) Close() {
	if se.router != nil {
		_ = se.router.Stop()
	}
	if se.browser != nil {
		if err := se.browser.Close(); err != nil {
			log.Printf("failed to close browser: %v", err)
		}
	}
}

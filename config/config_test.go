package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"HOST", "PORT", "SCREENSHOT_DIR", "OCR_SERVICE_URL", "MAX_CONCURRENT_SCRAPES"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "3001" {
		t.Errorf("Port = %q, want 3001", cfg.Port)
	}
	if cfg.Host != "0.0.0.0" {
		t.Errorf("Host = %q, want 0.0.0.0", cfg.Host)
	}
	if cfg.ScreenshotDir != "screenshots" {
		t.Errorf("ScreenshotDir = %q, want screenshots", cfg.ScreenshotDir)
	}
	if cfg.OCRServiceURL != "http://ocr-service:5000" {
		t.Errorf("OCRServiceURL = %q", cfg.OCRServiceURL)
	}
	if cfg.MaxConcurrentScrapes != 2 {
		t.Errorf("MaxConcurrentScrapes = %d, want 2", cfg.MaxConcurrentScrapes)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MAX_CONCURRENT_SCRAPES", "4")
	t.Setenv("BROWSER_BIN", "/opt/chrome/chrome")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Errorf("Port = %q, want 9090", cfg.Port)
	}
	if cfg.MaxConcurrentScrapes != 4 {
		t.Errorf("MaxConcurrentScrapes = %d, want 4", cfg.MaxConcurrentScrapes)
	}
	if cfg.BrowserBin != "/opt/chrome/chrome" {
		t.Errorf("BrowserBin = %q", cfg.BrowserBin)
	}
}

func TestLoadRejectsInvalidInt(t *testing.T) {
	t.Setenv("MAX_CONCURRENT_SCRAPES", "not-a-number")

	cfg := Load()
	if cfg.MaxConcurrentScrapes != 2 {
		t.Errorf("MaxConcurrentScrapes = %d, want default 2", cfg.MaxConcurrentScrapes)
	}
}

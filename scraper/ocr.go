package scraper

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

// The OCR crop covers the top of the rendered viewport, where product
// pages place their buy box.
const (
	ocrCropWidth  = viewportWidth
	ocrCropHeight = 600
)

// ocrPriceRe finds the first currency-tagged amount in OCR output.
// Plain numbers without a currency marker are ignored, OCR noise is
// full of them.
var ocrPriceRe = regexp.MustCompile(`(₹|\$|€|£|Rs\.?)\s*([0-9][0-9,]*(?:\.[0-9]+)?)`)

// OCRClient talks to the containerized OCR sidecar over HTTP.
type OCRClient struct {
	serviceURL string
	client     *http.Client
}

// NewOCRClient creates a client for the OCR service.
func NewOCRClient(serviceURL string) *OCRClient {
	return &OCRClient{
		serviceURL: serviceURL,
		client: &http.Client{
			Timeout: 90 * time.Second,
		},
	}
}

// HealthCheck probes the OCR service before it is relied on.
func (c *OCRClient) HealthCheck() error {
	resp, err := c.client.Get(c.serviceURL + "/health")
	if err != nil {
		return fmt.Errorf("OCR service health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("OCR service unhealthy (status: %d)", resp.StatusCode)
	}
	return nil
}

// ocrRequest is the JSON payload sent to the OCR service.
type ocrRequest struct {
	ImageData string `json:"image_data"`
}

// ocrResponse is the JSON response from the OCR service.
type ocrResponse struct {
	Success bool   `json:"success"`
	Text    string `json:"text"`
	Error   string `json:"error"`
}

// ExtractText sends a PNG to the OCR service and returns the raw
// recognized text.
func (c *OCRClient) ExtractText(png []byte) (string, error) {
	payload, err := json.Marshal(ocrRequest{
		ImageData: base64.StdEncoding.EncodeToString(png),
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal OCR request: %v", err)
	}

	resp, err := c.client.Post(c.serviceURL+"/extract-text", "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return "", fmt.Errorf("OCR service error: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OCR response: %v", err)
	}

	var parsed ocrResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OCR response: %v", err)
	}
	if !parsed.Success {
		return "", fmt.Errorf("OCR extraction failed: %s", parsed.Error)
	}
	return parsed.Text, nil
}

// parseOCRText applies the price pattern to OCR output. Returns the
// matched amount text and its currency marker, or empty strings.
func parseOCRText(text string) (priceText, currencyHint string) {
	m := ocrPriceRe.FindStringSubmatch(text)
	if m == nil {
		return "", ""
	}
	return m[2], m[1]
}

// visualExtract screenshots the buy-box region of the page and runs it
// through OCR. Used only when every DOM strategy came up empty.
func (s *Scraper) visualExtract(page *rod.Page) (priceText, currencyHint string) {
	if s.ocr == nil {
		return "", ""
	}

	png, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      0,
			Y:      0,
			Width:  ocrCropWidth,
			Height: ocrCropHeight,
			Scale:  1,
		},
	})
	if err != nil {
		log.Printf("failed to capture OCR screenshot: %v", err)
		return "", ""
	}

	text, err := s.ocr.ExtractText(png)
	if err != nil {
		log.Printf("OCR extraction failed: %v", err)
		return "", ""
	}

	return parseOCRText(text)
}

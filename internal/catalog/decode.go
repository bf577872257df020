package catalog

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// maxPayloadSize limits catalog responses to 10MB to prevent memory
// exhaustion on a misbehaving service.
const maxPayloadSize = 10 * 1024 * 1024

// detectCharset detects the charset of a payload, defaulting to utf-8.
func detectCharset(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// parseHTML loads a catalog payload with automatic charset detection.
func parseHTML(data []byte) (*goquery.Document, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty payload")
	}
	if len(data) > maxPayloadSize {
		return nil, fmt.Errorf("payload exceeds maximum size of %d bytes", maxPayloadSize)
	}

	detected := detectCharset(data)

	utf8Reader, err := charset.NewReader(bytes.NewReader(data), detected)
	if err != nil {
		// Fallback to direct parsing
		return goquery.NewDocumentFromReader(bytes.NewReader(data))
	}

	return goquery.NewDocumentFromReader(utf8Reader)
}

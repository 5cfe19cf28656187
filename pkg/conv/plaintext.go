package conv

import (
	"strings"

	"github.com/inbucket/html2text"
	"github.com/microcosm-cc/bluemonday"
)

var textPolicy = bluemonday.UGCPolicy()

// HTMLToPlainText flattens HTML tool payloads (Shopify product descriptions,
// email bodies) into prose. Non-HTML input passes through unchanged.
func HTMLToPlainText(input string) string {
	if !strings.ContainsRune(input, '<') {
		return input
	}

	sanitized := textPolicy.Sanitize(input)

	text, err := html2text.FromString(sanitized, html2text.Options{OmitLinks: true})
	if err != nil {
		// Keep the sanitized form rather than losing the payload.
		return strings.TrimSpace(sanitized)
	}
	return strings.TrimSpace(text)
}

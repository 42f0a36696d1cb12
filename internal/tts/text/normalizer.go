// Package text prepares raw article content for speech synthesis: it strips
// markup and URLs, normalizes whitespace, and splits long text into batches
// that respect provider call-size limits.
package text

import (
	"regexp"
	"strings"

	"github.com/jaytaylor/html2text"
)

// Regex patterns for text normalization.
const (
	urlRegexPattern        = `https?://\S+`
	whitespaceRegexPattern = `\s+`
)

// singleSpace is the canonical separator every whitespace run collapses to.
const singleSpace = " "

// Normalizer converts raw article text, which may contain HTML markup and
// bare URLs, into plain prose suitable for synthesis. It is stateless after
// construction and safe for concurrent use.
type Normalizer struct {
	urlPattern        *regexp.Regexp
	whitespacePattern *regexp.Regexp
}

// NewNormalizer creates a normalizer with precompiled patterns.
func NewNormalizer() *Normalizer {
	return &Normalizer{
		urlPattern:        regexp.MustCompile(urlRegexPattern),
		whitespacePattern: regexp.MustCompile(whitespaceRegexPattern),
	}
}

// Normalize renders markup to plain text, removes HTTP and HTTPS URLs,
// collapses every whitespace run (including newlines) to a single space, and
// trims the ends. The operation is idempotent: normalizing already-normalized
// text returns it unchanged. Empty or all-whitespace input normalizes to the
// empty string; rejecting that is the caller's job.
func (n *Normalizer) Normalize(raw string) string {
	plain, err := html2text.FromString(raw, html2text.Options{TextOnly: true})
	if err != nil {
		// An unparseable document still contains readable text; fall back
		// to treating the input as plain prose.
		plain = raw
	}

	withoutURLs := n.urlPattern.ReplaceAllString(plain, "")

	collapsed := n.whitespacePattern.ReplaceAllString(withoutURLs, singleSpace)

	return strings.TrimSpace(collapsed)
}

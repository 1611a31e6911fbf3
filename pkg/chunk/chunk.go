// Package chunk splits long replies into fragments that fit a chat
// platform's per-message size limit.
package chunk

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// DefaultMaxBytes keeps fragments well under a ~28 KB message limit.
	DefaultMaxBytes = 25_000
	// DefaultBoundaryRatio rejects boundaries in the first 30% of a prefix.
	DefaultBoundaryRatio = 0.3
)

const (
	paragraphBreak = "\n\n"
	lineBreak      = "\n"
)

var markerRe = regexp.MustCompile(`^\*\*\[Part \d+/\d+\]\*\*\n\n`)

type Config struct {
	// MaxBytes is the UTF-8 byte ceiling of a fragment body. Part markers
	// are not counted against it.
	MaxBytes int
	// BoundaryRatio is the fraction of the byte-limited prefix (in runes)
	// a paragraph or line break must lie beyond to be used as a split point.
	BoundaryRatio float64
}

func DefaultConfig() Config {
	return Config{
		MaxBytes:      DefaultMaxBytes,
		BoundaryRatio: DefaultBoundaryRatio,
	}
}

type Chunker struct {
	maxBytes int
	ratio    float64
}

func New(cfg Config) (*Chunker, error) {
	if cfg.MaxBytes < utf8.UTFMax {
		return nil, fmt.Errorf("max bytes must be at least %d, got %d", utf8.UTFMax, cfg.MaxBytes)
	}
	if cfg.BoundaryRatio < 0 || cfg.BoundaryRatio >= 1 {
		return nil, fmt.Errorf("boundary ratio must be in [0, 1), got %v", cfg.BoundaryRatio)
	}
	return &Chunker{maxBytes: cfg.MaxBytes, ratio: cfg.BoundaryRatio}, nil
}

var defaultChunker = &Chunker{maxBytes: DefaultMaxBytes, ratio: DefaultBoundaryRatio}

// Split splits text with the default configuration.
func Split(text string) []string {
	return defaultChunker.Split(text)
}

// Split returns the ordered fragments of text. A text that already fits is
// returned unchanged as the only fragment; otherwise every fragment is
// prefixed with a "**[Part i/n]**" marker and a blank line.
func (c *Chunker) Split(text string) []string {
	if len(text) <= c.maxBytes {
		return []string{text}
	}

	var chunks []string
	remaining := text
	for remaining != "" {
		if len(remaining) <= c.maxBytes {
			chunks = append(chunks, remaining)
			break
		}

		at := c.splitPoint(remaining)
		chunks = append(chunks, remaining[:at])
		remaining = strings.TrimLeftFunc(remaining[at:], unicode.IsSpace)
	}

	if len(chunks) == 1 {
		return chunks
	}

	for i, chunk := range chunks {
		chunks[i] = Marker(i+1, len(chunks)) + chunk
	}
	return chunks
}

// splitPoint returns the byte offset at which text is cut. It is always
// greater than zero and never exceeds the byte ceiling, unless a single rune
// is wider than the ceiling. Only the first maxBytes of text are examined.
func (c *Chunker) splitPoint(text string) int {
	// Longest rune-aligned prefix within the ceiling. Invalid bytes count
	// as one-byte runes, the same as ranging over the string.
	cut := min(c.maxBytes, len(text))
	for back := 1; back < utf8.UTFMax && back <= cut && cut < len(text); back++ {
		// Invalid encodings decode with size 1 and never match.
		if _, size := utf8.DecodeRuneInString(text[cut-back:]); size > back {
			cut -= back
			break
		}
	}
	if cut == 0 {
		_, size := utf8.DecodeRuneInString(text)
		cut = size
	}

	prefix := text[:cut]
	threshold := float64(utf8.RuneCountInString(prefix)) * c.ratio

	if at := strings.LastIndex(prefix, paragraphBreak); at >= 0 && float64(runeIndex(prefix, at)) > threshold {
		return at + len(paragraphBreak)
	}
	if at := strings.LastIndex(prefix, lineBreak); at >= 0 && float64(runeIndex(prefix, at)) > threshold {
		return at + len(lineBreak)
	}
	return len(prefix)
}

func runeIndex(s string, byteOffset int) int {
	return utf8.RuneCountInString(s[:byteOffset])
}

// Marker renders the header prepended to fragment i of n.
func Marker(i, n int) string {
	return fmt.Sprintf("**[Part %d/%d]**\n\n", i, n)
}

// StripMarker removes a leading part marker, if any.
func StripMarker(fragment string) string {
	return markerRe.ReplaceAllString(fragment, "")
}

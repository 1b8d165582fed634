package chunker

import (
	"unicode/utf8"
)

const (
	// DefaultMaxLength is the maximum segment length in characters
	DefaultMaxLength = 700
)

// DefaultBoundaries are the characters a segment prefers to end on:
// the ideographic full stop, the closing corner bracket and line feed.
var DefaultBoundaries = []rune{'。', '」', '\n'}

// Chunker splits text into bounded-length segments that end on a
// boundary character whenever one is available
type Chunker struct {
	maxLength  int
	boundaries []rune
}

// New creates a Chunker. A maxLength below 1 is raised to 1 and an empty
// boundary set falls back to DefaultBoundaries.
func New(maxLength int, boundaries ...rune) *Chunker {
	if maxLength < 1 {
		maxLength = 1
	}
	if len(boundaries) == 0 {
		boundaries = DefaultBoundaries
	}
	b := make([]rune, len(boundaries))
	copy(b, boundaries)
	return &Chunker{
		maxLength:  maxLength,
		boundaries: b,
	}
}

// MaxLength returns the configured maximum segment length
func (c *Chunker) MaxLength() int {
	return c.maxLength
}

// Boundaries returns a copy of the boundary characters
func (c *Chunker) Boundaries() []rune {
	b := make([]rune, len(c.boundaries))
	copy(b, c.boundaries)
	return b
}

// Split partitions text into ordered segments of at most MaxLength
// characters. Concatenating the result reproduces text exactly, and the
// result always holds at least one element ("" for empty input).
func (c *Chunker) Split(text string) []string {
	segments := make([]string, 0, utf8.RuneCountInString(text)/c.maxLength+1)
	for {
		cut, ok := c.nextCut(text)
		if !ok {
			break
		}
		segments = append(segments, text[:cut])
		text = text[cut:]
	}
	return append(segments, text)
}

// nextCut returns the byte offset at which the next segment ends. It
// reports false when the remaining text already fits in one segment.
func (c *Chunker) nextCut(text string) (int, bool) {
	boundary := -1
	count := 0
	for i := 0; i < len(text); {
		if count == c.maxLength {
			if boundary > 0 {
				return boundary, true
			}
			// No boundary in the window: hard cut at maxLength characters
			return i, true
		}
		r, size := utf8.DecodeRuneInString(text[i:])
		i += size
		count++
		if c.isBoundary(r) {
			boundary = i
		}
	}
	return 0, false
}

func (c *Chunker) isBoundary(r rune) bool {
	for _, b := range c.boundaries {
		if r == b {
			return true
		}
	}
	return false
}

// SplitText splits text with the default boundary set
func SplitText(text string, maxLength int) []string {
	return New(maxLength).Split(text)
}

// CountChars returns the number of characters (code points) in text,
// the unit all segment lengths are measured in
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

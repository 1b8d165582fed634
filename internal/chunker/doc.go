// Package chunker divides plain text into bounded-length segments for
// dataset records.
//
// Segments end at natural boundaries (sentence terminators, closing
// quotation brackets, line breaks) so that each record holds complete
// sentences wherever the text allows it.
//
// # Basic Usage
//
//	c := chunker.New(700)
//	for _, segment := range c.Split(text) {
//	    fmt.Println(segment)
//	}
//
// # Splitting Rule
//
// While the remaining text is longer than the maximum length:
//   - Take the first MaxLength characters of the remaining text
//   - Find the rightmost boundary character inside that window
//   - Emit everything up to and including it, or the whole window when
//     no boundary exists (hard cut for unbroken runs)
//
// Whatever remains is emitted as the final segment, so even empty input
// yields one (empty) segment.
//
// # Guarantees
//
//   - Lossless: strings.Join(segments, "") == text
//   - Bounded: every segment holds at most MaxLength characters
//   - Deterministic: the same input always yields the same segments
//
// Lengths are counted in Unicode code points, not bytes, so a window of
// 700 holds 700 kana or kanji regardless of their UTF-8 width.
//
// # Custom Boundaries
//
// The boundary set defaults to DefaultBoundaries and may be replaced:
//
//	c := chunker.New(500, '.', '!', '?', '\n')
package chunker

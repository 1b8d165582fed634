package types

import (
	"crypto/sha256"
	"encoding/json"
	"io"
	"strings"
)

// Record is one JSON line of a converted file: the tags inherited from the
// file's place in the tag tree plus one text segment
type Record struct {
	Tags []string `json:"tags"`
	Text string   `json:"text"`
}

// NewRecords pairs every segment with the same tag set. Tags are never
// nil so records always serialize with a JSON array.
func NewRecords(tags []string, segments []string) []Record {
	if tags == nil {
		tags = []string{}
	}
	records := make([]Record, 0, len(segments))
	for _, s := range segments {
		records = append(records, Record{Tags: tags, Text: s})
	}
	return records
}

// Validate checks that the record can be written
func (r *Record) Validate() error {
	if r.Tags == nil {
		return ErrNilTags
	}
	for _, tag := range r.Tags {
		if tag == "" {
			return ErrEmptyTag
		}
	}
	return nil
}

// WriteRecords writes records as JSON lines: one compact object per line,
// each terminated by "\n", no enclosing array. HTML characters and
// non-ASCII text are written unescaped.
func WriteRecords(w io.Writer, records []Record) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return err
		}
		if err := enc.Encode(&records[i]); err != nil {
			return err
		}
	}
	return nil
}

// ReadRecords parses JSON lines produced by WriteRecords
func ReadRecords(r io.Reader) ([]Record, error) {
	dec := json.NewDecoder(r)
	var records []Record
	for dec.More() {
		var rec Record
		if err := dec.Decode(&rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// JoinText concatenates the text of all records, which reconstructs the
// converted source text
func JoinText(records []Record) string {
	var b strings.Builder
	for _, r := range records {
		b.WriteString(r.Text)
	}
	return b.String()
}

// ContentHash computes the SHA-256 hash of source content
func ContentHash(content []byte) [32]byte {
	return sha256.Sum256(content)
}

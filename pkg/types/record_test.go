package types

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecords(t *testing.T) {
	records := NewRecords([]string{"a", "b"}, []string{"one", "two"})

	require.Len(t, records, 2)
	assert.Equal(t, Record{Tags: []string{"a", "b"}, Text: "one"}, records[0])
	assert.Equal(t, Record{Tags: []string{"a", "b"}, Text: "two"}, records[1])
}

func TestNewRecords_NilTags(t *testing.T) {
	records := NewRecords(nil, []string{""})

	require.Len(t, records, 1)
	assert.NotNil(t, records[0].Tags)
	assert.Empty(t, records[0].Tags)
}

func TestRecordValidate(t *testing.T) {
	tests := []struct {
		name    string
		record  Record
		wantErr error
	}{
		{"valid", Record{Tags: []string{"x"}, Text: "t"}, nil},
		{"empty text is valid", Record{Tags: []string{}, Text: ""}, nil},
		{"nil tags", Record{Text: "t"}, ErrNilTags},
		{"empty tag", Record{Tags: []string{"x", ""}}, ErrEmptyTag},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.record.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestWriteRecords_Format(t *testing.T) {
	var buf bytes.Buffer
	records := NewRecords([]string{"t1", "t2"}, []string{"A。", "B。"})

	require.NoError(t, WriteRecords(&buf, records))

	expected := `{"tags":["t1","t2"],"text":"A。"}` + "\n" +
		`{"tags":["t1","t2"],"text":"B。"}` + "\n"
	assert.Equal(t, expected, buf.String())
}

func TestWriteRecords_NoHTMLEscaping(t *testing.T) {
	var buf bytes.Buffer
	records := NewRecords([]string{}, []string{"<a & b>\n\"quoted\""})

	require.NoError(t, WriteRecords(&buf, records))

	assert.Equal(t, `{"tags":[],"text":"<a & b>\n\"quoted\""}`+"\n", buf.String())
}

func TestWriteRecords_InvalidRecord(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRecords(&buf, []Record{{Text: "no tags"}})

	assert.ErrorIs(t, err, ErrNilTags)
	assert.Empty(t, buf.String())
}

func TestReadRecords(t *testing.T) {
	var buf bytes.Buffer
	want := NewRecords([]string{"x"}, []string{"line\n", "「引用」", ""})
	require.NoError(t, WriteRecords(&buf, want))

	records, err := ReadRecords(strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, want, records)
	assert.Equal(t, "line\n「引用」", JoinText(records))
}

func TestContentHash(t *testing.T) {
	a := ContentHash([]byte("hello"))
	b := ContentHash([]byte("hello"))
	c := ContentHash([]byte("world"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}

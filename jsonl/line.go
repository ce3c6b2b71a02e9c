package jsonl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// line builds a single ledger line, fields in the order they are added.
// The first failure sticks and is returned by writeTo.
type line struct {
	buf bytes.Buffer
	err error
}

// newLine starts a line with its command field.
func newLine(command string) *line {
	l := &line{}
	return l.field("command", command)
}

// field appends key and the JSON encoding of v.
func (l *line) field(key string, v any) *line {
	if l.err != nil {
		return l
	}
	data, err := json.Marshal(v)
	if err != nil {
		l.err = fmt.Errorf("cannot encode %q: %w", key, err)
		return l
	}
	if l.buf.Len() > 0 {
		l.buf.WriteByte(',')
	}
	fmt.Fprintf(&l.buf, "%q:", key)
	l.buf.Write(data)
	return l
}

// optional appends key and v unless v is the zero value of its type.
func optional[T comparable](l *line, key string, v T) *line {
	var zero T
	if v == zero {
		return l
	}
	return l.field(key, v)
}

// writeTo writes the line as a JSON object followed by a newline.
func (l *line) writeTo(w io.Writer) error {
	if l.err != nil {
		return l.err
	}
	_, err := fmt.Fprintf(w, "{%s}\n", l.buf.Bytes())
	return err
}

// Package records reads and writes the drinks lists (JSON array of objects) without losing the field order.
package records

import (
	"DrinkNotes/common"
	"bytes"
	"encoding/json"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var ErrNotList = errors.New("not a list")
var ErrNotObject = errors.New("not an object")

type Field struct {
	Key   string
	Value json.RawMessage
}

// Record keeps the fields in the order they were read. Values other than the ones set via SetString stay as raw JSON.
type Record struct {
	fields []Field
}

func NewRecord(fields ...Field) *Record {
	return &Record{fields: fields}
}

func (r *Record) Keys() []string {
	keys := make([]string, 0, len(r.fields))
	for _, f := range r.fields {
		keys = append(keys, f.Key)
	}
	return keys
}

func (r *Record) index(key string) int {
	for i, f := range r.fields {
		if f.Key == key {
			return i
		}
	}
	return -1
}

func (r *Record) Has(key string) bool {
	return r.index(key) >= 0
}

// GetString returns false when the key is absent or the value is not a JSON string
func (r *Record) GetString(key string) (string, bool) {
	i := r.index(key)
	if i < 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(r.fields[i].Value, &s); err != nil {
		return "", false
	}
	return s, true
}

func (r *Record) SetString(key string, value string) error {
	raw, err := encodeString(value)
	if err != nil {
		return err
	}
	if i := r.index(key); i >= 0 {
		r.fields[i].Value = raw
		return nil
	}
	r.fields = append(r.fields, Field{Key: key, Value: raw})
	return nil
}

func (r *Record) Name() string {
	name, _ := r.GetString(common.NAME_KEY)
	return name
}

// Notes returns the serverNotes. Absent (or non string) is treated as empty.
func (r *Record) Notes() string {
	notes, _ := r.GetString(common.NOTES_KEY)
	return notes
}

func (r *Record) SetNotes(notes string) error {
	return r.SetString(common.NOTES_KEY, notes)
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotObject
	}
	r.fields = r.fields[:0]
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return errors.Errorf("unexpected key token %v", tok)
		}
		var value json.RawMessage
		if err = dec.Decode(&value); err != nil {
			return errors.Wrapf(err, "decoding value of %s", key)
		}
		// The last duplicate key wins but keeps the first position
		if i := r.index(key); i >= 0 {
			r.fields[i].Value = value
			continue
		}
		r.fields = append(r.fields, Field{Key: key, Value: value})
	}
	_, err = dec.Token()
	return err
}

func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := encodeString(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		value, err := literalValue(f.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "encoding value of %s", f.Key)
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// literalValue re-emits every string in the value, nested ones included, so that \u escaped characters become literal.
// Everything outside the strings is kept as it was.
func literalValue(raw json.RawMessage) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return []byte("null"), nil
	}
	if !bytes.Contains(trimmed, []byte(`\u`)) {
		return trimmed, nil
	}
	out := make([]byte, 0, len(trimmed))
	for i := 0; i < len(trimmed); {
		if trimmed[i] != '"' {
			out = append(out, trimmed[i])
			i++
			continue
		}
		end := stringEnd(trimmed, i)
		if end < 0 {
			return nil, errors.New("unterminated string")
		}
		lit := trimmed[i:end]
		if bytes.Contains(lit, []byte(`\u`)) {
			var s string
			if err := json.Unmarshal(lit, &s); err != nil {
				return nil, err
			}
			encoded, err := encodeString(s)
			if err != nil {
				return nil, err
			}
			lit = encoded
		}
		out = append(out, lit...)
		i = end
	}
	return out, nil
}

// stringEnd returns the index just after the closing quote of the string literal starting at start, or -1
func stringEnd(data []byte, start int) int {
	for i := start + 1; i < len(data); i++ {
		switch data[i] {
		case '\\':
			i++
		case '"':
			return i + 1
		}
	}
	return -1
}

func encodeString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

// unescapeLineSeparators turns \u2028 and \u2029 back into the literal characters.
// encoding/json escapes them even with SetEscapeHTML(false).
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		if b[i+1] == 'u' && i+5 < len(b) {
			switch string(b[i+2 : i+6]) {
			case "2028":
				out = utf8.AppendRune(out, '\u2028')
				i += 5
				continue
			case "2029":
				out = utf8.AppendRune(out, '\u2029')
				i += 5
				continue
			}
		}
		// Keep the escape pair together so an escaped backslash is not read as the start of another escape
		out = append(out, b[i], b[i+1])
		i++
	}
	return out
}

// Decode parses a drinks list. The top level value must be an array of objects.
func Decode(data []byte) ([]*Record, error) {
	trimmed := bytes.TrimSpace(data)
	if !json.Valid(trimmed) {
		var ifc interface{}
		// Only to get the detailed syntax error message
		err := json.Unmarshal(trimmed, &ifc)
		if err == nil {
			err = errors.New("invalid JSON")
		}
		return nil, errors.Wrap(err, "parsing JSON")
	}
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrNotList
	}
	var raws []json.RawMessage
	if err := json.Unmarshal(trimmed, &raws); err != nil {
		return nil, errors.Wrap(err, "parsing JSON")
	}
	recs := make([]*Record, 0, len(raws))
	for i, raw := range raws {
		rec := &Record{}
		if err := rec.UnmarshalJSON(raw); err != nil {
			return nil, errors.Wrapf(err, "record %d", i)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// Encode writes the list with 2-space indentation and literal non-ASCII, without the trailing newline
func Encode(recs []*Record) ([]byte, error) {
	if recs == nil {
		recs = []*Record{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", common.INDENT)
	if err := enc.Encode(recs); err != nil {
		return nil, errors.Wrap(err, "encoding records")
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

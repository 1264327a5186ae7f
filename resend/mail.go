// Package resend is a small client for the Resend transactional email API.
//
// A request is built from either a TextMail or an HTMLMail and sent with
// Client.Send. The JSON body produced by Marshal keeps the field order
// from, to, subject, text|html, attachments.
package resend

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// ErrNilMail is returned when a nil Mail is marshaled or sent.
var ErrNilMail = errors.New("resend: nil mail")

// Mail is an outgoing email. It is implemented only by TextMail and HTMLMail.
type Mail interface {
	mail()
}

// Attachment is a named binary payload. Content is serialized as an array
// of byte values, not base64.
type Attachment struct {
	Content  []byte
	Filename string
}

// TextMail is a plain-text email.
type TextMail struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	// Attachments serializes as null when nil and [] when empty.
	Attachments []Attachment `json:"attachments"`
}

// HTMLMail is an HTML email.
type HTMLMail struct {
	From        string       `json:"from"`
	To          []string     `json:"to"`
	Subject     string       `json:"subject"`
	HTML        string       `json:"html"`
	Attachments []Attachment `json:"attachments"`
}

func (TextMail) mail() {}
func (HTMLMail) mail() {}

// Marshal returns the request body for m.
func Marshal(m Mail) ([]byte, error) {
	switch v := m.(type) {
	case nil:
		return nil, ErrNilMail
	case *TextMail:
		if v == nil {
			return nil, ErrNilMail
		}
		return v.MarshalJSON()
	case *HTMLMail:
		if v == nil {
			return nil, ErrNilMail
		}
		return v.MarshalJSON()
	case TextMail:
		return v.MarshalJSON()
	case HTMLMail:
		return v.MarshalJSON()
	default:
		return nil, ErrNilMail
	}
}

// MarshalJSON implements json.Marshaler.
func (m TextMail) MarshalJSON() ([]byte, error) {
	type wire TextMail
	w := wire(m)
	if w.To == nil {
		w.To = []string{}
	}
	return encode(w)
}

// MarshalJSON implements json.Marshaler.
func (m HTMLMail) MarshalJSON() ([]byte, error) {
	type wire HTMLMail
	w := wire(m)
	if w.To == nil {
		w.To = []string{}
	}
	return encode(w)
}

// MarshalJSON implements json.Marshaler.
func (a Attachment) MarshalJSON() ([]byte, error) {
	filename, err := encode(a.Filename)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, 0, len(`{"content":[],"filename":}`)+4*len(a.Content)+len(filename))
	buf = append(buf, `{"content":[`...)
	for i, b := range a.Content {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(b), 10)
	}
	buf = append(buf, `],"filename":`...)
	buf = append(buf, filename...)
	buf = append(buf, '}')
	return buf, nil
}

// encode marshals v without HTML escaping and without the trailing newline
// json.Encoder appends. U+2028 and U+2029 are written raw.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators replaces the \u2028 and \u2029 escapes that
// encoding/json always emits with the raw characters. Other escape
// sequences are copied untouched, so an escaped backslash followed by
// "u2028" stays as it is.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' {
			out = append(out, b[i])
			continue
		}
		if i+5 < len(b) && b[i+1] == 'u' && string(b[i+2:i+5]) == "202" {
			switch b[i+5] {
			case '8':
				out = append(out, "\u2028"...)
				i += 5
				continue
			case '9':
				out = append(out, "\u2029"...)
				i += 5
				continue
			}
		}
		out = append(out, b[i])
		if i+1 < len(b) {
			out = append(out, b[i+1])
			i++
		}
	}
	return out
}

package wagl

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// minTextLen is the length a plain-text recall payload must exceed to be
// worth injecting.
const minTextLen = 10

// OutputKind tags how recall stdout was interpreted.
type OutputKind int

const (
	OutputEmpty OutputKind = iota
	OutputText
	OutputStructured
)

// Output is recall stdout classified as either a structured document or plain
// text. Build it with ParseOutput.
type Output struct {
	Kind     OutputKind
	Text     string
	Document RecallDocument
}

// RecallDocument is the JSON shape wagl prints for a recall.
type RecallDocument struct {
	// Canonical keeps the key order of the "canonical" object.
	Canonical []Field
	Related   []RelatedItem
}

// Field is one key of the canonical object.
type Field struct {
	Key   string
	Value json.RawMessage
}

// RelatedItem is one entry of the "related" list, reduced to its display
// text. Entries without text are kept with an empty Text.
type RelatedItem struct {
	Text string
}

// ParseOutput classifies raw recall stdout. A JSON object becomes
// OutputStructured and any other valid JSON value is OutputEmpty; anything
// else that is not blank becomes OutputText.
func ParseOutput(raw string) Output {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Output{Kind: OutputEmpty}
	}

	if doc, err := parseDocument([]byte(trimmed)); err == nil {
		return Output{Kind: OutputStructured, Document: doc}
	}
	if json.Valid([]byte(trimmed)) {
		return Output{Kind: OutputEmpty}
	}

	return Output{Kind: OutputText, Text: trimmed}
}

// Render reduces the output to the text injected into the host. The boolean
// is false when there is nothing worth injecting.
func (o Output) Render() (string, bool) {
	switch o.Kind {
	case OutputStructured:
		return o.Document.Render()
	case OutputText:
		if utf8.RuneCountInString(o.Text) <= minTextLen {
			return "", false
		}
		return o.Text, true
	default:
		return "", false
	}
}

// Render formats canonical fields as "**key:** value" lines followed by
// related items as "- text" bullets.
func (d RecallDocument) Render() (string, bool) {
	var lines []string

	for _, f := range d.Canonical {
		lines = append(lines, "**"+f.Key+":** "+fieldText(f.Value))
	}

	for _, item := range d.Related {
		if item.Text == "" {
			continue
		}
		lines = append(lines, "- "+item.Text)
	}

	if len(lines) == 0 {
		return "", false
	}
	return strings.Join(lines, "\n"), true
}

// Normalize is ParseOutput followed by Render.
func Normalize(raw string) (string, bool) {
	return ParseOutput(raw).Render()
}

// fieldText renders a canonical value: strings trimmed, everything else
// (null included) as compact JSON.
func fieldText(v json.RawMessage) string {
	var s *string
	if err := json.Unmarshal(v, &s); err == nil && s != nil {
		return strings.TrimSpace(*s)
	}

	var buf bytes.Buffer
	if err := json.Compact(&buf, v); err != nil {
		return strings.TrimSpace(string(v))
	}
	return buf.String()
}

var errNotObject = errors.New("not a JSON object")

func parseDocument(data []byte) (RecallDocument, error) {
	if len(data) == 0 || data[0] != '{' || !json.Valid(data) {
		return RecallDocument{}, errNotObject
	}

	var top struct {
		Canonical json.RawMessage `json:"canonical"`
		Related   json.RawMessage `json:"related"`
	}
	if err := json.Unmarshal(data, &top); err != nil {
		return RecallDocument{}, err
	}

	var doc RecallDocument

	if isObject(top.Canonical) {
		fields, err := orderedFields(top.Canonical)
		if err == nil {
			doc.Canonical = fields
		}
	}

	if isArray(top.Related) {
		var entries []json.RawMessage
		if err := json.Unmarshal(top.Related, &entries); err == nil {
			for _, e := range entries {
				doc.Related = append(doc.Related, RelatedItem{Text: relatedText(e)})
			}
		}
	}

	return doc, nil
}

// orderedFields decodes a JSON object keeping key order. A repeated key
// keeps its first position and its last value.
func orderedFields(raw json.RawMessage) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var fields []Field
	index := map[string]int{}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errNotObject
		}

		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}

		if i, seen := index[key]; seen {
			fields[i].Value = value
			continue
		}
		index[key] = len(fields)
		fields = append(fields, Field{Key: key, Value: value})
	}

	return fields, nil
}

var textKeys = []string{"text", "content", "summary"}

// relatedText resolves the display text of a related entry. The "item"
// envelope is preferred over flat fields; within each, text wins over content
// over summary.
func relatedText(raw json.RawMessage) string {
	var entry map[string]json.RawMessage
	if err := json.Unmarshal(raw, &entry); err != nil {
		return ""
	}

	var candidates []map[string]json.RawMessage
	if item, ok := entry["item"]; ok && isObject(item) {
		var inner map[string]json.RawMessage
		if err := json.Unmarshal(item, &inner); err == nil {
			candidates = append(candidates, inner)
		}
	}
	candidates = append(candidates, entry)

	for _, fields := range candidates {
		for _, key := range textKeys {
			v, ok := fields[key]
			if !ok {
				continue
			}
			var s string
			if err := json.Unmarshal(v, &s); err != nil {
				continue
			}
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

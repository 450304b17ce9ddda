package pipeline

import (
	"fmt"
	"strings"
)

// Document is a schemaless record flowing through a pipeline. Nested records
// are Document or map[string]any values.
type Document map[string]any

// Lookup resolves a dotted path
func (d Document) Lookup(path string) (any, bool) {
	var cur any = d
	for _, part := range strings.Split(path, ".") {
		m, ok := asMap(cur)
		if !ok {
			return nil, false
		}
		if cur, ok = m[part]; !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set assigns a dotted path, creating intermediate documents
func (d Document) Set(path string, value any) {
	parts := strings.Split(path, ".")
	cur := d
	for _, part := range parts[:len(parts)-1] {
		next, ok := asMap(cur[part])
		if !ok {
			next = Document{}
			cur[part] = next
		}
		cur = next
	}
	cur[parts[len(parts)-1]] = value
}

// Clone returns a shallow copy
func (d Document) Clone() Document {
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Without returns a copy without the given top-level keys
func (d Document) Without(keys ...string) Document {
	out := d.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func asMap(v any) (Document, bool) {
	switch m := v.(type) {
	case Document:
		return m, true
	case map[string]any:
		return Document(m), true
	default:
		return nil, false
	}
}

// Documents converts a slice value from a pipeline result into documents
func Documents(v any) ([]Document, error) {
	switch items := v.(type) {
	case nil:
		return nil, nil
	case []Document:
		return items, nil
	case []any:
		out := make([]Document, 0, len(items))
		for i, item := range items {
			doc, ok := asMap(item)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, not a document", i, item)
			}
			out = append(out, doc)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("value is %T, not a document list", v)
	}
}

// Page is a decoded Paginate envelope
type Page struct {
	Total int64
	Page  int
	Data  []Document
}

// DecodePage reads the envelope produced by a Paginate stage. An empty result
// or an envelope without meta means zero matches.
func DecodePage(docs []Document, fallbackPage int) (Page, error) {
	page := Page{Page: fallbackPage, Data: []Document{}}
	if len(docs) == 0 {
		return page, nil
	}
	if len(docs) > 1 {
		return page, fmt.Errorf("paginated result has %d envelopes", len(docs))
	}

	env := docs[0]
	meta, err := Documents(env["meta"])
	if err != nil {
		return page, fmt.Errorf("invalid meta: %w", err)
	}
	if len(meta) > 0 {
		if total, ok := toFloat(meta[0]["total"]); ok {
			page.Total = int64(total)
		}
		if p, ok := toFloat(meta[0]["page"]); ok {
			page.Page = int(p)
		}
	}

	data, err := Documents(env["data"])
	if err != nil {
		return page, fmt.Errorf("invalid data: %w", err)
	}
	if data != nil {
		page.Data = data
	}
	return page, nil
}

package pipeline

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// IDField is the identity key of every document
const IDField = "_id"

// Sources are the collections available to Lookup stages, keyed by name
type Sources map[string][]Document

// Execute runs stages over docs in order. The input slice is not modified.
// Sorting is stable and breaks ties by _id so pages are deterministic.
func Execute(docs []Document, stages []Stage, sources Sources) ([]Document, error) {
	out := append([]Document(nil), docs...)

	for i, st := range stages {
		switch s := st.(type) {
		case Match:
			out = filter(out, func(d Document) bool { return s.Matches(d) })
		case RangeFilter:
			conds := s.Conditions()
			out = filter(out, func(d Document) bool { return matchAll(d, conds) })
		case Sort:
			sortDocuments(out, s.Keys)
		case Paginate:
			out = []Document{paginate(out, s)}
		case Project:
			for j, d := range out {
				out[j] = s.Apply(d)
			}
		case Lookup:
			out = lookup(out, s, sources[s.From])
		case Group:
			grouped, err := group(out, s)
			if err != nil {
				return nil, fmt.Errorf("stage %d: %w", i, err)
			}
			out = grouped
		default:
			return nil, fmt.Errorf("stage %d: unsupported stage %T", i, st)
		}
	}
	return out, nil
}

// Matches reports whether d satisfies the match
func (m Match) Matches(d Document) bool {
	if !matchAll(d, m.Conditions) {
		return false
	}
	if m.Search == nil {
		return true
	}

	term := strings.ToLower(m.Search.Term)
	for _, f := range m.Search.Fields {
		v, ok := d.Lookup(f)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func matchAll(d Document, conds []Condition) bool {
	for _, c := range conds {
		if !c.Matches(d) {
			return false
		}
	}
	return true
}

// Matches reports whether d satisfies the condition. Values of different
// types never compare, except that all numeric types compare with each other.
func (c Condition) Matches(d Document) bool {
	v, ok := d.Lookup(c.Field)
	if !ok {
		return c.Op == OpEq && c.Value == nil
	}

	if c.Op == OpEq {
		return equal(v, c.Value)
	}

	cmp, ok := compare(v, c.Value)
	if !ok {
		return false
	}
	switch c.Op {
	case OpGte:
		return cmp >= 0
	case OpGt:
		return cmp > 0
	case OpLte:
		return cmp <= 0
	case OpLt:
		return cmp < 0
	}
	return false
}

// Apply projects a document, or the data of an envelope when Paginated
func (p Project) Apply(d Document) Document {
	if !p.Paginated {
		return projectFields(d, p.Fields)
	}

	out := Document{}
	if meta, ok := d["meta"]; ok {
		out["meta"] = meta
	}
	data, _ := Documents(d["data"])
	projected := make([]Document, 0, len(data))
	for _, item := range data {
		projected = append(projected, projectFields(item, p.Fields))
	}
	out["data"] = projected
	return out
}

func projectFields(d Document, fields []string) Document {
	if len(fields) == 0 {
		return d
	}
	out := Document{}
	if id, ok := d[IDField]; ok {
		out[IDField] = id
	}
	for _, f := range fields {
		if v, ok := d.Lookup(f); ok {
			out.Set(f, v)
		}
	}
	return out
}

func filter(docs []Document, keep func(Document) bool) []Document {
	out := docs[:0:0]
	for _, d := range docs {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}

func sortDocuments(docs []Document, keys []SortKey) {
	hasID := false
	for _, k := range keys {
		if k.Field == IDField {
			hasID = true
		}
	}
	if !hasID {
		keys = append(append([]SortKey(nil), keys...), SortKey{Field: IDField})
	}

	sort.SliceStable(docs, func(i, j int) bool {
		for _, k := range keys {
			a, _ := docs[i].Lookup(k.Field)
			b, _ := docs[j].Lookup(k.Field)
			c := order(a, b)
			if c == 0 {
				continue
			}
			if k.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func paginate(docs []Document, p Paginate) Document {
	meta := []Document{}
	if len(docs) > 0 {
		meta = append(meta, Document{"total": int64(len(docs)), "page": p.Page})
	}

	start := p.Skip()
	if start > len(docs) {
		start = len(docs)
	}
	end := start + p.Limit
	if end > len(docs) {
		end = len(docs)
	}

	return Document{
		"meta": meta,
		"data": append([]Document{}, docs[start:end]...),
	}
}

func lookup(docs []Document, l Lookup, foreign []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		local, _ := d.Lookup(l.LocalField)

		var matches []Document
		for _, f := range foreign {
			if v, ok := f.Lookup(l.ForeignField); ok && equal(local, v) {
				matches = append(matches, f)
			}
		}

		if !l.Unwind {
			joined := d.Clone()
			joined[l.As] = append([]Document{}, matches...)
			out = append(out, joined)
			continue
		}
		if len(matches) == 0 {
			out = append(out, d)
			continue
		}
		for _, m := range matches {
			joined := d.Clone()
			joined[l.As] = m
			out = append(out, joined)
		}
	}
	return out
}

type bucket struct {
	key   BucketKey
	count int64
	sums  []float64
	docs  []Document
}

func group(docs []Document, g Group) ([]Document, error) {
	index := map[BucketKey]*bucket{}
	var ordered []*bucket

	for _, d := range docs {
		raw, _ := d.Lookup(g.DateField)
		t, ok := raw.(time.Time)
		if !ok {
			return nil, fmt.Errorf("group field %q is %T, not a date", g.DateField, raw)
		}

		key := BucketKeyOf(t, g.Parts)
		b, ok := index[key]
		if !ok {
			b = &bucket{key: key, sums: make([]float64, len(g.Sums))}
			index[key] = b
			ordered = append(ordered, b)
		}

		b.count++
		for i, s := range g.Sums {
			if v, ok := d.Lookup(s.Field); ok {
				if f, ok := toFloat(v); ok {
					b.sums[i] += f
				}
			}
		}
		if g.PushAs != "" {
			b.docs = append(b.docs, d)
		}
	}

	out := make([]Document, 0, len(ordered))
	for _, b := range ordered {
		doc := b.key.Document(g.Parts)
		if g.CountAs != "" {
			doc[g.CountAs] = b.count
		}
		for i, s := range g.Sums {
			doc[s.As] = b.sums[i]
		}
		if g.PushAs != "" {
			doc[g.PushAs] = b.docs
		}
		out = append(out, doc)
	}
	return out, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func equal(a, b any) bool {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		return ok && fa == fb
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return false
}

// compare orders two values of the same kind
func compare(a, b any) (int, bool) {
	if fa, ok := toFloat(a); ok {
		fb, ok := toFloat(b)
		if !ok {
			return 0, false
		}
		return cmpFloat(fa, fb), true
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		if !ok {
			return 0, false
		}
		return strings.Compare(av, bv), true
	case time.Time:
		bv, ok := b.(time.Time)
		if !ok {
			return 0, false
		}
		return av.Compare(bv), true
	case bool:
		bv, ok := b.(bool)
		if !ok {
			return 0, false
		}
		return cmpBool(av, bv), true
	}
	return 0, false
}

// typeRank follows the usual document store ordering: null, numbers, strings, booleans, dates
func typeRank(v any) int {
	if _, ok := toFloat(v); ok {
		return 1
	}
	switch v.(type) {
	case nil:
		return 0
	case string:
		return 2
	case bool:
		return 3
	case time.Time:
		return 4
	default:
		return 5
	}
}

// order is a total order over values used for sorting
func order(a, b any) int {
	ra, rb := typeRank(a), typeRank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	if c, ok := compare(a, b); ok {
		return c
	}
	return 0
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

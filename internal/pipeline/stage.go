// Package pipeline describes catalog and reporting queries as an ordered list
// of stages. Builders produce stages from raw request parameters; storage
// backends either translate the list into their native query language or run
// it with Execute.
package pipeline

import (
	"math"
	"time"
)

// Stage is one step of a query pipeline. The concrete types are Match,
// RangeFilter, Sort, Paginate, Project, Lookup and Group.
type Stage interface {
	stageName() string
}

// Op is a comparison operator of a Condition
type Op int

const (
	OpEq Op = iota
	OpGte
	OpGt
	OpLte
	OpLt
)

func (o Op) String() string {
	switch o {
	case OpGte:
		return "gte"
	case OpGt:
		return "gt"
	case OpLte:
		return "lte"
	case OpLt:
		return "lt"
	default:
		return "eq"
	}
}

// Condition compares the value at Field (a dotted path) with Value
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Search is an OR of case-insensitive substring matches over Fields
type Search struct {
	Term   string
	Fields []string
}

// Between is a half-open interval [From, Until) accepted as a MakeMatch filter value.
// A nil bound is left open.
type Between struct {
	From  any
	Until any
}

// Match keeps documents satisfying every condition and, when set, the search
type Match struct {
	Conditions []Condition
	Search     *Search
}

// SortKey orders by Field, descending when Desc is set
type SortKey struct {
	Field string
	Desc  bool
}

// Sort orders documents by Keys in sequence
type Sort struct {
	Keys []SortKey
}

// RangeFilter bounds a numeric field. NaN bounds are absent.
type RangeFilter struct {
	Field string
	Min   float64
	Max   float64
}

// HasBounds reports whether at least one bound is present
func (r RangeFilter) HasBounds() bool {
	return !math.IsNaN(r.Min) || !math.IsNaN(r.Max)
}

// Conditions expresses the filter as comparison conditions
func (r RangeFilter) Conditions() []Condition {
	var out []Condition
	if !math.IsNaN(r.Min) {
		out = append(out, Condition{Field: r.Field, Op: OpGte, Value: r.Min})
	}
	if !math.IsNaN(r.Max) {
		out = append(out, Condition{Field: r.Field, Op: OpLte, Value: r.Max})
	}
	return out
}

// Paginate fans the stream out into a single envelope document
// {meta: [{total, page}], data: [...]} holding one page of results.
type Paginate struct {
	Page  int
	Limit int
}

// Skip is the number of documents preceding the page
func (p Paginate) Skip() int {
	return (p.Page - 1) * p.Limit
}

// Project keeps only Fields (plus _id). When Paginated it applies to the
// envelope's data and keeps meta. An empty field list keeps whole documents.
type Project struct {
	Fields    []string
	Paginated bool
}

// Lookup joins documents from the From source where LocalField equals
// ForeignField, storing matches under As. With Unwind each match yields its
// own document and documents without a match are kept as they are.
type Lookup struct {
	From         string
	LocalField   string
	ForeignField string
	As           string
	Unwind       bool
}

// DatePart is a calendar component used as a grouping key
type DatePart int

const (
	PartYear DatePart = iota
	PartMonth
	PartISOWeek
	PartDay
)

// Key is the output field name of the part
func (d DatePart) Key() string {
	switch d {
	case PartMonth:
		return "month"
	case PartISOWeek:
		return "week"
	case PartDay:
		return "day"
	default:
		return "year"
	}
}

// Sum accumulates the numeric value of Field into As
type Sum struct {
	Field string
	As    string
}

// Group buckets documents by calendar parts of DateField (UTC). Each output
// document carries the part keys, CountAs, every Sum and the grouped
// documents under PushAs.
type Group struct {
	DateField string
	Parts     []DatePart
	CountAs   string
	Sums      []Sum
	PushAs    string
}

// BucketKey identifies a Group bucket. Parts not grouped on are zero.
type BucketKey struct {
	Year  int
	Month int
	Week  int
	Day   int
}

// BucketKeyOf computes the bucket of t for the given parts
func BucketKeyOf(t time.Time, parts []DatePart) BucketKey {
	t = t.UTC()
	var key BucketKey
	for _, p := range parts {
		switch p {
		case PartYear:
			key.Year = t.Year()
		case PartMonth:
			key.Month = int(t.Month())
		case PartISOWeek:
			_, key.Week = t.ISOWeek()
		case PartDay:
			key.Day = t.Day()
		}
	}
	return key
}

// Document renders the key fields selected by parts
func (k BucketKey) Document(parts []DatePart) Document {
	doc := Document{}
	for _, p := range parts {
		switch p {
		case PartYear:
			doc[p.Key()] = k.Year
		case PartMonth:
			doc[p.Key()] = k.Month
		case PartISOWeek:
			doc[p.Key()] = k.Week
		case PartDay:
			doc[p.Key()] = k.Day
		}
	}
	return doc
}

func (Match) stageName() string       { return "match" }
func (RangeFilter) stageName() string { return "rangeFilter" }
func (Sort) stageName() string        { return "sort" }
func (Paginate) stageName() string    { return "paginate" }
func (Project) stageName() string     { return "project" }
func (Lookup) stageName() string      { return "lookup" }
func (Group) stageName() string       { return "group" }

// Name returns a short identifier of the stage kind, used in traces and errors
func Name(s Stage) string {
	if s == nil {
		return "nil"
	}
	return s.stageName()
}

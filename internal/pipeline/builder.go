package pipeline

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Defaults applied by MakePagination and MakeSort
const (
	DefaultPage      = 1
	DefaultLimit     = 10
	DefaultSortField = "updatedAt"

	// MaxLimit caps the page size
	MaxLimit = 100
	// MaxPage keeps (page-1)*limit within 32 bits
	MaxPage = 10_000_000
)

// MakeMatch builds an equality filter over every key of filters and, when
// search is non-empty, an OR of case-insensitive substring matches over
// searchFields. Between values expand to a half-open range on their key.
func MakeMatch(filters map[string]any, search string, searchFields []string) Match {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var m Match
	for _, k := range keys {
		switch v := filters[k].(type) {
		case Between:
			if v.From != nil {
				m.Conditions = append(m.Conditions, Condition{Field: k, Op: OpGte, Value: v.From})
			}
			if v.Until != nil {
				m.Conditions = append(m.Conditions, Condition{Field: k, Op: OpLt, Value: v.Until})
			}
		default:
			m.Conditions = append(m.Conditions, Condition{Field: k, Op: OpEq, Value: v})
		}
	}

	if search != "" && len(searchFields) > 0 {
		m.Search = &Search{
			Term:   search,
			Fields: append([]string(nil), searchFields...),
		}
	}
	return m
}

// MakeSort keeps the requested fields present in allowed, in request order,
// ascending unless sortOrder is "desc". Without any usable field it sorts by
// updatedAt in the requested direction.
func MakeSort(sortBy, sortOrder string, allowed []string) Sort {
	desc := strings.EqualFold(strings.TrimSpace(sortOrder), "desc")

	permitted := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		permitted[f] = true
	}

	var s Sort
	seen := map[string]bool{}
	for _, f := range strings.Split(sortBy, ",") {
		f = strings.TrimSpace(f)
		if !permitted[f] || seen[f] {
			continue
		}
		seen[f] = true
		s.Keys = append(s.Keys, SortKey{Field: f, Desc: desc})
	}

	if len(s.Keys) == 0 {
		s.Keys = []SortKey{{Field: DefaultSortField, Desc: desc}}
	}
	return s
}

// MakeRangeFilter bounds field to [min, max]. Pass NaN for an absent bound.
func MakeRangeFilter(field string, max, min float64) RangeFilter {
	return RangeFilter{Field: field, Min: min, Max: max}
}

// ParseBound parses a range bound, returning NaN when raw is empty or not a number
func ParseBound(raw string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}

// MakePagination parses page and limit, falling back to 1 and 10 for
// absent, non-numeric or non-positive values. Limit is capped at MaxLimit
// and page at MaxPage, so a page past the end is empty rather than wrapped.
func MakePagination(page, limit string) Paginate {
	return Paginate{
		Page:  positiveOr(page, DefaultPage, MaxPage),
		Limit: positiveOr(limit, DefaultLimit, MaxLimit),
	}
}

func positiveOr(raw string, def, max int) int {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		// Out of range digits still mean "very large"
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && numErr.Err == strconv.ErrRange && !strings.HasPrefix(strings.TrimSpace(raw), "-") {
			return max
		}
		return def
	}
	if v <= 0 {
		return def
	}
	if v > int64(max) {
		return max
	}
	return int(v)
}

// MakeProject builds an inclusion projection from a comma separated field
// list. A leading "-" is stripped and the field is still included.
func MakeProject(fields string, paginated bool) Project {
	p := Project{Paginated: paginated}
	seen := map[string]bool{}
	for _, f := range strings.Split(fields, ",") {
		f = strings.TrimPrefix(strings.TrimSpace(f), "-")
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		p.Fields = append(p.Fields, f)
	}
	return p
}

// Layouts accepted by ParseDate
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = time.RFC3339
)

// ParseDate accepts a calendar date or an RFC3339 timestamp. dateOnly reports
// whether raw carried no time of day. Results are in UTC.
func ParseDate(raw string) (t time.Time, dateOnly bool, err error) {
	raw = strings.TrimSpace(raw)
	if t, err = time.Parse(DateLayout, raw); err == nil {
		return t.UTC(), true, nil
	}
	if t, err = time.Parse(DateTimeLayout, raw); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q: expected %s or RFC3339", raw, DateLayout)
}

// DayRange is the half-open interval covering the UTC calendar day of t
func DayRange(t time.Time) Between {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return Between{From: start, Until: start.AddDate(0, 0, 1)}
}

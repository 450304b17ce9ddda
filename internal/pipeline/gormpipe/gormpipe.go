// Package gormpipe pushes pipeline filter and sort stages down into gorm queries.
package gormpipe

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tair/gadget-inventory/internal/pipeline"
)

// ColumnResolver maps an API field path to a trusted column name
type ColumnResolver func(path string) (string, bool)

var sqlOps = map[pipeline.Op]string{
	pipeline.OpEq:  "=",
	pipeline.OpGte: ">=",
	pipeline.OpGt:  ">",
	pipeline.OpLte: "<=",
	pipeline.OpLt:  "<",
}

// ApplyMatch adds the match conditions and search as WHERE clauses
func ApplyMatch(db *gorm.DB, m pipeline.Match, column ColumnResolver) (*gorm.DB, error) {
	db, err := ApplyConditions(db, m.Conditions, column)
	if err != nil {
		return nil, err
	}
	if m.Search == nil || len(m.Search.Fields) == 0 {
		return db, nil
	}

	pattern := "%" + EscapeLike(m.Search.Term) + "%"
	parts := make([]string, 0, len(m.Search.Fields))
	args := make([]any, 0, len(m.Search.Fields))
	for _, f := range m.Search.Fields {
		col, ok := column(f)
		if !ok {
			return nil, fmt.Errorf("unsupported search field %q", f)
		}
		parts = append(parts, col+" ILIKE ?")
		args = append(args, pattern)
	}
	return db.Where("("+strings.Join(parts, " OR ")+")", args...), nil
}

// ApplyConditions adds each condition as a WHERE clause
func ApplyConditions(db *gorm.DB, conds []pipeline.Condition, column ColumnResolver) (*gorm.DB, error) {
	for _, c := range conds {
		col, ok := column(c.Field)
		if !ok {
			return nil, fmt.Errorf("unsupported filter field %q", c.Field)
		}
		op, ok := sqlOps[c.Op]
		if !ok {
			return nil, fmt.Errorf("unsupported operator %v", c.Op)
		}

		value := c.Value
		if t, ok := value.(time.Time); ok {
			value = t.UTC()
		}
		if value == nil && c.Op == pipeline.OpEq {
			db = db.Where(col + " IS NULL")
			continue
		}
		db = db.Where(fmt.Sprintf("%s %s ?", col, op), value)
	}
	return db, nil
}

// ApplySort adds ORDER BY clauses, breaking ties by idColumn
func ApplySort(db *gorm.DB, s pipeline.Sort, column ColumnResolver, idColumn string) (*gorm.DB, error) {
	hasID := false
	for _, k := range s.Keys {
		col, ok := column(k.Field)
		if !ok {
			return nil, fmt.Errorf("unsupported sort field %q", k.Field)
		}
		if col == idColumn {
			hasID = true
		}
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: k.Desc})
	}
	if !hasID {
		db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: idColumn}})
	}
	return db, nil
}

// EscapeLike escapes LIKE metacharacters so the term matches literally
func EscapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

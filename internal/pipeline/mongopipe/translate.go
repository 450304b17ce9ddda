// Package mongopipe translates pipeline stages into MongoDB aggregation stages.
package mongopipe

import (
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tair/gadget-inventory/internal/pipeline"
)

var opNames = map[pipeline.Op]string{
	pipeline.OpGte: "$gte",
	pipeline.OpGt:  "$gt",
	pipeline.OpLte: "$lte",
	pipeline.OpLt:  "$lt",
}

var dateOperators = map[pipeline.DatePart]string{
	pipeline.PartYear:    "$year",
	pipeline.PartMonth:   "$month",
	pipeline.PartISOWeek: "$isoWeek",
	pipeline.PartDay:     "$dayOfMonth",
}

// Translate converts stages into an aggregation pipeline
func Translate(stages []pipeline.Stage) (mongo.Pipeline, error) {
	out := mongo.Pipeline{}
	for i, st := range stages {
		switch s := st.(type) {
		case pipeline.Match:
			out = append(out, bson.D{{Key: "$match", Value: MatchFilter(s)}})
		case pipeline.RangeFilter:
			if !s.HasBounds() {
				continue
			}
			out = append(out, bson.D{{Key: "$match", Value: conditionsFilter(s.Conditions())}})
		case pipeline.Sort:
			out = append(out, bson.D{{Key: "$sort", Value: sortSpec(s)}})
		case pipeline.Paginate:
			out = append(out, facet(s))
		case pipeline.Project:
			if stage, ok := project(s); ok {
				out = append(out, stage)
			}
		case pipeline.Lookup:
			out = append(out, lookup(s)...)
		case pipeline.Group:
			out = append(out, group(s)...)
		default:
			return nil, fmt.Errorf("stage %d: unsupported stage %T", i, st)
		}
	}
	return out, nil
}

// MatchFilter renders a match as a query filter document
func MatchFilter(m pipeline.Match) bson.D {
	clauses := bson.A{}
	for _, c := range m.Conditions {
		clauses = append(clauses, condition(c))
	}

	if m.Search != nil {
		pattern := regexp.QuoteMeta(m.Search.Term)
		or := bson.A{}
		for _, f := range m.Search.Fields {
			or = append(or, bson.D{{Key: f, Value: primitive.Regex{Pattern: pattern, Options: "i"}}})
		}
		clauses = append(clauses, bson.D{{Key: "$or", Value: or}})
	}

	if len(clauses) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "$and", Value: clauses}}
}

func conditionsFilter(conds []pipeline.Condition) bson.D {
	return MatchFilter(pipeline.Match{Conditions: conds})
}

func condition(c pipeline.Condition) bson.D {
	value := c.Value
	if t, ok := value.(time.Time); ok {
		value = t.UTC()
	}
	if c.Op == pipeline.OpEq {
		return bson.D{{Key: c.Field, Value: value}}
	}
	return bson.D{{Key: c.Field, Value: bson.D{{Key: opNames[c.Op], Value: value}}}}
}

func sortSpec(s pipeline.Sort) bson.D {
	spec := bson.D{}
	hasID := false
	for _, k := range s.Keys {
		dir := 1
		if k.Desc {
			dir = -1
		}
		if k.Field == pipeline.IDField {
			hasID = true
		}
		spec = append(spec, bson.E{Key: k.Field, Value: dir})
	}
	if !hasID {
		spec = append(spec, bson.E{Key: pipeline.IDField, Value: 1})
	}
	return spec
}

func facet(p pipeline.Paginate) bson.D {
	return bson.D{{Key: "$facet", Value: bson.D{
		{Key: "meta", Value: bson.A{
			bson.D{{Key: "$count", Value: "total"}},
			bson.D{{Key: "$addFields", Value: bson.D{{Key: "page", Value: p.Page}}}},
		}},
		{Key: "data", Value: bson.A{
			bson.D{{Key: "$skip", Value: p.Skip()}},
			bson.D{{Key: "$limit", Value: p.Limit}},
		}},
	}}}
}

func project(p pipeline.Project) (bson.D, bool) {
	fields := bson.D{}
	for _, f := range p.Fields {
		fields = append(fields, bson.E{Key: f, Value: 1})
	}

	if !p.Paginated {
		if len(fields) == 0 {
			return nil, false
		}
		return bson.D{{Key: "$project", Value: fields}}, true
	}

	var data any = 1
	if len(fields) > 0 {
		data = fields
	}
	return bson.D{{Key: "$project", Value: bson.D{
		{Key: "meta", Value: 1},
		{Key: "data", Value: data},
	}}}, true
}

func lookup(l pipeline.Lookup) []bson.D {
	stages := []bson.D{{{Key: "$lookup", Value: bson.D{
		{Key: "from", Value: l.From},
		{Key: "localField", Value: l.LocalField},
		{Key: "foreignField", Value: l.ForeignField},
		{Key: "as", Value: l.As},
	}}}}
	if l.Unwind {
		stages = append(stages, bson.D{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$" + l.As},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}})
	}
	return stages
}

func group(g pipeline.Group) []bson.D {
	id := bson.D{}
	flatten := bson.D{{Key: "_id", Value: 0}}
	for _, p := range g.Parts {
		id = append(id, bson.E{Key: p.Key(), Value: bson.D{{Key: dateOperators[p], Value: "$" + g.DateField}}})
		flatten = append(flatten, bson.E{Key: p.Key(), Value: "$_id." + p.Key()})
	}

	acc := bson.D{{Key: "_id", Value: id}}
	if g.CountAs != "" {
		acc = append(acc, bson.E{Key: g.CountAs, Value: bson.D{{Key: "$sum", Value: 1}}})
		flatten = append(flatten, bson.E{Key: g.CountAs, Value: 1})
	}
	for _, s := range g.Sums {
		acc = append(acc, bson.E{Key: s.As, Value: bson.D{{Key: "$sum", Value: "$" + s.Field}}})
		flatten = append(flatten, bson.E{Key: s.As, Value: 1})
	}
	if g.PushAs != "" {
		acc = append(acc, bson.E{Key: g.PushAs, Value: bson.D{{Key: "$push", Value: "$$ROOT"}}})
		flatten = append(flatten, bson.E{Key: g.PushAs, Value: 1})
	}

	return []bson.D{
		{{Key: "$group", Value: acc}},
		{{Key: "$project", Value: flatten}},
	}
}

// Normalize converts decoded BSON values into pipeline documents and plain Go values
func Normalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		doc := make(pipeline.Document, len(t))
		for k, inner := range t {
			doc[k] = Normalize(inner)
		}
		return doc
	case map[string]any:
		return Normalize(bson.M(t))
	case bson.D:
		doc := make(pipeline.Document, len(t))
		for _, e := range t {
			doc[e.Key] = Normalize(e.Value)
		}
		return doc
	case bson.A:
		out := make([]any, len(t))
		for i, inner := range t {
			out[i] = Normalize(inner)
		}
		return out
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.ObjectID:
		return t.Hex()
	case int32:
		return int64(t)
	default:
		return v
	}
}

// NormalizeAll converts decoded result documents
func NormalizeAll(raw []bson.M) []pipeline.Document {
	out := make([]pipeline.Document, 0, len(raw))
	for _, r := range raw {
		out = append(out, Normalize(r).(pipeline.Document))
	}
	return out
}

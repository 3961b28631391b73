package docstore

import (
	"reflect"
	"sort"
)

const (
	OpEqual         = "=="
	OpArrayContains = "array-contains"
)

type Predicate struct {
	Field string
	Op    string
	Value any
}

// Query describes a filtered scan over one collection. Predicates are ANDed.
type Query struct {
	Predicates []Predicate
	OrderField string
	Descending bool
	Limit      int
}

func Where(field, op string, value any) Query {
	return Query{Predicates: []Predicate{{Field: field, Op: op, Value: value}}}
}

func (q Query) Where(field, op string, value any) Query {
	q.Predicates = append(q.Predicates, Predicate{Field: field, Op: op, Value: value})
	return q
}

func (q Query) OrderDesc(field string) Query {
	q.OrderField = field
	q.Descending = true
	return q
}

func (q Query) OrderAsc(field string) Query {
	q.OrderField = field
	q.Descending = false
	return q
}

func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

// Match reports whether a document payload satisfies every predicate.
func (q Query) Match(data map[string]any) bool {
	for _, p := range q.Predicates {
		val, ok := data[p.Field]
		if !ok {
			return false
		}

		switch p.Op {
		case OpEqual:
			if !equalValues(val, p.Value) {
				return false
			}
		case OpArrayContains:
			arr, ok := val.([]any)
			if !ok {
				return false
			}
			if !containsValue(arr, p.Value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Apply filters, orders and truncates an already-decoded document set.
func (q Query) Apply(docs []*Document) []*Document {
	matched := make([]*Document, 0, len(docs))
	for _, d := range docs {
		if q.Match(d.Data) {
			matched = append(matched, d)
		}
	}

	if q.OrderField != "" {
		field := q.OrderField
		sort.SliceStable(matched, func(i, j int) bool {
			less := lessValues(matched[i].Data[field], matched[j].Data[field])
			if q.Descending {
				return !less && !equalValues(matched[i].Data[field], matched[j].Data[field])
			}
			return less
		})
	}

	if q.Limit > 0 && len(matched) > q.Limit {
		matched = matched[:q.Limit]
	}
	return matched
}

func containsValue(arr []any, target any) bool {
	for _, v := range arr {
		if equalValues(v, target) {
			return true
		}
	}
	return false
}

// equalValues compares with JSON number semantics: ints and float64s that
// hold the same value are equal, since decoded payloads only carry float64.
// Maps and slices are compared element-wise under the same rule.
func equalValues(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok || bok {
		return aok && bok && fa == fb
	}

	if ma, ok := a.(map[string]any); ok {
		mb, ok := b.(map[string]any)
		if !ok || len(ma) != len(mb) {
			return false
		}
		for k, va := range ma {
			vb, ok := mb[k]
			if !ok || !equalValues(va, vb) {
				return false
			}
		}
		return true
	}

	if sa, ok := a.([]any); ok {
		sb, ok := b.([]any)
		if !ok || len(sa) != len(sb) {
			return false
		}
		for i := range sa {
			if !equalValues(sa[i], sb[i]) {
				return false
			}
		}
		return true
	}

	return reflect.DeepEqual(a, b)
}

func lessValues(a, b any) bool {
	fa, aok := toFloat(a)
	fb, bok := toFloat(b)
	if aok && bok {
		return fa < fb
	}

	sa, aok := a.(string)
	sb, bok := b.(string)
	if aok && bok {
		return sa < sb
	}
	return false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

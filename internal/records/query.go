// Provides ordering, paging and projection of records.

package records

import (
	"cmp"
	"fmt"
	"slices"
	"strconv"
)

// Apply returns the records selected by q: stably ordered by q.OrderBy, paged
// and projected. The input is not modified; returned records are copies.
func Apply(rows []Record, q Query) []Record {
	out := slices.Clone(rows)
	if len(q.OrderBy) > 0 {
		slices.SortStableFunc(out, func(a, b Record) int {
			for _, o := range q.OrderBy {
				c := Compare(a[o.Field], b[o.Field])
				if o.Type == Desc {
					c = -c
				}
				if c != 0 {
					return c
				}
			}
			return 0
		})
	}
	out = Page(out, q.Paging)
	for i := range out {
		out[i] = Project(out[i], q.Fields)
	}
	return out
}

// Page returns the window of rows selected by p.
func Page(rows []Record, p Paging) []Record {
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(p.Offset, 0)
	if offset >= len(rows) {
		return nil
	}
	return rows[offset:min(offset+limit, len(rows))]
}

// Project returns a copy of r restricted to fields plus "Id". An empty fields
// list keeps every key.
func Project(r Record, fields []string) Record {
	if len(fields) == 0 {
		return r.Clone()
	}
	out := make(Record, len(fields)+1)
	if v, ok := r[FieldID]; ok {
		out[FieldID] = v
	}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = cloneValue(v)
		}
	}
	return out
}

// Compare orders two record values. Missing values sort first, numbers
// compare numerically, strings lexically. Values of different kinds compare
// by kind.
func Compare(a, b any) int {
	ka, kb := kindOf(a), kindOf(b)
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case kindNumber:
		fa, _ := toFloat(a)
		fb, _ := toFloat(b)
		return cmp.Compare(fa, fb)
	case kindString:
		return cmp.Compare(a.(string), b.(string))
	case kindBool:
		ba, bb := a.(bool), b.(bool)
		switch {
		case ba == bb:
			return 0
		case bb:
			return -1
		default:
			return 1
		}
	case kindOther:
		return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
	}
	return 0
}

const (
	kindNil = iota
	kindBool
	kindNumber
	kindString
	kindOther
)

func kindOf(v any) int {
	switch v.(type) {
	case nil:
		return kindNil
	case bool:
		return kindBool
	case string:
		return kindString
	}
	if _, ok := toFloat(v); ok {
		return kindNumber
	}
	return kindOther
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	}
	return 0, false
}

// uniqueKey renders v so that equal values of different numeric types match.
func uniqueKey(v any) string {
	if f, ok := toFloat(v); ok {
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%T:%v", v, v)
}

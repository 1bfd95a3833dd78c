package sandbox

import "reflect"

// Equal reports whether a live execution result matches a stored expected
// result exactly: identical column names in identical order, identical row
// count, and element-wise equal values in identical row order.
//
// Row order is significant even for tasks whose statement carries no ORDER
// BY. That strictness is intentional and matches the scoring contract;
// loosening it would silently change which submissions are judged correct.
func Equal(got, want *Result) bool {
	if got == nil || want == nil {
		return got == want
	}
	if len(got.Columns) != len(want.Columns) {
		return false
	}
	for i := range got.Columns {
		if got.Columns[i] != want.Columns[i] {
			return false
		}
	}
	if len(got.Rows) != len(want.Rows) {
		return false
	}
	for i := range got.Rows {
		if len(got.Rows[i]) != len(want.Rows[i]) {
			return false
		}
		for j := range got.Rows[i] {
			if !valueEqual(got.Rows[i][j], want.Rows[i][j]) {
				return false
			}
		}
	}
	return true
}

// valueEqual compares two scalars across representation boundaries: live
// results carry driver scan types (int64, float64, string) while expected
// results decoded from JSON carry float64 and string. Numeric values are
// compared by value regardless of the Go type they arrived in.
func valueEqual(a, b interface{}) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if af, ok := toFloat64(a); ok {
		bf, ok := toFloat64(b)
		return ok && af == bf
	}
	switch av := a.(type) {
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	}
	return reflect.DeepEqual(a, b)
}

func toFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

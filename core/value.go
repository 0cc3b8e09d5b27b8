package core

// Value is any ground (variable-free) datum a fact attribute or a
// binding can hold: nil, bool, a number, a string, a []interface{}
// tuple of values, or a map[string]interface{} of values. Structural
// equality is defined by ValuesEqual.
type Value = interface{}

// fudge normalizes the numeric zoo (int, int32, int64, float32,
// float64) down to float64 so that, say, an int fact attribute and a
// float64 pattern constant compare equal. Lifted from the teacher's
// match.Matcher, which faces the identical problem comparing decoded
// JSON numbers against Go-literal numbers.
func fudge(x interface{}) interface{} {
	switch v := x.(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return x
	}
}

// ValuesEqual reports whether two ground values are structurally equal,
// fudging numeric types and recursing into tuples and mappings.
func ValuesEqual(a, b Value) bool {
	a, b = fudge(a), fudge(b)

	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, is := b.(bool)
		return is && av == bv
	case float64:
		bv, is := b.(float64)
		return is && av == bv
	case string:
		bv, is := b.(string)
		return is && av == bv
	case []interface{}:
		bv, is := b.([]interface{})
		if !is || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !ValuesEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]interface{}:
		bv, is := b.(map[string]interface{})
		if !is || len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, have := bv[k]
			if !have || !ValuesEqual(v, w) {
				return false
			}
		}
		return true
	default:
		return a == b
	}
}

// IsMapping reports whether v is a nested-mapping Value, the only kind
// a path expression may index into.
func IsMapping(v Value) (map[string]interface{}, bool) {
	m, is := v.(map[string]interface{})
	return m, is
}

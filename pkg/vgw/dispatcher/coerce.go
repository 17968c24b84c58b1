package dispatcher

import "strconv"

// coerceNumericString parses s per the declared JSON Schema numeric type.
// ok=false means parsing failed and the caller should leave the original
// string untouched.
func coerceNumericString(s, declaredType string) (any, bool) {
	switch declaredType {
	case "integer":
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return n, true
	case "number":
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

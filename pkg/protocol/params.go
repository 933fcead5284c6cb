package protocol

// Helpers for reading decoded JSON parameter records. Numbers arrive as
// float64 and lists as []any.

// OptString reads an optional string. Absent or null is "".
func OptString(params map[string]any, key string) (string, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", nil
	}
	s, ok := v.(string)
	if !ok {
		return "", Invalidf("%s must be a string", key)
	}
	return s, nil
}

// OptBool reads an optional boolean with a default.
func OptBool(params map[string]any, key string, def bool) (bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return def, Invalidf("%s must be a boolean", key)
	}
	return b, nil
}

// OptNumber reads an optional number with a default.
func OptNumber(params map[string]any, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	}
	return def, Invalidf("%s must be a number", key)
}

// Floats converts a decoded list to []float64.
func Floats(raw any, key string) ([]float64, error) {
	switch v := raw.(type) {
	case []float64:
		return v, nil
	case []any:
		out := make([]float64, len(v))
		for i, item := range v {
			switch n := item.(type) {
			case float64:
				out[i] = n
			case int:
				out[i] = float64(n)
			default:
				return nil, Invalidf("%s[%d] must be a number", key, i)
			}
		}
		return out, nil
	}
	return nil, Invalidf("%s must be a list of numbers", key)
}

// Triple reads a list of exactly three numbers.
func Triple(raw any, key string) ([]float64, error) {
	v, err := Floats(raw, key)
	if err != nil {
		return nil, err
	}
	if len(v) != 3 {
		return nil, Invalidf("%s must have 3 values, got %d", key, len(v))
	}
	return v, nil
}

// Rows converts a decoded nested list to [][]float64. Shape is checked by
// the caller.
func Rows(raw any, key string) ([][]float64, error) {
	switch v := raw.(type) {
	case [][]float64:
		return v, nil
	case []any:
		out := make([][]float64, len(v))
		for i, item := range v {
			row, err := Floats(item, key)
			if err != nil {
				return nil, err
			}
			out[i] = row
		}
		return out, nil
	}
	return nil, Invalidf("%s must be a list of rows", key)
}

// Matrix3 reads a 3x3 row-major matrix.
func Matrix3(raw any, key string) ([][]float64, error) {
	rows, err := Rows(raw, key)
	if err != nil {
		return nil, err
	}
	if len(rows) != 3 {
		return nil, Invalidf("%s must be a 3x3 matrix, got %d rows", key, len(rows))
	}
	for i, r := range rows {
		if len(r) != 3 {
			return nil, Invalidf("%s must be a 3x3 matrix, row %d has %d values", key, i, len(r))
		}
	}
	return rows, nil
}

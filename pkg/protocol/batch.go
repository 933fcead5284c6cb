package protocol

import "fmt"

// Entries extracts the "objects" list of a batch record as parameter maps.
// The list must be non-empty unless all is set, and every entry must be a
// record.
func Entries(params map[string]any, all bool) ([]map[string]any, error) {
	raw, present := params["objects"]
	if !present || raw == nil {
		if all {
			return nil, nil
		}
		return nil, Invalidf("objects must be a non-empty list unless all=true")
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, Invalidf("objects must be a list")
	}
	if len(list) == 0 && !all {
		return nil, Invalidf("objects must be a non-empty list unless all=true")
	}
	out := make([]map[string]any, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, Invalidf("objects[%d] must be a dictionary", i)
		}
		out = append(out, m)
	}
	return out, nil
}

// Flag reads an optional boolean parameter.
func Flag(params map[string]any, key string) (bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return false, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, Invalidf("%s must be a boolean", key)
	}
	return b, nil
}

// Validate runs check over every entry and fails on the first invalid one
// without side effects. This is phase 1 of a batch.
func Validate[T any](entries []T, check func(i int, entry T) error) error {
	for i, e := range entries {
		if err := check(i, e); err != nil {
			return fmt.Errorf("objects[%d]: %w", i, err)
		}
	}
	return nil
}

// RunBatch applies fn to every entry in order. This is phase 2 of a batch:
// completed entries are not rolled back, and the first failure is reported
// as a PartialBatchFailure naming the failed index and the count completed.
func RunBatch[T, R any](entries []T, fn func(i int, entry T) (R, error)) ([]R, error) {
	results := make([]R, 0, len(entries))
	for i, e := range entries {
		r, err := fn(i, e)
		if err != nil {
			return results, &Error{
				Kind:        PartialBatchFailure,
				Message:     fmt.Sprintf("objects[%d] failed after %d completed: %s", i, len(results), err),
				Completed:   len(results),
				FailedIndex: i,
			}
		}
		results = append(results, r)
	}
	return results, nil
}

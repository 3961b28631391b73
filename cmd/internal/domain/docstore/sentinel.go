package docstore

// Write sentinels, resolved by the store at commit time. Every write in the
// same batch sees the same resolved timestamp.

type serverTimestamp struct{}

// ServerTimestamp resolves to the store's current UTC time (epoch millis).
var ServerTimestamp any = serverTimestamp{}

type arrayUnion struct {
	Values []any
}

type arrayRemove struct {
	Values []any
}

// ArrayUnion appends the given values to an array field, skipping values
// already present.
func ArrayUnion(values ...any) any {
	return arrayUnion{Values: values}
}

// ArrayRemove removes every occurrence of the given values from an array
// field. Absent values are ignored.
func ArrayRemove(values ...any) any {
	return arrayRemove{Values: values}
}

// ResolveValue maps a possibly-sentinel write value onto the concrete value
// to store, given the field's current content. Store implementations call
// this for every field of every write.
func ResolveValue(current, value any, now int64) any {
	switch v := value.(type) {
	case serverTimestamp:
		return now
	case arrayUnion:
		arr, _ := current.([]any)
		for _, add := range v.Values {
			if !containsValue(arr, add) {
				arr = append(arr, add)
			}
		}
		if arr == nil {
			arr = []any{}
		}
		return arr
	case arrayRemove:
		arr, _ := current.([]any)
		kept := make([]any, 0, len(arr))
		for _, cur := range arr {
			if !containsValue(v.Values, cur) {
				kept = append(kept, cur)
			}
		}
		return kept
	default:
		return value
	}
}

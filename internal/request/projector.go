package request

// ProjectFields reduces a decoded response object to the keys named in
// the allow-list. Requested keys that are absent on the source are
// silently omitted. A nil allow-list means no projection at all: the
// value passes through unchanged. Absence of a filter is never the same
// as an empty filter — an empty non-nil list projects everything away.
func ProjectFields(value map[string]any, fields []string) map[string]any {
	if fields == nil {
		return value
	}
	if value == nil {
		return nil
	}
	projected := make(map[string]any, len(fields))
	for _, field := range fields {
		if v, ok := value[field]; ok {
			projected[field] = v
		}
	}
	return projected
}

// ProjectFieldSlice applies ProjectFields to each object element of a
// decoded array, leaving non-object elements untouched.
func ProjectFieldSlice(values []any, fields []string) []any {
	if fields == nil {
		return values
	}
	projected := make([]any, len(values))
	for i, v := range values {
		if obj, ok := v.(map[string]any); ok {
			projected[i] = ProjectFields(obj, fields)
		} else {
			projected[i] = v
		}
	}
	return projected
}

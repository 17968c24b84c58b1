package jsonpath

// orderedKeys returns the keys of a JSON Schema "properties" object in
// declaration order when the schema was decoded preserving order (our
// schema maps come from encoding/json decoding into map[string]any, which
// does not preserve order; callers that need declaration order pass an
// explicit key slice via Project's propertyOrder). Falls back to map iteration
// order (unspecified) when no order hint is available.
func orderedKeys(props map[string]any, order []string) []string {
	if len(order) > 0 {
		out := make([]string, 0, len(order))
		for _, k := range order {
			if _, ok := props[k]; ok {
				out = append(out, k)
			}
		}
		return out
	}
	out := make([]string, 0, len(props))
	for k := range props {
		out = append(out, k)
	}
	return out
}

// Project implements project(content, output_schema) -> object.
//
// For each property p in output_schema.properties:
//   - If p has source_field:
//   - If p has items of object type with nested properties, treat
//     source_field as selecting an array and project each element
//     recursively through the nested properties. A missing array omits
//     the field.
//   - Else extract one value; omit the field entirely if not found.
//   - Else pass through content[p] if present.
//
// If output_schema has no properties, content is returned unchanged.
// propertyOrder, if non-nil, fixes iteration order for the returned map's
// logical field order (Go maps have no order on the wire, but callers that
// re-marshal with an ordered encoder can use this).
func Project(content map[string]any, outputSchema map[string]any, propertyOrder []string) map[string]any {
	props, ok := outputSchema["properties"].(map[string]any)
	if !ok || len(props) == 0 {
		if content == nil {
			return map[string]any{}
		}
		return content
	}

	out := map[string]any{}
	for _, name := range orderedKeys(props, propertyOrder) {
		propSchema, _ := props[name].(map[string]any)
		sourceField, hasSource := propSchema["source_field"].(string)

		if !hasSource {
			if v, present := content[name]; present {
				out[name] = v
			}
			continue
		}

		if items, ok := propSchema["items"].(map[string]any); ok {
			if itemProps, ok := nestedObjectProperties(items); ok {
				arr := Extract(content, sourceField)
				if arr == nil {
					// Missing array: field omitted entirely.
					continue
				}
				list, ok := arr.([]any)
				if !ok {
					continue
				}
				// Non-object elements are dropped: an array of
				// non-objects under a nested object item schema yields
				// an empty list, per spec.
				projected := make([]any, 0, len(list))
				for _, elem := range list {
					elemMap, ok := elem.(map[string]any)
					if !ok {
						continue
					}
					projected = append(projected, Project(elemMap, map[string]any{"properties": itemProps}, nil))
				}
				out[name] = projected
				continue
			}
		}

		v := Extract(content, sourceField)
		if v == nil {
			continue
		}
		out[name] = v
	}
	return out
}

func nestedObjectProperties(items map[string]any) (map[string]any, bool) {
	if t, _ := items["type"].(string); t != "" && t != "object" {
		return nil, false
	}
	props, ok := items["properties"].(map[string]any)
	if !ok {
		return nil, false
	}
	return props, true
}

// StripSourceFields deep-copies schema with every "source_field" key
// removed at every depth, including inside items. This is the outward
// schema advertised to callers.
func StripSourceFields(schema map[string]any) map[string]any {
	return stripValue(schema).(map[string]any)
}

func stripValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if k == "source_field" {
				continue
			}
			out[k] = stripValue(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = stripValue(val)
		}
		return out
	default:
		return v
	}
}

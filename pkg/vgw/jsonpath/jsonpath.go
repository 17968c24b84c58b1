// Package jsonpath implements the small JSONPath subset the gateway's
// output projection relies on ($, dot fields, [n] index, [*] wildcard),
// and the schema projection/stripping routines built on top of it.
//
// Path evaluation is delegated to tidwall/gjson: a path expression is
// compiled once into a gjson dot-path, then gjson walks the decoded tree.
package jsonpath

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// segment is one step of a parsed JSONPath expression.
type segment struct {
	field      string
	index      int
	isIndex    bool
	isWildcard bool
}

// compile parses a JSONPath string rooted at "$" into gjson dot-path
// syntax. Any syntax outside {$, dot-field, [n], [*]} is rejected
// conservatively by returning ok=false, matching the spec's directive to
// reject anything richer than the guaranteed subset.
func compile(path string) (gjsonPath string, hasWildcard bool, ok bool) {
	path = strings.TrimSpace(path)
	if !strings.HasPrefix(path, "$") {
		return "", false, false
	}
	rest := path[1:]

	var segs []segment
	for len(rest) > 0 {
		switch {
		case strings.HasPrefix(rest, "."):
			rest = rest[1:]
			end := strings.IndexAny(rest, ".[")
			var field string
			if end == -1 {
				field, rest = rest, ""
			} else {
				field, rest = rest[:end], rest[end:]
			}
			if field == "" {
				return "", false, false
			}
			segs = append(segs, segment{field: field})
		case strings.HasPrefix(rest, "["):
			end := strings.Index(rest, "]")
			if end == -1 {
				return "", false, false
			}
			inner := rest[1:end]
			rest = rest[end+1:]
			if inner == "*" {
				segs = append(segs, segment{isWildcard: true})
				hasWildcard = true
				continue
			}
			n, err := strconv.Atoi(inner)
			if err != nil {
				return "", false, false
			}
			segs = append(segs, segment{index: n, isIndex: true})
		default:
			return "", false, false
		}
	}

	// gjson reads a trailing "#" as the array's length, so a trailing [*]
	// selects the array itself; Extract then returns its elements.
	if len(segs) > 0 && segs[len(segs)-1].isWildcard {
		segs = segs[:len(segs)-1]
		if len(segs) == 0 {
			return "@this", true, true
		}
	}

	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteByte('.')
		}
		switch {
		case s.isWildcard:
			b.WriteString("#")
		case s.isIndex:
			b.WriteString(strconv.Itoa(s.index))
		default:
			b.WriteString(gjsonEscape(s.field))
		}
	}
	return b.String(), hasWildcard, true
}

// gjsonEscape escapes characters gjson treats specially in a path segment.
func gjsonEscape(field string) string {
	replacer := strings.NewReplacer(".", `\.`, "*", `\*`, "?", `\?`)
	return replacer.Replace(field)
}

// Extract implements extract(data, path) -> value | null. Any parse
// error yields nil (a data error, not a fault). If the path contains a
// wildcard, the result is a flat []any with missing slots suppressed
// (never null-padded); otherwise the single matched value, or nil if
// unmatched.
func Extract(data any, path string) any {
	gp, wildcard, ok := compile(path)
	if !ok {
		return nil
	}

	b, err := toJSON(data)
	if err != nil {
		return nil
	}

	res := gjson.GetBytes(b, gp)
	if !res.Exists() {
		if wildcard {
			return []any{}
		}
		return nil
	}

	if wildcard {
		arr := res.Array()
		out := make([]any, 0, len(arr))
		for _, v := range arr {
			if !v.Exists() {
				continue
			}
			out = append(out, v.Value())
		}
		return out
	}
	return res.Value()
}

func toJSON(data any) ([]byte, error) {
	if b, ok := data.([]byte); ok {
		return b, nil
	}
	return json.Marshal(data)
}

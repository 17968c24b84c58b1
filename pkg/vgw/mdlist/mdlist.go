// Package mdlist implements the markdown numbered/bulleted list parser
// (C3): regex-driven extraction of free-form list text into structured
// records, per a declarative field pattern set.
package mdlist

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

var (
	numberedSplit = regexp.MustCompile(`(?m)^\d+\.\s+`)
	bulletSplit   = regexp.MustCompile(`(?m)^[-*]\s+`)
)

// Parser names recognized for TextExtraction.Parser.
const (
	ParserNumbered = "markdown_numbered_list"
	ParserBullet   = "markdown_bullet_list"
)

// Parse splits text into list items per the named parser, extracts each
// declared field from every item, coerces it to the declared type, and
// drops any item missing a required field. If ListField is non-empty the
// resulting records are wrapped under that key; otherwise the bare record
// list is returned directly (nil if no record survived), matching
// extract_markdown_list in the original implementation.
func Parse(text string, extraction *vgw.TextExtraction) any {
	var splitter *regexp.Regexp
	switch extraction.Parser {
	case ParserNumbered:
		splitter = numberedSplit
	case ParserBullet:
		splitter = bulletSplit
	default:
		return nil
	}

	items := splitItems(text, splitter)
	records := make([]map[string]any, 0, len(items))
	for _, item := range items {
		record, ok := parseItem(item, extraction.Fields)
		if ok {
			records = append(records, record)
		}
	}

	if len(records) == 0 {
		return nil
	}

	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}

	if extraction.ListField != "" {
		return map[string]any{extraction.ListField: out}
	}
	return out
}

func splitItems(text string, splitter *regexp.Regexp) []string {
	locs := splitter.FindAllStringIndex(text, -1)
	if len(locs) == 0 {
		return nil
	}
	items := make([]string, 0, len(locs))
	for i, loc := range locs {
		start := loc[1]
		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		items = append(items, strings.TrimSpace(text[start:end]))
	}
	return items
}

func parseItem(item string, fields map[string]vgw.FieldPattern) (map[string]any, bool) {
	record := make(map[string]any, len(fields))
	for name, fp := range fields {
		raw, found := applyPattern(item, fp)
		if !found {
			if fp.Required {
				return nil, false
			}
			continue
		}
		raw = applyTransform(raw, fp.Transform)
		record[name] = coerce(raw, fp.Type)
	}
	return record, true
}

func applyPattern(item string, fp vgw.FieldPattern) (string, bool) {
	flags := ""
	if fp.Multiline {
		flags = "(?m)"
	}
	re, err := regexp.Compile(flags + fp.Regex)
	if err != nil {
		return "", false
	}

	if fp.Multiline {
		matches := re.FindAllString(item, -1)
		if len(matches) == 0 {
			return "", false
		}
		return strings.Join(matches, "\n"), true
	}

	m := re.FindStringSubmatch(item)
	if m == nil {
		return "", false
	}
	if len(m) > 1 {
		return m[1], true
	}
	return m[0], true
}

func applyTransform(s, transform string) string {
	switch transform {
	case "remove_commas":
		return strings.ReplaceAll(s, ",", "")
	case "lowercase":
		return strings.ToLower(s)
	case "uppercase":
		return strings.ToUpper(s)
	case "strip":
		return strings.TrimSpace(s)
	default:
		return s
	}
}

func coerce(s, typ string) any {
	switch typ {
	case "integer":
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0
		}
		return n
	case "number":
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0.0
		}
		return f
	case "boolean":
		b, err := strconv.ParseBool(strings.TrimSpace(s))
		if err != nil {
			return false
		}
		return b
	default:
		return s
	}
}

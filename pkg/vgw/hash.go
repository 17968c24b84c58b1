package vgw

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"
)

// canonicalize produces a value whose encoding/json serialization is
// deterministic: json.Marshal sorts map keys at every depth, and
// canonicalize recursively copies nested map[string]any and []any values.
// Any other value is returned unchanged.
func canonicalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = canonicalize(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = canonicalize(val)
		}
		return out
	default:
		return v
	}
}

// canonicalJSON serializes v deterministically: sorted keys, no
// insignificant whitespace.
func canonicalJSON(v any) ([]byte, error) {
	return json.Marshal(canonicalize(v))
}

// sha256Hex returns "sha256:<hex>" over the canonical JSON serialization
// of v.
func sha256Hex(v any) (string, error) {
	b, err := canonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}

// ComputeServerID computes the content-addressed identity of a
// ServerConfig, per spec: SHA-256 over a canonical serialization of
// (command, args, url, transport, sorted env, auth).
func ComputeServerID(s *ServerConfig) (string, error) {
	envKeys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		envKeys = append(envKeys, k)
	}
	sort.Strings(envKeys)

	sortedEnv := make([]map[string]string, 0, len(envKeys))
	for _, k := range envKeys {
		sortedEnv = append(sortedEnv, map[string]string{"name": k, "value": s.Env[k]})
	}

	payload := map[string]any{
		"command":   s.Command,
		"args":      s.Args,
		"url":       s.URL,
		"transport": string(s.Transport),
		"env":       sortedEnv,
		"auth":      string(s.Auth),
	}
	return sha256Hex(payload)
}

// BackendToolHash computes the canonical hash of a backend tool
// definition as advertised by tools/list: name, description, inputSchema,
// and whichever of displayName, outputSchema, annotations are present.
func BackendToolHash(tool map[string]any) (string, error) {
	payload := map[string]any{
		"name":        tool["name"],
		"description": tool["description"],
		"inputSchema": tool["inputSchema"],
	}
	for _, k := range []string{"displayName", "outputSchema", "annotations"} {
		if v, ok := tool[k]; ok {
			payload[k] = v
		}
	}
	return sha256Hex(payload)
}

// VirtualToolHash computes the canonical hash of a virtual tool's
// contract: name, description, inputSchema, originalName, and whichever
// of source, outputSchema (including source_field), defaults,
// textExtraction are present. Used to detect drift in the virtual
// contract itself, separate from the live backend hash.
func VirtualToolHash(t *VirtualTool, source string) (string, error) {
	payload := map[string]any{
		"name":         t.Name,
		"description":  t.Description,
		"inputSchema":  t.InputSchema,
		"originalName": t.OriginalName,
	}
	if source != "" {
		payload["source"] = source
	}
	if t.OutputSchema != nil {
		payload["outputSchema"] = t.OutputSchema
	}
	if t.Defaults != nil {
		payload["defaults"] = t.Defaults
	}
	if t.TextExtract != nil {
		payload["textExtraction"] = textExtractionToMap(t.TextExtract)
	}
	return sha256Hex(payload)
}

func textExtractionToMap(te *TextExtraction) map[string]any {
	fields := make(map[string]any, len(te.Fields))
	for name, fp := range te.Fields {
		fields[name] = map[string]any{
			"regex":     fp.Regex,
			"required":  fp.Required,
			"type":      fp.Type,
			"transform": fp.Transform,
			"multiline": fp.Multiline,
		}
	}
	return map[string]any{
		"parser":    te.Parser,
		"listField": te.ListField,
		"fields":    fields,
	}
}

// DriftDiff is a compact, human-readable description of what changed
// between the expected and the live backend tool definition.
type DriftDiff struct {
	DescriptionChanged bool
	AddedProperties    []string
	RemovedProperties  []string
	Detail             string
}

// diffPropertyKeys returns keys present in b but not in a, and vice versa.
func diffPropertyKeys(a, b map[string]any) (added, removed []string) {
	aKeys := schemaPropertyKeys(a)
	bKeys := schemaPropertyKeys(b)
	for k := range bKeys {
		if !aKeys[k] {
			added = append(added, k)
		}
	}
	for k := range aKeys {
		if !bKeys[k] {
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

func schemaPropertyKeys(schema map[string]any) map[string]bool {
	out := map[string]bool{}
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return out
	}
	for k := range props {
		out[k] = true
	}
	return out
}

// ComputeDrift builds a DriftDiff comparing the expected and the live
// backend tool's description and property key sets, per spec §4.4.
func ComputeDrift(expected, actual map[string]any) DriftDiff {
	expectedDesc, _ := expected["description"].(string)
	actualDesc, _ := actual["description"].(string)

	expectedSchema, _ := expected["inputSchema"].(map[string]any)
	actualSchema, _ := actual["inputSchema"].(map[string]any)

	added, removed := diffPropertyKeys(expectedSchema, actualSchema)

	d := DriftDiff{
		DescriptionChanged: expectedDesc != actualDesc,
		AddedProperties:    added,
		RemovedProperties:  removed,
	}
	d.Detail = fmt.Sprintf("description changed=%v (%s), diff=%s",
		d.DescriptionChanged,
		cmp.Diff(expectedDesc, actualDesc),
		cmp.Diff(expectedSchema, actualSchema))
	return d
}

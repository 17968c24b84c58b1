package registry

import (
	"encoding/json"
	"fmt"

	"github.com/stacklok/mcp-vgateway/pkg/gwerrors"
	"github.com/stacklok/mcp-vgateway/pkg/logger"
	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

// Result is the output of a registry load: an immutable set of
// deduplicated ServerConfigs (U) and the list of VirtualTools (V) that
// survived validation.
type Result struct {
	Servers map[string]*vgw.ServerConfig // keyed by content-addressed ID
	Tools   []*vgw.VirtualTool
}

// resolvedTool is the working state for one tool document as it is
// resolved; it is discarded once the VirtualTool is installed.
type resolvedTool struct {
	doc       ToolDoc
	rootDoc   ToolDoc
	rootName  string
	serverRef string
}

// Load parses doc into a Result. Per-tool validation violations (coverage,
// version pin mismatch in strict mode, dangling refs) drop that tool and
// are logged; the load proceeds. A source-chain cycle is a fatal load
// failure, matching "must terminate" in the spec.
func Load(doc *Document) (*Result, error) {
	namedServers := make(map[string]*vgw.ServerConfig, len(doc.Servers))
	for _, sd := range doc.Servers {
		cfg, err := serverConfigFromDoc(sd)
		if err != nil {
			return nil, gwerrors.NewLoadError(fmt.Sprintf("server %q", sd.Name), err)
		}
		id, err := vgw.ComputeServerID(cfg)
		if err != nil {
			return nil, gwerrors.NewLoadError(fmt.Sprintf("hashing server %q", sd.Name), err)
		}
		cfg.ID = id
		namedServers[sd.Name] = cfg
	}

	toolsByName := make(map[string]ToolDoc, len(doc.Tools))
	for _, td := range doc.Tools {
		toolsByName[td.Name] = td
	}

	used := make(map[string]*vgw.ServerConfig)
	var tools []*vgw.VirtualTool

	for _, td := range doc.Tools {
		vt, serverID, ok, err := resolveTool(td, toolsByName, namedServers, doc.Schemas)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if cfg, exists := namedServers[serverID]; exists {
			used[cfg.ID] = cfg
		}
		tools = append(tools, vt)
	}

	return &Result{Servers: used, Tools: tools}, nil
}

func serverConfigFromDoc(sd ServerDoc) (*vgw.ServerConfig, error) {
	cfg := &vgw.ServerConfig{
		Env:  sd.Env,
		Auth: vgw.AuthMode(sd.Auth),
	}
	if cfg.Auth == "" {
		cfg.Auth = vgw.AuthNone
	}

	if sd.Stdio != nil {
		cfg.Command = sd.Stdio.Command
		cfg.Args = sd.Stdio.Args
	}
	if sd.URL != "" {
		cfg.URL = sd.URL
	}
	if cfg.Command == "" && cfg.URL == "" {
		return nil, fmt.Errorf("server %q sets neither command nor url", sd.Name)
	}
	if cfg.Command != "" && cfg.URL != "" {
		return nil, fmt.Errorf("server %q sets both command and url", sd.Name)
	}

	cfg.Transport = vgw.Transport(sd.Transport)
	if cfg.Transport == "" {
		cfg.Transport = vgw.TransportSSE
	}
	return cfg, nil
}

// resolveTool resolves one tool document to a VirtualTool. ok=false means
// the tool failed validation and must be dropped (load proceeds); err
// non-nil means the load itself must fail (e.g. a source cycle).
func resolveTool(
	td ToolDoc,
	toolsByName map[string]ToolDoc,
	namedServers map[string]*vgw.ServerConfig,
	schemas map[string]map[string]any,
) (*vgw.VirtualTool, string, bool, error) {
	root, chain, err := resolveSourceChain(td, toolsByName)
	if err != nil {
		return nil, "", false, err
	}

	serverRef := root.Server
	if serverRef == "" {
		logger.Warnf("tool %q: no server resolved via source chain, dropping", td.Name)
		return nil, "", false, nil
	}
	serverCfg, ok := namedServers[serverRef]
	if !ok {
		logger.Warnf("tool %q: unknown server %q, dropping", td.Name, serverRef)
		return nil, "", false, nil
	}

	inputSchema, err := resolveInputSchema(td, root, schemas)
	if err != nil {
		logger.Warnf("tool %q: %v, dropping", td.Name, err)
		return nil, "", false, nil
	}
	if err := validateSchemaDocument(inputSchema); err != nil {
		logger.Warnf("tool %q: input schema invalid: %v, dropping", td.Name, err)
		return nil, "", false, nil
	}
	if err := validateSchemaDocument(td.OutputSchema); err != nil {
		logger.Warnf("tool %q: output schema invalid: %v, dropping", td.Name, err)
		return nil, "", false, nil
	}

	advertised := applyHiddenDefaults(inputSchema, td.Defaults)

	rootSchema, err := resolveInputSchema(root, root, schemas)
	if err != nil {
		rootSchema = inputSchema
	}
	if !coversRequired(rootSchema, advertised, td.Defaults) {
		logger.Warnf("tool %q: advertised schema + defaults do not cover root required fields, dropping", td.Name)
		return nil, "", false, nil
	}

	validationMode := vgw.ValidationMode(td.ValidationMode)
	if validationMode == "" {
		validationMode = vgw.ValidationWarn
	}
	status := vgw.StatusUnknown
	if td.SourceVersionPin != "" && root.Version != "" && td.SourceVersionPin != root.Version {
		if validationMode == vgw.ValidationStrict {
			logger.Warnf("tool %q: sourceVersionPin %q != root version %q, dropping (strict)",
				td.Name, td.SourceVersionPin, root.Version)
			return nil, "", false, nil
		}
		status = vgw.StatusDrift
		logger.Warnf("tool %q: sourceVersionPin %q != root version %q (warn)",
			td.Name, td.SourceVersionPin, root.Version)
	}

	originalName := determineOriginalName(td, chain, root)

	var textExtract *vgw.TextExtraction
	if td.TextExtraction != nil {
		textExtract = parseTextExtraction(td.TextExtraction)
	}

	vt := &vgw.VirtualTool{
		Name:               td.Name,
		Description:        td.Description,
		InputSchema:        advertised,
		ServerID:           serverCfg.ID,
		OriginalName:       originalName,
		Defaults:           td.Defaults,
		OutputSchema:       td.OutputSchema,
		TextExtract:        textExtract,
		Version:            td.Version,
		SourceVersionPin:   td.SourceVersionPin,
		ExpectedSchemaHash: td.ExpectedSchemaHash,
		ValidationMode:     validationMode,
		ValidationStatus:   status,
	}
	return vt, serverRef, true, nil
}

// resolveSourceChain walks td.Source references to the terminal (root)
// tool. Returns the root document and the ordered chain of docs visited
// (td first, root last). A cycle is a fatal load error.
func resolveSourceChain(td ToolDoc, toolsByName map[string]ToolDoc) (ToolDoc, []ToolDoc, error) {
	visited := map[string]bool{td.Name: true}
	chain := []ToolDoc{td}
	current := td
	for current.Source != "" {
		if visited[current.Source] {
			return ToolDoc{}, nil, gwerrors.NewLoadError(
				fmt.Sprintf("cycle detected in source chain starting at tool %q", td.Name), nil)
		}
		next, ok := toolsByName[current.Source]
		if !ok {
			return current, chain, nil // dangling ref: treat current as root, caller handles missing server
		}
		visited[current.Source] = true
		chain = append(chain, next)
		current = next
	}
	return current, chain, nil
}

func resolveInputSchema(td ToolDoc, root ToolDoc, schemas map[string]map[string]any) (map[string]any, error) {
	schema := td.InputSchema
	if schema == nil && td.Source != "" {
		schema = root.InputSchema
	}
	if schema == nil {
		return map[string]any{"type": "object", "properties": map[string]any{}}, nil
	}
	return resolveRefs(schema, schemas)
}

// resolveRefs resolves a single level of "$ref" pointing at
// "#/schemas/<name>". The resolution is idempotent: a resolved schema is
// not itself re-scanned for further $refs.
func resolveRefs(schema map[string]any, schemas map[string]map[string]any) (map[string]any, error) {
	cloned := deepCopyMap(schema)
	if ref, ok := cloned["$ref"].(string); ok {
		const prefix = "#/schemas/"
		if len(ref) > len(prefix) && ref[:len(prefix)] == prefix {
			name := ref[len(prefix):]
			target, ok := schemas[name]
			if !ok {
				return nil, fmt.Errorf("dangling $ref %q", ref)
			}
			return deepCopyMap(target), nil
		}
		return nil, fmt.Errorf("unsupported $ref %q", ref)
	}
	return cloned, nil
}

// applyHiddenDefaults deep-clones schema and removes every defaulted
// field from both properties and required.
func applyHiddenDefaults(schema map[string]any, defaults map[string]any) map[string]any {
	cloned := deepCopyMap(schema)
	if len(defaults) == 0 {
		return cloned
	}

	if props, ok := cloned["properties"].(map[string]any); ok {
		for field := range defaults {
			delete(props, field)
		}
	}
	if req, ok := cloned["required"].([]any); ok {
		filtered := make([]any, 0, len(req))
		for _, r := range req {
			name, _ := r.(string)
			if _, hidden := defaults[name]; hidden {
				continue
			}
			filtered = append(filtered, r)
		}
		cloned["required"] = filtered
	}
	return cloned
}

// coversRequired checks invariant 4: required(root) ⊆ properties(advertised) ∪ defaults.keys().
func coversRequired(rootSchema, advertised map[string]any, defaults map[string]any) bool {
	required, _ := rootSchema["required"].([]any)
	if len(required) == 0 {
		return true
	}
	props, _ := advertised["properties"].(map[string]any)
	for _, r := range required {
		name, _ := r.(string)
		_, inProps := props[name]
		_, inDefaults := defaults[name]
		if !inProps && !inDefaults {
			return false
		}
	}
	return true
}

// determineOriginalName implements spec step f: explicit value on td,
// else the first explicit originalName found walking the source chain
// toward the root, else the root tool's own name.
func determineOriginalName(td ToolDoc, chain []ToolDoc, root ToolDoc) string {
	if td.OriginalName != "" {
		return td.OriginalName
	}
	for _, ancestor := range chain[1:] {
		if ancestor.OriginalName != "" {
			return ancestor.OriginalName
		}
	}
	if root.Name != "" {
		return root.Name
	}
	return td.Name
}

func parseTextExtraction(m map[string]any) *vgw.TextExtraction {
	te := &vgw.TextExtraction{}
	te.Parser, _ = m["parser"].(string)
	te.ListField, _ = m["listField"].(string)
	fieldsRaw, _ := m["fields"].(map[string]any)
	if len(fieldsRaw) > 0 {
		te.Fields = make(map[string]vgw.FieldPattern, len(fieldsRaw))
		for name, v := range fieldsRaw {
			fm, ok := v.(map[string]any)
			if !ok {
				continue
			}
			fp := vgw.FieldPattern{}
			fp.Regex, _ = fm["regex"].(string)
			fp.Required, _ = fm["required"].(bool)
			fp.Type, _ = fm["type"].(string)
			fp.Transform, _ = fm["transform"].(string)
			fp.Multiline, _ = fm["multiline"].(bool)
			te.Fields[name] = fp
		}
	}
	return te
}

func deepCopyMap(m map[string]any) map[string]any {
	b, err := json.Marshal(m)
	if err != nil {
		return map[string]any{}
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]any{}
	}
	return out
}

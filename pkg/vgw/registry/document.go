// Package registry implements the registry loader (C5): parsing the
// declarative registry document into an immutable set of ServerConfigs
// and a list of VirtualTools.
package registry

// Document is the raw, as-parsed registry file (see spec §6).
type Document struct {
	Schemas map[string]map[string]any `json:"schemas"`
	Servers []ServerDoc                `json:"servers"`
	Tools   []ToolDoc                  `json:"tools"`
}

// ServerDoc is one entry of the top-level "servers" array.
type ServerDoc struct {
	Name      string            `json:"name"`
	Stdio     *StdioDoc         `json:"stdio,omitempty"`
	URL       string            `json:"url,omitempty"`
	Transport string            `json:"transport,omitempty"`
	Env       map[string]string `json:"env,omitempty"`
	Auth      string            `json:"auth,omitempty"`
}

// StdioDoc configures a subprocess-launched backend.
type StdioDoc struct {
	Command string   `json:"command"`
	Args    []string `json:"args,omitempty"`
}

// ToolDoc is one entry of the top-level "tools" array.
type ToolDoc struct {
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	Server             string         `json:"server,omitempty"`
	Source             string         `json:"source,omitempty"`
	InputSchema        map[string]any `json:"inputSchema,omitempty"`
	Defaults           map[string]any `json:"defaults,omitempty"`
	OutputSchema       map[string]any `json:"outputSchema,omitempty"`
	TextExtraction     map[string]any `json:"textExtraction,omitempty"`
	OriginalName       string         `json:"originalName,omitempty"`
	Version            string         `json:"version,omitempty"`
	SourceVersionPin   string         `json:"sourceVersionPin,omitempty"`
	ValidationMode     string         `json:"validationMode,omitempty"`
	ExpectedSchemaHash string         `json:"expectedSchemaHash,omitempty"`
}

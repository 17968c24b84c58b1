// Package vgw holds the core data model for the gateway: ServerConfig,
// VirtualTool, and the canonical hashing used for content-addressed
// identity and drift detection.
package vgw

// Transport identifies how a gateway reaches a remote backend.
type Transport string

// Recognized transports for remote backends.
const (
	TransportSSE            Transport = "sse"
	TransportStreamableHTTP Transport = "streamable-http"
)

// AuthMode identifies how a backend session authenticates.
type AuthMode string

// Recognized auth modes.
const (
	AuthNone  AuthMode = "none"
	AuthOAuth AuthMode = "oauth"
)

// ValidationMode controls how drift between a pinned expectation and a
// live backend is treated.
type ValidationMode string

// Recognized validation modes.
const (
	ValidationStrict ValidationMode = "strict"
	ValidationWarn   ValidationMode = "warn"
	ValidationSkip   ValidationMode = "skip"
)

// ValidationStatus is the live result of comparing a tool's expected hash
// against what a connected backend actually advertises.
type ValidationStatus string

// Recognized validation statuses.
const (
	StatusUnknown ValidationStatus = "unknown"
	StatusValid   ValidationStatus = "valid"
	StatusDrift   ValidationStatus = "drift"
	StatusMissing ValidationStatus = "missing"
	StatusError   ValidationStatus = "error"
)

// ServerConfig describes one backend MCP server. It is immutable and
// content-addressable: two configs with identical behavior-affecting
// fields share an ID (see ComputeServerID).
type ServerConfig struct {
	// ID is the content hash of the behavior-affecting fields below. It is
	// populated by ComputeServerID and used to dedupe sessions.
	ID string

	Command   string
	Args      []string
	URL       string
	Transport Transport
	Env       map[string]string
	Auth      AuthMode
}

// IsStdio reports whether this config launches a subprocess rather than
// dialing a remote URL. Exactly one of Command/URL is set (enforced by
// the registry loader).
func (s *ServerConfig) IsStdio() bool {
	return s.Command != ""
}

// Clone returns a deep copy of s.
func (s *ServerConfig) Clone() *ServerConfig {
	if s == nil {
		return nil
	}
	out := *s
	out.Args = append([]string(nil), s.Args...)
	if s.Env != nil {
		out.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			out.Env[k] = v
		}
	}
	return &out
}

// TextExtraction configures the C3 markdown-list fallback extractor for a
// VirtualTool's output.
type TextExtraction struct {
	Parser     string // "markdown_numbered_list" | "markdown_bullet_list"
	ListField  string // wraps the extracted records under this key, if set
	Fields     map[string]FieldPattern
}

// FieldPattern describes how to pull one field out of a single list item.
type FieldPattern struct {
	Regex     string
	Required  bool
	Type      string // string|integer|number|boolean
	Transform string // remove_commas|lowercase|uppercase|strip
	Multiline bool
}

// VirtualTool is the outward-facing, declarative transformation of one or
// more backend tools. Everything except the validation fields is fixed at
// registry-load time.
type VirtualTool struct {
	Name         string
	Description  string
	InputSchema  map[string]any
	ServerID     string
	OriginalName string
	Defaults     map[string]any
	OutputSchema map[string]any
	TextExtract  *TextExtraction

	Version           string
	SourceVersionPin  string
	ExpectedSchemaHash string
	ComputedSchemaHash string
	ValidationMode     ValidationMode
	ValidationStatus   ValidationStatus
	ValidationMessage  string
}

// CallName returns the name to invoke on the backend: OriginalName when
// set, else Name.
func (t *VirtualTool) CallName() string {
	if t.OriginalName != "" {
		return t.OriginalName
	}
	return t.Name
}

// Disabled reports whether the tool must refuse calls: strict-mode
// validation landed on drift/missing/error.
func (t *VirtualTool) Disabled() bool {
	if t.ValidationMode != ValidationStrict {
		return false
	}
	switch t.ValidationStatus {
	case StatusDrift, StatusMissing, StatusError:
		return true
	default:
		return false
	}
}

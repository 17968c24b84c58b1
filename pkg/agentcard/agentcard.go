// Package agentcard implements the gateway's optional AgentCard registry:
// a file-backed store of (name, version) documents modelled after the A2A
// AgentCard, extended with a creation timestamp, lineage, runtime, and
// evaluation descriptors.
package agentcard

import "time"

// Dependency names one upstream component a card's lineage pins.
type Dependency struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// Lineage records what an agent was built from.
type Lineage struct {
	Dependencies []Dependency `json:"dependencies,omitempty"`
}

// LLMConfig describes the model backing an agent's runtime.
type LLMConfig struct {
	Provider string         `json:"provider"`
	Model    string         `json:"model"`
	Config   map[string]any `json:"config,omitempty"`
}

// Environment describes the execution environment an agent expects.
type Environment struct {
	ContainerImage string   `json:"container_image,omitempty"`
	EnvVars        []string `json:"env_vars,omitempty"`
}

// Runtime bundles the LLM and environment descriptors for a card.
type Runtime struct {
	LLM         *LLMConfig   `json:"llm,omitempty"`
	Environment *Environment `json:"environment,omitempty"`
}

// EvalPack names one evaluation harness run against an agent.
type EvalPack struct {
	Name         string `json:"name"`
	Runner       string `json:"runner"`
	DataSource   string `json:"data_source"`
	RunnerSource string `json:"runner_source,omitempty"`
}

// Evaluation records the evaluation packs associated with a card.
type Evaluation struct {
	EvalPacks []EvalPack `json:"eval_packs,omitempty"`
}

// Capabilities mirrors the A2A AgentCard capabilities block. Kept as a
// free-form map since the gateway only stores and serves cards; it never
// interprets capability flags.
type Capabilities map[string]any

// Skill mirrors one A2A AgentCard skill entry.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Card is the extended AgentCard document: the A2A fields plus the
// gateway's lineage/runtime/evaluation extensions.
type Card struct {
	Name               string       `json:"name"`
	Description        string       `json:"description,omitempty"`
	Version            string       `json:"version"`
	URL                string       `json:"url,omitempty"`
	Capabilities       Capabilities `json:"capabilities,omitempty"`
	Skills             []Skill      `json:"skills,omitempty"`
	DefaultInputModes  []string     `json:"defaultInputModes,omitempty"`
	DefaultOutputModes []string     `json:"defaultOutputModes,omitempty"`

	CreatedAt  time.Time   `json:"created_at"`
	Lineage    *Lineage    `json:"lineage,omitempty"`
	Runtime    *Runtime    `json:"runtime,omitempty"`
	Evaluation *Evaluation `json:"evaluation,omitempty"`
}

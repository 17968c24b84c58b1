// Package dispatcher implements the gateway dispatcher (C7): list_tools
// and call_tool over the virtual catalog, argument defaulting and type
// coercion, and orchestration of the C1-C3 output transformation
// pipeline on backend responses.
package dispatcher

import (
	"context"
	"fmt"

	"dario.cat/mergo"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stacklok/mcp-vgateway/pkg/gwerrors"
	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

// BackendSession is the minimal session surface the dispatcher needs to
// invoke a backend tool. backend.Session satisfies this.
type BackendSession interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// SessionSource resolves a server ID to its live backend session, mirroring
// backend.Manager.Get so the dispatcher can be tested without a real
// Manager.
type SessionSource interface {
	Get(serverID string) (sess BackendSession, ok bool, pending bool)
}

// ToolDescriptor is the outward triple advertised by list_tools.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// Dispatcher implements list_tools/call_tool over a loaded registry.
type Dispatcher struct {
	tools   map[string]*vgw.VirtualTool
	order   []string
	sources SessionSource
}

// New constructs a Dispatcher over the given VirtualTool list, in
// declared order.
func New(tools []*vgw.VirtualTool, sources SessionSource) *Dispatcher {
	d := &Dispatcher{
		tools:   make(map[string]*vgw.VirtualTool, len(tools)),
		sources: sources,
	}
	for _, t := range tools {
		d.tools[t.Name] = t
		d.order = append(d.order, t.Name)
	}
	return d
}

// ListTools returns every VirtualTool (including strict-disabled ones,
// so the agent has stable visibility) with its outward-facing input
// schema, defaults and source_field annotations already stripped at load
// time.
func (d *Dispatcher) ListTools() []ToolDescriptor {
	out := make([]ToolDescriptor, 0, len(d.order))
	for _, name := range d.order {
		t := d.tools[name]
		out = append(out, ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.InputSchema,
		})
	}
	return out
}

// CallTool implements call_tool per spec §4.7.
func (d *Dispatcher) CallTool(ctx context.Context, name string, args map[string]any) (any, error) {
	tool, ok := d.tools[name]
	if !ok {
		return nil, gwerrors.NewUnknownToolError(fmt.Sprintf("no such tool %q", name), nil)
	}
	if tool.Disabled() {
		return nil, gwerrors.NewDisabledToolError(
			fmt.Sprintf("tool %q is disabled: %s", name, tool.ValidationMessage), nil)
	}

	sess, active, pending := d.sources.Get(tool.ServerID)
	if pending {
		return nil, gwerrors.NewAuthRequiredError(
			fmt.Sprintf("backend for tool %q requires OAuth attachment", name), nil)
	}
	if !active {
		return nil, gwerrors.NewBackendUnavailableError(
			fmt.Sprintf("backend for tool %q is unavailable", name), nil)
	}

	finalArgs, err := mergeArgs(tool.Defaults, args)
	if err != nil {
		return nil, gwerrors.NewBadInputError(fmt.Sprintf("failed to merge arguments: %v", err), err)
	}
	coerceArgs(finalArgs, tool.InputSchema)

	result, err := sess.CallTool(ctx, tool.CallName(), finalArgs)
	if err != nil {
		return nil, gwerrors.NewBackendUnavailableError(fmt.Sprintf("backend call failed: %v", err), err)
	}
	if result.IsError {
		return nil, gwerrors.NewBackendError(resultText(result), nil)
	}

	return transform(tool, result), nil
}

// mergeArgs implements final_args = defaults ⊕ args: user-supplied keys
// always win; defaulted keys fill only what's absent. Defaults are hidden
// from the advertised schema, so a caller normally has no name to supply
// for them; a caller that passes a defaulted key anyway overrides it.
func mergeArgs(defaults, args map[string]any) (map[string]any, error) {
	final := map[string]any{}
	for k, v := range defaults {
		final[k] = v
	}
	if err := mergo.Merge(&final, args, mergo.WithOverride); err != nil {
		return nil, err
	}
	return final, nil
}

// coerceArgs parses string-typed values into numbers for properties
// declared integer/number in schema, silently leaving the original string
// in place if it doesn't parse (the backend will reject it). Never
// mutates keys not declared in the schema.
func coerceArgs(args map[string]any, schema map[string]any) {
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		return
	}
	for key, raw := range props {
		propSchema, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		declaredType, _ := propSchema["type"].(string)
		if declaredType != "integer" && declaredType != "number" {
			continue
		}
		val, present := args[key]
		if !present {
			continue
		}
		s, isString := val.(string)
		if !isString {
			continue
		}
		if coerced, ok := coerceNumericString(s, declaredType); ok {
			args[key] = coerced
		}
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			return tc.Text
		}
	}
	return "backend error"
}

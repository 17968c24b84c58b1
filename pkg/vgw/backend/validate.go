package backend

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stacklok/mcp-vgateway/pkg/logger"
	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

// ToolLister is the minimal session surface ValidateTools needs; Session
// satisfies it, and tests supply a fake.
type ToolLister interface {
	ListTools(ctx context.Context) (*mcp.ListToolsResult, error)
}

// ValidateAll groups tools by backend and runs ValidateTools once per
// active session, so a multi-tool backend only pays for one tools/list
// round trip. Tools bound to a pending (OAuth) or unreachable backend are
// marked missing rather than silently skipped.
func (m *Manager) ValidateAll(ctx context.Context, tools []*vgw.VirtualTool) {
	byServer := make(map[string][]*vgw.VirtualTool, len(tools))
	for _, t := range tools {
		byServer[t.ServerID] = append(byServer[t.ServerID], t)
	}

	for serverID, expected := range byServer {
		sess, ok, pending := m.Get(serverID)
		if !ok {
			msg := "backend unavailable"
			if pending {
				msg = "backend awaiting OAuth attachment"
			}
			for _, t := range expected {
				handleValidationFailure(t, vgw.StatusMissing, msg)
			}
			continue
		}
		ValidateTools(ctx, sess, expected)
	}
}

// ValidateTools implements validate_backend_tools (C4): one tools/list
// call per backend, then for each expected VirtualTool bound to that
// backend, compares the live hash against ExpectedSchemaHash and updates
// ValidationStatus/ValidationMessage in place.
func ValidateTools(ctx context.Context, sess ToolLister, expected []*vgw.VirtualTool) {
	result, err := sess.ListTools(ctx)
	if err != nil {
		for _, t := range expected {
			handleValidationFailure(t, vgw.StatusError, fmt.Sprintf("list_tools failed: %v", err))
		}
		return
	}

	byName := make(map[string]map[string]any, len(result.Tools))
	for _, tool := range result.Tools {
		m := map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": inputSchemaToMap(tool.InputSchema),
		}
		byName[tool.Name] = m
	}

	for _, t := range expected {
		if t.ValidationMode == vgw.ValidationSkip {
			handleValidationFailure(t, vgw.StatusValid, "")
			continue
		}

		backendName := t.CallName()
		actual, ok := byName[backendName]
		if !ok {
			handleValidationFailure(t, vgw.StatusMissing, fmt.Sprintf("backend tool %q not found", backendName))
			continue
		}

		actualHash, err := vgw.BackendToolHash(actual)
		if err != nil {
			handleValidationFailure(t, vgw.StatusError, fmt.Sprintf("hashing failed: %v", err))
			continue
		}
		t.ComputedSchemaHash = actualHash

		if t.ExpectedSchemaHash == "" || t.ExpectedSchemaHash == actualHash {
			handleValidationFailure(t, vgw.StatusValid, "")
			continue
		}

		expectedTool := map[string]any{
			"name":        t.Name,
			"description": t.Description,
			"inputSchema": t.InputSchema,
		}
		diff := vgw.ComputeDrift(expectedTool, actual)
		handleValidationFailure(t, vgw.StatusDrift, fmt.Sprintf("schema drift: %s", diff.Detail))
	}
}

// inputSchemaToMap converts mcp-go's typed ToolInputSchema into the plain
// map[string]any shape the hashing and coverage-validation routines work
// with throughout this package.
func inputSchemaToMap(schema mcp.ToolInputSchema) map[string]any {
	required := make([]any, len(schema.Required))
	for i, r := range schema.Required {
		required[i] = r
	}
	return map[string]any{
		"type":       schema.Type,
		"properties": schema.Properties,
		"required":   required,
	}
}

// handleValidationFailure updates t's validation fields and, in strict
// mode, logs that the tool is now disabled for calls.
func handleValidationFailure(t *vgw.VirtualTool, status vgw.ValidationStatus, message string) {
	t.ValidationStatus = status
	t.ValidationMessage = message

	if t.Disabled() {
		logger.Warnf("tool %q disabled: %s", t.Name, message)
	} else if status != vgw.StatusValid {
		logger.Warnf("tool %q validation: %s", t.Name, message)
	}
}

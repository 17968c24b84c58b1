package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

type fakeToolLister struct {
	result *mcp.ListToolsResult
	err    error
}

func (f *fakeToolLister) ListTools(context.Context) (*mcp.ListToolsResult, error) {
	return f.result, f.err
}

func backendTool(name, description string) mcp.Tool {
	return mcp.Tool{
		Name:        name,
		Description: description,
		InputSchema: mcp.ToolInputSchema{Type: "object"},
	}
}

func TestValidateTools_MarksValidWhenHashMatches(t *testing.T) {
	tool := backendTool("get_current_time", "time")
	lister := &fakeToolLister{result: &mcp.ListToolsResult{Tools: []mcp.Tool{tool}}}
	vt := &vgw.VirtualTool{Name: "t", OriginalName: "get_current_time", ValidationMode: vgw.ValidationStrict}

	full := map[string]any{
		"name":        tool.Name,
		"description": tool.Description,
		"inputSchema": inputSchemaToMap(tool.InputSchema),
	}
	expectedHash, err := vgw.BackendToolHash(full)
	require.NoError(t, err)
	vt.ExpectedSchemaHash = expectedHash

	ValidateTools(context.Background(), lister, []*vgw.VirtualTool{vt})
	assert.Equal(t, vgw.StatusValid, vt.ValidationStatus)
}

func TestValidateTools_MarksDriftOnMismatch(t *testing.T) {
	lister := &fakeToolLister{result: &mcp.ListToolsResult{Tools: []mcp.Tool{backendTool("get_current_time", "changed description")}}}
	vt := &vgw.VirtualTool{
		Name:               "t",
		OriginalName:       "get_current_time",
		ValidationMode:     vgw.ValidationStrict,
		ExpectedSchemaHash: "sha256:deadbeef",
	}

	ValidateTools(context.Background(), lister, []*vgw.VirtualTool{vt})
	assert.Equal(t, vgw.StatusDrift, vt.ValidationStatus)
	assert.True(t, vt.Disabled())
}

func TestValidateTools_WarnModeDriftStaysCallable(t *testing.T) {
	lister := &fakeToolLister{result: &mcp.ListToolsResult{Tools: []mcp.Tool{backendTool("get_current_time", "changed")}}}
	vt := &vgw.VirtualTool{
		Name:               "t",
		OriginalName:       "get_current_time",
		ValidationMode:     vgw.ValidationWarn,
		ExpectedSchemaHash: "sha256:deadbeef",
	}

	ValidateTools(context.Background(), lister, []*vgw.VirtualTool{vt})
	assert.Equal(t, vgw.StatusDrift, vt.ValidationStatus)
	assert.False(t, vt.Disabled())
}

func TestValidateTools_MissingBackendTool(t *testing.T) {
	lister := &fakeToolLister{result: &mcp.ListToolsResult{Tools: []mcp.Tool{}}}
	vt := &vgw.VirtualTool{Name: "t", OriginalName: "nope", ValidationMode: vgw.ValidationStrict}

	ValidateTools(context.Background(), lister, []*vgw.VirtualTool{vt})
	assert.Equal(t, vgw.StatusMissing, vt.ValidationStatus)
	assert.True(t, vt.Disabled())
}

func TestValidateTools_ListToolsErrorMarksAllError(t *testing.T) {
	lister := &fakeToolLister{err: errors.New("connection reset")}
	vt1 := &vgw.VirtualTool{Name: "a", ValidationMode: vgw.ValidationStrict}
	vt2 := &vgw.VirtualTool{Name: "b", ValidationMode: vgw.ValidationStrict}

	ValidateTools(context.Background(), lister, []*vgw.VirtualTool{vt1, vt2})
	assert.Equal(t, vgw.StatusError, vt1.ValidationStatus)
	assert.Equal(t, vgw.StatusError, vt2.ValidationStatus)
}

func TestValidateTools_SkipModeAlwaysValid(t *testing.T) {
	lister := &fakeToolLister{result: &mcp.ListToolsResult{Tools: []mcp.Tool{}}}
	vt := &vgw.VirtualTool{Name: "t", ValidationMode: vgw.ValidationSkip}

	ValidateTools(context.Background(), lister, []*vgw.VirtualTool{vt})
	assert.Equal(t, vgw.StatusValid, vt.ValidationStatus)
}

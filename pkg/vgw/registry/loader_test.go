package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

func TestLoad_DefaultsHiddenFromSchema(t *testing.T) {
	doc := &Document{
		Servers: []ServerDoc{
			{Name: "weather-backend", Stdio: &StdioDoc{Command: "uvx", Args: []string{"mcp-weather"}}},
		},
		Tools: []ToolDoc{
			{
				Name:   "weather",
				Server: "weather-backend",
				InputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"city":       map[string]any{"type": "string"},
						"api_key":    map[string]any{"type": "string"},
						"station_id": map[string]any{"type": "string"},
					},
					"required": []any{"city", "api_key", "station_id"},
				},
				Defaults: map[string]any{"api_key": "K", "station_id": "S"},
			},
		},
	}

	result, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)

	tool := result.Tools[0]
	props := tool.InputSchema["properties"].(map[string]any)
	_, hasAPIKey := props["api_key"]
	_, hasStation := props["station_id"]
	assert.False(t, hasAPIKey)
	assert.False(t, hasStation)
	_, hasCity := props["city"]
	assert.True(t, hasCity)
}

func TestLoad_CoverageViolationDropsTool(t *testing.T) {
	doc := &Document{
		Servers: []ServerDoc{{Name: "s", Stdio: &StdioDoc{Command: "cmd"}}},
		Tools: []ToolDoc{
			{
				Name:   "narrow",
				Server: "s",
				InputSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"a": map[string]any{"type": "string"}},
					"required":   []any{"a", "b"},
				},
			},
		},
	}
	result, err := Load(doc)
	require.NoError(t, err)
	assert.Empty(t, result.Tools)
}

func TestLoad_SourceChainInheritsSchema(t *testing.T) {
	doc := &Document{
		Servers: []ServerDoc{{Name: "time-backend", Stdio: &StdioDoc{Command: "uvx", Args: []string{"mcp-server-time"}}}},
		Tools: []ToolDoc{
			{
				Name:   "get_current_time",
				Server: "time-backend",
				InputSchema: map[string]any{
					"type":       "object",
					"properties": map[string]any{"timezone": map[string]any{"type": "string"}},
				},
			},
			{
				Name:   "get_time_structured",
				Source: "get_current_time",
				OutputSchema: map[string]any{
					"properties": map[string]any{
						"day_of_week": map[string]any{"source_field": "$.day_of_week"},
					},
				},
			},
		},
	}

	result, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, result.Tools, 2)

	var structured *vgw.VirtualTool
	for _, tl := range result.Tools {
		if tl.Name == "get_time_structured" {
			structured = tl
		}
	}
	require.NotNil(t, structured)
	assert.Equal(t, "get_current_time", structured.CallName())
	props := structured.InputSchema["properties"].(map[string]any)
	_, hasTimezone := props["timezone"]
	assert.True(t, hasTimezone)
}

func TestLoad_CycleIsFatal(t *testing.T) {
	doc := &Document{
		Tools: []ToolDoc{
			{Name: "a", Source: "b"},
			{Name: "b", Source: "a"},
		},
	}
	_, err := Load(doc)
	require.Error(t, err)
}

func TestLoad_DedupesServersByContentHash(t *testing.T) {
	doc := &Document{
		Servers: []ServerDoc{
			{Name: "s1", Stdio: &StdioDoc{Command: "uvx", Args: []string{"x"}}},
			{Name: "s2", Stdio: &StdioDoc{Command: "uvx", Args: []string{"x"}}},
		},
		Tools: []ToolDoc{
			{Name: "t1", Server: "s1"},
			{Name: "t2", Server: "s2"},
		},
	}
	result, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, result.Tools, 2)
	assert.Equal(t, result.Tools[0].ServerID, result.Tools[1].ServerID)
	assert.Len(t, result.Servers, 1)
}

func TestLoad_MalformedInputSchemaDropsTool(t *testing.T) {
	doc := &Document{
		Servers: []ServerDoc{{Name: "s", Stdio: &StdioDoc{Command: "cmd"}}},
		Tools: []ToolDoc{
			{
				Name:        "broken",
				Server:      "s",
				InputSchema: map[string]any{"type": 123},
			},
		},
	}
	result, err := Load(doc)
	require.NoError(t, err)
	assert.Empty(t, result.Tools)
}

func TestLoad_RefResolvesNamedSchema(t *testing.T) {
	doc := &Document{
		Schemas: map[string]map[string]any{
			"city_schema": {
				"type":       "object",
				"properties": map[string]any{"city": map[string]any{"type": "string"}},
			},
		},
		Servers: []ServerDoc{{Name: "s", Stdio: &StdioDoc{Command: "cmd"}}},
		Tools: []ToolDoc{
			{
				Name:        "t",
				Server:      "s",
				InputSchema: map[string]any{"$ref": "#/schemas/city_schema"},
			},
		},
	}
	result, err := Load(doc)
	require.NoError(t, err)
	require.Len(t, result.Tools, 1)
	props := result.Tools[0].InputSchema["properties"].(map[string]any)
	_, ok := props["city"]
	assert.True(t, ok)
}

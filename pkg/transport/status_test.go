package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/mcp-vgateway/pkg/httperr"
	"github.com/stacklok/mcp-vgateway/pkg/vgw"
)

func TestStatusRoutes_ReportsToolsAndActivity(t *testing.T) {
	activity := newActivityTracker()
	routes := &statusRoutes{
		activity: activity,
		tools: []*vgw.VirtualTool{
			{Name: "t1", OriginalName: "real_t1", ValidationStatus: vgw.StatusValid},
			{
				Name:             "t2",
				ValidationMode:   vgw.ValidationStrict,
				ValidationStatus: vgw.StatusMissing,
			},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	routes.getStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tools, 2)
	assert.Equal(t, "real_t1", resp.Tools[0].OriginalName)
	assert.False(t, resp.Tools[0].Disabled)
	assert.True(t, resp.Tools[1].Disabled)
	assert.NotEmpty(t, resp.APILastActivity)
}

func TestStatusRoutes_StripsSourceFieldsFromOutputSchema(t *testing.T) {
	routes := &statusRoutes{
		activity: newActivityTracker(),
		tools: []*vgw.VirtualTool{
			{
				Name: "t1",
				OutputSchema: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"time": map[string]any{"source_field": "$.current_time", "type": "string"},
					},
				},
			},
			{Name: "t2"},
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rec := httptest.NewRecorder()
	routes.getStatus(rec, req)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Tools, 2)

	props, ok := resp.Tools[0].OutputSchema["properties"].(map[string]any)
	require.True(t, ok)
	timeProp, ok := props["time"].(map[string]any)
	require.True(t, ok)
	_, hasSourceField := timeProp["source_field"]
	assert.False(t, hasSourceField)
	assert.Equal(t, "string", timeProp["type"])

	assert.Nil(t, resp.Tools[1].OutputSchema)
}

func TestOAuthRoutes_Connect(t *testing.T) {
	var gotURL, gotToken string
	routes := &oauthRoutes{
		attach: func(_ context.Context, serverURL, token string) (bool, error) {
			gotURL, gotToken = serverURL, token
			return false, nil
		},
	}

	body := `{"server_url": "https://example.com/mcp", "token": "abc123"}`
	req := httptest.NewRequest(http.MethodPost, "/oauth/connect", strings.NewReader(body))
	rec := httptest.NewRecorder()

	err := routes.connect(rec, req)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/mcp", gotURL)
	assert.Equal(t, "abc123", gotToken)

	var resp oauthConnectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "connected", resp.Status)
}

func TestOAuthRoutes_ConnectIdempotent(t *testing.T) {
	routes := &oauthRoutes{
		attach: func(context.Context, string, string) (bool, error) { return true, nil },
	}

	body := `{"server_url": "https://example.com/mcp", "token": "abc123"}`
	req := httptest.NewRequest(http.MethodPost, "/oauth/connect", strings.NewReader(body))
	rec := httptest.NewRecorder()

	require.NoError(t, routes.connect(rec, req))

	var resp oauthConnectResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "already_connected", resp.Status)
}

func TestOAuthRoutes_MissingFieldsRejected(t *testing.T) {
	routes := &oauthRoutes{attach: func(context.Context, string, string) (bool, error) { return false, nil }}

	req := httptest.NewRequest(http.MethodPost, "/oauth/connect", strings.NewReader(`{"server_url": ""}`))
	rec := httptest.NewRecorder()

	err := routes.connect(rec, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperr.Code(err))
}

func TestOAuthRoutes_InvalidJSONRejectedAs400(t *testing.T) {
	routes := &oauthRoutes{attach: func(context.Context, string, string) (bool, error) { return false, nil }}

	req := httptest.NewRequest(http.MethodPost, "/oauth/connect", strings.NewReader(`not json`))
	rec := httptest.NewRecorder()

	err := routes.connect(rec, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, httperr.Code(err))
}

func TestOAuthRoutes_AttachFailureMapsTo500(t *testing.T) {
	routes := &oauthRoutes{
		attach: func(context.Context, string, string) (bool, error) {
			return false, errors.New("no pending backend for this url")
		},
	}

	body := `{"server_url": "https://example.com/mcp", "token": "abc123"}`
	req := httptest.NewRequest(http.MethodPost, "/oauth/connect", strings.NewReader(body))
	rec := httptest.NewRecorder()

	err := routes.connect(rec, req)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, httperr.Code(err))
}

func TestSchemaToToolInputSchema(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"city": map[string]any{"type": "string"},
		},
		"required": []any{"city"},
	}

	out := schemaToToolInputSchema(schema)
	assert.Equal(t, "object", out.Type)
	assert.Contains(t, out.Properties, "city")
	assert.Equal(t, []string{"city"}, out.Required)
}

func TestSchemaToToolInputSchema_Nil(t *testing.T) {
	out := schemaToToolInputSchema(nil)
	assert.Equal(t, "object", out.Type)
	assert.Empty(t, out.Properties)
}

func TestActivityTracker_TouchAdvances(t *testing.T) {
	tr := newActivityTracker()
	first := tr.last()
	tr.touch()
	assert.False(t, tr.last().Before(first))
}

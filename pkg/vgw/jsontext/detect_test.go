package jsontext

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_WholeStringParse(t *testing.T) {
	got := Detect(`{"timezone":"America/Los_Angeles","day_of_week":"Tuesday"}`)
	assert.Equal(t, map[string]any{"timezone": "America/Los_Angeles", "day_of_week": "Tuesday"}, got)
}

func TestDetect_RoundTrip(t *testing.T) {
	v := map[string]any{"a": float64(1), "b": "two"}
	got := Detect(`{"a":1,"b":"two"}`)
	assert.Equal(t, v, got)
}

func TestDetect_LineScanBalancedExtraction(t *testing.T) {
	text := "Here is the data:\n{\"a\": 1, \"nested\": {\"b\": 2}} trailing text ignored"
	got := Detect(text)
	assert.Equal(t, map[string]any{"a": float64(1), "nested": map[string]any{"b": float64(2)}}, got)
}

func TestDetect_CommonPrefixPattern(t *testing.T) {
	text := "Response: {\"status\":\"ok\"}"
	got := Detect(text)
	assert.Equal(t, map[string]any{"status": "ok"}, got)
}

func TestDetect_NoJSONReturnsNil(t *testing.T) {
	assert.Nil(t, Detect("just some plain text, nothing to see here"))
}

func TestDetect_NeverPanics(t *testing.T) {
	assert.NotPanics(t, func() {
		Detect("")
		Detect("{")
		Detect("[1,2,")
		Detect(`{"unterminated string`)
	})
}

func TestExtractFromToolResult_OnlyFirstTextItem(t *testing.T) {
	content := []ToolResultContent{
		{Type: "text", Text: `{"a":1}`},
		{Type: "text", Text: `{"b":2}`},
	}
	got := ExtractFromToolResult(content)
	assert.Equal(t, map[string]any{"a": float64(1)}, got)
}

func TestExtractFromToolResult_NonTextFirstItem(t *testing.T) {
	content := []ToolResultContent{{Type: "image", Text: ""}}
	assert.Nil(t, ExtractFromToolResult(content))
}

package dispatcher

import (
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/stacklok/mcp-vgateway/pkg/vgw"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/jsonpath"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/jsontext"
	"github.com/stacklok/mcp-vgateway/pkg/vgw/mdlist"
)

// transform runs the output transformation pipeline (spec §4.7 step 8)
// over a successful backend reply: native structured content, else C2
// over the first text item, else C3 if a markdown text_extraction parser
// is configured. If nothing was extracted, the original reply is
// returned verbatim. A structured value is projected through
// OutputSchema when it declares properties; otherwise it's returned as
// extracted.
func transform(tool *vgw.VirtualTool, result *mcp.CallToolResult) any {
	if tool.OutputSchema == nil && tool.TextExtract == nil {
		return result
	}

	structured := nativeStructuredContent(result)

	if structured == nil {
		structured = detectJSONInText(result)
	}

	if structured == nil && tool.TextExtract != nil {
		structured = extractMarkdown(result, tool.TextExtract)
	}

	if structured == nil {
		return result
	}

	obj, isObject := structured.(map[string]any)
	if tool.OutputSchema != nil && isObject {
		if _, hasProps := tool.OutputSchema["properties"]; hasProps {
			return jsonpath.Project(obj, tool.OutputSchema, nil)
		}
	}
	return structured
}

func nativeStructuredContent(result *mcp.CallToolResult) any {
	if result.StructuredContent != nil {
		return result.StructuredContent
	}
	return nil
}

func detectJSONInText(result *mcp.CallToolResult) any {
	return jsontext.ExtractFromToolResult(toolResultContents(result))
}

// toolResultContents adapts an MCP reply's content list into the minimal
// shape jsontext.ExtractFromToolResult needs, without that package
// importing mark3labs/mcp-go itself.
func toolResultContents(result *mcp.CallToolResult) []jsontext.ToolResultContent {
	out := make([]jsontext.ToolResultContent, 0, len(result.Content))
	for _, c := range result.Content {
		if tc, ok := mcp.AsTextContent(c); ok {
			out = append(out, jsontext.ToolResultContent{Type: "text", Text: tc.Text})
			continue
		}
		out = append(out, jsontext.ToolResultContent{Type: "other"})
	}
	return out
}

func extractMarkdown(result *mcp.CallToolResult, extraction *vgw.TextExtraction) any {
	for _, c := range result.Content {
		tc, ok := mcp.AsTextContent(c)
		if !ok {
			break
		}
		return mdlist.Parse(tc.Text, extraction)
	}
	return nil
}

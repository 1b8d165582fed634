package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// segmentTextTool returns the tool definition for segment_text
func segmentTextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "segment_text",
		Description: "Split text into segments no longer than max_length characters, preferring to end on 。, 」 or a newline",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"text": map[string]interface{}{
					"type":        "string",
					"description": "Text to split",
				},
				"max_length": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum segment length in characters (defaults to the configured value)",
					"minimum":     1,
				},
			},
			Required: []string{"text"},
		},
	}
}

// resolveTagsTool returns the tool definition for resolve_tags
func resolveTagsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "resolve_tags",
		Description: "Resolve the tags a file would receive from a source directory's tag file",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source root containing tags.json or tags.yaml",
				},
				"identifier": map[string]interface{}{
					"type":        "string",
					"description": "Flattened identifier (e.g. data1␟text1 or data1␟text1.json) or relative file path (e.g. data1/text1.txt)",
				},
			},
			Required: []string{"source", "identifier"},
		},
	}
}

// convertDirectoryTool returns the tool definition for convert_directory
func convertDirectoryTool() mcp.Tool {
	return mcp.Tool{
		Name:        "convert_directory",
		Description: "Convert every text file below a source directory into tagged JSON lines files in a destination directory",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"source": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the source root",
				},
				"dest": map[string]interface{}{
					"type":        "string",
					"description": "Absolute path to the destination directory (created if missing)",
				},
				"max_length": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum segment length in characters (defaults to the configured value)",
					"minimum":     1,
				},
			},
			Required: []string{"source", "dest"},
		},
	}
}

// listRunsTool returns the tool definition for list_runs
func listRunsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_runs",
		Description: "List recent conversion runs recorded in the ledger, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of runs to return (1-100)",
					"default":     20,
					"minimum":     1,
					"maximum":     100,
				},
			},
		},
	}
}

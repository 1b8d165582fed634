// Package mcp implements the Model Context Protocol (MCP) server for txt2jsonl.
//
// The MCP server exposes four tools to AI assistants:
//   - segment_text: Split a piece of text the way the converter does
//   - resolve_tags: Show the tags a file would receive from a tag file
//   - convert_directory: Convert a source tree into JSON lines files
//   - list_runs: List recent conversions from the ledger
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// # Basic Usage
//
// The MCP server is started via the serve command:
//
//	txt2jsonl serve
//
// # Tool: convert_directory
//
//	Request:
//	{
//	  "name": "convert_directory",
//	  "arguments": {
//	    "source": "/data/corpus",
//	    "dest": "/data/out",
//	    "max_length": 700
//	  }
//	}
//
//	Response:
//	{
//	  "run_id": "5f0c…",
//	  "files_converted": 12,
//	  "files_failed": 0,
//	  "segments_written": 431,
//	  "duration_ms": 85
//	}
//
// Only one conversion runs at a time. A second concurrent request fails
// with ErrorCodeConversionInProgress instead of waiting.
//
// # Tool: resolve_tags
//
// The identifier may be a flattened lookup key (data1␟text1), an output
// file name (data1␟text1.json) or a path relative to the source root
// (data1/text1.txt).
//
// # Error Handling
//
// Errors are returned as *MCPError values carrying a JSON-RPC code:
//   - -32602: Invalid parameters (missing or relative paths, bad limits)
//   - -32603: Internal error (tag file or conversion failure)
//   - -32002: Conversion already in progress
//
// # Ledger
//
// Every conversion started through the server is recorded in the SQLite
// ledger at ledger.path, or ~/.txt2jsonl/ledger.db when unset.
package mcp

package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/dshills/txt2jsonl/internal/converter"
	"github.com/dshills/txt2jsonl/internal/tagtree"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeConversionInProgress = -32002 // Another conversion is already running
)

// maxReportedErrors caps the error messages returned by convert_directory
const maxReportedErrors = 5

// handleSegmentText handles the segment_text tool invocation
func (s *Server) handleSegmentText(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	text, ok := args["text"].(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "text parameter is required", map[string]interface{}{
			"param":  "text",
			"reason": "missing or not a string",
		})
	}

	conv, err := s.newConverter(args)
	if err != nil {
		return nil, err
	}

	segments := conv.Segment(text)
	response := map[string]interface{}{
		"max_length": conv.Config().MaxLength,
		"count":      len(segments),
		"segments":   segments,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleResolveTags handles the resolve_tags tool invocation
func (s *Server) handleResolveTags(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	source, err := requirePath(args, "source")
	if err != nil {
		return nil, err
	}

	identifier, ok := args["identifier"].(string)
	if !ok || identifier == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "identifier parameter is required", map[string]interface{}{
			"param":  "identifier",
			"reason": "missing or empty",
		})
	}

	conv, err := s.newConverter(nil)
	if err != nil {
		return nil, err
	}

	tree, tagFile, err := tagtree.LoadDir(source, s.config.Convert.TagFile)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to load tags", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// A relative file path is flattened the same way the converter names outputs
	if strings.Contains(identifier, "/") {
		flat, err := conv.FlattenedID(source, filepath.Join(source, filepath.FromSlash(identifier)))
		if err != nil {
			return nil, newMCPError(ErrorCodeInvalidParams, "invalid identifier", map[string]interface{}{
				"param":  "identifier",
				"reason": err.Error(),
			})
		}
		identifier = flat
	}

	key := conv.LookupKey(identifier)
	response := map[string]interface{}{
		"identifier": key,
		"tag_file":   tagFile,
		"tags":       tree.ResolveIdentifier(key, conv.Config().Delimiter),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleConvertDirectory handles the convert_directory tool invocation
func (s *Server) handleConvertDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	source, err := requirePath(args, "source")
	if err != nil {
		return nil, err
	}

	dest, ok := args["dest"].(string)
	if !ok || dest == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "dest parameter is required", map[string]interface{}{
			"param":  "dest",
			"reason": "missing or empty",
		})
	}
	if !filepath.IsAbs(dest) {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid dest", map[string]interface{}{
			"param":  "dest",
			"reason": ErrPathNotAbsolute.Error(),
		})
	}

	conv, err := s.newConverter(args, converter.WithLedger(s.storage))
	if err != nil {
		return nil, err
	}

	if !s.lock.TryAcquire() {
		return nil, newMCPError(ErrorCodeConversionInProgress, "another conversion is already running", nil)
	}
	defer s.lock.Release()

	stats, err := conv.ConvertTree(ctx, source, dest)
	if err != nil {
		data := map[string]interface{}{"error": err.Error()}
		if stats != nil && stats.RunID != "" {
			data["run_id"] = stats.RunID
		}
		return nil, newMCPError(ErrorCodeInternalError, "conversion failed", data)
	}

	response := map[string]interface{}{
		"run_id":           stats.RunID,
		"tag_file":         stats.TagFile,
		"files_converted":  stats.FilesConverted,
		"files_failed":     stats.FilesFailed,
		"segments_written": stats.SegmentsWritten,
		"duration_ms":      stats.Duration.Milliseconds(),
	}

	if len(stats.ErrorMessages) > 0 {
		errorCount := len(stats.ErrorMessages)
		if errorCount > maxReportedErrors {
			response["errors"] = stats.ErrorMessages[:maxReportedErrors]
			response["error_count"] = errorCount
		} else {
			response["errors"] = stats.ErrorMessages
		}
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListRuns handles the list_runs tool invocation
func (s *Server) handleListRuns(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	limit := getIntDefault(args, "limit", 20)
	if limit < 1 || limit > 100 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 100", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	runs, err := s.storage.ListRuns(ctx, limit)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list runs", map[string]interface{}{
			"error": err.Error(),
		})
	}

	items := make([]map[string]interface{}, 0, len(runs))
	for _, run := range runs {
		item := map[string]interface{}{
			"id":               run.ID,
			"source":           run.SourceRoot,
			"dest":             run.DestRoot,
			"status":           string(run.Status),
			"files_converted":  run.FilesConverted,
			"files_failed":     run.FilesFailed,
			"segments_written": run.SegmentsWritten,
			"started_at":       run.StartedAt.Format(time.RFC3339),
		}
		if !run.FinishedAt.IsZero() {
			item["finished_at"] = run.FinishedAt.Format(time.RFC3339)
			item["duration_ms"] = run.Duration().Milliseconds()
		}
		if run.Error != "" {
			item["error"] = run.Error
		}
		items = append(items, item)
	}

	response := map[string]interface{}{
		"count":              len(items),
		"runs":               items,
		"conversion_running": s.lock.Busy(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// newConverter builds a converter from the server configuration, applying
// an optional max_length argument
func (s *Server) newConverter(args map[string]interface{}, opts ...converter.Option) (*converter.Converter, error) {
	cfg, err := converter.ConfigFrom(s.config)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "invalid server configuration", map[string]interface{}{
			"error": err.Error(),
		})
	}

	cfg.MaxLength = getIntDefault(args, "max_length", cfg.MaxLength)
	if cfg.MaxLength < 1 {
		return nil, newMCPError(ErrorCodeInvalidParams, "max_length must be at least 1", map[string]interface{}{
			"param": "max_length",
			"value": cfg.MaxLength,
		})
	}

	opts = append([]converter.Option{converter.WithLogger(s.logger.With(zap.String("component", "converter")))}, opts...)
	conv, err := converter.New(cfg, opts...)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to create converter", map[string]interface{}{
			"error": err.Error(),
		})
	}
	return conv, nil
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// requirePath extracts a required path argument that must name an
// existing, readable directory
func requirePath(args map[string]interface{}, key string) (string, error) {
	path, _ := args[key].(string)
	if path == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	if err := validatePath(path); err != nil {
		return "", newMCPError(ErrorCodeInvalidParams, "invalid "+key, map[string]interface{}{
			"param":  key,
			"reason": err.Error(),
		})
	}
	return path, nil
}

// validatePath checks if a path exists and is accessible
func validatePath(path string) error {
	if path == "" {
		return ErrPathRequired
	}

	if !filepath.IsAbs(path) {
		return ErrPathNotAbsolute
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return ErrPathNotFound
	}
	if err != nil {
		return ErrPathNotReadable
	}

	if !info.IsDir() {
		return ErrNotDirectory
	}

	f, err := os.Open(path)
	if err != nil {
		return ErrPathNotReadable
	}
	_ = f.Close()

	return nil
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// Validation helpers

var (
	ErrPathRequired    = errors.New("path is required")
	ErrPathNotAbsolute = errors.New("path must be absolute")
	ErrPathNotFound    = errors.New("path does not exist")
	ErrPathNotReadable = errors.New("path is not readable")
	ErrNotDirectory    = errors.New("path is not a directory")
)

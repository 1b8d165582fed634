package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/dshills/txt2jsonl/internal/config"
	"github.com/dshills/txt2jsonl/internal/converter"
	"github.com/dshills/txt2jsonl/internal/logging"
	"github.com/dshills/txt2jsonl/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "txt2jsonl"
	// DefaultLedgerPath is the default location of the conversion ledger
	DefaultLedgerPath = "~/.txt2jsonl/ledger.db"
)

// ServerVersion is reported to MCP clients. It is set by the binary.
var ServerVersion = "dev"

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp     *server.MCPServer
	config  *config.Config
	storage storage.Storage
	logger  *zap.Logger
	lock    converter.RunLock
}

// NewServer creates a new MCP server instance. The ledger is always opened,
// at cfg.Ledger.Path or DefaultLedgerPath when that is empty.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	dbPath, err := ExpandLedgerPath(cfg.Ledger.Path)
	if err != nil {
		return nil, err
	}
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create ledger directory: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		mcp:     mcpServer,
		config:  cfg,
		storage: store,
		logger:  logging.OrNop(logger),
	}

	s.registerTools()

	return s, nil
}

// ExpandLedgerPath resolves an empty path to DefaultLedgerPath and expands
// a leading "~/" to the user's home directory
func ExpandLedgerPath(path string) (string, error) {
	if path == "" {
		path = DefaultLedgerPath
	}
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Serve runs the MCP server on stdio until the client disconnects or ctx
// is cancelled. The ledger is closed when it returns.
func (s *Server) Serve(ctx context.Context) error {
	return s.ServeIO(ctx, os.Stdin, os.Stdout)
}

// ServeIO runs the MCP server over the given streams
func (s *Server) ServeIO(ctx context.Context, in io.Reader, out io.Writer) error {
	defer func() { _ = s.storage.Close() }()
	s.logger.Info("serving MCP", zap.String("version", ServerVersion))

	err := server.NewStdioServer(s.mcp).Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the ledger
func (s *Server) Close() error {
	return s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(segmentTextTool(), s.handleSegmentText)
	s.mcp.AddTool(resolveTagsTool(), s.handleResolveTags)
	s.mcp.AddTool(convertDirectoryTool(), s.handleConvertDirectory)
	s.mcp.AddTool(listRunsTool(), s.handleListRuns)
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/txt2jsonl/internal/logging"
	"github.com/dshills/txt2jsonl/internal/mcp"
	"github.com/dshills/txt2jsonl/internal/storage"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	cmd.Flags().Int("max-length", 0, "default maximum segment length for tools")
	cmd.Flags().String("delimiter", "", "joins path components in output file names")
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	// stdout is reserved for the MCP protocol, logs go to stderr
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("txt2jsonl MCP server starting",
		zap.String("version", version),
		zap.String("build_mode", storage.BuildMode),
		zap.String("driver", storage.DriverName))

	server, err := mcp.NewServer(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	errChan := make(chan error, 1)
	go func() {
		logger.Info("MCP server ready, listening on stdio")
		errChan <- server.Serve(ctx)
	}()

	select {
	case sig := <-sigChan:
		logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
		cancel()
		// Wait for Serve so the ledger is closed
		if err := <-errChan; err != nil {
			return err
		}
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	logger.Info("server stopped")
	return nil
}

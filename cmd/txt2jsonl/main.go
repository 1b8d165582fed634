package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dshills/txt2jsonl/internal/config"
	"github.com/dshills/txt2jsonl/internal/converter"
	"github.com/dshills/txt2jsonl/internal/logging"
	"github.com/dshills/txt2jsonl/internal/mcp"
	"github.com/dshills/txt2jsonl/internal/storage"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	successColor = color.New(color.FgGreen, color.Bold)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
)

func main() {
	mcp.ServerVersion = version

	if err := newRootCmd().Execute(); err != nil {
		errorColor.Fprintf(os.Stderr, "Error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "txt2jsonl <source> <dest>",
		Short: "Convert a tree of text files into tagged JSON lines",
		Long: `txt2jsonl walks a source directory, splits every .txt file into segments
of bounded length and writes one JSON lines file per input into dest.
Each line carries the segment text and the tags resolved from the
directory path through tags.json (or tags.yaml) at the source root.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       versionString(),
		RunE:          runConvert,
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "path to YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("ledger", "", "path to the SQLite run ledger")
	rootCmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	rootCmd.Flags().Int("max-length", config.DefaultMaxLength, "maximum segment length in characters")
	rootCmd.Flags().String("delimiter", config.DefaultDelimiter, "joins path components in output file names")
	rootCmd.Flags().String("encoding", config.DefaultEncoding, "encoding of input files (utf-8, shift_jis, euc-jp, ...)")
	rootCmd.Flags().Bool("continue-on-error", false, "record failed files and keep converting")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func versionString() string {
	return fmt.Sprintf("%s (built %s, sqlite %s/%s)", version, buildTime, storage.BuildMode, storage.DriverName)
}

// loadConfig loads the config file and environment, then applies any flag
// the user set explicitly
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if noColor, _ := cmd.Flags().GetBool("no-color"); noColor {
		color.NoColor = true
	}

	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("max-length") {
		cfg.Segment.MaxLength, _ = flags.GetInt("max-length")
	}
	if flags.Changed("delimiter") {
		cfg.Convert.Delimiter, _ = flags.GetString("delimiter")
	}
	if flags.Changed("encoding") {
		cfg.Convert.Encoding, _ = flags.GetString("encoding")
	}
	if flags.Changed("continue-on-error") {
		cfg.Convert.ContinueOnError, _ = flags.GetBool("continue-on-error")
	}
	if flags.Changed("ledger") {
		cfg.Ledger.Path, _ = flags.GetString("ledger")
	}
	if flags.Changed("log-level") {
		cfg.Log.Level, _ = flags.GetString("log-level")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openLedger opens the ledger at path, creating its directory
func openLedger(path string) (*storage.SQLiteStorage, error) {
	dbPath, err := mcp.ExpandLedgerPath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return storage.NewSQLiteStorage(dbPath)
}

func runConvert(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	convCfg, err := converter.ConfigFrom(cfg)
	if err != nil {
		return err
	}

	opts := []converter.Option{converter.WithLogger(logger)}
	if cfg.Ledger.Path != "" {
		ledger, err := openLedger(cfg.Ledger.Path)
		if err != nil {
			return err
		}
		defer func() { _ = ledger.Close() }()
		opts = append(opts, converter.WithLedger(ledger))
	}

	conv, err := converter.New(convCfg, opts...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("starting conversion",
		zap.String("source", args[0]),
		zap.String("dest", args[1]),
		zap.Int("max_length", convCfg.MaxLength),
		zap.String("delimiter", convCfg.Delimiter))

	stats, err := conv.ConvertTree(ctx, args[0], args[1])
	if stats != nil {
		printSummary(cmd.OutOrStdout(), stats)
	}
	return err
}

// printSummary writes a human readable summary of a conversion
func printSummary(w io.Writer, stats *converter.Statistics) {
	if stats.TagFile == "" {
		warnColor.Fprintln(w, "No tag file found, records carry no tags")
	}

	successColor.Fprintf(w, "Converted %d files", stats.FilesConverted)
	fmt.Fprintf(w, " (%d segments) in %v\n", stats.SegmentsWritten, stats.Duration.Round(time.Millisecond))

	if stats.FilesFailed > 0 {
		errorColor.Fprintf(w, "%d files failed\n", stats.FilesFailed)
		for _, msg := range stats.ErrorMessages {
			fmt.Fprintf(w, "  %s\n", msg)
		}
	}
	if stats.RunID != "" {
		fmt.Fprintf(w, "Run ID: %s\n", stats.RunID)
	}
}


// vmy is a simple CLI for inspecting and editing vmem swap files.
//
// Usage:
//
//	vmy [options] <swap-file>
//
// Options:
//
//	-p, --page-size    On-disk page size in bytes (default 4096)
//	-n, --pool         Maximum resident pages (default 8)
//	-c, --config       Config file path (default: .vmy.json if present)
//	    --log-level    Log level: debug, info, warn, error
//	    --log-format   Log format: console or json
//	    --log-file     Log destination: path, stdout, or stderr
//
// Commands (in REPL):
//
//	write <offset> <byte>          Store a byte at a logical offset
//	read <offset>                  Read the byte at a logical offset
//	rm <offset>                    Remove the byte at a logical offset
//	fill <offset> <count> [byte]   Write count bytes starting at offset
//	stats                          Show page fault/eviction/flush counters
//	pages                          List resident pages
//	flush                          Write all dirty pages to disk
//	export <path>                  Atomically write a snapshot of the swap file
//	info                           Show memory configuration
//	help                           Show this help
//	exit / quit / q                Exit
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/calvinalkan/vmem/internal/logging"
	"github.com/calvinalkan/vmem/pkg/fs"
	"github.com/calvinalkan/vmem/pkg/vmem"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("vmy", pflag.ContinueOnError)

	pageSize := flags.IntP("page-size", "p", 0, "on-disk page size in bytes")
	poolPages := flags.IntP("pool", "n", 0, "maximum resident pages")
	configPath := flags.StringP("config", "c", "", "config file path")
	logLevel := flags.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := flags.String("log-format", "", "log format: console or json")
	logFile := flags.String("log-file", "", "log destination: path, stdout, or stderr")

	flags.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: vmy [options] <swap-file>\n\nOptions:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return err
	}

	if flags.NArg() < 1 {
		flags.Usage()

		return fmt.Errorf("missing swap file path")
	}

	workDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	fsys := fs.NewReal()

	cfg, err := LoadConfig(fsys, workDir, *configPath)
	if err != nil {
		return err
	}

	// Flags override config file values.
	if *pageSize != 0 {
		cfg.PageSize = *pageSize
	}

	if *poolPages != 0 {
		cfg.PoolPages = *poolPages
	}

	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	if *logFormat != "" {
		cfg.LogFormat = *logFormat
	}

	if *logFile != "" {
		cfg.LogFile = *logFile
	}

	logger, err := logging.New(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputFile: cfg.LogFile,
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	path := flags.Arg(0)

	mem, err := vmem.Open(vmem.Options{
		Path:      path,
		PageSize:  cfg.PageSize,
		PoolPages: cfg.PoolPages,
		FS:        fsys,
	})
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}

	logger.Info("opened swap file",
		zap.String("path", path),
		zap.Int("page_size", cfg.PageSize),
		zap.Int("pool_pages", cfg.PoolPages),
	)

	repl := &REPL{
		mem:    mem,
		path:   path,
		fs:     fsys,
		logger: logger,
	}

	replErr := repl.Run()

	if err := mem.Close(); err != nil {
		logger.Error("closing swap file", zap.Error(err))

		if replErr == nil {
			replErr = err
		}
	}

	return replErr
}

// Extd is the host-loaded extension daemon.
//
// The binary activates the extension lifecycle against a local host
// runtime, serves the status HTTP endpoints, and exposes extension state
// to MCP clients over stdio. On SIGINT/SIGTERM it deactivates and exits.
//
// Usage:
//
//	# Start with defaults
//	extd
//
//	# Configure via file and environment
//	extd -config ~/.config/extd/config.yaml
//	SERVER_HTTP_PORT=9390 extd
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fyrsmithlabs/extd/internal/config"
	"github.com/fyrsmithlabs/extd/internal/extension"
	"github.com/fyrsmithlabs/extd/internal/host"
	"github.com/fyrsmithlabs/extd/internal/httpapi"
	"github.com/fyrsmithlabs/extd/internal/logging"
	"github.com/fyrsmithlabs/extd/internal/mcpserver"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to config file (default ~/.config/extd/config.yaml)")
	mcpStdio := flag.Bool("mcp-stdio", false, "serve MCP over stdio")
	flag.Parse()

	if args := flag.Args(); len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  extd           Start the extension daemon\n")
			fmt.Fprintf(os.Stderr, "  extd version   Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath, *mcpStdio); err != nil {
		log.Fatalf("Daemon error: %v", err)
	}

	log.Println("Daemon shutdown complete")
}

func printVersion() {
	fmt.Printf("extd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run activates the extension and serves until ctx is cancelled.
//
//  1. Loads and validates configuration
//  2. Initializes the structured logger
//  3. Builds the host runtime with a file-backed state store
//  4. Runs the activation sequence
//  5. Serves MCP over stdio when requested
//  6. Serves status HTTP endpoints (blocks)
//  7. Deactivates on context cancellation
func run(ctx context.Context, configPath string, mcpStdio bool) error {
	cfg, err := config.LoadWithFile(configPath)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	storageDir, err := storageDir()
	if err != nil {
		return err
	}

	store, err := host.NewFileStore(filepath.Join(storageDir, "state.json"), logger.Underlying())
	if err != nil {
		return fmt.Errorf("opening state store: %w", err)
	}

	workspaceRoot, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolving workspace root: %w", err)
	}

	h, err := host.NewRuntime(host.RuntimeOptions{
		Metadata: host.Metadata{
			Name:        cfg.Extension.Name,
			DisplayName: cfg.Extension.DisplayName,
			Version:     cfg.Extension.Version,
			Publisher:   cfg.Extension.Publisher,
		},
		WorkspaceRoot: workspaceRoot,
		StorageDir:    storageDir,
		State:         store,
		Logger:        logger.Underlying(),
	})
	if err != nil {
		return fmt.Errorf("creating host runtime: %w", err)
	}

	session, err := extension.Activate(ctx, h, cfg, logger)
	if err != nil {
		return fmt.Errorf("activating extension: %w", err)
	}

	logger.Info(ctx, "extension running",
		zap.String("version", version),
		zap.Int("http_port", cfg.Server.Port),
		zap.Int("projects", len(session.Projects)))

	if mcpStdio {
		mcpserver.For(h, logger).Serve(ctx, &mcp.StdioTransport{})
	}

	srv := httpapi.New(cfg.Server, logger)
	serveErr := srv.Start(ctx)

	if err := extension.Deactivate(context.Background()); err != nil {
		logger.Warn(ctx, "deactivation finished with errors", zap.Error(err))
	}

	return serveErr
}

// initLogger builds the structured logger, bridging to the telemetry log
// provider when configured.
func initLogger(cfg *config.Config) (*logging.Logger, error) {
	var level zapcore.Level
	if err := level.Set(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Logging.Level, err)
	}

	logCfg := &logging.Config{
		Level:  level,
		Format: cfg.Logging.Format,
		Stdout: cfg.Logging.Stdout,
		OTEL:   cfg.Logging.OTEL,
	}
	return logging.NewLogger(logCfg, nil)
}

// storageDir resolves the daemon's persistent storage directory.
func storageDir() (string, error) {
	configDir, err := config.EnsureConfigDir()
	if err != nil {
		return "", err
	}

	dir := filepath.Join(configDir, "storage")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("creating storage directory %s: %w", dir, err)
	}
	return dir, nil
}

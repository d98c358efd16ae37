// Package main provides the chat service entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mdossett204/adaptive-health-project/internal/adapter/identity"
	"github.com/mdossett204/adaptive-health-project/internal/adapter/llm"
	"github.com/mdossett204/adaptive-health-project/internal/config"
	"github.com/mdossett204/adaptive-health-project/internal/logger"
	store "github.com/mdossett204/adaptive-health-project/internal/repository"
	"github.com/mdossett204/adaptive-health-project/internal/service"
	handler "github.com/mdossett204/adaptive-health-project/internal/transport/http"
	"github.com/mdossett204/adaptive-health-project/internal/transport/ws"
	"github.com/mdossett204/adaptive-health-project/policy"
)

const version = "0.1.0"

var (
	envFile   string
	logCloser io.Closer
	v         = config.NewViper()
)

var rootCmd = &cobra.Command{
	Use:   "adaptive-health",
	Short: "Conversational backend with model routing, context memory and rate limiting",
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := config.LoadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
			return err
		}
		closer, err := logger.Configure(v.GetString("LOG_LEVEL"), v.GetString("LOG_FILE"))
		logCloser = closer
		return err
	},
	RunE: runServe,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and WebSocket server",
	RunE:  runServe,
}

var tokenCmd = &cobra.Command{
	Use:   "token <user_id> [email]",
	Short: "Sign a development access token with AUTH_JWT_SECRET",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg := config.Load(v)
		if cfg.JWTSecret == "" {
			return fmt.Errorf("%w: missing AUTH_JWT_SECRET", config.ErrConfiguration)
		}
		email := ""
		if len(args) > 1 {
			email = args[1]
		}
		token, err := identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience).Issue(args[0], email, 24*time.Hour)
		if err != nil {
			return err
		}
		fmt.Println(token)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("adaptive-health v%s\n", version)
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "Load environment variables from file")
	flags.String("log-level", "", "Set log level (debug|info|warn|error) [default: info]")
	flags.String("log-file", "", "Write logs to file instead of stderr")
	flags.Int("http-port", 0, "HTTP listen port [default: 8080]")

	for key, name := range map[string]string{
		"LOG_LEVEL": "log-level",
		"LOG_FILE":  "log-file",
		"HTTP_PORT": "http-port",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			fmt.Fprintf(os.Stderr, "Error binding %s flag: %v\n", name, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	err := rootCmd.Execute()
	if logCloser != nil {
		_ = logCloser.Close()
	}
	if err != nil {
		os.Exit(1)
	}
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg := config.Load(v)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Info("Starting chat service", "version", version, "port", cfg.HTTPPort, "database", cfg.DatabaseURL, "mock", cfg.MockMode())

	// Initialize store
	db, err := store.NewSQLiteStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	defer db.Close()

	// Initialize policy engine
	ctx := context.Background()
	policyEngine, err := policy.NewEngine(ctx, policy.DefaultPolicy)
	if err != nil {
		return fmt.Errorf("failed to initialize policy engine: %w", err)
	}

	// Initialize service
	svc := service.New(db, llm.NewBackends(cfg), cfg, policyEngine)
	verifier := identity.NewVerifier(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	wsServer := ws.NewServer(cfg, svc, verifier)
	server := handler.NewServer(cfg, version, svc, verifier, wsServer)

	errCh := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.HTTPPort)
		if err := server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	logger.Info("HTTP API started", "port", cfg.HTTPPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	}

	logger.Info("Shutting down chat service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("Failed to shutdown server gracefully", "error", err)
	}
	wsServer.Shutdown()

	logger.Info("Chat service stopped")
	return nil
}

package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/mariwald/rsvpd/internal/engine"
	"github.com/mariwald/rsvpd/internal/logger"
	rsvpServer "github.com/mariwald/rsvpd/internal/server"
	"github.com/mariwald/rsvpd/pkg/config"
	"github.com/mariwald/rsvpd/pkg/metrics"
)

// watchConsole cancels the server context when "EXIT" is typed on the
// server console. Mirrors the EXIT protocol command so an operator at
// the terminal can stop the server the same way a client can.
func watchConsole(cancel context.CancelFunc) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if strings.EqualFold(strings.TrimSpace(scanner.Text()), "EXIT") {
			logger.Info("EXIT typed on console, initiating shutdown...")
			cancel()
			return
		}
	}
}

func main() {
	// Configuration flags. The config file is the primary source;
	// flags override individual settings for quick local runs.
	configPath := flag.String("config", "", "Path to config file (default: $XDG_CONFIG_HOME/rsvpd/config.yaml)")
	port := flag.String("port", "", "Port to listen on (overrides config)")
	logLevel := flag.String("log-level", "", "Log level: DEBUG, INFO, WARN, ERROR (overrides config)")
	auditPath := flag.String("audit-log", "", "Audit log file path (overrides config)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Apply flag overrides
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *auditPath != "" {
		cfg.Audit.Type = "file"
		cfg.Audit.File = map[string]any{"path": *auditPath}
	}

	// Configure logger
	logger.SetLevel(cfg.Logging.Level)

	// Create cancellable context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	fmt.Println("rsvpd - event RSVP server")
	logger.Info("Log level set to: %s", cfg.Logging.Level)

	// Create audit sink
	sink, err := config.NewAuditSink(cfg.Audit)
	if err != nil {
		log.Fatalf("Failed to create audit sink: %v", err)
	}

	// Set up metrics if enabled
	var cmdMetrics *metrics.CommandMetrics
	var metricsSrv *metrics.Server
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		cmdMetrics = metrics.NewCommandMetrics()
		metricsSrv = metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port})
		go func() {
			if err := metricsSrv.Start(ctx); err != nil {
				logger.Error("Metrics server error: %v", err)
			}
		}()
		logger.Info("Metrics endpoint on port %d", cfg.Metrics.Port)
	}

	// Create the command engine. An EXIT command from any client shuts
	// the whole server down, so wire it to the context cancel.
	eng := engine.New(sink, cmdMetrics)
	eng.OnExit(cancel)

	serverConfig := rsvpServer.Config{
		Port:            cfg.Server.Port,
		MaxConnections:  cfg.Server.MaxConnections,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateBurst:       cfg.Server.RateBurst,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}

	// Log server configuration
	logger.Info("Server configuration:")
	logger.Info("  Port: %s", serverConfig.Port)
	if serverConfig.MaxConnections > 0 {
		logger.Info("  Max connections: %d", serverConfig.MaxConnections)
	} else {
		logger.Info("  Max connections: unlimited")
	}
	logger.Info("  Read timeout: %v", serverConfig.ReadTimeout)
	logger.Info("  Write timeout: %v", serverConfig.WriteTimeout)
	logger.Info("  Shutdown timeout: %v", serverConfig.ShutdownTimeout)
	if serverConfig.RateLimit > 0 {
		logger.Info("  Rate limit: %d req/s (burst %d)", serverConfig.RateLimit, serverConfig.RateBurst)
	}

	srv := rsvpServer.New(serverConfig, eng, cmdMetrics)

	// Start server in background
	serverDone := make(chan error, 1)
	go func() {
		serverDone <- srv.Serve(ctx)
	}()

	// Console EXIT mirrors the client EXIT command
	go watchConsole(cancel)

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	logger.Info("Server is running on port %s. Press Ctrl+C to stop.", serverConfig.Port)

	exitCode := 0
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
		cancel()

		// Wait for server to drain in-flight connections
		if err := <-serverDone; err != nil {
			logger.Error("Server shutdown error: %v", err)
			exitCode = 1
		} else {
			logger.Info("Server stopped gracefully")
		}

	case err := <-serverDone:
		if err != nil {
			logger.Error("Server error: %v", err)
			exitCode = 1
		} else {
			logger.Info("Server stopped")
		}
	}

	// Shared state is only torn down after the accept loop has drained.
	eng.Shutdown()

	if metricsSrv != nil {
		if err := metricsSrv.Stop(context.Background()); err != nil {
			logger.Error("Metrics server shutdown error: %v", err)
		}
	}

	os.Exit(exitCode)
}

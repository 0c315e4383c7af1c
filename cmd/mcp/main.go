package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"tickerdesk/internal/bootstrap"
	"tickerdesk/internal/config"
	"tickerdesk/internal/mcpserver"
	"tickerdesk/pkg/tracing"

	"github.com/joho/godotenv"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const version = "1.0.0"

var (
	loadEnvFunc    = godotenv.Load
	loadConfigFunc = config.Load
	initTracerFunc = tracing.InitTracer
	runServerFunc  = func(ctx context.Context, server *mcp.Server) error {
		return server.Run(ctx, &mcp.StdioTransport{})
	}
)

// Serves the dashboard tools over stdio. Stdout carries the protocol, so all
// logging goes to stderr.
func main() {
	log.SetOutput(os.Stderr)
	loadEnvFunc()

	cfg := loadConfigFunc()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, tracer, err := initTracerFunc(ctx, tracing.Options{
		ServiceName: "tickerdesk-mcp",
		Version:     version,
		Enabled:     cfg.TracingEnabled,
		Endpoint:    cfg.OTLPEndpoint,
	})
	if err != nil {
		log.Fatalf("failed to initialize tracer: %v", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Printf("error shutting down tracer provider: %v", err)
		}
	}()

	dashboard := bootstrap.Dashboard(tracer, cfg, nil)
	server := mcpserver.New(tracer, dashboard, version)

	log.Printf("MCP server ready for %s (%s)", cfg.Security.Name, cfg.Security.Code)
	if err := runServerFunc(ctx, server); err != nil && ctx.Err() == nil {
		log.Printf("mcp server stopped: %v", err)
	}
}

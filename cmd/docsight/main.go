// Docsight: document database inspection MCP server
//
// An MCP server that introspects a remote document database deployment
// and renders schema browsers, dashboards, write heatmaps, kanban
// boards and conflict-log reports, each with a locally served
// interactive preview.
//
// Usage:
//
//	docsight serve    # Start MCP server (stdio transport)
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	dsserver "github.com/HendryAvila/docsight/internal/server"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := run(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	case "--help", "-h", "help":
		printUsage()
		os.Exit(0)
	case "--version", "-v", "version":
		fmt.Printf("docsight v%s\n", dsserver.Version)
		os.Exit(0)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func run() error {
	s, cleanup, err := dsserver.New()
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer cleanup()

	// Make sure preview servers and the database client are torn down
	// on interrupt, not just on clean stdio EOF. Logs go to stderr so
	// they never interfere with MCP's stdio transport on stdout.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cleanup()
		os.Exit(0)
	}()

	return server.ServeStdio(s)
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `docsight v%s — document database inspection MCP server

Usage:
  docsight serve    Start the MCP server (stdio transport)

Environment:
  DOCSIGHT_URI        Deployment connection string (required for data tools)
  DOCSIGHT_DB         Database name (default: app)
  DOCSIGHT_WEB_ROOT   Optional root of pre-built report UI assets

  A .env file in the working directory is loaded if present.

Configuration:
  Add to your AI tool's MCP config:

  {
    "mcpServers": {
      "docsight": {
        "command": "docsight",
        "args": ["serve"],
        "env": { "DOCSIGHT_URI": "mongodb://localhost:27017" }
      }
    }
  }
`, dsserver.Version)
}

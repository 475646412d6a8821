package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/terrawatch/scenediff/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("scenediff-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("scenediff-mcp - MCP server for scene alignment and change detection")
			fmt.Println()
			fmt.Println("Usage: scenediff-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SCENEDIFF_LOG_LEVEL=debug    Enable debug logging")
			fmt.Println("  SCENEDIFF_LOG_FORMAT=json    Emit structured JSON logs")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	log := newLogger()
	log.WithFields(logrus.Fields{
		"version": Version,
		"built":   BuildTime,
		"commit":  GitCommit,
	}).Debug("starting scenediff-mcp")

	srv := server.New(log)
	if err := srv.RunStdio(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// newLogger configures logging to stderr (stdout carries the MCP
// protocol), honoring the SCENEDIFF_LOG_* environment variables.
func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	if lvl, err := logrus.ParseLevel(os.Getenv("SCENEDIFF_LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}
	if os.Getenv("SCENEDIFF_LOG_FORMAT") == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/handiism/data-displayer/internal/config"
	"github.com/handiism/data-displayer/internal/retrieval"
	"github.com/handiism/data-displayer/internal/telemetry"
	"github.com/handiism/data-displayer/internal/tui"
)

func main() {
	var (
		configFlag = flag.String("config", config.DefaultPath(), "Path to config file")
		apiFlag    = flag.String("api", "", "API base URL (overrides config)")
		outputFlag = flag.String("output", "", "Downloads directory (overrides config)")
		traceFlag  = flag.String("trace", "", `Write spans as JSON to this file, or "-" for the log file (overrides config)`)
	)
	flag.Parse()

	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := settings.ApplyEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading environment: %v\n", err)
		os.Exit(1)
	}
	if *apiFlag != "" {
		settings.APIBaseURL = *apiFlag
	}
	if *outputFlag != "" {
		settings.DownloadsPath = *outputFlag
	}
	if *traceFlag != "" {
		settings.TraceOutput = *traceFlag
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// The terminal belongs to the UI, so diagnostics go to a file.
	logFile, err := os.OpenFile(settings.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer logFile.Close()

	logger := settings.NewLogger(logFile)
	logger.Info("starting", "api", settings.APIBaseURL, "downloads", settings.DownloadsPath)

	// "-" goes to the log file here; the terminal belongs to the UI.
	tracer, shutdownTracing, err := telemetry.Start(settings.TraceOutput, logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	err = tui.Run(settings, logger, retrieval.WithTracer(tracer))
	if serr := shutdownTracing(context.Background()); serr != nil {
		logger.Error("flushing spans", "error", serr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/handiism/data-displayer/internal/config"
	ioutils "github.com/handiism/data-displayer/internal/io"
	"github.com/handiism/data-displayer/internal/model"
	"github.com/handiism/data-displayer/internal/retrieval"
	"github.com/handiism/data-displayer/internal/telemetry"
)

// Exit codes
const (
	exitOK          = 0
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

func main() {
	// Handle interrupts
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("data-displayer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	// Command line flags
	var (
		configFlag  = fs.String("config", config.DefaultPath(), "Path to config file")
		apiFlag     = fs.String("api", "", "API base URL (overrides config)")
		outputFlag  = fs.String("output", "", "Downloads directory (overrides config)")
		timeoutFlag = fs.Duration("timeout", 0, "Per-request timeout (overrides config)")
		saveFlag    = fs.Bool("save-visualisation", false, "Save the visualisation to the downloads directory")
		traceFlag   = fs.String("trace", "", `Write spans as JSON to this file, or "-" for stderr (overrides config)`)
		verboseFlag = fs.Bool("verbose", false, "Show verbose output")
	)
	fs.Usage = func() { usage(fs) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return exitUsage
	}

	var actions []model.Action
	if fs.Arg(0) == "all" {
		actions = model.Actions
	} else {
		action, ok := model.ParseAction(fs.Arg(0))
		if !ok {
			fmt.Fprintf(stderr, "Error: unknown action %q\n", fs.Arg(0))
			return exitUsage
		}
		actions = []model.Action{action}
	}

	// Load config
	settings, err := config.Load(*configFlag)
	if err != nil {
		fmt.Fprintf(stderr, "Error loading config: %v\n", err)
		return exitFailure
	}
	if err := settings.ApplyEnv(".env"); err != nil {
		fmt.Fprintf(stderr, "Error loading environment: %v\n", err)
		return exitFailure
	}

	// Apply flags
	if *apiFlag != "" {
		settings.APIBaseURL = *apiFlag
	}
	if *outputFlag != "" {
		settings.DownloadsPath = *outputFlag
	}
	if *timeoutFlag > 0 {
		settings.RequestTimeout = timeoutFlag.Seconds()
	}
	if *traceFlag != "" {
		settings.TraceOutput = *traceFlag
	}
	if *verboseFlag {
		settings.LogLevel = "debug"
	}
	if err := settings.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}

	logger := settings.NewLogger(stderr)

	tracer, shutdownTracing, err := telemetry.Start(settings.TraceOutput, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("flushing spans", "error", err)
		}
	}()

	notifier := retrieval.NotifierFunc(func(n retrieval.Notification) {
		fmt.Fprintf(stderr, "✗ %s\n", n.Message)
	})

	manager, err := retrieval.NewManager(settings, printEvent(stdout, *verboseFlag),
		retrieval.WithNotifier(notifier),
		retrieval.WithLogger(logger),
		retrieval.WithTracer(tracer),
	)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFailure
	}
	defer manager.Close()

	start := time.Now()

	// Actions are independent; one failing does not cancel the others.
	var g errgroup.Group
	for _, action := range actions {
		g.Go(func() error {
			return manager.Run(ctx, action)
		})
	}
	err = g.Wait()

	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "Interrupted, cancelled.")
		return exitInterrupted
	}

	if _, blob, ok := manager.Visualisation(); ok {
		preview, perr := ioutils.NewImageService().Preview(ctx, blob.Data, settings.PreviewMaxWidth, settings.PreviewMaxHeight)
		if perr != nil {
			fmt.Fprintf(stderr, "Cannot display visualisation: %v\n", perr)
		} else {
			fmt.Fprintln(stdout, preview)
		}

		if *saveFlag {
			path, serr := manager.SaveVisualisation(ctx)
			if serr != nil {
				fmt.Fprintf(stderr, "Error saving visualisation: %v\n", serr)
				err = errors.Join(err, serr)
			} else {
				fmt.Fprintf(stdout, "✓ Saved visualisation to %s\n", path)
			}
		}
	}

	if err != nil {
		return exitFailure
	}

	fmt.Fprintf(stdout, "Done in %s\n", time.Since(start).Round(time.Millisecond))
	return exitOK
}

func printEvent(w io.Writer, verbose bool) func(retrieval.ProgressEvent) {
	return func(event retrieval.ProgressEvent) {
		if event.Level == retrieval.LevelVerbose && !verbose {
			return
		}

		prefix := ""
		switch event.Level {
		case retrieval.LevelError:
			// Failures are reported through the notifier.
			return
		case retrieval.LevelWarning:
			prefix = "! "
		case retrieval.LevelSuccess:
			prefix = "✓ "
		case retrieval.LevelInfo:
			prefix = "› "
		default:
			prefix = "  "
		}

		fmt.Fprintln(w, prefix+event.Message)
	}
}

func usage(fs *flag.FlagSet) {
	out := fs.Output()
	fmt.Fprintln(out, "data-displayer - fetch data and visualisations from the data API")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  data-displayer [options] json|xlsx|visualisation|all")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "For interactive mode, use: data-displayer-tui")
	fmt.Fprintln(out)
	fs.PrintDefaults()
}

// Package telemetry installs OpenTelemetry tracing for data-displayer.
//
// Spans are exported as JSON lines by the stdout exporter, to stderr or a
// file, and trace context is propagated to the backend with the W3C
// traceparent header:
//
//	tracer, shutdown, err := telemetry.Start(settings.TraceOutput, os.Stderr)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer shutdown(context.Background())
//
//	manager, err := retrieval.NewManager(settings, onProgress, retrieval.WithTracer(tracer))
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// ServiceName identifies this client in exported spans.
const ServiceName = "data-displayer"

// StderrOutput selects stderr as the span destination.
const StderrOutput = "-"

// ShutdownFunc flushes pending spans and releases the exporter.
type ShutdownFunc func(context.Context) error

// Start resolves a trace output setting and installs tracing for it.
// An empty output disables tracing: the returned tracer is nil and the
// global provider and propagator are left untouched.
func Start(output string, stderr io.Writer) (trace.Tracer, ShutdownFunc, error) {
	if output == "" {
		return nil, func(context.Context) error { return nil }, nil
	}

	w, closer := stderr, io.Closer(nil)
	if output != StderrOutput {
		f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening trace output: %w", err)
		}
		w, closer = f, f
	}

	tracer, shutdown, err := Setup(w)
	if err != nil {
		if closer != nil {
			closer.Close()
		}
		return nil, nil, err
	}

	return tracer, func(ctx context.Context) error {
		err := shutdown(ctx)
		if closer != nil {
			err = errors.Join(err, closer.Close())
		}
		return err
	}, nil
}

// Setup installs a tracer provider exporting every finished span to w and
// the W3C trace context propagator as the process globals.
func Setup(w io.Writer) (trace.Tracer, ShutdownFunc, error) {
	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		return nil, nil, fmt.Errorf("creating span exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", ServiceName))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tp.Tracer("github.com/handiism/data-displayer"), tp.Shutdown, nil
}

package cli

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/macropower/condfmt/pkg/version"
)

// setupTracing installs a global tracer provider exporting spans to an OTLP
// gRPC collector at endpoint. The returned function flushes and stops it.
func setupTracing(ctx context.Context, endpoint string) (func(context.Context) error, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("create OTLP exporter: %w", err)
	}

	info := version.GetInfo()

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cmdName),
			attribute.String("service.version", info.Version),
			attribute.String("vcs.revision", info.Revision),
			attribute.String("process.runtime.version", info.GoVersion),
		)),
	)

	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

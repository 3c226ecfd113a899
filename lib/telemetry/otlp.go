package telemetry

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	exporterDialTimeout = 3 * time.Second
	metricInterval      = 5 * time.Second
)

type transport int

const (
	transportNone transport = iota
	transportGrpc
	transportHttp
)

func (t transport) String() string {
	switch t {
	case transportGrpc:
		return "grpc"
	case transportHttp:
		return "http"
	}
	return "none"
}

// OtlpConnConfig points one signal at a collector. grpc_endpoint wins when
// both endpoints are set.
type OtlpConnConfig struct {
	GrpcEndpoint string            `json:"grpc_endpoint"`
	HttpEndpoint string            `json:"http_endpoint"`
	Headers      map[string]string `json:"headers"`
}

func (c OtlpConnConfig) transport() (transport, string) {
	switch {
	case c.GrpcEndpoint != "":
		return transportGrpc, c.GrpcEndpoint
	case c.HttpEndpoint != "":
		return transportHttp, c.HttpEndpoint
	}
	return transportNone, ""
}

func (c OtlpConnConfig) enabled() bool {
	kind, _ := c.transport()
	return kind != transportNone
}

// OtlpConfig is the "otlp" block of telemetry.json5, each signal is exported
// only when it names an endpoint.
type OtlpConfig struct {
	Traces  OtlpConnConfig `json:"traces"`
	Metrics OtlpConnConfig `json:"metrics"`
}

func (c OtlpConfig) enabled() bool {
	return c.Traces.enabled() || c.Metrics.enabled()
}

type Config struct {
	Otlp OtlpConfig `json:"otlp"`
}

func serviceResource(serviceName string) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(serviceName),
		),
	)
}

func logExporter(signal string, kind transport, endpoint string, conn OtlpConnConfig) {
	slog.Info(
		"otlp exporter ready",
		"signal", signal,
		"transport", kind.String(),
		"endpoint", endpoint,
		"headers", len(conn.Headers) > 0,
	)
}

func spanExporter(ctx context.Context, conn OtlpConnConfig) (trace.SpanExporter, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	kind, endpoint := conn.transport()
	logExporter("traces", kind, endpoint, conn)
	if kind == transportGrpc {
		return otlptracegrpc.New(
			ctx,
			otlptracegrpc.WithEndpointURL(endpoint),
			otlptracegrpc.WithHeaders(conn.Headers),
		)
	}
	return otlptracehttp.New(
		ctx,
		otlptracehttp.WithEndpointURL(endpoint),
		otlptracehttp.WithHeaders(conn.Headers),
	)
}

func metricExporter(ctx context.Context, conn OtlpConnConfig) (metric.Exporter, error) {
	ctx, cancel := context.WithTimeout(ctx, exporterDialTimeout)
	defer cancel()

	kind, endpoint := conn.transport()
	logExporter("metrics", kind, endpoint, conn)
	if kind == transportGrpc {
		return otlpmetricgrpc.New(
			ctx,
			otlpmetricgrpc.WithEndpointURL(endpoint),
			otlpmetricgrpc.WithHeaders(conn.Headers),
		)
	}
	return otlpmetrichttp.New(
		ctx,
		otlpmetrichttp.WithEndpointURL(endpoint),
		otlpmetrichttp.WithHeaders(conn.Headers),
	)
}

package observability

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/annel0/voxelmap/internal/logging"
)

// Options параметры трассировки
type Options struct {
	ServiceName string
	Endpoint    string // host:port OTLP HTTP, пусто означает localhost:4318
	Insecure    bool
}

// OptionsFromEnv читает VOXELMAP_OTLP_ENDPOINT. Пустая переменная отключает трассировку.
func OptionsFromEnv(serviceName string) (Options, bool) {
	endpoint := os.Getenv("VOXELMAP_OTLP_ENDPOINT")
	if endpoint == "" {
		return Options{ServiceName: serviceName}, false
	}
	return Options{ServiceName: serviceName, Endpoint: endpoint, Insecure: true}, true
}

// InitTelemetry настраивает OTLP экспортер и устанавливает глобальный TracerProvider.
// Возвращает функцию shutdown, которую нужно вызвать при завершении приложения.
func InitTelemetry(ctx context.Context, opts Options) (func(context.Context) error, error) {
	var clientOpts []otlptracehttp.Option
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, otlptracehttp.WithEndpoint(opts.Endpoint))
	}
	if opts.Insecure {
		clientOpts = append(clientOpts, otlptracehttp.WithInsecure())
	}

	exp, err := otlptracehttp.New(ctx, clientOpts...)
	if err != nil {
		return nil, err
	}
	return install(ctx, opts.ServiceName, trace.WithBatcher(exp))
}

// install создаёт провайдер с ресурсом сервиса и делает его глобальным
func install(ctx context.Context, serviceName string, processor trace.TracerProviderOption) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(semconv.ServiceName(serviceName)),
	)
	if err != nil {
		return nil, err
	}

	tp := trace.NewTracerProvider(processor, trace.WithResource(res))
	otel.SetTracerProvider(tp)
	logging.Info("📡 OpenTelemetry инициализирован (service=%s)", serviceName)

	shutdown := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return tp.Shutdown(ctx)
	}
	return shutdown, nil
}

// NoopShutdown возвращается, когда трассировка выключена
func NoopShutdown(context.Context) error { return nil }

// Tracer возвращает трассировщик компонента карты из глобального провайдера
func Tracer(component string) oteltrace.Tracer {
	return otel.Tracer("github.com/annel0/voxelmap/internal/" + component)
}

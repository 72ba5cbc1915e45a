package middleware

import (
	"fmt"

	"vidnest/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// headerCarrier adapts Fiber request headers to the otel propagation carrier.
type headerCarrier struct{ c *fiber.Ctx }

func (h headerCarrier) Get(key string) string { return h.c.Get(key) }
func (h headerCarrier) Set(key, value string) { h.c.Set(key, value) }
func (h headerCarrier) Keys() []string {
	keys := make([]string, 0)
	for k := range h.c.GetReqHeaders() {
		keys = append(keys, k)
	}
	return keys
}

var _ propagation.TextMapCarrier = headerCarrier{}

// TracingMiddleware starts a server span per request and propagates it through the user context.
func TracingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := otel.GetTextMapPropagator().Extract(c.UserContext(), headerCarrier{c})

		ctx, span := observability.Tracer.Start(ctx, fmt.Sprintf("%s %s", c.Method(), c.Route().Path),
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", c.Method()),
				attribute.String("http.path", c.Path()),
			),
		)
		defer span.End()

		traceID := span.SpanContext().TraceID().String()
		c.Locals("traceID", traceID)
		c.Set("X-Trace-ID", traceID)
		if requestID, ok := c.Locals("requestid").(string); ok {
			span.SetAttributes(attribute.String("request.id", requestID))
		}

		c.SetUserContext(ctx)
		err := c.Next()

		span.SetAttributes(attribute.Int("http.status_code", c.Response().StatusCode()))
		if err != nil {
			span.RecordError(err)
		}
		if uid := ViewerID(c); uid != 0 {
			span.SetAttributes(attribute.Int64("user.id", int64(uid)))
		}
		return err
	}
}

// InitMetrics creates the HTTP metrics collector for serviceName on its own
// registry so several servers can share one process.
func InitMetrics(serviceName string) (*fiberprometheus.FiberPrometheus, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return fiberprometheus.NewWithRegistry(reg, serviceName, "http", "", nil), reg
}

// MetricsHandler exposes the HTTP metrics in reg next to the domain metrics
// registered on the default registry.
func MetricsHandler(reg prometheus.Gatherer) fiber.Handler {
	gatherers := prometheus.Gatherers{prometheus.DefaultGatherer, reg}
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
}

// MetricsMiddleware records request count and latency through p.
func MetricsMiddleware(p *fiberprometheus.FiberPrometheus) fiber.Handler {
	return p.Middleware
}

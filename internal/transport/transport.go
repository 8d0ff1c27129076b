// Package transport wraps the rider client's HTTP transport with logging,
// metrics and tracing, mirroring what the sandbox does on the server side.
package transport

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Middleware decorates a RoundTripper.
type Middleware func(http.RoundTripper) http.RoundTripper

// Chain applies mw so that the first one sees the request first.
func Chain(base http.RoundTripper, mw ...Middleware) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	for i := len(mw) - 1; i >= 0; i-- {
		base = mw[i](base)
	}
	return base
}

func Logging(logger *slog.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			span := trace.SpanFromContext(r.Context())

			l := logger.With(
				slog.String("trace_id", span.SpanContext().TraceID().String()),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("request_id", r.Header.Get("X-Request-ID")),
			)

			resp, err := next.RoundTrip(r)
			if err != nil {
				l.WarnContext(r.Context(), "request failed",
					slog.Duration("duration", time.Since(start)),
					slog.Any("error", err),
				)
				return nil, err
			}
			l.InfoContext(r.Context(), "request completed",
				slog.Int("status", resp.StatusCode),
				slog.Duration("duration", time.Since(start)),
			)
			return resp, nil
		})
	}
}

// Metrics counts requests and observes their duration. Failed round trips
// are reported with status "error".
func Metrics(reg prometheus.Registerer) Middleware {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rider_http_requests_total",
			Help: "Requests sent to the rentals backend",
		},
		[]string{"method", "path", "status"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rider_http_request_duration_seconds",
			Help:    "Round trip time of requests to the rentals backend",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	if reg != nil {
		reg.MustRegister(requests, duration)
	}

	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)

			status := "error"
			if err == nil {
				status = strconv.Itoa(resp.StatusCode)
			}
			requests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			duration.WithLabelValues(r.Method, r.URL.Path, status).Observe(time.Since(start).Seconds())
			return resp, err
		})
	}
}

// Tracing starts a client span per request and injects its context into
// the outgoing headers.
func Tracing() Middleware {
	tracer := otel.Tracer("rider-client")

	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripFunc(func(r *http.Request) (*http.Response, error) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path, trace.WithSpanKind(trace.SpanKindClient))
			defer span.End()

			r = r.Clone(ctx)
			otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(r.Header))
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.url", r.URL.String()),
			)

			resp, err := next.RoundTrip(r)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				return nil, err
			}
			span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
			if resp.StatusCode >= 500 {
				span.SetStatus(codes.Error, resp.Status)
			}
			return resp, nil
		})
	}
}

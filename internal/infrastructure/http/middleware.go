package httptransport

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/tiffin-labs/canteen/internal/pkg/logging"
	"github.com/tiffin-labs/canteen/internal/pkg/metrics"
)

// Middleware combines W3C trace context extraction, X-Request-ID
// generation and echo, a request-scoped logger, and HTTP metrics with
// low-cardinality route labels.
func Middleware(base *zap.Logger, met *metrics.Metrics) func(http.Handler) http.Handler {
	prop := otel.GetTextMapPropagator() // W3C by default

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			sc := trace.SpanContextFromContext(ctx)

			rid := r.Header.Get("X-Request-ID")
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", rid)

			fields := []zap.Field{zap.String("request_id", rid)}
			if sc.IsValid() {
				fields = append(fields,
					zap.String("trace_id", sc.TraceID().String()),
					zap.String("span_id", sc.SpanID().String()),
				)
			}
			ctx = logging.ContextWithLogger(ctx, base.With(fields...))

			start := time.Now()
			lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(lrw, r.WithContext(ctx))

			if met != nil {
				route := routeLabel(r.URL.Path)
				status := strconv.Itoa(lrw.status)
				met.HTTPRequests.WithLabelValues(r.Method, route, status).Inc()
				met.HTTPDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			}
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// routeLabel collapses order ids out of paths so metric labels stay
// low-cardinality.
func routeLabel(path string) string {
	if strings.HasPrefix(path, "/orders/") {
		if path == "/orders/stream" {
			return "/orders/stream"
		}
		if strings.HasSuffix(path, "/status") {
			return "/orders/{id}/status"
		}
		return "/orders/{id}"
	}
	return path
}

package middleware

import (
	"fmt"
	"net/http"
	"rental/config"
	"rental/infras/otel"
	"rental/shared/cache"
	"rental/shared/constant"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

const (
	otelHTTPScopeName = "http"
)

type AppMiddleware interface {
	Tracing(next http.Handler) http.Handler
	RateLimit() func(http.Handler) http.Handler
}

type appMiddleware struct {
	otel   otel.Otel
	config *config.Config
	cache  cache.RedisCache
}

func NewAppMiddleware(otel otel.Otel, config *config.Config, cache cache.RedisCache) AppMiddleware {
	return &appMiddleware{
		otel:   otel,
		config: config,
		cache:  cache,
	}
}

// Tracing opens the root span of a request. The route pattern is only known once chi has
// matched it, so it is attached after the handler returns.
func (a *appMiddleware) Tracing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, scope := a.otel.NewScope(r.Context(), otelHTTPScopeName, fmt.Sprintf("%s %s", r.Method, r.URL.Path))
		defer scope.End()

		scope.SetAttributes(map[string]any{
			"app.name":        a.config.App.Name,
			"http.path":       r.URL.Path,
			"http.method":     r.Method,
			"http.user_agent": a.getUA(r),
			"http.host":       r.Host,
			"http.source":     clientIP(r),
			"http.request_id": chiMiddleware.GetReqID(ctx),
		})

		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(ctx))

		attributes := map[string]any{
			"http.status_code": ww.Status(),
		}

		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			attributes["http.route"] = rctx.RoutePattern()
		}

		scope.SetAttributes(attributes)

		if ww.Status() >= http.StatusInternalServerError {
			scope.TraceError(fmt.Errorf("%s %s responded %d", r.Method, r.URL.Path, ww.Status()))
		}
	})
}

// RequestID echoes the generated request id so clients can quote it.
func RequestID(next http.Handler) http.Handler {
	return chiMiddleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(constant.RequestHeaderRequestID, chiMiddleware.GetReqID(r.Context()))

		next.ServeHTTP(w, r)
	}))
}

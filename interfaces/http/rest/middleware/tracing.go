package middleware

import (
	"net/http"

	"github.com/frankkinuthian/lms-v3/pkg/observability"
)

// Tracing opens an X-Ray segment for each request. A nil tracer disables it.
func Tracing(tracer *observability.Tracer) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tracer == nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx, seg := tracer.StartSegment(r.Context(), r.Method+" "+r.URL.Path)
			defer seg.Close(nil)

			tracer.AddAnnotation(ctx, "http.method", r.Method)
			tracer.AddAnnotation(ctx, "http.path", r.URL.Path)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

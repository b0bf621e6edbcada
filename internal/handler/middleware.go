package handler

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/auth"
	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	claimsKey    contextKey = "claims"
)

// ─── Correlation & logging ────────────────────────────────────────────────────

// CorrelationID reuses or assigns an X-Request-ID and puts a logger carrying
// it into the request context.
func CorrelationID(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", requestID)

			reqLogger := logger.With().Str("request_id", requestID).Logger()
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)
			ctx = reqLogger.WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID returns the correlation id of the request, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(p)
	w.bytes += n
	return n, err
}

// RequestLogging writes one access log line per request.
func RequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w}

		next.ServeHTTP(rw, r)

		zerolog.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.status).
			Int("bytes", rw.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// ─── Tracing ──────────────────────────────────────────────────────────────────

const tracerName = "github.com/Shivanand-hulikatti/smartevent/internal/handler"

// Tracing starts a server span per request and continues any incoming W3C
// trace context.
func Tracing(next http.Handler) http.Handler {
	tracer := otel.Tracer(tracerName)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, span := tracer.Start(ctx, r.Method+" "+r.URL.Path,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				semconv.HTTPMethod(r.Method),
				semconv.HTTPURL(r.URL.String()),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		if id := RequestID(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}

		rw := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rw, r.WithContext(ctx))

		// The route pattern is only known once chi has matched the request.
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				span.SetName(r.Method + " " + pattern)
				span.SetAttributes(semconv.HTTPRoute(pattern))
			}
		}

		status := rw.status
		if status == 0 {
			status = http.StatusOK
		}
		span.SetAttributes(semconv.HTTPStatusCode(status))
		if status >= 500 {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	})
}

// ─── CORS ─────────────────────────────────────────────────────────────────────

// CORS answers browsers from the allowed origins and short-circuits preflight
// requests with 204.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.ToLower(strings.TrimSpace(o))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			if _, ok := allowed[strings.ToLower(origin)]; ok {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
				h.Set("Access-Control-Expose-Headers", "X-Request-ID, Retry-After")
				h.Set("Access-Control-Max-Age", "86400")
				h.Add("Vary", "Origin")
			} else {
				zerolog.Ctx(r.Context()).Warn().
					Str("origin", origin).
					Str("path", r.URL.Path).
					Msg("CORS request rejected: origin not allowed")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ─── Authentication ───────────────────────────────────────────────────────────

// TokenValidator checks a bearer token and returns its claims.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// token claims in the request context.
func Authenticate(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				writeFailure(w, r, model.ReasonUnauthenticated, "")
				return
			}
			claims, err := validator.Validate(token)
			if err != nil {
				writeFailure(w, r, model.ReasonUnauthenticated, "")
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			logger := zerolog.Ctx(ctx).With().Str("user_id", claims.UserID()).Logger()
			ctx = logger.WithContext(ctx)
			trace.SpanFromContext(ctx).SetAttributes(attribute.String("user.id", claims.UserID()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// callerFrom returns the claims stored by Authenticate.
func callerFrom(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey).(*auth.Claims)
	return c, ok && c != nil
}

// ─── Rate limiting ────────────────────────────────────────────────────────────

const (
	limiterIdleTTL       = 15 * time.Minute
	limiterSweepInterval = 5 * time.Minute
)

// RateLimiter keeps one token bucket per client address.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*limiterEntry
	limit     rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows perMinute requests per client with the given burst.
// A non-positive perMinute disables limiting.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		burst:    burst,
		now:      time.Now,
	}
	if perMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(perMinute))
		if rl.burst <= 0 {
			rl.burst = perMinute
		}
	}
	rl.lastSweep = rl.now()
	return rl
}

// Middleware rejects requests over the limit with 429 and Retry-After.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit == 0 {
			next.ServeHTTP(w, r)
			return
		}
		limiter := rl.limiter(clientKey(r))
		if !limiter.Allow() {
			retry := time.Duration(float64(time.Second) / float64(rl.limit))
			w.Header().Set("Retry-After", strconv.Itoa(int(retry.Seconds())+1))
			writeFailure(w, r, model.ReasonRateLimited, "")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterSweepInterval {
		for k, e := range rl.limiters {
			if now.Sub(e.lastSeen) > limiterIdleTTL {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}

	if e, ok := rl.limiters[key]; ok {
		e.lastSeen = now
		return e.limiter
	}
	l := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[key] = &limiterEntry{limiter: l, lastSeen: now}
	return l
}

// clientKey is the remote host; chi's RealIP middleware has already applied
// X-Forwarded-For / X-Real-IP.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

package http

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"time"

	"comictalk/infrastructure/cache"
	"comictalk/internal/entity"
	"comictalk/internal/metrics"
	"comictalk/internal/usecase"
	"comictalk/pkg/jwt"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type contextKey string

const UserContextKey contextKey = "user"

type AuthMiddleware struct {
	authUc usecase.AuthUsecase
	userUc usecase.UserUsecase
	log    zerolog.Logger
}

func NewAuthMiddleware(authUc usecase.AuthUsecase, userUc usecase.UserUsecase, log zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		authUc: authUc,
		userUc: userUc,
		log:    log,
	}
}

// Authenticate requires a valid bearer token and records the caller's activity.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSON(w, http.StatusUnauthorized, "authorization header required", nil)
			return
		}

		token := jwt.BearerToken(authHeader)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, "invalid authorization header format", nil)
			return
		}

		claims, err := m.authUc.ValidateAccessToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}

		if err := m.userUc.Touch(r.Context(), claims.UserId); err != nil {
			m.log.Debug().Err(err).Int64("user_id", claims.UserId).Msg("touch last seen")
		}

		ctx := context.WithValue(r.Context(), UserContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClaimsFrom returns the identity stored by Authenticate.
func ClaimsFrom(ctx context.Context) (*entity.TokenClaims, bool) {
	claims, ok := ctx.Value(UserContextKey).(*entity.TokenClaims)
	return claims, ok && claims != nil
}

// RequestLogger logs one line per request.
func RequestLogger(log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("request_id", middleware.GetReqID(r.Context())).
					Str("remote_addr", r.RemoteAddr).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// Metrics records request counts and latency labelled by route pattern.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		path := routePattern(r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// RateLimit throttles requests per client IP. Limiter failures let the
// request through.
func RateLimit(limiter cache.Limiter, log zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), "ip:"+clientIP(r))
			if err != nil {
				log.Warn().Err(err).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !allowed {
				metrics.RateLimitHits.WithLabelValues("http").Inc()
				w.Header().Set("Retry-After", "60")
				writeJSON(w, http.StatusTooManyRequests, "too many requests", nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

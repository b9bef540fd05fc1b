package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/goodtune/pesonet/internal/metrics"
	"github.com/goodtune/pesonet/internal/shop"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ContextKeyAccount is the context key for the authenticated account.
const ContextKeyAccount contextKey = "account"

// AccountLookup finds an operator account by username.
type AccountLookup interface {
	Account(username string) (shop.Account, error)
}

var compareHash = bcrypt.CompareHashAndPassword

var (
	dummyOnce sync.Once
	dummy     []byte
)

// dummyHash returns a hash at the same cost as stored accounts, compared
// against when the username does not exist.
func dummyHash() []byte {
	dummyOnce.Do(func() {
		dummy, _ = bcrypt.GenerateFromPassword([]byte("pesonet"), bcrypt.DefaultCost)
	})
	return dummy
}

// AuthMiddleware authenticates requests with HTTP basic auth against the
// stored accounts.
func AuthMiddleware(accounts AccountLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			username, password, ok := r.BasicAuth()
			if !ok {
				unauthorized(w)
				return
			}

			account, err := accounts.Account(username)
			if err != nil {
				// Unknown users pay for a compare too.
				_ = compareHash(dummyHash(), []byte(password))
				unauthorized(w)
				return
			}
			if err := compareHash([]byte(account.PasswordHash), []byte(password)); err != nil {
				unauthorized(w)
				return
			}

			ctx := context.WithValue(r.Context(), ContextKeyAccount, account)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose account does not have role.
func RequireRole(role shop.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			account, ok := AccountFromContext(r.Context())
			if !ok || account.Role != role {
				writeError(w, http.StatusForbidden, fmt.Sprintf("%s role required", role))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AccountFromContext returns the authenticated account, if any.
func AccountFromContext(ctx context.Context) (shop.Account, bool) {
	account, ok := ctx.Value(ContextKeyAccount).(shop.Account)
	return account, ok
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Basic realm="pesonet"`)
	writeError(w, http.StatusUnauthorized, "Invalid credentials")
}

// LoggingMiddleware creates middleware for logging HTTP requests.
func LoggingMiddleware(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// Create response writer wrapper to capture status code
			wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			metrics.RequestsTotal.WithLabelValues(r.Method, strconv.Itoa(wrapped.statusCode)).Inc()

			event := logger.Info()
			if wrapped.statusCode >= http.StatusInternalServerError {
				event = logger.Error()
			}
			if account, ok := AccountFromContext(r.Context()); ok {
				event = event.Str("user", account.Username)
			}
			event.
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Str("request_id", middleware.GetReqID(r.Context())).
				Int("status", wrapped.statusCode).
				Dur("duration", time.Since(start)).
				Msg("API request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (w *responseWriter) WriteHeader(statusCode int) {
	if !w.wroteHeader {
		w.statusCode = statusCode
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

// RateLimitMiddleware limits each client IP to limit requests per window.
func RateLimitMiddleware(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		limit,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// Provides request logging and bearer token authentication.

package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/maruel/ksid"

	"github.com/maruel/propertyhub/internal/server/reqctx"
)

var (
	errUnauthorized   = errors.New("unauthorized")
	errInvalidAuthHdr = errors.New("invalid authorization header")
	errInvalidToken   = errors.New("invalid token")
	errInvalidSubject = errors.New("invalid subject in token")
)

// authenticate validates the bearer token of r and returns its subject.
func authenticate(r *http.Request, secret []byte) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errUnauthorized
	}
	scheme, tokenString, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != "Bearer" || tokenString == "" {
		return "", errInvalidAuthHdr
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", errInvalidSubject
	}
	return sub, nil
}

// NewToken returns an HS256 API token for subject valid for ttl.
func NewToken(secret []byte, subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// statusWriter records the status code written by a handler.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// RequestLogger tags each request with an id, echoed in X-Request-ID, and
// logs it once served.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := ksid.NewID()
		ctx := reqctx.WithRequestID(r.Context(), id)
		w.Header().Set("X-Request-ID", id.String())
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r.WithContext(ctx))
		if sw.status == 0 {
			sw.status = http.StatusOK
		}
		level := slog.LevelInfo
		if r.URL.Path == "/api/health" {
			level = slog.LevelDebug
		}
		slog.Log(ctx, level, "http",
			"id", id,
			"m", r.Method,
			"p", r.URL.Path,
			"s", sw.status,
			"b", sw.bytes,
			"d", time.Since(start).Round(time.Millisecond),
			"ip", reqctx.GetClientIP(r),
		)
	})
}

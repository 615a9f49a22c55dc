// Provides middleware for standardizing HTTP handlers.

package server

import (
	"bytes"
	"context"
	"encoding"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/maruel/propertyhub/internal/config"
	"github.com/maruel/propertyhub/internal/server/dto"
	"github.com/maruel/propertyhub/internal/server/ratelimit"
	"github.com/maruel/propertyhub/internal/server/reqctx"
)

// isMutating returns true for HTTP methods that modify state.
func isMutating(method string) bool {
	return method == http.MethodPost || method == http.MethodPut || method == http.MethodPatch || method == http.MethodDelete
}

// Wrap wraps a handler function to work as an http.Handler.
// The function must have signature: func(context.Context, *In) (*Out, error)
// where In can be unmarshalled from JSON and Out is a struct.
// Path parameters are read into fields tagged `path:"name"` and query
// parameters into fields tagged `query:"name"`.
// *In must implement dto.Validatable.
//
// Mutating requests require a bearer token when cfg.RequireAuth is set.
//
// Example:
//
//	type PropertyIDRequest struct {
//	    ID int64 `path:"id" json:"-"`
//	}
//
//	func (h *PropertyHandler) Get(ctx context.Context, req *PropertyIDRequest) (*Response, error)
func Wrap[In any, PtrIn interface {
	*In
	dto.Validatable
}, Out any](fn func(context.Context, PtrIn) (*Out, error), cfg *config.ServerConfig, tiers *ratelimit.Tiers) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := reqctx.GetClientIP(r)
		ctx := reqctx.WithClientIP(r.Context(), ip)

		var ok bool
		if w, ok = checkRateLimit(w, tiers.Match(r.Method, r.URL.Path), ip); !ok {
			return
		}

		if cfg != nil && cfg.RequireAuth && isMutating(r.Method) {
			sub, err := authenticate(r, cfg.JWTSecret)
			if err != nil {
				slog.WarnContext(ctx, "Rejected request", "err", err, "path", r.URL.Path)
				writeAPIError(w, dto.Unauthorized())
				return
			}
			ctx = reqctx.WithSubject(ctx, sub)
		}

		input := new(In)
		if !readAndDecodeBody(ctx, w, r, input, cfg) {
			return
		}
		if err := populatePathParams(r, input); err != nil {
			handleValidationError(ctx, w, err)
			return
		}
		if err := populateQueryParams(r, input); err != nil {
			handleValidationError(ctx, w, err)
			return
		}
		if err := PtrIn(input).Validate(); err != nil {
			handleValidationError(ctx, w, err)
			return
		}

		output, err := fn(ctx, PtrIn(input))
		writeJSONResponse(ctx, w, output, err)
	})
}

// checkRateLimit consumes a token of tier and wraps the response writer so
// the response carries the limit headers. It returns false after writing a
// 429 response.
func checkRateLimit(w http.ResponseWriter, tier *ratelimit.Tier, identifier string) (http.ResponseWriter, bool) {
	if tier == nil {
		return w, true
	}
	result := tier.Limiter.Allow(ratelimit.BuildKey(identifier, tier.Name))
	w = ratelimit.NewResponseWriter(w, result)
	if !result.Allowed {
		writeAPIError(w, dto.RateLimitExceeded(ratelimit.RetryAfterSeconds(result)))
		return w, false
	}
	return w, true
}

// readAndDecodeBody reads the request body with size limit and decodes JSON into input.
// Returns false if an error occurred and was written to the response.
func readAndDecodeBody[In any](ctx context.Context, w http.ResponseWriter, r *http.Request, input *In, cfg *config.ServerConfig) bool {
	if cfg != nil && cfg.MaxRequestBodyBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, cfg.MaxRequestBodyBytes)
	}
	body, err := io.ReadAll(r.Body)
	if err2 := r.Body.Close(); err == nil {
		err = err2
	}
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeAPIError(w, dto.PayloadTooLarge(maxBytesErr.Limit))
			return false
		}
		slog.ErrorContext(ctx, "Failed to read request body", "err", err)
		writeAPIError(w, dto.BadRequest("Failed to read request body"))
		return false
	}
	if len(bytes.TrimSpace(body)) > 0 {
		d := json.NewDecoder(bytes.NewReader(body))
		d.DisallowUnknownFields()
		if err := d.Decode(input); err != nil {
			slog.WarnContext(ctx, "Failed to decode request body", "err", err)
			writeAPIError(w, dto.BadRequest("Invalid request body"))
			return false
		}
	}
	return true
}

// writeJSONResponse writes a JSON response or error response.
func writeJSONResponse[Out any](ctx context.Context, w http.ResponseWriter, output *Out, err error) {
	if err != nil {
		var ews dto.ErrorWithStatus
		if !errors.As(err, &ews) {
			ews = dto.InternalWithError("internal error", err)
		}
		if ews.StatusCode() >= http.StatusInternalServerError {
			slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", ews.StatusCode(), "code", ews.Code())
		} else {
			slog.InfoContext(ctx, "Handler error", "err", err, "statusCode", ews.StatusCode(), "code", ews.Code())
		}
		writeAPIError(w, ews)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(output); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}

// handleValidationError handles a request binding or validation error.
func handleValidationError(ctx context.Context, w http.ResponseWriter, err error) {
	var ews dto.ErrorWithStatus
	if !errors.As(err, &ews) {
		ews = dto.BadRequest(err.Error())
	}
	slog.InfoContext(ctx, "Validation error", "err", err, "statusCode", ews.StatusCode(), "code", ews.Code())
	writeAPIError(w, ews)
}

// writeAPIError writes err as a JSON error response.
func writeAPIError(w http.ResponseWriter, err dto.ErrorWithStatus) {
	writeErrorResponseWithCode(w, err.StatusCode(), err.Code(), err.Error(), err.Details())
}

// writeErrorResponseWithCode writes a detailed error response as JSON with code and details.
func writeErrorResponseWithCode(w http.ResponseWriter, statusCode int, code dto.ErrorCode, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	response := dto.ErrorResponse{
		Error:   dto.ErrorDetails{Code: code, Message: message},
		Details: details,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode error response", "err", err)
	}
}

// populatePathParams populates struct fields tagged with `path:"name"`.
func populatePathParams(r *http.Request, input any) error {
	return populateTagged(input, "path", func(name string) []string {
		if v := r.PathValue(name); v != "" {
			return []string{v}
		}
		return nil
	})
}

// populateQueryParams populates struct fields tagged with `query:"name"`.
// Slice fields collect every occurrence of a repeated parameter.
func populateQueryParams(r *http.Request, input any) error {
	query := r.URL.Query()
	return populateTagged(input, "query", func(name string) []string {
		return query[name]
	})
}

func populateTagged(input any, tagName string, lookup func(string) []string) error {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Pointer || val.Elem().Kind() != reflect.Struct {
		return nil
	}
	elem := val.Elem()
	typ := elem.Type()
	for i := range typ.NumField() {
		name := typ.Field(i).Tag.Get(tagName)
		if name == "" {
			continue
		}
		values := lookup(name)
		if len(values) == 0 || (len(values) == 1 && values[0] == "") {
			continue
		}
		if err := setField(elem.Field(i), values); err != nil {
			return dto.BadRequest(fmt.Sprintf("invalid %s parameter %s: %q", tagName, name, values[0])).
				WithDetail("field", name).Wrap(err)
		}
	}
	return nil
}

var textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()

// setField parses values into v. Scalars use the first value.
func setField(v reflect.Value, values []string) error {
	if reflect.PointerTo(v.Type()).Implements(textUnmarshalerType) {
		return v.Addr().Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(values[0]))
	}
	switch v.Kind() {
	case reflect.Pointer:
		p := reflect.New(v.Type().Elem())
		if err := setField(p.Elem(), values); err != nil {
			return err
		}
		v.Set(p)
	case reflect.Slice:
		s := reflect.MakeSlice(v.Type(), 0, len(values))
		for _, raw := range values {
			e := reflect.New(v.Type().Elem()).Elem()
			if err := setField(e, []string{raw}); err != nil {
				return err
			}
			s = reflect.Append(s, e)
		}
		v.Set(s)
	case reflect.String:
		v.SetString(values[0])
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(values[0], 10, v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetInt(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(values[0], v.Type().Bits())
		if err != nil {
			return err
		}
		v.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(values[0])
		if err != nil {
			return err
		}
		v.SetBool(b)
	default:
		return fmt.Errorf("unsupported field type %s", v.Type())
	}
	return nil
}

// Package handler contains the HTTP handlers for the JyotAI API.
//
// Every response body is JSON. Failures use the shape
// {"error": "<message>", "code": "<code>"}.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/DukeRupert/jyotai/internal/domain"
	"github.com/DukeRupert/jyotai/internal/middleware"
	"github.com/go-playground/validator/v10"
)

// maxBodyBytes caps request bodies. Face and palm uploads arrive as base64
// inside the JSON document, so the limit is generous.
const maxBodyBytes = 10 << 20

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// errorBody is the JSON shape of every failure response.
type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// ErrorResponse writes an error response to the client.
// It maps domain error codes to HTTP status codes and logs the failure.
func ErrorResponse(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	code := domain.ErrorCode(err)
	message := domain.ErrorMessage(err)
	op := domain.ErrorOp(err)

	status := ErrorCodeToHTTPStatus(code)

	logError(logger, r, err, code, op, status)

	writeJSON(w, status, errorBody{Error: message, Code: code})
}

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest // 400
	case domain.EFORBIDDEN, domain.EQUOTA:
		return http.StatusForbidden // 403
	case domain.ENOTFOUND:
		return http.StatusNotFound // 404
	case domain.EMETHOD:
		return http.StatusMethodNotAllowed // 405
	case domain.ECONFLICT:
		return http.StatusConflict // 409
	case domain.ERATELIMIT:
		return http.StatusTooManyRequests // 429
	default:
		// EINTERNAL, EUPSTREAM, ETIMEOUT, EUNAVAILABLE
		return http.StatusInternalServerError // 500
	}
}

// MethodNotAllowedResponse writes the 405 body shared by every route.
func MethodNotAllowedResponse(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method Not Allowed", Code: domain.EMETHOD})
}

// NotFoundResponse writes the 404 body for unknown paths.
func NotFoundResponse(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "Not Found", Code: domain.ENOTFOUND})
}

// logError logs the error with appropriate level based on status code.
func logError(logger *slog.Logger, r *http.Request, err error, code, op string, status int) {
	attrs := []any{
		"error", err.Error(),
		"code", code,
		"path", middleware.RedactPath(r.URL.Path, ""),
		"method", r.Method,
		"status", status,
	}
	if id := middleware.RequestID(r.Context()); id != "" {
		attrs = append(attrs, "request_id", id)
	}

	if op != "" {
		attrs = append(attrs, "op", op)
	}

	// 5xx are server-side failures, 4xx are expected client errors
	if status >= 500 {
		logger.Error("server error", attrs...)
	} else if status >= 400 {
		logger.Info("client error", attrs...)
	}
}

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeJSON reads a JSON request body into dst. An empty body leaves dst
// untouched so that handlers report missing fields with their own messages.
func decodeJSON(w http.ResponseWriter, r *http.Request, op string, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(dst)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return domain.Invalid(op, "Request body too large.")
		}
		return domain.Invalid(op, "Invalid JSON body.")
	}
}

// validateStruct runs the struct tag rules and converts failures into a
// domain.ValidationError keyed by JSON field name.
func validateStruct(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.Internal(err, op, "")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(fieldErrs))}
	for i, fe := range fieldErrs {
		field := fe.Field()
		msg := fieldMessage(field, fe)
		if i == 0 {
			ve.Summary = msg
		}
		ve.Fields[field] = msg
	}
	return ve
}

func fieldMessage(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", field)
	case "email":
		return "Invalid email format."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid.", field)
	}
}

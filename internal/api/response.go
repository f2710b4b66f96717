package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/erazemk/sladkarije/internal/auth"
	"github.com/erazemk/sladkarije/internal/model"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON names in validation messages.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// writeError maps an error to its HTTP status. Anything unrecognised is
// logged and reported as a bare internal error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var denial *auth.Denial
	var short *model.InsufficientStockError

	switch {
	case errors.As(err, &denial):
		// Missing and bad tokens look the same to the client; the reason
		// is only logged.
		if denial.Reason == auth.DenyInsufficientRole {
			jsonError(w, http.StatusForbidden, "insufficient permissions")
		} else {
			jsonError(w, http.StatusUnauthorized, "authentication required")
		}
	case errors.As(err, &short):
		jsonResponse(w, http.StatusConflict, map[string]any{
			"error":     "insufficient stock",
			"available": short.Available,
		})
	case errors.Is(err, model.ErrInvalidArgument):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, model.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, model.ErrConflict):
		jsonError(w, http.StatusConflict, err.Error())
	case errors.Is(err, model.ErrDuplicateRequest):
		jsonError(w, http.StatusConflict, "duplicate request")
	case errors.Is(err, model.ErrInvalidCredentials):
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, model.ErrInvalidToken), errors.Is(err, model.ErrUnauthorized):
		jsonError(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, model.ErrForbidden):
		jsonError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, model.ErrStockContention):
		w.Header().Set("Retry-After", "1")
		jsonError(w, http.StatusServiceUnavailable, "item is busy, try again")
	default:
		slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "request_id", requestID(r), "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeJSON decodes and validates a JSON request body.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	defer r.Body.Close()
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return fmt.Errorf("%w: invalid request body", model.ErrInvalidArgument)
	}
	return validateRequest(target)
}

func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		return fmt.Errorf("%w: %s", model.ErrInvalidArgument, describe(fieldErrs[0]))
	}
	return fmt.Errorf("%w: %v", model.ErrInvalidArgument, err)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "email":
		return fe.Field() + " must be a valid email address"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "gte":
		return fmt.Sprintf("%s must not be less than %s", fe.Field(), fe.Param())
	default:
		return fe.Field() + " is invalid"
	}
}

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"slices"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/product-catalog/internal/domain"
)

const maxBodyBytes = 1 << 20

// Error kinds reported in ErrorResponse.Error
const (
	ErrorKindValidation = "ValidationError"
	ErrorKindNotFound   = "NotFound"
	ErrorKindBadRequest = "BadRequest"
	ErrorKindTooLarge   = "PayloadTooLarge"
	ErrorKindServer     = "ServerError"
)

var errTrailingData = errors.New("body must contain a single JSON value")

// readJSON decodes exactly one JSON value from the request body
func readJSON(w http.ResponseWriter, r *http.Request, data any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(data); err != nil {
		return err
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}

// writeJSON writes data as the response body with the given status
func writeJSON(w http.ResponseWriter, status int, data any) error {
	out, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("failed to write to response: %w", err)
	}
	return nil
}

// unmarshalBody decodes a syntactically valid body into T. Explicit nulls
// and values of the wrong type are reported as validation errors, the same
// way missing or out of range fields are.
func unmarshalBody[T any](raw json.RawMessage, message string) (T, error) {
	var body T

	if issues := nullFieldIssues[T](raw); len(issues) > 0 {
		return body, &domain.ValidationError{Message: message, Issues: issues}
	}

	if err := json.Unmarshal(raw, &body); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return body, &domain.ValidationError{
				Message: message,
				Issues: []domain.Issue{{
					Field:   typeErr.Field,
					Message: fmt.Sprintf("expected %s, received %s", jsonKind(typeErr.Type), typeErr.Value),
				}},
			}
		}
		return body, err
	}
	return body, nil
}

// nullFieldIssues lists the fields of T that are set to null in raw.
// A body that is not an object yields no issues.
func nullFieldIssues[T any](raw json.RawMessage) []domain.Issue {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}

	known := jsonFieldNames(reflect.TypeOf((*T)(nil)).Elem())

	var issues []domain.Issue
	for name, value := range fields {
		if known[name] && bytes.Equal(bytes.TrimSpace(value), []byte("null")) {
			issues = append(issues, domain.Issue{Field: name, Message: name + " must not be null"})
		}
	}
	slices.SortFunc(issues, func(a, b domain.Issue) int { return strings.Compare(a.Field, b.Field) })
	return issues
}

// jsonKind names t the way JSON describes values
func jsonKind(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Pointer:
		return jsonKind(t.Elem())
	case reflect.Struct, reflect.Map:
		return "object"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	default:
		return t.String()
	}
}

func jsonFieldNames(t reflect.Type) map[string]bool {
	names := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("json"), ",")
		if name != "" && name != "-" {
			names[name] = true
		}
	}
	return names
}

// writeDecodeError reports a body that could not be decoded
func writeDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   ErrorKindTooLarge,
			Message: fmt.Sprintf("request body must not exceed %d bytes", maxBytesErr.Limit),
		})
		return
	}

	var validationErr *domain.ValidationError
	if errors.As(err, &validationErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   ErrorKindValidation,
			Message: validationErr.Message,
			Issues:  validationErr.Issues,
		})
		return
	}

	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: ErrorKindBadRequest, Message: "invalid JSON body"})
}

// writeServiceError maps service errors onto status codes. Anything that
// is not a validation or not-found error is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, logger hclog.Logger, err error) {
	var validationErr *domain.ValidationError
	switch {
	case errors.As(err, &validationErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   ErrorKindValidation,
			Message: validationErr.Message,
			Issues:  validationErr.Issues,
		})
	case errors.Is(err, domain.ErrProductNotFound):
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   ErrorKindNotFound,
			Message: domain.ErrProductNotFound.Error(),
		})
	default:
		logger.Error("Unhandled error", "error", err)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: ErrorKindServer})
	}
}

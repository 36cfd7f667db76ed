package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// maxBodyBytes bounds JSON request bodies on the admin API.
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report JSON field names rather than Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// decodeJSON reads a single JSON object from the request body into dst and
// validates it against its `validate` tags.
func decodeJSON(r *http.Request, op string, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "Request body is empty")
		case errors.As(err, &syntaxErr):
			return domain.Invalid(op, "Request body is not valid JSON")
		case errors.As(err, &typeErr):
			return domain.NewValidationError(op, typeErr.Field, "has the wrong type")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return domain.NewValidationError(op, field, "is not a known field")
		default:
			return domain.Invalid(op, "Request body could not be read")
		}
	}
	if dec.More() {
		return domain.Invalid(op, "Request body must contain a single JSON object")
	}

	return validateStruct(op, dst)
}

// validateStruct converts validator failures into a domain.ValidationError.
func validateStruct(op string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.Internal(err, op, "Failed to validate request")
	}

	ve := &domain.ValidationError{Op: op, Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		ve.Fields[fe.Field()] = fieldMessage(fe)
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "url", "http_url":
		return "must be a valid URL"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "startswith":
		return fmt.Sprintf("must start with %q", fe.Param())
	default:
		return "is invalid"
	}
}

// pathUUID parses a UUID path parameter.
func pathUUID(r *http.Request, name, op string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(op, name, "must be a valid UUID")
	}
	return id, nil
}

// writeJSON writes v as the JSON response body.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by their JSON names so clients can map errors back to the payload.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	if err := v.RegisterValidation("cpf", func(fl validator.FieldLevel) bool {
		return IsFormattedCPF(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register cpf validation: %v", err))
	}

	return v
}

// Validate validates a struct using go-playground/validator tags.
func Validate(s any) error {
	if err := validate.Struct(s); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return &ValidationError{Errors: validationErrors}
		}
		return err
	}
	return nil
}

// ValidationError wraps validator.ValidationErrors with a user-friendly message.
type ValidationError struct {
	Errors validator.ValidationErrors
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, err := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("field '%s' %s", fieldPath(err), msgForTag(err)))
	}
	return strings.Join(msgs, "; ")
}

// Fields returns a map of field paths (e.g. "addresses[1].cep") to error messages.
func (e *ValidationError) Fields() map[string]string {
	fields := make(map[string]string, len(e.Errors))
	for _, err := range e.Errors {
		fields[fieldPath(err)] = msgForTag(err)
	}
	return fields
}

// fieldPath drops the root struct name from the namespace so nested
// fields keep their position inside the payload.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func msgForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "cpf":
		return "must have 14 characters using only digits, '.' and '-' (e.g. 123.456.789-09)"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed on '%s' validation", fe.Tag())
	}
}

// MaxBodyBytes caps the request body read by DecodeAndValidate.
const MaxBodyBytes = 1 << 20

// ErrTrailingData is returned when the body holds more than one JSON value.
var ErrTrailingData = errors.New("unexpected data after JSON body")

// DecodeAndValidate reads one JSON value of at most MaxBodyBytes from the
// request body into dst and validates it. Oversized bodies fail with an
// error wrapping *http.MaxBytesError.
func DecodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request body: %w", err)
	}

	var maxErr *http.MaxBytesError
	switch _, err := dec.Token(); {
	case errors.Is(err, io.EOF):
	case errors.As(err, &maxErr):
		return fmt.Errorf("decode request body: %w", err)
	default:
		return fmt.Errorf("decode request body: %w", ErrTrailingData)
	}

	return Validate(dst)
}

package handler

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// FieldError represents a validation error on a single request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var bindingMessages = map[string]string{
	"required": "field is required",
	"datetime": "must be a YYYY-MM-DD date",
	"oneof":    "value is not one of the allowed choices",
}

// UseJSONFieldNames makes binding errors report fields by their json tag
// instead of the Go struct field name. Call once during router setup.
func UseJSONFieldNames() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})
}

// BindingErrors converts a ShouldBindJSON error into per-field messages.
// Errors that are not validator errors (malformed JSON) yield nil.
func BindingErrors(err error) []FieldError {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}

	out := make([]FieldError, 0, len(errs))
	for _, e := range errs {
		msg := bindingMessages[e.Tag()]
		if msg == "" {
			msg = e.Error()
		}
		out = append(out, FieldError{Field: e.Field(), Message: msg})
	}
	return out
}

// NewValidationResponse builds the error envelope for binding failures.
func NewValidationResponse(fields []FieldError) *Response {
	return &Response{
		Status:  "error",
		Message: "validation failed",
		Data:    fields,
	}
}

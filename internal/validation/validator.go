// Package validation decodes mutating request payloads into typed shapes and
// checks them against their declared constraints. Every function here is
// pure: it never touches storage.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"tiffin/internal/apperr"
)

var dateLayouts = []string{time.RFC3339, "2006-01-02"}

// Validator wraps a configured validator instance.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator that reports JSON field names.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := jsonName(f)
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, ok := parseDate(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("cents", func(fl validator.FieldLevel) bool {
		c := fl.Field().Float() * 100
		return math.Abs(c-math.Round(c)) < 1e-6
	})
	return &Validator{validate: v}
}

// decode unmarshals body into out and validates it. Every offending field is
// reported, whether it failed to decode or failed a constraint.
func (v *Validator) decode(body []byte, out any) error {
	if len(bytes.TrimSpace(body)) == 0 {
		return apperr.Validation([]apperr.FieldError{{Field: "body", Message: "request body is required"}})
	}
	if !json.Valid(body) {
		var raw any
		return apperr.Validation([]apperr.FieldError{syntaxFieldError(json.Unmarshal(body, &raw))})
	}

	var decoded []apperr.FieldError
	fill(body, reflect.ValueOf(out).Elem(), "", &decoded)
	for _, fe := range decoded {
		if fe.Field == "body" {
			return apperr.Validation(decoded)
		}
	}
	return v.check(out, decoded)
}

// check runs the struct constraints and merges them with decode problems.
// A field that already failed to decode is not reported twice.
func (v *Validator) check(out any, decoded []apperr.FieldError) error {
	fields := decoded
	err := v.validate.Struct(out)
	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("failed to validate payload: %w", err)
		}
		for _, fe := range verrs {
			path := fieldPath(fe)
			if covered(decoded, path) {
				continue
			}
			fields = append(fields, apperr.FieldError{Field: path, Message: message(fe)})
		}
	}
	if len(fields) == 0 {
		return nil
	}
	return apperr.Validation(fields)
}

func covered(decoded []apperr.FieldError, path string) bool {
	for _, fe := range decoded {
		if path == fe.Field || strings.HasPrefix(path, fe.Field+".") || strings.HasPrefix(path, fe.Field+"[") {
			return true
		}
	}
	return false
}

var timeType = reflect.TypeOf(time.Time{})

// fill decodes raw into dst one field at a time, so a mistyped value only
// affects its own path. Present nulls are rejected.
func fill(raw json.RawMessage, dst reflect.Value, path string, errs *[]apperr.FieldError) {
	if string(bytes.TrimSpace(raw)) == "null" {
		*errs = append(*errs, apperr.FieldError{Field: pathOrBody(path), Message: "must not be null"})
		return
	}

	switch {
	case dst.Kind() == reflect.Pointer:
		elem := reflect.New(dst.Type().Elem())
		fill(raw, elem.Elem(), path, errs)
		dst.Set(elem)

	case dst.Kind() == reflect.Struct && dst.Type() != timeType:
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			*errs = append(*errs, apperr.FieldError{Field: pathOrBody(path), Message: "must be a JSON object"})
			return
		}
		for i := 0; i < dst.NumField(); i++ {
			f := dst.Type().Field(i)
			name := jsonName(f)
			if !f.IsExported() || name == "-" {
				continue
			}
			if val, ok := obj[name]; ok {
				fill(val, dst.Field(i), joinPath(path, name), errs)
			}
		}

	case dst.Kind() == reflect.Slice:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			*errs = append(*errs, apperr.FieldError{Field: pathOrBody(path), Message: "must be an array"})
			return
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			fill(item, out.Index(i), fmt.Sprintf("%s[%d]", path, i), errs)
		}
		dst.Set(out)

	default:
		if err := json.Unmarshal(raw, dst.Addr().Interface()); err != nil {
			*errs = append(*errs, apperr.FieldError{Field: pathOrBody(path), Message: "must be " + describeKind(dst.Type())})
		}
	}
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "" {
		return f.Name
	}
	return name
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

func pathOrBody(path string) string {
	if path == "" {
		return "body"
	}
	return path
}

func syntaxFieldError(err error) apperr.FieldError {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperr.FieldError{Field: "body", Message: fmt.Sprintf("malformed JSON at offset %d", syntaxErr.Offset)}
	}
	return apperr.FieldError{Field: "body", Message: "must be a JSON object"}
}

func describeKind(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.Float32, reflect.Float64:
		return "a number"
	case reflect.Slice, reflect.Array:
		return "an array"
	default:
		return "an object"
	}
}

// fieldPath drops the root struct name from the validator namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "gt":
		if param == "0" {
			return "must be a positive number"
		}
		return "must be greater than " + param
	case "gte":
		if param == "0" {
			return "must be zero or greater"
		}
		return "must be at least " + param
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", param)
		}
		if param == "1" {
			return "must not be empty"
		}
		return fmt.Sprintf("must be at least %s characters", param)
	case "max":
		return fmt.Sprintf("must be at most %s characters", param)
	case "url":
		return "must be a valid URL"
	case "email":
		return "must be a valid email address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(param, " ", ", ")
	case "isodate":
		return "must be an ISO-8601 date"
	case "cents":
		return "must have at most two decimal places"
	default:
		return fmt.Sprintf("failed the %s check", fe.Tag())
	}
}

func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

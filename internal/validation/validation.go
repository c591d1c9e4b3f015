// Package validation wraps go-playground/validator with the rules shared by
// request handling and configuration loading.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/matrixise/tokenscan/internal/blockchain"
)

const defaultMessage = "Invalid value"

// FieldError describes one rejected input field
type FieldError struct {
	Msg      string `json:"msg"`
	Param    string `json:"param"`
	Value    any    `json:"value"`
	Location string `json:"location,omitempty"`
}

// Validator checks tagged structs and reports every failing field
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the eth_address and iso8601 rules registered.
// Field names in reports come from the json tag.
func New() *Validator {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(sf reflect.StructField) string {
		name := strings.SplitN(sf.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return sf.Name
		}
		return name
	})
	validate.RegisterValidation("eth_address", func(fl validator.FieldLevel) bool {
		return blockchain.IsValidAddress(fl.Field().String())
	})
	validate.RegisterValidation("iso8601", func(fl validator.FieldLevel) bool {
		_, err := ParseTimestamp(reflect.Indirect(fl.Field()).String())
		return err == nil
	})
	return &Validator{validate: validate}
}

// Struct runs the raw validator, returning validator.ValidationErrors on failure
func (v *Validator) Struct(s any) error {
	return v.validate.Struct(s)
}

// Check validates s and converts failures into field errors. The message of a
// field comes from its msg struct tag.
func (v *Validator) Check(s any, location string) []FieldError {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []FieldError{{Msg: err.Error(), Location: location}}
	}

	t := reflect.Indirect(reflect.ValueOf(s)).Type()
	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		msg := defaultMessage
		if sf, ok := t.FieldByName(fe.StructField()); ok {
			if m := sf.Tag.Get("msg"); m != "" {
				msg = m
			}
		}
		fields = append(fields, FieldError{
			Msg:      msg,
			Param:    fe.Field(),
			Value:    indirect(fe.Value()),
			Location: location,
		})
	}
	return fields
}

func indirect(v any) any {
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return rv.Elem().Interface()
	}
	return v
}

// goibniu/pkg/logging/errors.go

package logging

import (
	"fmt"

	"github.com/rs/zerolog"
)

type ErrorType string

const (
	ErrorTypeLoad    ErrorType = "LOAD"
	ErrorTypeResolve ErrorType = "RESOLVE"
	ErrorTypeExtract ErrorType = "EXTRACT"
	ErrorTypeReport  ErrorType = "REPORT"
)

type GoibniuError struct {
	Type    ErrorType
	Message string
	Err     error
	Fields  map[string]interface{}
}

func (e *GoibniuError) Error() string {
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *GoibniuError) Unwrap() error {
	return e.Err
}

func NewError(errType ErrorType, message string, err error, fields map[string]interface{}) *GoibniuError {
	return &GoibniuError{
		Type:    errType,
		Message: message,
		Err:     err,
		Fields:  fields,
	}
}

func LogError(logger zerolog.Logger, err error) {
	gerr, ok := err.(*GoibniuError)
	if !ok {
		logger.Error().Err(err).Msg(err.Error())
		return
	}

	event := logger.Error().Err(gerr.Err).
		Str("error_type", string(gerr.Type)).
		Str("message", gerr.Message)

	for k, v := range gerr.Fields {
		event = event.Interface(k, v)
	}

	event.Msg(gerr.Message)
}

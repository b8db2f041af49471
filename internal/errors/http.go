package errors

import (
	"errors"
	"net/http"

	"github.com/frontline-gg/wagervault/internal/errors/i18n"
)

// DefaultLocale is the default locale for error messages.
const DefaultLocale = "en-US"

// HTTPResponse is the JSON error envelope returned to API clients.
type HTTPResponse struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// ToHTTP converts any error to an HTTP status code and response body.
// Domain errors carry their mapped status and a localized user message;
// unknown errors collapse to 500 with a generic message.
func ToHTTP(err error, locale string) (int, HTTPResponse) {
	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		return appErr.Code.HTTPStatus(), HTTPResponse{
			Code:    string(appErr.Code),
			Message: catalog.Format(string(appErr.Code), appErr.Metadata),
			Meta:    appErr.Metadata,
		}
	}

	return http.StatusInternalServerError, HTTPResponse{
		Code:    string(CodeUnknown),
		Message: "an unexpected error occurred",
	}
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

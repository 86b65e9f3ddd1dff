package optimade

import (
	"errors"
	"net/http"

	"github.com/nholik/go-optimade/internal/filter"
	"github.com/nholik/go-optimade/internal/lowering"
)

// SyntaxError reports a malformed filter string. Pos is the byte
// offset of the first unparseable token. Maps to HTTP 400 Bad Request.
type SyntaxError = filter.SyntaxError

// UnknownPropertyError reports a filter referencing a property absent
// from the registry. Maps to HTTP 400 Bad Request.
type UnknownPropertyError = lowering.UnknownPropertyError

// TypeMismatchError reports an operand incompatible with the resolved
// property's declared type. Maps to HTTP 400 Bad Request.
type TypeMismatchError = lowering.TypeMismatchError

// UnsupportedFeatureError reports a valid grammar construct the
// selected backend cannot express. Maps to HTTP 501 Not Implemented:
// it reflects a backend capability gap, not a client mistake.
type UnsupportedFeatureError = lowering.UnsupportedFeatureError

// ErrUnknownBackend indicates a compile request for a backend with no
// registered transformer.
var ErrUnknownBackend = errors.New("optimade: unknown backend")

// HTTPStatus maps a compilation error to the HTTP status code the
// routing layer should answer with. Non-compilation errors map to 500.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var syntaxErr *SyntaxError
	var unknownProp *UnknownPropertyError
	var typeMismatch *TypeMismatchError
	var unsupported *UnsupportedFeatureError

	switch {
	case errors.As(err, &syntaxErr),
		errors.As(err, &unknownProp),
		errors.As(err, &typeMismatch):
		return http.StatusBadRequest
	case errors.As(err, &unsupported):
		return http.StatusNotImplemented
	case errors.Is(err, ErrUnknownBackend):
		return http.StatusNotImplemented
	}

	return http.StatusInternalServerError
}

// errorKind names the compile error variant for metrics and span
// attributes.
func errorKind(err error) string {
	if err == nil {
		return ""
	}

	var syntaxErr *SyntaxError
	var unknownProp *UnknownPropertyError
	var typeMismatch *TypeMismatchError
	var unsupported *UnsupportedFeatureError

	switch {
	case errors.As(err, &syntaxErr):
		return "syntax"
	case errors.As(err, &unknownProp):
		return "unknown_property"
	case errors.As(err, &typeMismatch):
		return "type_mismatch"
	case errors.As(err, &unsupported):
		return "unsupported_feature"
	}

	return "internal"
}

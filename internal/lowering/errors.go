package lowering

import "fmt"

// UnknownPropertyError reports a filter referencing a property absent
// from the registry.
type UnknownPropertyError struct {
	Name string
}

func (e *UnknownPropertyError) Error() string {
	return fmt.Sprintf("unknown property %q", e.Name)
}

// TypeMismatchError reports an operand incompatible with the resolved
// property's declared type.
type TypeMismatchError struct {
	Property string
	Expected string
	Got      string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch on property %q: expected %s, got %s", e.Property, e.Expected, e.Got)
}

// UnsupportedFeatureError reports a grammar construct the selected
// backend cannot express. It maps to HTTP 501, not 400: the filter is
// valid, the backend capability is missing.
type UnsupportedFeatureError struct {
	Backend   string
	Construct string
}

func (e *UnsupportedFeatureError) Error() string {
	return fmt.Sprintf("backend %q does not support %s", e.Backend, e.Construct)
}

func newUnsupportedFeature(backend, construct string) *UnsupportedFeatureError {
	return &UnsupportedFeatureError{Backend: backend, Construct: construct}
}

func newTypeMismatch(property, expected, got string) *TypeMismatchError {
	return &TypeMismatchError{Property: property, Expected: expected, Got: got}
}

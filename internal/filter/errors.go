package filter

import "fmt"

// SyntaxError describes a malformed filter string. Pos is the byte
// offset of the first unparseable token in the input.
type SyntaxError struct {
	Message string
	Pos     int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
}

func newSyntaxError(pos int, message string) *SyntaxError {
	return &SyntaxError{Message: message, Pos: pos}
}

func newSyntaxErrorf(pos int, format string, args ...interface{}) *SyntaxError {
	return &SyntaxError{Message: fmt.Sprintf(format, args...), Pos: pos}
}

package extraction

import (
	"errors"
	"fmt"
)

// ErrParse indicates that no syntax tree could be built for a file.
var ErrParse = errors.New("parse error")

// ParseError is the only error that aborts extraction of a whole file.
type ParseError struct {
	Language Language
	Err      error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("failed to parse %s source", e.Language)
	}
	return fmt.Sprintf("failed to parse %s source: %v", e.Language, e.Err)
}

// Unwrap exposes both ErrParse and the underlying cause to errors.Is.
func (e *ParseError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrParse}
	}
	return []error{ErrParse, e.Err}
}

// NewParseError wraps cause as a ParseError for lang.
func NewParseError(lang Language, cause error) *ParseError {
	return &ParseError{Language: lang, Err: cause}
}

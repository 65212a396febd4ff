package errors

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"
)

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryDispatch Category = "dispatch"
	CategoryBinding  Category = "binding"
	CategoryConfig   Category = "config"
	CategoryPage     Category = "page"
	CategorySession  Category = "session"
)

// Location represents a position in a config or page file.
type Location struct {
	File   string `json:"file"`
	Line   int    `json:"line"`
	Column int    `json:"column,omitempty"`
}

// String returns the location as a formatted string.
func (l *Location) String() string {
	if l == nil {
		return ""
	}
	if l.Column > 0 {
		return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d", l.File, l.Line)
}

// ElementRef identifies a page element by tag, id attribute and session
// handle. Any field may be empty.
type ElementRef struct {
	Tag string `json:"tag,omitempty"`
	ID  string `json:"id,omitempty"`
	HID string `json:"hid,omitempty"`
}

// String renders the element as an opening tag, e.g. <img id="hero" hid="h3">.
func (r *ElementRef) String() string {
	if r == nil {
		return ""
	}
	tag := r.Tag
	if tag == "" {
		tag = "element"
	}
	s := "<" + tag
	if r.ID != "" {
		s += fmt.Sprintf(" id=%q", r.ID)
	}
	if r.HID != "" {
		s += fmt.Sprintf(" hid=%q", r.HID)
	}
	return s + ">"
}

// LazyError is a structured error with a code, an optional file location and a fix hint.
type LazyError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (runtime, config, etc.).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Element is the page element the error concerns, if any.
	Element *ElementRef

	// Location is the file position where the error occurred, if known.
	Location *Location

	// Context contains surrounding source lines.
	Context []string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *LazyError) Error() string {
	msg := e.Message
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *LazyError) Unwrap() error {
	return e.Wrapped
}

// Is matches another LazyError carrying the same code.
func (e *LazyError) Is(target error) bool {
	t, ok := target.(*LazyError)
	if !ok || t.Code == "" {
		return false
	}
	return t.Code == e.Code
}

// WithLocation adds a file location to the error.
func (e *LazyError) WithLocation(file string, line, column int) *LazyError {
	e.Location = &Location{File: file, Line: line, Column: column}
	e.Context = readContextLines(file, line, 5)
	return e
}

// yamlLine matches the line prefix used by gopkg.in/yaml.v3 errors.
var yamlLine = regexp.MustCompile(`line (\d+)(?::(\d+))?`)

// WithLocationFromError extracts a line number from a decoder error for file.
func (e *LazyError) WithLocationFromError(file string, err error) *LazyError {
	if err == nil {
		return e
	}
	m := yamlLine.FindStringSubmatch(err.Error())
	if m == nil {
		return e
	}
	line, _ := strconv.Atoi(m[1])
	col := 0
	if m[2] != "" {
		col, _ = strconv.Atoi(m[2])
	}
	if line > 0 {
		e.WithLocation(file, line, col)
	}
	return e
}

// WithElement records the tag and id of the element the error concerns.
func (e *LazyError) WithElement(tag, id string) *LazyError {
	if e.Element == nil {
		e.Element = &ElementRef{}
	}
	e.Element.Tag, e.Element.ID = tag, id
	return e
}

// WithHID records the session handle of the element the error concerns.
func (e *LazyError) WithHID(hid string) *LazyError {
	if e.Element == nil {
		e.Element = &ElementRef{}
	}
	e.Element.HID = hid
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *LazyError) WithSuggestion(s string) *LazyError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *LazyError) WithDetail(d string) *LazyError {
	e.Detail = d
	return e
}

// WithMessage replaces the short message, keeping the code.
func (e *LazyError) WithMessage(format string, args ...any) *LazyError {
	e.Message = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *LazyError) Wrap(err error) *LazyError {
	e.Wrapped = err
	return e
}

// readContextLines reads lines around the specified line number from a file.
func readContextLines(filename string, targetLine, contextSize int) []string {
	file, err := os.Open(filename)
	if err != nil {
		return nil
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	lineNum := 0
	startLine := targetLine - contextSize/2
	endLine := targetLine + contextSize/2

	for scanner.Scan() {
		lineNum++
		if lineNum >= startLine && lineNum <= endLine {
			lines = append(lines, scanner.Text())
		}
		if lineNum > endLine {
			break
		}
	}

	return lines
}

// New creates a LazyError from a registered error code.
func New(code string) *LazyError {
	template, ok := registry[code]
	if !ok {
		return &LazyError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &LazyError{
		Code:       code,
		Category:   template.Category,
		Message:    template.Message,
		Detail:     template.Detail,
		Suggestion: template.Suggestion,
	}
}

// Newf creates a new LazyError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *LazyError {
	return &LazyError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a LazyError.
func FromError(err error, code string) *LazyError {
	if err == nil {
		return nil
	}
	if le, ok := err.(*LazyError); ok {
		return le
	}
	return New(code).Wrap(err)
}

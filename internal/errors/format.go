package errors

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
)

// ANSI escape sequences used by Format.
const (
	ansiReset = "\033[0m"
	ansiRed   = "\033[31m"
	ansiCyan  = "\033[36m"
	ansiGray  = "\033[90m"
	ansiBold  = "\033[1m"
)

var colorEnabled = true

// DisableColors turns off ANSI colors in Format and PrintError.
func DisableColors() { colorEnabled = false }

// EnableColors turns ANSI colors back on.
func EnableColors() { colorEnabled = true }

func paint(style, text string) string {
	if !colorEnabled || text == "" {
		return text
	}
	return style + text + ansiReset
}

// detailWidth is the column Format wraps long explanations at.
const detailWidth = 72

// Format renders the error for a terminal:
//
//	error[E001] No lazy handler defined for "video"
//	  --> <video id="intro" hid="h4">
//	  --> page.yaml:12:3
//	   |
//	12 |   - tag: video
//	   |
//	  cause: ...
//	  The element's tag has no activation handler ...
//	  hint: Bind lazyload only to <img> elements ...
func (e *LazyError) Format() string {
	var b strings.Builder

	b.WriteString(paint(ansiRed+ansiBold, e.label()))
	b.WriteString(" ")
	b.WriteString(paint(ansiBold, e.Message))
	b.WriteString("\n")

	if e.Element != nil {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiCyan, "-->"), e.Element)
	}
	if e.Location != nil {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiCyan, "-->"), e.Location)
		e.writeSnippet(&b)
	}
	if e.Wrapped != nil {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiGray, "cause:"), e.Wrapped)
	}
	for _, line := range wrapText(e.Detail, detailWidth) {
		b.WriteString("  ")
		b.WriteString(line)
		b.WriteString("\n")
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "  %s %s\n", paint(ansiCyan, "hint:"), e.Suggestion)
	}
	return b.String()
}

func (e *LazyError) label() string {
	if e.Code == "" {
		return "error"
	}
	return "error[" + e.Code + "]"
}

// writeSnippet prints the captured lines around Location, marking the
// offending column.
func (e *LazyError) writeSnippet(b *strings.Builder) {
	if len(e.Context) == 0 {
		return
	}
	first := e.Location.Line - len(e.Context)/2
	gutter := len(fmt.Sprint(first + len(e.Context)))
	bar := paint(ansiGray, "|")

	fmt.Fprintf(b, "%*s %s\n", gutter, "", bar)
	for i, line := range e.Context {
		n := first + i
		fmt.Fprintf(b, "%*d %s %s\n", gutter, n, bar, line)
		if n == e.Location.Line && e.Location.Column > 0 {
			fmt.Fprintf(b, "%*s %s %s%s\n", gutter, "", bar,
				strings.Repeat(" ", e.Location.Column-1), paint(ansiRed, "^"))
		}
	}
	fmt.Fprintf(b, "%*s %s\n", gutter, "", bar)
}

// FormatCompact renders the error on one line: location, code, element,
// message and cause. Session error frames carry this form.
func (e *LazyError) FormatCompact() string {
	var parts []string
	if e.Location != nil {
		parts = append(parts, e.Location.String())
	}
	if e.Code != "" {
		parts = append(parts, e.Code)
	}
	if e.Element != nil {
		parts = append(parts, e.Element.String())
	}
	msg := e.Message
	if e.Wrapped != nil {
		msg += " (" + e.Wrapped.Error() + ")"
	}
	parts = append(parts, msg)
	return strings.Join(parts, ": ")
}

// jsonError is the wire shape of FormatJSON.
type jsonError struct {
	Code       string      `json:"code,omitempty"`
	Category   Category    `json:"category,omitempty"`
	Message    string      `json:"message"`
	Element    *ElementRef `json:"element,omitempty"`
	Location   *Location   `json:"location,omitempty"`
	Cause      string      `json:"cause,omitempty"`
	Detail     string      `json:"detail,omitempty"`
	Suggestion string      `json:"suggestion,omitempty"`
}

// FormatJSON renders the error as a JSON object.
func (e *LazyError) FormatJSON() string {
	out := jsonError{
		Code:       e.Code,
		Category:   e.Category,
		Message:    e.Message,
		Element:    e.Element,
		Location:   e.Location,
		Detail:     e.Detail,
		Suggestion: e.Suggestion,
	}
	if e.Wrapped != nil {
		out.Cause = e.Wrapped.Error()
	}
	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Sprintf(`{"code":%q,"message":%q}`, e.Code, e.Message)
	}
	return string(data)
}

// MarshalJSON encodes the error with FormatJSON.
func (e *LazyError) MarshalJSON() ([]byte, error) {
	return []byte(e.FormatJSON()), nil
}

func wrapText(text string, width int) []string {
	var (
		lines []string
		line  string
	)
	for _, word := range strings.Fields(text) {
		if line != "" && len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = ""
		}
		if line != "" {
			line += " "
		}
		line += word
	}
	if line != "" {
		lines = append(lines, line)
	}
	return lines
}

// PrintError writes err to stderr, formatted when it is a LazyError.
func PrintError(err error) {
	fprintError(os.Stderr, err)
}

func fprintError(w io.Writer, err error) {
	if le, ok := err.(*LazyError); ok {
		fmt.Fprint(w, "\n", le.Format(), "\n")
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", paint(ansiRed+ansiBold, "error"), err)
}

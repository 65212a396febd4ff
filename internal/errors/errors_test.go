package errors

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "missing handler",
			code:    "E001",
			wantMsg: "No lazy handler defined",
			wantCat: CategoryRuntime,
		},
		{
			name:    "dispatch error",
			code:    "E002",
			wantMsg: "Invalid event key",
			wantCat: CategoryDispatch,
		},
		{
			name:    "config error",
			code:    "E021",
			wantMsg: "Config parse failed",
			wantCat: CategoryConfig,
		},
		{
			name:    "unknown error code",
			code:    "E999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CategoryPage, "file %q not found", "page.html")
	if err.Message != `file "page.html" not found` {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Code != "" {
		t.Errorf("Code = %q, want empty", err.Code)
	}
	if err.Error() != `file "page.html" not found` {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestErrorIncludesCodeAndCause(t *testing.T) {
	cause := stderrors.New("boom")
	err := New("E001").WithMessage("No lazy handler defined for %q", "div").Wrap(cause)

	want := `E001: No lazy handler defined for "div": boom`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestIsMatchesByCode(t *testing.T) {
	err := New("E001").WithMessage("No lazy handler defined for %q", "video")

	if !stderrors.Is(err, New("E001")) {
		t.Error("errors with the same code should match")
	}
	if stderrors.Is(err, New("E002")) {
		t.Error("errors with different codes should not match")
	}
	if stderrors.Is(err, Newf(CategoryRuntime, "no code")) {
		t.Error("a code-less target should not match")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, "E021") != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New("E040")
	if FromError(orig, "E021") != orig {
		t.Error("FromError should return existing LazyError unchanged")
	}

	wrapped := FromError(stderrors.New("bad json"), "E021")
	if wrapped.Code != "E021" {
		t.Errorf("Code = %q, want E021", wrapped.Code)
	}
	if wrapped.Unwrap() == nil {
		t.Error("expected wrapped cause")
	}
}

func TestWithLocationFromError(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "lazyload.yaml")
	content := "throttle: 50ms\nthreshold: [oops\nloadingSrc: x.gif\n"
	if err := os.WriteFile(file, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E021").WithLocationFromError(file, stderrors.New("yaml: line 2: did not find expected node content"))
	if err.Location == nil {
		t.Fatal("expected location")
	}
	if err.Location.Line != 2 {
		t.Errorf("Line = %d, want 2", err.Location.Line)
	}
	if len(err.Context) == 0 {
		t.Error("expected context lines")
	}

	none := New("E021").WithLocationFromError(file, stderrors.New("unexpected EOF"))
	if none.Location != nil {
		t.Error("no line number should leave location unset")
	}
}

func TestLocationString(t *testing.T) {
	var nilLoc *Location
	if nilLoc.String() != "" {
		t.Error("nil location should format empty")
	}
	if got := (&Location{File: "a.yaml", Line: 3}).String(); got != "a.yaml:3" {
		t.Errorf("got %q", got)
	}
	if got := (&Location{File: "a.yaml", Line: 3, Column: 7}).String(); got != "a.yaml:3:7" {
		t.Errorf("got %q", got)
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	err := New("E001").
		WithMessage("No lazy handler defined for %q", "div").
		WithSuggestion("Register a handler")

	out := err.Format()
	for _, want := range []string{"error[E001]", `"div"`, "hint: Register a handler", "activation"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}
}

func TestFormatCompact(t *testing.T) {
	err := New("E021")
	err.Location = &Location{File: "lazyload.yaml", Line: 4}
	if got := err.FormatCompact(); got != "lazyload.yaml:4: E021: Config parse failed" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestFormat_ElementAndSnippet(t *testing.T) {
	DisableColors()
	defer EnableColors()

	dir := t.TempDir()
	path := filepath.Join(dir, "page.yaml")
	content := "elements:\n  - tag: img\n  - tag: video\n    box: {}\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	err := New("E001").
		WithElement("video", "clip").
		WithHID("h4").
		WithLocation(path, 3, 5).
		Wrap(stderrors.New("boom"))

	out := err.Format()
	for _, want := range []string{
		`--> <video id="clip" hid="h4">`,
		"--> " + path + ":3:5",
		"3 |   - tag: video",
		"  |     ^",
		"cause: boom",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q:\n%s", want, out)
		}
	}

	if got := err.FormatCompact(); got != path+`:3:5: E001: <video id="clip" hid="h4">: No lazy handler defined (boom)` {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestElementRefString(t *testing.T) {
	tests := []struct {
		ref  *ElementRef
		want string
	}{
		{nil, ""},
		{&ElementRef{Tag: "img"}, "<img>"},
		{&ElementRef{Tag: "img", ID: "hero"}, `<img id="hero">`},
		{&ElementRef{HID: "h1"}, `<element hid="h1">`},
	}
	for _, tt := range tests {
		if got := tt.ref.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	out := New("E060").FormatJSON()
	for _, want := range []string{`"code":"E060"`, `"category":"session"`, `"message":"Invalid session message"`} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatJSON() missing %s: %s", want, out)
		}
	}

	withElement := New("E061").WithHID("h9").Wrap(stderrors.New("gone")).FormatJSON()
	for _, want := range []string{`"element":{"hid":"h9"}`, `"cause":"gone"`} {
		if !strings.Contains(withElement, want) {
			t.Errorf("FormatJSON() missing %s: %s", want, withElement)
		}
	}
}

func TestFprintError(t *testing.T) {
	DisableColors()
	defer EnableColors()

	var b strings.Builder
	fprintError(&b, New("E020"))
	if !strings.Contains(b.String(), "error[E020] Config not found") {
		t.Errorf("coded error output = %q", b.String())
	}

	b.Reset()
	fprintError(&b, stderrors.New("plain failure"))
	if !strings.Contains(b.String(), "error plain failure") {
		t.Errorf("plain error output = %q", b.String())
	}
}

func TestRegister(t *testing.T) {
	Register("E900", ErrorTemplate{Category: CategoryRuntime, Message: "custom"})
	if tmpl, ok := GetTemplate("E900"); !ok || tmpl.Message != "custom" {
		t.Errorf("GetTemplate(E900) = %+v, %v", tmpl, ok)
	}

	found := false
	for _, code := range GetAllCodes() {
		if code == "E900" {
			found = true
		}
	}
	if !found {
		t.Error("GetAllCodes should include registered code")
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/lazyload/internal/config"
	"github.com/vango-dev/lazyload/pkg/dom"
	"github.com/vango-dev/lazyload/pkg/geometry"
)

const galleryHTML = `<!doctype html>
<html><body>
  <img id="hero" style="width: 400px; height: 300px" data-bind="lazyload: {src: 'hero.png'}">
  <div style="height: 1000px"></div>
  <img id="mid" style="width: 400px; height: 300px" data-bind="lazyload: {src: 'mid.png', threshold: 100}">
  <div style="height: 1000px"></div>
  <img style="width: 400px; height: 300px" data-bind="lazyload: {src: 'last.png'}">
  <img style="width: 10px; height: 10px" data-bind="visible: true">
  <video id="clip" style="width: 10px; height: 10px" data-bind="lazyload: {src: 'clip.mp4'}"></video>
</body></html>`

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestSimulate(t *testing.T) {
	doc, err := dom.ParseHTML(strings.NewReader(galleryHTML), geometry.Size{Width: 1280, Height: 800})
	if err != nil {
		t.Fatal(err)
	}

	report := simulate(doc, config.New(), quietLogger(), []float64{500, 1900}, nil)

	if report.Bound != 4 {
		t.Errorf("Bound = %d, want 4", report.Bound)
	}
	if len(report.Steps) != 3 {
		t.Fatalf("Steps = %d, want 3", len(report.Steps))
	}

	initial := report.Steps[0]
	if len(initial.Activated) != 1 || initial.Activated[0].ID != "hero" || initial.Activated[0].Src != "hero.png" {
		t.Errorf("initial activated = %+v", initial.Activated)
	}
	if len(initial.Loaded) != 1 || initial.Loaded[0] != "hero" {
		t.Errorf("initial loaded = %v", initial.Loaded)
	}
	if len(initial.Errors) == 0 {
		t.Error("the video binding should report an error")
	}
	for _, e := range initial.Errors {
		if e.Code != "E001" || e.Element == nil || e.Element.Tag != "video" || e.Element.ID != "clip" || e.Element.HID == "" {
			t.Errorf("error %s should be E001 naming the video", e.FormatCompact())
		}
	}

	// mid starts at 1300; at scroll 500 its top is 800, inside the 100px threshold.
	if s := report.Steps[1]; len(s.Activated) != 1 || s.Activated[0].ID != "mid" || s.ScrollY != 500 {
		t.Errorf("step 1 = %+v", s)
	}
	if s := report.Steps[2]; len(s.Activated) != 1 || s.Activated[0].Src != "last.png" {
		t.Errorf("step 2 = %+v", s)
	}
}

func TestSimulate_Resize(t *testing.T) {
	page := `viewport: {width: 1280, height: 400}
elements:
  - tag: img
    attrs: {id: a, data-bind: "lazyload: {src: 'a.png'}"}
    box: {x: 0, y: 600, width: 100, height: 100}
`
	doc, err := dom.LoadPage(strings.NewReader(page))
	if err != nil {
		t.Fatal(err)
	}

	report := simulate(doc, config.New(), quietLogger(), nil, &geometry.Size{Width: 1280, Height: 900})
	if len(report.Steps) != 2 {
		t.Fatalf("Steps = %d, want 2", len(report.Steps))
	}
	if len(report.Steps[0].Activated) != 0 {
		t.Error("nothing should activate in a 400px window")
	}
	if report.Steps[1].Action != "resize 1280x900" || len(report.Steps[1].Activated) != 1 {
		t.Errorf("resize step = %+v", report.Steps[1])
	}
}

func TestSimulateCommand(t *testing.T) {
	dir := t.TempDir()
	pagePath := filepath.Join(dir, "gallery.html")
	if err := os.WriteFile(pagePath, []byte(galleryHTML), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "lazyload.yaml")
	if err := os.WriteFile(cfgPath, []byte("threshold: 2000\nlog:\n  level: error\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Run("table", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"simulate", pagePath, "--config", cfgPath})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		got := out.String()
		if !strings.Contains(got, "STEP") || !strings.Contains(got, "#hero") {
			t.Errorf("unexpected output:\n%s", got)
		}
		// The config threshold applies to bindings without their own, so
		// mid (threshold 100) stays pending.
		if !strings.Contains(got, "2 of 4 bound elements activated") {
			t.Errorf("missing summary:\n%s", got)
		}
		if !strings.Contains(got, `error: E001: <video id="clip" hid=`) {
			t.Errorf("missing compact E001 line:\n%s", got)
		}
	})

	t.Run("json", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"simulate", pagePath, "--config", cfgPath, "--scroll", "100", "--json"})
		if err := cmd.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		var report Report
		if err := json.Unmarshal(out.Bytes(), &report); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, out.String())
		}
		if len(report.Steps) != 2 || report.Steps[1].ScrollY != 100 {
			t.Errorf("report = %+v", report)
		}
		errs := report.Steps[0].Errors
		if len(errs) == 0 || errs[0].Code != "E001" || errs[0].Category != "runtime" ||
			errs[0].Element == nil || errs[0].Element.ID != "clip" {
			t.Errorf("initial errors = %s", out.String())
		}
	})

	t.Run("bad scroll", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(io.Discard)
		cmd.SetErr(io.Discard)
		cmd.SetArgs([]string{"simulate", pagePath, "--config", cfgPath, "--scroll", "1,x"})
		if err := cmd.Execute(); err == nil {
			t.Error("expected error for invalid scroll list")
		}
	})
}

func TestParseSize(t *testing.T) {
	if s, err := parseSize("375x667"); err != nil || s.Width != 375 || s.Height != 667 {
		t.Errorf("parseSize = %+v, %v", s, err)
	}
	for _, bad := range []string{"", "375", "0x10", "ax10"} {
		if _, err := parseSize(bad); err == nil {
			t.Errorf("parseSize(%q) should fail", bad)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version", "--short"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) != version {
		t.Errorf("version = %q, want %q", out.String(), version)
	}
}

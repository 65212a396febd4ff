package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vango-dev/lazyload/internal/config"
	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/binding"
	"github.com/vango-dev/lazyload/pkg/dom"
	"github.com/vango-dev/lazyload/pkg/events"
	"github.com/vango-dev/lazyload/pkg/geometry"
	"github.com/vango-dev/lazyload/pkg/lazyload"
	"github.com/vango-dev/lazyload/pkg/trigger"
)

func simulateCmd() *cobra.Command {
	var (
		scroll     string
		resize     string
		viewport   string
		configPath string
		jsonOut    bool
	)

	cmd := &cobra.Command{
		Use:   "simulate <page.html|page.yaml>",
		Short: "Replay a page and report which elements activate",
		Long: `Load a page, bind every element whose data-bind declares a lazyload
entry and replay scroll positions against it. After the initial check and
each step the report lists the elements that activated and the load events
that fired.

HTML pages take element boxes from inline top/left/width/height styles;
YAML pages describe boxes directly.

Examples:
  lazyload simulate gallery.html --scroll 400,800,1600
  lazyload simulate page.yaml --resize 375x667 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			steps, err := parseSteps(scroll)
			if err != nil {
				return err
			}
			vp, err := parseSize(viewport)
			if err != nil {
				return err
			}
			var rs *geometry.Size
			if resize != "" {
				size, err := parseSize(resize)
				if err != nil {
					return err
				}
				rs = &size
			}

			doc, err := loadPage(args[0], vp)
			if err != nil {
				return err
			}

			logger := cfg.Logger(cmd.ErrOrStderr())
			report := simulate(doc, cfg, logger, steps, rs)
			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			writeTable(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&scroll, "scroll", "s", "", "Comma-separated vertical scroll positions")
	cmd.Flags().StringVarP(&resize, "resize", "r", "", "Resize the window to WxH before scrolling")
	cmd.Flags().StringVar(&viewport, "viewport", "1280x800", "Initial viewport for HTML pages (WxH)")
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file (default: lazyload.json/yaml in the working directory)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the report as JSON")

	return cmd
}

// Report is the result of a simulation.
type Report struct {
	Elements int    `json:"elements"`
	Bound    int    `json:"bound"`
	Steps    []Step `json:"steps"`
}

// Step lists what happened after one scroll or resize.
type Step struct {
	Action    string                `json:"action"`
	ScrollY   float64               `json:"scrollY"`
	Activated []Activation          `json:"activated"`
	Loaded    []string              `json:"loaded"`
	Errors    []*lzerrors.LazyError `json:"errors,omitempty"`
}

// Activation is one element activated during a step.
type Activation struct {
	HID string `json:"hid"`
	ID  string `json:"id,omitempty"`
	Src string `json:"src,omitempty"`
}

// simulate binds the page and replays the steps on a manual clock.
func simulate(doc *dom.Document, cfg *config.Config, logger *slog.Logger, steps []float64, resize *geometry.Size) Report {
	clock := trigger.NewManualScheduler()

	var (
		loaded []string
		errs   []*lzerrors.LazyError
	)
	opts := append(cfg.EngineOptions(),
		lazyload.WithScheduler(clock),
		lazyload.WithLogger(logger),
		lazyload.WithErrorHandler(func(b *lazyload.Binding, err error) {
			errs = append(errs, describe(b.Element(), err))
		}),
	)
	engine := lazyload.New(doc, opts...)
	defer engine.Close()

	parser := binding.NewParser()
	candidates := doc.Query("data-bind")
	report := Report{Elements: len(doc.Nodes())}

	for _, n := range candidates {
		decl, _ := n.Attr("data-bind")
		names, err := parser.Bindings(decl, nil)
		if err != nil {
			errs = append(errs, describe(n, err))
			continue
		}
		if !hasBinding(names) {
			continue
		}
		bo, err := parser.Parse(decl, nil)
		if err != nil {
			errs = append(errs, describe(n, err))
			continue
		}
		if id := n.ID(); id != "" {
			engine.On(id, events.Load, func(events.Event) { loaded = append(loaded, id) })
		}
		if _, err := engine.Init(context.Background(), n, cfg.ApplyDefaults(bo)); err != nil {
			errs = append(errs, describe(n, err))
		}
		report.Bound++
	}

	seen := make(map[*lazyload.Binding]bool)
	record := func(action string) {
		clock.Advance(engine.Trigger().Delay())
		_, y := doc.Scroll()
		step := Step{Action: action, ScrollY: y, Activated: []Activation{}, Loaded: loaded, Errors: errs}
		if step.Loaded == nil {
			step.Loaded = []string{}
		}
		for _, b := range engine.Bindings() {
			if !b.Activated() || seen[b] {
				continue
			}
			seen[b] = true
			a := Activation{Src: b.Options().Src}
			if n, ok := b.Element().(*dom.Node); ok {
				a.HID = n.HID()
				a.ID = n.ID()
			}
			step.Activated = append(step.Activated, a)
		}
		report.Steps = append(report.Steps, step)
		loaded, errs = nil, nil
	}

	record("initial")
	if resize != nil {
		doc.Resize(*resize)
		record(fmt.Sprintf("resize %gx%g", resize.Width, resize.Height))
	}
	for _, y := range steps {
		doc.ScrollTo(0, y)
		record("scroll")
	}
	return report
}

// describe returns err as a LazyError naming el. Shared sentinel errors are
// copied before the element is attached.
func describe(el dom.Element, err error) *lzerrors.LazyError {
	var le *lzerrors.LazyError
	if errors.As(err, &le) {
		c := *le
		le = &c
	} else {
		le = lzerrors.Newf(lzerrors.CategoryRuntime, "%s", err)
	}
	if le.Element == nil {
		id, _ := el.Attr("id")
		le.WithElement(strings.ToLower(el.TagName()), id)
	} else {
		ref := *le.Element
		le.Element = &ref
	}
	if n, ok := el.(*dom.Node); ok {
		le.WithHID(n.HID())
	}
	return le
}

func hasBinding(names []string) bool {
	for _, n := range names {
		if n == binding.Key {
			return true
		}
	}
	return false
}

func loadPage(path string, viewport geometry.Size) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, lzerrors.New("E040").Wrap(err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return dom.LoadPage(f)
	default:
		return dom.ParseHTML(f, viewport)
	}
}

func parseSteps(s string) ([]float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid scroll position %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

func parseSize(s string) (geometry.Size, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return geometry.Size{}, fmt.Errorf("invalid size %q, want WxH", s)
	}
	width, err1 := strconv.ParseFloat(w, 64)
	height, err2 := strconv.ParseFloat(h, 64)
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		return geometry.Size{}, fmt.Errorf("invalid size %q, want WxH", s)
	}
	return geometry.Size{Width: width, Height: height}, nil
}

func writeJSON(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

func writeTable(w io.Writer, report Report) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tSCROLL\tACTIVATED\tLOADED")
	total := 0
	for _, s := range report.Steps {
		names := make([]string, len(s.Activated))
		for i, a := range s.Activated {
			names[i] = a.HID
			if a.ID != "" {
				names[i] += "#" + a.ID
			}
		}
		total += len(s.Activated)
		fmt.Fprintf(tw, "%s\t%g\t%s\t%s\n", s.Action, s.ScrollY, orDash(names), orDash(s.Loaded))
		for _, e := range s.Errors {
			fmt.Fprintf(tw, "\t\terror: %s\t\n", e.FormatCompact())
		}
	}
	tw.Flush()
	fmt.Fprintf(w, "\n%d of %d bound elements activated\n", total, report.Bound)
}

func orDash(list []string) string {
	if len(list) == 0 {
		return "-"
	}
	return strings.Join(list, ", ")
}

// Package lazyload provides the public API for the lazyload engine.
//
// This is the recommended import for most applications:
//
//	import "github.com/vango-dev/lazyload"
//
// Usage:
//
//	doc, _ := lazyload.ParseHTML(r, lazyload.Size{Width: 1280, Height: 800})
//	engine := lazyload.New(doc, lazyload.WithThrottle(50*time.Millisecond))
//	defer engine.Close()
//
//	img := doc.GetElementByID("hero")
//	engine.On("hero", lazyload.Load, func(ev lazyload.Event) { log.Println("loaded") })
//	_, err := engine.Init(ctx, img, lazyload.Options{Src: "/hero.jpg", Threshold: 100})
package lazyload

import (
	"io"

	"github.com/vango-dev/lazyload/pkg/dom"
	"github.com/vango-dev/lazyload/pkg/events"
	"github.com/vango-dev/lazyload/pkg/geometry"
	corelazy "github.com/vango-dev/lazyload/pkg/lazyload"
	"github.com/vango-dev/lazyload/pkg/trigger"
)

// =============================================================================
// Engine (re-export from pkg/lazyload)
// =============================================================================

type Engine = corelazy.Engine
type Binding = corelazy.Binding
type Options = corelazy.Options
type Option = corelazy.Option

// New creates an engine bound to a window.
var New = corelazy.New

var (
	WithThrottle     = corelazy.WithThrottle
	WithScheduler    = corelazy.WithScheduler
	WithLogger       = corelazy.WithLogger
	WithMiddleware   = corelazy.WithMiddleware
	WithErrorHandler = corelazy.WithErrorHandler
	WithLoadingSrc   = corelazy.WithLoadingSrc
	WithPolling      = corelazy.WithPolling
)

// TransparentGIF is the default placeholder written before activation.
const TransparentGIF = corelazy.TransparentGIF

// DefaultThrottle is the default quiet period after scroll and resize.
const DefaultThrottle = corelazy.DefaultThrottle

// =============================================================================
// Handlers and middleware
// =============================================================================

type Tag = corelazy.Tag
type Handler = corelazy.Handler
type Registry = corelazy.Registry

const TagImage = corelazy.TagImage

var (
	NewRegistry  = corelazy.NewRegistry
	ImageHandler = corelazy.ImageHandler
)

type Outcome = corelazy.Outcome
type UpdateFunc = corelazy.UpdateFunc
type Middleware = corelazy.Middleware

const (
	OutcomeSkipped   = corelazy.OutcomeSkipped
	OutcomePending   = corelazy.OutcomePending
	OutcomeActivated = corelazy.OutcomeActivated
	OutcomeFailed    = corelazy.OutcomeFailed
)

var Chain = corelazy.Chain

var (
	ErrNoHandler    = corelazy.ErrNoHandler
	ErrAlreadyBound = corelazy.ErrAlreadyBound
	ErrClosed       = corelazy.ErrClosed
)

// =============================================================================
// Events
// =============================================================================

type Event = events.Event
type EventHandler = events.Handler

// Load is emitted after an element is activated.
const Load = events.Load

// =============================================================================
// Documents and geometry
// =============================================================================

type Element = dom.Element
type Window = dom.Window
type Document = dom.Document
type Node = dom.Node

type Size = geometry.Size
type Box = geometry.Box
type Rect = geometry.Rect

// NewDocument creates an empty document with the given viewport.
var NewDocument = dom.NewDocument

// ParseHTML builds a document from an HTML page with inline pixel styles.
func ParseHTML(r io.Reader, viewport Size) (*Document, error) {
	return dom.ParseHTML(r, viewport)
}

// LoadPage builds a document from a YAML page description.
func LoadPage(r io.Reader) (*Document, error) {
	return dom.LoadPage(r)
}

// IsInViewport reports whether r lies within viewport grown by threshold.
var IsInViewport = geometry.IsInViewport

// =============================================================================
// Scheduling
// =============================================================================

type Scheduler = trigger.Scheduler
type ManualScheduler = trigger.ManualScheduler

var NewManualScheduler = trigger.NewManualScheduler

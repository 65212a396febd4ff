package middleware

import (
	"context"
	"testing"

	"github.com/vango-dev/lazyload/pkg/dom"
	"github.com/vango-dev/lazyload/pkg/geometry"
	"github.com/vango-dev/lazyload/pkg/lazyload"
	"github.com/vango-dev/lazyload/pkg/trigger"
)

// page is a small document with one element per case: an image above the
// fold, one far below it and an element without a handler.
type page struct {
	doc    *dom.Document
	engine *lazyload.Engine
}

func newPage(t *testing.T, mw ...lazyload.Middleware) *page {
	t.Helper()
	doc := dom.NewDocument(geometry.Size{Width: 1024, Height: 768})
	engine := lazyload.New(doc,
		lazyload.WithScheduler(trigger.NewManualScheduler()),
		lazyload.WithMiddleware(mw...),
		lazyload.WithErrorHandler(func(*lazyload.Binding, error) {}),
	)
	t.Cleanup(engine.Close)
	return &page{doc: doc, engine: engine}
}

func (p *page) bind(t *testing.T, tag, id string, y float64) (*lazyload.Binding, error) {
	t.Helper()
	n := p.doc.CreateElement(tag)
	if id != "" {
		_ = n.SetAttr("id", id)
	}
	n.SetBox(geometry.Box{Y: y, Width: 64, Height: 64})
	p.doc.Body().AppendChild(n)
	return p.engine.Init(context.Background(), n, lazyload.Options{Src: "x.png", Threshold: 25})
}

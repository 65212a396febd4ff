package lazyload

import (
	"context"

	"github.com/vango-dev/lazyload/pkg/events"
)

// ImageHandler activates <img> elements. When the element is within the
// viewport plus its threshold it writes src and srcset (each only when
// configured), marks the binding activated and emits "load" with the element
// as the only argument.
func ImageHandler(ctx context.Context, e *Engine, b *Binding) error {
	opts := b.Options()
	el := b.Element()

	if !e.IsInViewport(el, opts.threshold()) {
		return nil
	}
	if !b.MarkActivated() {
		return nil
	}

	if opts.Src != "" {
		if err := el.SetAttr("src", opts.Src); err != nil {
			b.clearActivated()
			return err
		}
	}
	// An unset srcset leaves any existing attribute alone.
	if opts.Srcset != "" {
		if err := el.SetAttr("srcset", opts.Srcset); err != nil {
			b.clearActivated()
			return err
		}
	}

	e.logger.Debug("element activated", "tag", "img", "src", opts.Src)
	e.Emit(b.eventKey(), events.Load, el)
	return nil
}

package lazyload_test

import (
	"context"
	"strings"
	"testing"

	"github.com/vango-dev/lazyload"
)

const page = `<html><body>
<img id="hero" style="top:0px;width:400px;height:300px">
<img id="below" style="top:2000px;width:400px;height:300px">
</body></html>`

func TestPublicAPI(t *testing.T) {
	doc, err := lazyload.ParseHTML(strings.NewReader(page), lazyload.Size{Width: 1280, Height: 800})
	if err != nil {
		t.Fatalf("ParseHTML: %v", err)
	}

	clock := lazyload.NewManualScheduler()
	engine := lazyload.New(doc, lazyload.WithScheduler(clock))
	defer engine.Close()

	var loaded []string
	for _, id := range []string{"hero", "below"} {
		id := id
		engine.On(id, lazyload.Load, func(lazyload.Event) { loaded = append(loaded, id) })
		el := doc.GetElementByID(id)
		if _, err := engine.Init(context.Background(), el, lazyload.Options{Src: "/" + id + ".jpg"}); err != nil {
			t.Fatalf("Init(%s): %v", id, err)
		}
	}

	if len(loaded) != 1 || loaded[0] != "hero" {
		t.Fatalf("loaded = %v, want [hero]", loaded)
	}
	if src, _ := doc.GetElementByID("below").Attr("src"); src != lazyload.TransparentGIF {
		t.Errorf("below src = %q, want placeholder", src)
	}

	doc.ScrollTo(0, 1800)
	clock.Advance(lazyload.DefaultThrottle)

	if len(loaded) != 2 || loaded[1] != "below" {
		t.Errorf("loaded = %v, want [hero below]", loaded)
	}
}

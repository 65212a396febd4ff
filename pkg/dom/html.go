package dom

import (
	"io"
	"strconv"
	"strings"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/geometry"
	"golang.org/x/net/html"
)

// ParseHTML builds a document from an HTML page.
//
// There is no layout engine: each element's box comes from inline
// top/left/width/height px styles (width/height attributes are accepted too).
// Elements without an explicit top are stacked below their previous sibling,
// relative to their parent's origin.
func ParseHTML(r io.Reader, viewport geometry.Size) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, lzerrors.New("E040").Wrap(err)
	}

	doc := NewDocument(viewport)
	body := findBody(root)
	if body == nil {
		return doc, nil
	}
	for k, v := range parseStyle(attrOf(body, "style")) {
		doc.body.SetStyle(k, v)
	}
	buildChildren(doc, doc.body, body, 0, 0)
	return doc, nil
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}

func buildChildren(doc *Document, parent *Node, src *html.Node, originX, originY float64) {
	cursor := originY
	for c := src.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "script", "style", "template":
			continue
		}

		node := doc.CreateElement(c.Data)
		for _, a := range c.Attr {
			node.attrs[lower(a.Key)] = a.Val
		}
		style := parseStyle(attrOf(c, "style"))
		for k, v := range style {
			node.style[k] = v
		}

		box := geometry.Box{X: originX, Y: cursor}
		if v, ok := pixels(style["left"]); ok {
			box.X = originX + v
		}
		if v, ok := pixels(style["top"]); ok {
			box.Y = originY + v
		}
		box.Width = firstPixels(style["width"], attrOf(c, "width"))
		box.Height = firstPixels(style["height"], attrOf(c, "height"))
		node.box = box

		_ = parent.AppendChild(node)
		buildChildren(doc, node, c, box.X, box.Y)

		if _, explicit := style["top"]; !explicit && style["display"] != "none" {
			cursor = box.Y + box.Height
		}
	}
}

func attrOf(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// parseStyle splits an inline style attribute into lowercase properties.
func parseStyle(s string) map[string]string {
	out := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		k = lower(k)
		v = strings.TrimSpace(v)
		if k == "" || v == "" {
			continue
		}
		out[k] = v
	}
	return out
}

func pixels(s string) (float64, bool) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "px")
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func firstPixels(values ...string) float64 {
	for _, s := range values {
		if v, ok := pixels(s); ok {
			return v
		}
	}
	return 0
}

package dom

import (
	"io"

	lzerrors "github.com/vango-dev/lazyload/internal/errors"
	"github.com/vango-dev/lazyload/pkg/geometry"
	"gopkg.in/yaml.v3"
)

// Page is the YAML fixture format for documents.
//
//	viewport: {width: 1280, height: 800}
//	elements:
//	  - tag: img
//	    attrs: {id: hero, data-bind: "lazyload: {src: 'hero.png'}"}
//	    box: {x: 0, y: 1200, width: 400, height: 300}
type Page struct {
	Viewport geometry.Size  `yaml:"viewport"`
	Client   *geometry.Size `yaml:"client,omitempty"`
	Scroll   struct {
		X float64 `yaml:"x"`
		Y float64 `yaml:"y"`
	} `yaml:"scroll"`
	Elements []PageElement `yaml:"elements"`
}

// PageElement is one element in a Page fixture. Boxes are document
// coordinates and are not relative to the parent.
type PageElement struct {
	Tag      string            `yaml:"tag"`
	HID      string            `yaml:"hid,omitempty"`
	Attrs    map[string]string `yaml:"attrs,omitempty"`
	Style    map[string]string `yaml:"style,omitempty"`
	Box      geometry.Box      `yaml:"box"`
	Children []PageElement     `yaml:"children,omitempty"`
}

// LoadPage decodes a YAML page fixture.
func LoadPage(r io.Reader) (*Document, error) {
	var page Page
	if err := yaml.NewDecoder(r).Decode(&page); err != nil {
		return nil, lzerrors.New("E040").Wrap(err)
	}
	return page.Build()
}

// Build creates the document described by the page.
func (p *Page) Build() (*Document, error) {
	if p.Viewport.Width <= 0 || p.Viewport.Height <= 0 {
		return nil, lzerrors.New("E040").WithDetail("viewport width and height must be positive")
	}

	doc := NewDocument(p.Viewport)
	if p.Client != nil {
		doc.SetClientSize(*p.Client)
	}
	doc.scrollX, doc.scrollY = p.Scroll.X, p.Scroll.Y

	for _, el := range p.Elements {
		if err := buildPageElement(doc, doc.body, el); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

func buildPageElement(doc *Document, parent *Node, el PageElement) error {
	if el.Tag == "" {
		return lzerrors.New("E040").WithDetail("every element needs a tag")
	}
	if el.HID != "" {
		if _, taken := doc.ByHID(el.HID); taken {
			return lzerrors.New("E040").WithMessage("Duplicate element handle %q", el.HID)
		}
	}

	node := doc.CreateElementWithHID(el.Tag, el.HID)
	for k, v := range el.Attrs {
		node.attrs[lower(k)] = v
	}
	for k, v := range el.Style {
		node.SetStyle(k, v)
	}
	node.SetBox(el.Box)
	if err := parent.AppendChild(node); err != nil {
		return err
	}

	for _, child := range el.Children {
		if err := buildPageElement(doc, node, child); err != nil {
			return err
		}
	}
	return nil
}

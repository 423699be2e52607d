package infra

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"dki-gateway/middleware/dki/domain"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLDocument implementa domain.Document sobre uma árvore x/net/html.
type HTMLDocument struct {
	root *html.Node
	doc  *goquery.Document
}

func ParseDocument(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return &HTMLDocument{root: root, doc: goquery.NewDocumentFromNode(root)}, nil
}

// Selection expõe o documento para quem precisa consultar a árvore
// (ex: o binding do social proof).
func (d *HTMLDocument) Selection() *goquery.Selection { return d.doc.Selection }

func (d *HTMLDocument) titleNode() *html.Node {
	sel := d.doc.Find("title").First()
	if sel.Length() == 0 {
		return nil
	}
	return sel.Get(0)
}

func (d *HTMLDocument) Title() (string, bool) {
	n := d.titleNode()
	if n == nil {
		return "", false
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String(), true
}

func (d *HTMLDocument) SetTitle(s string) {
	n := d.titleNode()
	if n == nil {
		return
	}
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

func (d *HTMLDocument) VisitText(fn func(domain.TextNode) bool) {
	body := d.doc.Find("body").First()
	if body.Length() == 0 {
		return
	}
	walkText(body.Get(0), fn)
}

// walkText devolve false quando a visita foi interrompida.
// Conteúdo de <template> é inerte e fica fora da visita, como no browser.
func walkText(n *html.Node, fn func(domain.TextNode) bool) bool {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.Type {
		case html.TextNode:
			if !fn(textNode{n: c}) {
				return false
			}
		case html.ElementNode:
			if c.DataAtom == atom.Template {
				continue
			}
			if !walkText(c, fn) {
				return false
			}
		}
	}
	return true
}

func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

func (d *HTMLDocument) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	return buf.Bytes(), nil
}

type textNode struct {
	n *html.Node
}

func (t textNode) Text() string { return t.n.Data }
func (t textNode) SetText(s string) { t.n.Data = s }

func (t textNode) ParentTag() string {
	for p := t.n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			return strings.ToLower(p.Data)
		}
	}
	return ""
}

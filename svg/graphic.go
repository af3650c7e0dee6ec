// Package svg holds the icon graphic: a mutable SVG node tree that keeps
// enough of the source document to write it back out.
package svg

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
)

// ErrNotSVG is returned when the document root is not an <svg> element.
var ErrNotSVG = errors.New("svg: document root is not <svg>")

// NodeKind tells elements apart from the other tokens kept in the tree.
type NodeKind int

const (
	DocumentNode NodeKind = iota
	ElementNode
	TextNode
	CommentNode
	ProcInstNode
	DirectiveNode
)

// Node is one entry of the graphic tree.
type Node struct {
	Kind     NodeKind
	Name     xml.Name
	Attr     []xml.Attr
	Data     string
	Children []*Node
}

// NewElement creates a detached element node.
func NewElement(name string) *Node {
	return &Node{Kind: ElementNode, Name: xml.Name{Local: name}}
}

// NewText creates a detached character data node.
func NewText(data string) *Node {
	return &Node{Kind: TextNode, Data: data}
}

// GetAttr returns the value of an unprefixed attribute.
func (n *Node) GetAttr(name string) (string, bool) {
	for _, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// HasAttr reports whether the node carries the attribute.
func (n *Node) HasAttr(name string) bool {
	_, ok := n.GetAttr(name)
	return ok
}

// SetAttr replaces the attribute value, appending it when missing.
func (n *Node) SetAttr(name, value string) {
	for i, a := range n.Attr {
		if a.Name.Space == "" && a.Name.Local == name {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// ID returns the id attribute, or "" when absent.
func (n *Node) ID() string {
	id, _ := n.GetAttr("id")
	return id
}

// Classes splits the class attribute.
func (n *Node) Classes() []string {
	class, _ := n.GetAttr("class")
	return strings.Fields(class)
}

// AppendChild adds c as the last child of n.
func (n *Node) AppendChild(c *Node) {
	n.Children = append(n.Children, c)
}

// PrependChild adds c as the first child of n.
func (n *Node) PrependChild(c *Node) {
	n.Children = append([]*Node{c}, n.Children...)
}

// Walk visits n and its descendant elements in document order. Returning
// false from fn skips the children of that node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n.Kind == ElementNode || n.Kind == DocumentNode {
		if n.Kind == ElementNode && !fn(n) {
			return
		}
		for _, c := range n.Children {
			c.Walk(fn)
		}
	}
}

// Descendants returns the descendant elements of n, not n itself, that
// carry the attribute.
func (n *Node) Descendants(attr string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		c.Walk(func(d *Node) bool {
			if d.HasAttr(attr) {
				out = append(out, d)
			}
			return true
		})
	}
	return out
}

// Graphic is a parsed SVG document.
type Graphic struct {
	doc *Node
}

// Parse reads an SVG document.
func Parse(r io.Reader) (*Graphic, error) {
	decoder := xml.NewDecoder(r)
	decoder.CharsetReader = charset.NewReaderLabel

	doc := &Node{Kind: DocumentNode}
	stack := []*Node{doc}
	for {
		t, err := decoder.RawToken()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("svg: %w", err)
		}
		top := stack[len(stack)-1]

		switch tok := xml.CopyToken(t).(type) {
		case xml.StartElement:
			n := &Node{Kind: ElementNode, Name: tok.Name, Attr: tok.Attr}
			top.AppendChild(n)
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) == 1 || top.Name != tok.Name {
				return nil, fmt.Errorf("svg: unexpected </%s>", qualified(tok.Name))
			}
			stack = stack[:len(stack)-1]
		case xml.CharData:
			top.AppendChild(&Node{Kind: TextNode, Data: string(tok)})
		case xml.Comment:
			top.AppendChild(&Node{Kind: CommentNode, Data: string(tok)})
		case xml.ProcInst:
			top.AppendChild(&Node{Kind: ProcInstNode, Name: xml.Name{Local: tok.Target}, Data: string(tok.Inst)})
		case xml.Directive:
			top.AppendChild(&Node{Kind: DirectiveNode, Data: string(tok)})
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("svg: unclosed <%s>", qualified(stack[len(stack)-1].Name))
	}

	g := &Graphic{doc: doc}
	if root := g.Root(); root == nil || root.Name.Local != "svg" {
		return nil, ErrNotSVG
	}
	return g, nil
}

// ParseString is Parse over a string.
func ParseString(s string) (*Graphic, error) {
	return Parse(strings.NewReader(s))
}

// ReadFile parses the SVG file at path.
func ReadFile(path string) (*Graphic, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Parse(f)
}

// Root returns the <svg> element.
func (g *Graphic) Root() *Node {
	for _, c := range g.doc.Children {
		if c.Kind == ElementNode {
			return c
		}
	}
	return nil
}

// Query returns every element matching fn in document order.
func (g *Graphic) Query(fn func(*Node) bool) []*Node {
	var out []*Node
	g.doc.Walk(func(n *Node) bool {
		if fn(n) {
			out = append(out, n)
		}
		return true
	})
	return out
}

// QueryByIDContains returns the elements whose id contains substr.
func (g *Graphic) QueryByIDContains(substr string) []*Node {
	return g.Query(func(n *Node) bool {
		return strings.Contains(n.ID(), substr)
	})
}

// QueryByClassContains returns the elements whose class attribute contains substr.
func (g *Graphic) QueryByClassContains(substr string) []*Node {
	return g.Query(func(n *Node) bool {
		class, _ := n.GetAttr("class")
		return strings.Contains(class, substr)
	})
}

// WriteTo serialises the graphic as UTF-8 XML.
func (g *Graphic) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	for _, c := range g.doc.Children {
		writeNode(&buf, c)
	}
	return buf.WriteTo(w)
}

// String returns the serialised graphic.
func (g *Graphic) String() string {
	var b strings.Builder
	g.WriteTo(&b)
	return b.String()
}

func writeNode(buf *bytes.Buffer, n *Node) {
	switch n.Kind {
	case ElementNode:
		buf.WriteByte('<')
		buf.WriteString(qualified(n.Name))
		for _, a := range n.Attr {
			buf.WriteByte(' ')
			buf.WriteString(qualified(a.Name))
			buf.WriteString(`="`)
			attrEscaper.WriteString(buf, a.Value)
			buf.WriteByte('"')
		}
		if len(n.Children) == 0 {
			buf.WriteString("/>")
			return
		}
		buf.WriteByte('>')
		for _, c := range n.Children {
			writeNode(buf, c)
		}
		buf.WriteString("</")
		buf.WriteString(qualified(n.Name))
		buf.WriteByte('>')
	case TextNode:
		textEscaper.WriteString(buf, n.Data)
	case CommentNode:
		buf.WriteString("<!--")
		buf.WriteString(n.Data)
		buf.WriteString("-->")
	case ProcInstNode:
		// Output is always UTF-8 whatever the source declared.
		if n.Name.Local == "xml" {
			buf.WriteString(strings.TrimSuffix(xml.Header, "\n"))
			return
		}
		buf.WriteString("<?")
		buf.WriteString(n.Name.Local)
		if n.Data != "" {
			buf.WriteByte(' ')
			buf.WriteString(n.Data)
		}
		buf.WriteString("?>")
	case DirectiveNode:
		buf.WriteString("<!")
		buf.WriteString(n.Data)
		buf.WriteByte('>')
	}
}

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;", "\n", "&#xA;", "\t", "&#x9;")
)

// RawToken leaves namespace prefixes in Name.Space.
func qualified(name xml.Name) string {
	if name.Space == "" {
		return name.Local
	}
	return name.Space + ":" + name.Local
}

// Package xsd parses XML Schema documents into a generic, namespace-aware
// node tree. The tree deliberately keeps the raw structure (element,
// complexType, sequence, choice, simpleType nodes with their attributes)
// instead of a typed XSD model: the mapper walks it by structural kind and
// does not validate anything.
package xsd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Structural node kinds the mapper cares about.
const (
	KindElement     = "element"
	KindComplexType = "complexType"
	KindSimpleType  = "simpleType"
	KindSequence    = "sequence"
	KindChoice      = "choice"
	KindRestriction = "restriction"
)

// Node is one element of the parsed schema document.
type Node struct {
	Space    string // namespace URI
	Local    string // local tag name, e.g. "element", "complexType"
	Children []*Node

	attrs map[string]string
}

// Attr returns the value of the named attribute, or "" if absent.
func (n *Node) Attr(name string) string {
	return n.attrs[name]
}

// Name returns the "name" attribute.
func (n *Node) Name() string { return n.attrs["name"] }

// TypeRef returns the "type" attribute.
func (n *Node) TypeRef() string { return n.attrs["type"] }

// Ref returns the "ref" attribute.
func (n *Node) Ref() string { return n.attrs["ref"] }

// MinOccurs returns the minOccurs attribute, defaulting to 1.
// Malformed values fall back to the default rather than failing the walk.
func (n *Node) MinOccurs() int {
	v := n.attrs["minOccurs"]
	if v == "" {
		return 1
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 1
	}
	return i
}

// MaxOccurs returns the maxOccurs attribute, defaulting to 1. The second
// return value reports the "unbounded" case.
func (n *Node) MaxOccurs() (int, bool) {
	v := n.attrs["maxOccurs"]
	switch v {
	case "":
		return 1, false
	case "unbounded":
		return 0, true
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 1, false
	}
	return i, false
}

// Nillable reports whether the element declares nillable="true".
func (n *Node) Nillable() bool {
	return n.attrs["nillable"] == "true"
}

// ChildrenOf returns the direct children with the given namespace URI and
// local name, in document order.
func (n *Node) ChildrenOf(space, local string) []*Node {
	var out []*Node
	for _, c := range n.Children {
		if c.Space == space && c.Local == local {
			out = append(out, c)
		}
	}
	return out
}

// Child returns the first direct child with the given namespace URI and
// local name, or nil.
func (n *Node) Child(space, local string) *Node {
	for _, c := range n.Children {
		if c.Space == space && c.Local == local {
			return c
		}
	}
	return nil
}

// Document is a parsed schema document plus the namespace table declared on
// its root element.
type Document struct {
	Root *Node

	// Namespaces maps namespace URI to the short prefix declared for it on
	// the document root. The default (unprefixed) namespace is registered
	// under the prefix "default".
	Namespaces map[string]string
}

// ParseFile reads and parses the schema document at path.
func ParseFile(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Parse(f)
}

// Parse parses a schema document from r.
func Parse(r io.Reader) (*Document, error) {
	dec := xml.NewDecoder(r)

	doc := &Document{Namespaces: make(map[string]string)}
	var stack []*Node

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse schema document: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &Node{
				Space: t.Name.Space,
				Local: t.Name.Local,
				attrs: make(map[string]string, len(t.Attr)),
			}
			for _, a := range t.Attr {
				switch {
				case a.Name.Space == "xmlns":
					if doc.Root == nil {
						doc.Namespaces[a.Value] = a.Name.Local
					}
				case a.Name.Space == "" && a.Name.Local == "xmlns":
					if doc.Root == nil {
						doc.Namespaces[a.Value] = "default"
					}
				default:
					n.attrs[a.Name.Local] = a.Value
				}
			}
			if doc.Root == nil {
				doc.Root = n
			} else if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, n)
			}
			stack = append(stack, n)
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if doc.Root == nil {
		return nil, fmt.Errorf("schema document has no root element")
	}
	return doc, nil
}

// FindComplexType searches the whole document for a complexType whose name
// attribute equals name. Returns nil if name is empty or not declared.
func (d *Document) FindComplexType(space, name string) *Node {
	return d.findNamedType(space, KindComplexType, name)
}

// FindSimpleType searches the whole document for a simpleType whose name
// attribute equals name.
func (d *Document) FindSimpleType(space, name string) *Node {
	return d.findNamedType(space, KindSimpleType, name)
}

func (d *Document) findNamedType(space, kind, name string) *Node {
	if name == "" {
		return nil
	}
	var found *Node
	var visit func(n *Node)
	visit = func(n *Node) {
		if found != nil {
			return
		}
		if n.Space == space && n.Local == kind && n.Name() == name {
			found = n
			return
		}
		for _, c := range n.Children {
			visit(c)
		}
	}
	visit(d.Root)
	return found
}

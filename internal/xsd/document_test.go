package xsd

import (
	"strings"
	"testing"
)

const xsdNS = "http://www.w3.org/2001/XMLSchema"

const sampleSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"
           xmlns:ds="http://www.w3.org/2000/09/xmldsig#"
           targetNamespace="http://example.com/invoice">
  <xs:complexType name="Invoice">
    <xs:sequence>
      <xs:element name="Number" type="xs:string"/>
      <xs:element name="Line" type="LineType" minOccurs="0" maxOccurs="unbounded"/>
      <xs:element name="Comment" type="xs:string" nillable="true" maxOccurs="3"/>
    </xs:sequence>
  </xs:complexType>
  <xs:complexType name="LineType">
    <xs:sequence>
      <xs:element name="Amount" type="xs:decimal"/>
    </xs:sequence>
  </xs:complexType>
  <xs:simpleType name="CodeType">
    <xs:restriction base="xs:string"/>
  </xs:simpleType>
</xs:schema>`

func parseSample(t *testing.T) *Document {
	t.Helper()
	doc, err := Parse(strings.NewReader(sampleSchema))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc
}

func TestParseNamespaces(t *testing.T) {
	doc := parseSample(t)

	if doc.Root.Local != "schema" || doc.Root.Space != xsdNS {
		t.Errorf("root = {%s}%s, want {%s}schema", doc.Root.Space, doc.Root.Local, xsdNS)
	}
	want := map[string]string{
		xsdNS:                                "xs",
		"http://www.w3.org/2000/09/xmldsig#": "ds",
	}
	if len(doc.Namespaces) != len(want) {
		t.Fatalf("got %d namespaces, want %d: %v", len(doc.Namespaces), len(want), doc.Namespaces)
	}
	for uri, prefix := range want {
		if doc.Namespaces[uri] != prefix {
			t.Errorf("Namespaces[%s] = %q, want %q", uri, doc.Namespaces[uri], prefix)
		}
	}
	if doc.Root.Attr("targetNamespace") != "http://example.com/invoice" {
		t.Errorf("targetNamespace = %q", doc.Root.Attr("targetNamespace"))
	}
}

func TestParseDefaultNamespace(t *testing.T) {
	doc, err := Parse(strings.NewReader(
		`<schema xmlns="http://www.w3.org/2001/XMLSchema"><element name="A"/></schema>`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Namespaces[xsdNS] != "default" {
		t.Errorf("default namespace prefix = %q, want default", doc.Namespaces[xsdNS])
	}
}

func TestParseErrors(t *testing.T) {
	if _, err := Parse(strings.NewReader("")); err == nil {
		t.Error("empty input: want error")
	}
	if _, err := Parse(strings.NewReader("<a><b></a>")); err == nil {
		t.Error("mismatched tags: want error")
	}
}

func TestNodeAccessors(t *testing.T) {
	doc := parseSample(t)

	invoice := doc.FindComplexType(xsdNS, "Invoice")
	if invoice == nil {
		t.Fatal("FindComplexType(Invoice) = nil")
	}
	seq := invoice.Child(xsdNS, KindSequence)
	if seq == nil {
		t.Fatal("Invoice has no sequence child")
	}
	elems := seq.ChildrenOf(xsdNS, KindElement)
	if len(elems) != 3 {
		t.Fatalf("got %d elements, want 3", len(elems))
	}

	number, line, comment := elems[0], elems[1], elems[2]
	if number.Name() != "Number" || number.TypeRef() != "xs:string" {
		t.Errorf("Number = %q type %q", number.Name(), number.TypeRef())
	}
	if number.MinOccurs() != 1 {
		t.Errorf("Number.MinOccurs() = %d, want default 1", number.MinOccurs())
	}
	if max, unbounded := number.MaxOccurs(); max != 1 || unbounded {
		t.Errorf("Number.MaxOccurs() = (%d, %v), want (1, false)", max, unbounded)
	}

	if line.MinOccurs() != 0 {
		t.Errorf("Line.MinOccurs() = %d, want 0", line.MinOccurs())
	}
	if _, unbounded := line.MaxOccurs(); !unbounded {
		t.Error("Line.MaxOccurs() not unbounded")
	}

	if max, unbounded := comment.MaxOccurs(); max != 3 || unbounded {
		t.Errorf("Comment.MaxOccurs() = (%d, %v), want (3, false)", max, unbounded)
	}
	if !comment.Nillable() {
		t.Error("Comment.Nillable() = false")
	}
	if number.Nillable() {
		t.Error("Number.Nillable() = true")
	}
}

func TestFindNamedTypes(t *testing.T) {
	doc := parseSample(t)

	if doc.FindComplexType(xsdNS, "LineType") == nil {
		t.Error("FindComplexType(LineType) = nil")
	}
	if doc.FindComplexType(xsdNS, "Missing") != nil {
		t.Error("FindComplexType(Missing) != nil")
	}
	if doc.FindComplexType(xsdNS, "") != nil {
		t.Error("FindComplexType(empty) != nil")
	}
	st := doc.FindSimpleType(xsdNS, "CodeType")
	if st == nil {
		t.Fatal("FindSimpleType(CodeType) = nil")
	}
	r := st.Child(xsdNS, KindRestriction)
	if r == nil || r.Attr("base") != "xs:string" {
		t.Error("CodeType restriction base not found")
	}
}

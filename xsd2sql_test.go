package xsd2sql

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const invoiceSchema = `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:complexType name="Invoice">
    <xs:sequence>
      <xs:element name="Number" type="xs:string"/>
      <xs:element name="Issued" type="xs:date"/>
      <xs:element name="Line" type="LineType" maxOccurs="unbounded"/>
      <xs:element ref="Customer"/>
    </xs:sequence>
  </xs:complexType>
  <xs:complexType name="LineType">
    <xs:sequence>
      <xs:element name="Description" type="xs:string" minOccurs="0"/>
      <xs:element name="Amount" type="xs:decimal"/>
    </xs:sequence>
  </xs:complexType>
  <xs:complexType name="Customer">
    <xs:sequence>
      <xs:element name="Name" type="xs:string"/>
    </xs:sequence>
  </xs:complexType>
</xs:schema>`

func generateInvoice(t *testing.T) *Result {
	t.Helper()
	res, err := Generate(strings.NewReader(invoiceSchema), "invoice_schema_xsd", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return res
}

func TestGenerateTables(t *testing.T) {
	res := generateInvoice(t)

	for _, name := range []string{"Invoice", "LineType", "Customer", "invoice_schema_xsd"} {
		if !res.Schema.Has(name) {
			t.Errorf("missing table %s", name)
		}
	}

	// the unbounded line element puts the reference on the line table
	line := res.Schema.Table("LineType")
	found := false
	for _, c := range line.Columns {
		if c.Name == "InvoiceId_0" {
			found = true
		}
	}
	if !found {
		t.Errorf("LineType lacks the back-reference: %+v", line.Columns)
	}

	// the singular customer reference stays on the invoice table
	invoice := res.Schema.Table("Invoice")
	if !invoice.HasForeignKeyColumn("CustomerId") {
		t.Errorf("Invoice lacks CustomerId constraint: %+v", invoice.ForeignKeys)
	}
}

func TestGenerateOrders(t *testing.T) {
	res := generateInvoice(t)

	if len(res.DropOrder) != len(res.CreateOrder) {
		t.Fatalf("order lengths differ: %v vs %v", res.DropOrder, res.CreateOrder)
	}
	for i, name := range res.DropOrder {
		if res.CreateOrder[len(res.CreateOrder)-1-i] != name {
			t.Fatalf("create order %v is not the reverse of drop order %v",
				res.CreateOrder, res.DropOrder)
		}
	}

	pos := func(order []string, name string) int {
		for i, n := range order {
			if n == name {
				return i
			}
		}
		t.Fatalf("%s missing from %v", name, order)
		return -1
	}
	// a table drops before anything it references
	if pos(res.DropOrder, "Invoice") >= pos(res.DropOrder, "Customer") {
		t.Errorf("drop order %v drops Customer before Invoice", res.DropOrder)
	}
	if pos(res.DropOrder, "LineType") >= pos(res.DropOrder, "Invoice") {
		t.Errorf("drop order %v drops Invoice before LineType", res.DropOrder)
	}
}

func TestGenerateStatements(t *testing.T) {
	res := generateInvoice(t)

	if len(res.CreateStatements) != len(res.Schema.Tables()) {
		t.Fatalf("%d create statements for %d tables",
			len(res.CreateStatements), len(res.Schema.Tables()))
	}
	var sql strings.Builder
	if err := res.WriteSQL(&sql); err != nil {
		t.Fatalf("WriteSQL: %v", err)
	}
	out := sql.String()
	for _, want := range []string{
		"--BEGIN DROP TABLE Statements",
		"IF EXISTS (SELECT * FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = 'Invoice') DROP TABLE Invoice;",
		"--BEGIN CREATE TABLE Statements",
		"InvoiceId bigint PRIMARY KEY NOT NULL",
		"Number nvarchar(max) NOT NULL",
		"Amount decimal(18,2) NOT NULL",
		"Description nvarchar(max) NULL",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("SQL output missing %q", want)
		}
	}
}

func TestGenerateDiagram(t *testing.T) {
	res := generateInvoice(t)

	var uml strings.Builder
	if err := res.WriteDiagram(&uml); err != nil {
		t.Fatalf("WriteDiagram: %v", err)
	}
	out := uml.String()
	for _, want := range []string{
		"@startuml",
		"entity \"Invoice\" {",
		"+ InvoiceId: bigint",
		"@enduml",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("diagram missing %q", want)
		}
	}
}

func TestGenerateCycleDiagnostics(t *testing.T) {
	cyclic := `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema">
  <xs:complexType name="X">
    <xs:sequence><xs:element ref="Y"/></xs:sequence>
  </xs:complexType>
  <xs:complexType name="Y">
    <xs:sequence><xs:element ref="X"/></xs:sequence>
  </xs:complexType>
</xs:schema>`

	res, err := Generate(strings.NewReader(cyclic), "cyclic_schema_xsd", nil)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	found := false
	for _, d := range res.Diagnostics {
		if strings.Contains(d, "removed edge to break cycle") {
			found = true
		}
	}
	if !found {
		t.Errorf("no cycle diagnostic in %v", res.Diagnostics)
	}
	if _, err := res.Graph.TopologicalOrder(); err != nil {
		t.Errorf("graph still cyclic after generation: %v", err)
	}
}

func TestGenerateEmptySchema(t *testing.T) {
	empty := `<?xml version="1.0"?>
<xs:schema xmlns:xs="http://www.w3.org/2001/XMLSchema"/>`
	if _, err := Generate(strings.NewReader(empty), "empty_schema_xsd", nil); err == nil {
		t.Error("empty document: want error")
	}
}

func TestGenerateFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "invoice.xsd")
	if err := os.WriteFile(path, []byte(invoiceSchema), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := GenerateFile(path, nil)
	if err != nil {
		t.Fatalf("GenerateFile: %v", err)
	}
	if !res.Schema.Has("invoice_schema_xsd") {
		t.Errorf("root table not derived from file name; tables: %v", res.DropOrder)
	}

	if _, err := GenerateFile(filepath.Join(dir, "missing.xsd"), nil); err == nil {
		t.Error("missing file: want error")
	}
}

func TestRootTableName(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"invoice.xsd", "invoice_schema_xsd"},
		{"/tmp/path/to/order v2.xsd", "order_v2_schema_xsd"},
		{"notes.min.xsd", "notes_min_schema_xsd"},
		{"bare", "bare_schema_xsd"},
	}
	for _, tt := range tests {
		if got := RootTableName(tt.path); got != tt.want {
			t.Errorf("RootTableName(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestLoadUserTypes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "types.yml")
	if err := os.WriteFile(path, []byte("MoneyType: decimal\nCodeType: string\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	types, err := LoadUserTypes(path)
	if err != nil {
		t.Fatalf("LoadUserTypes: %v", err)
	}
	if types["MoneyType"] != "decimal" || types["CodeType"] != "string" {
		t.Errorf("types = %v", types)
	}

	if _, err := LoadUserTypes(filepath.Join(dir, "absent.yml")); err == nil {
		t.Error("absent file: want error")
	}
	if err := os.WriteFile(path, []byte(":\nbad yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadUserTypes(path); err == nil {
		t.Error("malformed file: want error")
	}
}

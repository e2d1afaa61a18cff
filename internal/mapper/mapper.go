// Package mapper walks a parsed schema document and synthesizes the
// relational model: one depth-first traversal per declared namespace,
// accumulating columns per structural level, inferring foreign keys from
// cardinality, and committing tables into a schema registry owned by the
// run. All mutable state lives on the Mapper, so independent documents get
// independent runs.
package mapper

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nmoreno/xsd2sql/internal/schema"
	"github.com/nmoreno/xsd2sql/internal/xsd"
)

// DefaultMaxDepth bounds traversal depth; exceeding it is fatal.
const DefaultMaxDepth = 1000

// Config controls one mapping run.
type Config struct {
	// Strict makes an unresolvable schema type fatal instead of dropping
	// the column.
	Strict bool

	// NormalizeNames applies identifier normalization to column names.
	// Table names are always normalized.
	NormalizeNames bool

	// MaxDepth is the traversal depth ceiling; DefaultMaxDepth when zero.
	MaxDepth int

	// UserTypes are extra type-name to base-type mappings registered before
	// the document pre-pass (typically loaded from an overrides file).
	UserTypes map[string]string
}

// Mapper is the traversal state machine for one schema document.
type Mapper struct {
	cfg   Config
	doc   *xsd.Document
	types *schema.TypeRegistry
	out   *schema.Schema
	rels  schema.Relationships
	diags []string

	ns *schema.NamespaceContext // namespace currently being walked
}

// New creates a mapper for doc. The registries it fills are empty; nothing
// is shared between mappers.
func New(doc *xsd.Document, cfg Config) *Mapper {
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = DefaultMaxDepth
	}
	m := &Mapper{
		cfg:   cfg,
		doc:   doc,
		types: schema.NewTypeRegistry(),
		out:   schema.New(),
		rels:  make(schema.Relationships),
	}
	for name, base := range cfg.UserTypes {
		m.types.RegisterUser(name, base)
	}
	return m
}

// Schema returns the accumulated table registry.
func (m *Mapper) Schema() *schema.Schema { return m.out }

// Relationships returns the relationship records keyed by
// "<parentTable>;<foreignKeyName>".
func (m *Mapper) Relationships() schema.Relationships { return m.rels }

// Diagnostics returns the non-fatal warnings collected during the run.
func (m *Mapper) Diagnostics() []string { return m.diags }

// Run walks the document once per declared namespace, with rootTable as the
// master table that anchors top-level elements. Namespaces are processed in
// deterministic (sorted URI) order.
func (m *Mapper) Run(rootTable string) error {
	uris := make([]string, 0, len(m.doc.Namespaces))
	for uri := range m.doc.Namespaces {
		uris = append(uris, uri)
	}
	sort.Strings(uris)

	for _, uri := range uris {
		m.ns = schema.NewNamespaceContext(m.doc.Namespaces, uri)
		m.buildUserTypes(uri)
		if _, _, err := m.walk(m.doc.Root, rootTable, 0, 0); err != nil {
			return err
		}
	}
	return nil
}

// columnSet is the per-level accumulator: plain columns plus foreign key
// constraints, in the order they were produced. pin forces a flush for a
// level that produced no columns of its own but must still materialize.
type columnSet struct {
	cols []schema.Column
	fks  []schema.ForeignKey
	pin  bool
}

func (c *columnSet) empty() bool {
	return len(c.cols) == 0 && len(c.fks) == 0 && !c.pin
}

func (c *columnSet) merge(o columnSet) {
	c.cols = append(c.cols, o.cols...)
	c.fks = append(c.fks, o.fks...)
	c.pin = c.pin || o.pin
}

// walk is the depth-first traversal over one structural node. parent is the
// name of the nearest named ancestor (the current owning table), choice the
// active choice-group counter (zero outside any choice). It returns whether
// the node had structural children and the columns left unflushed at this
// level.
func (m *Mapper) walk(el *xsd.Node, parent string, depth, choice int) (bool, columnSet, error) {
	if depth > m.cfg.MaxDepth {
		return false, columnSet{}, &RecursionLimitError{Limit: m.cfg.MaxDepth}
	}

	uri := m.ns.Current()
	children := false
	var acc columnSet

	for _, e := range el.ChildrenOf(uri, xsd.KindElement) {
		children = true
		_, sub, err := m.walk(e, nameOr(e, parent), depth+1, 0)
		if err != nil {
			return children, acc, err
		}
		acc.merge(sub)
		if err := m.processNode(e, parent, choice, &acc); err != nil {
			return children, acc, err
		}
	}

	for _, e := range el.ChildrenOf(uri, xsd.KindComplexType) {
		children = true
		_, sub, err := m.walk(e, nameOr(e, parent), depth+1, 0)
		if err != nil {
			return children, acc, err
		}
		acc.merge(sub)
		if err := m.processNode(e, parent, choice, &acc); err != nil {
			return children, acc, err
		}
	}

	// Sequences merge into the enclosing level; their members were already
	// committed by the recursion under the inherited parent name.
	for _, e := range el.ChildrenOf(uri, xsd.KindSequence) {
		children = true
		if _, _, err := m.walk(e, nameOr(e, parent), depth+1, 0); err != nil {
			return children, acc, err
		}
	}

	// Each choice group gets its own counter value so every column born
	// inside it is tagged with that group and forced nullable.
	current := choice
	for _, e := range el.ChildrenOf(uri, xsd.KindChoice) {
		children = true
		current++
		_, sub, err := m.walk(e, nameOr(e, parent), depth+1, current)
		if err != nil {
			return children, acc, err
		}
		acc.merge(sub)
		if err := m.processNode(e, parent, current, &acc); err != nil {
			return children, acc, err
		}
	}

	// A genuine table boundary: named parent, not inside an active choice.
	if !acc.empty() && strings.TrimSpace(parent) != "" && choice == 0 {
		m.commit(acc, parent)
		acc = columnSet{}
	}

	// Childless node: its type reference may alias a complex type. Recurse
	// into the declaration and make sure the table exists even when the
	// type contributes no extra columns.
	if !children {
		if t := el.TypeRef(); t != "" {
			if ct := m.doc.FindComplexType(uri, t); ct != nil {
				children = true
				if _, _, err := m.walk(ct, nameOr(ct, parent), depth+1, choice); err != nil {
					return children, acc, err
				}
				if !m.out.Has(m.norm(ct.Name())) {
					m.commit(columnSet{}, ct.Name())
				}
			}
		}
	}

	return children, acc, nil
}

// processNode commits one structural child against the current level's
// accumulator: as a foreign key when it names or references a table, as a
// plain column when its type resolves, or not at all (lenient mode).
func (m *Mapper) processNode(el *xsd.Node, parent string, choice int, acc *columnSet) error {
	uri := m.ns.Current()
	hasParent := strings.TrimSpace(parent) != ""

	// Already materialized as a table: reference it.
	if hasParent && m.out.Has(m.norm(el.Name())) {
		m.foreignKey(el, acc, parent, el.Name(), el.Name(), choice)
		return nil
	}

	// Named after a declared complex type: reference it.
	if hasParent && m.doc.FindComplexType(uri, el.Name()) != nil {
		m.foreignKey(el, acc, parent, el.Name(), el.Name(), choice)
		return nil
	}

	typeRef := el.TypeRef()
	if typeRef == "" {
		typeRef = el.Ref()
	}
	if typeRef == "" {
		typeRef = "string"
	}

	if el.Ref() != "" {
		field := el.Name()
		if field == "" {
			// Referenced element may live in an external document; the ref
			// still names the relationship.
			field = el.Ref()
		}
		m.foreignKey(el, acc, parent, field, typeRef, choice)
		return nil
	}

	local := m.ns.StripCurrent(typeRef)
	sqlType, ok := m.types.Resolve(local)
	if !ok {
		sqlType, ok = m.types.Resolve(m.norm(local))
	}
	if !ok {
		// A reference to a complex type by type name is a relationship,
		// not an unresolved scalar.
		if hasParent && m.doc.FindComplexType(uri, typeRef) != nil {
			m.foreignKey(el, acc, parent, el.Name(), typeRef, choice)
			return nil
		}
		if m.cfg.Strict {
			return &UnresolvedTypeError{TypeName: typeRef}
		}
		return nil // lenient: this column is dropped
	}

	colName := el.Name()
	if colName == "" {
		colName = el.Ref()
	}
	if colName == "" {
		return nil
	}
	if m.cfg.NormalizeNames {
		colName = m.norm(colName)
	}
	acc.cols = append(acc.cols, schema.Column{
		Name:        colName,
		Type:        sqlType,
		Nullable:    m.nullable(el, choice),
		ChoiceGroup: choice,
	})
	return nil
}

// foreignKey decides the relationship direction from the element's
// cardinality and records both the physical constraint and the relationship
// record. When the right-hand side is "many", the referenced table gets the
// back-reference to the parent and any earlier opposite-direction record for
// the key is replaced; otherwise the parent carries the foreign key.
func (m *Mapper) foreignKey(el *xsd.Node, acc *columnSet, parent, fkField, refTable string, choice int) {
	fkCol := m.norm(fkField + "Id")
	parentTable := m.norm(parent)
	refNorm := m.norm(refTable)
	fkName := foreignKeyName(parentTable, fkCol)
	card := cardinalityOf(el)

	if card.ManyRight() {
		invName := foreignKeyName(parentTable, fkField)
		m.rels.Remove(parentTable, fkName)
		m.rels.Add(parentTable, invName, refNorm, card, true)

		// Equal tag names in nested hierarchies are not expected, so the
		// back-reference column index is always 0.
		backCol := parentTable + "Id_0"
		var set columnSet
		set.cols = append(set.cols, schema.Column{
			Name:        backCol,
			Type:        "bigint",
			Nullable:    m.nullable(el, choice),
			ChoiceGroup: choice,
		})
		set.fks = append(set.fks, schema.ForeignKey{
			Name:      invName,
			Column:    backCol,
			RefTable:  parentTable,
			RefColumn: parentTable + "Id",
		})
		m.commit(set, refTable)

		// The parent contributed no column of its own here, but it must
		// still materialize as a table at the flush boundary.
		if acc.empty() {
			acc.pin = true
		}
		return
	}

	m.rels.Add(parentTable, fkName, refNorm, card, false)
	acc.cols = append(acc.cols, schema.Column{
		Name:        fkCol,
		Type:        "bigint",
		Nullable:    m.nullable(el, choice),
		ChoiceGroup: choice,
	})
	acc.fks = append(acc.fks, schema.ForeignKey{
		Name:      fkName,
		Column:    fkCol,
		RefTable:  refNorm,
		RefColumn: refNorm + "Id",
	})
	// Referenced table must exist even if nothing else ever commits to it.
	m.commit(columnSet{}, refTable)
}

// commit unions set into the table registered under tableName, creating it
// (with its synthesized primary key) on first use. Exact duplicates
// collapse; a repeat definition of an existing column name with different
// attributes is kept but reported as a diagnostic.
func (m *Mapper) commit(set columnSet, tableName string) {
	norm := m.norm(tableName)
	if norm == "" {
		return
	}
	t := m.out.Ensure(norm)

	for _, c := range set.cols {
		if !t.AddColumn(c) {
			continue
		}
		for _, have := range t.Columns[:len(t.Columns)-1] {
			if have.Name == c.Name {
				m.warnf("table %s: divergent definitions for column %s; keeping both", norm, c.Name)
				break
			}
		}
	}
	for _, fk := range set.fks {
		t.AddForeignKey(fk)
	}
}

// buildUserTypes is the pre-pass populating the user stratum of the type
// registry: top-level element declarations with an explicit type, and named
// restriction-based simple types.
func (m *Mapper) buildUserTypes(uri string) {
	for _, el := range m.doc.Root.ChildrenOf(uri, xsd.KindElement) {
		if el.Name() != "" && el.TypeRef() != "" {
			m.types.RegisterUser(m.norm(el.Name()), m.ns.StripCurrent(el.TypeRef()))
		}
	}
	for _, st := range m.doc.Root.ChildrenOf(uri, xsd.KindSimpleType) {
		restr := st.Child(uri, xsd.KindRestriction)
		if restr == nil || st.Name() == "" {
			continue
		}
		m.types.RegisterUser(m.norm(st.Name()), m.ns.StripCurrent(restr.Attr("base")))
	}
}

func (m *Mapper) nullable(el *xsd.Node, choice int) bool {
	if choice > 0 {
		// Member of an exclusive group: at most one sibling is populated,
		// so every member must allow NULL.
		return true
	}
	return el.MinOccurs() == 0 || el.Nillable()
}

func (m *Mapper) norm(s string) string {
	return schema.Normalize(s, m.ns)
}

func (m *Mapper) warnf(format string, args ...any) {
	m.diags = append(m.diags, fmt.Sprintf(format, args...))
}

func cardinalityOf(el *xsd.Node) schema.Cardinality {
	max, unbounded := el.MaxOccurs()
	return schema.Cardinality{Min: el.MinOccurs(), Max: max, Unbounded: unbounded}
}

func foreignKeyName(parentTable, field string) string {
	return fmt.Sprintf("FK_%s_%s", parentTable, field)
}

func nameOr(el *xsd.Node, parent string) string {
	if n := el.Name(); n != "" {
		return n
	}
	return parent
}

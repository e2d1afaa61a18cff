package formatter

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/nmoreno/xsd2sql/internal/depgraph"
	"github.com/nmoreno/xsd2sql/internal/schema"
)

// PlantUMLFormatter writes the entity-relationship diagram for a schema.
type PlantUMLFormatter struct {
	writer io.Writer
}

// NewPlantUMLFormatter creates a new diagram formatter.
func NewPlantUMLFormatter(w io.Writer) *PlantUMLFormatter {
	return &PlantUMLFormatter{writer: w}
}

// Format writes the full diagram: one entity block per table, then one edge
// per dependency. Edges take their cardinality from the relationship records
// when one matches; a dependency with no record renders the default
// one-to-many notation.
func (f *PlantUMLFormatter) Format(s *schema.Schema, g *depgraph.Graph, rels schema.Relationships) error {
	if _, err := fmt.Fprintln(f.writer, "@startuml"); err != nil {
		return err
	}
	for _, t := range s.Tables() {
		if err := f.writeEntity(t); err != nil {
			return err
		}
	}
	if err := f.writeRelationships(g, rels); err != nil {
		return err
	}
	_, err := fmt.Fprintln(f.writer, "@enduml")
	return err
}

// writeEntity renders one table: "+" marks the primary key, "-" marks
// foreign key columns, choice members keep their marker after the type.
func (f *PlantUMLFormatter) writeEntity(t *schema.Table) error {
	if _, err := fmt.Fprintf(f.writer, "entity \"%s\" {\n", t.Name); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f.writer, "+ %s: bigint\n", t.PrimaryKey); err != nil {
		return err
	}
	for _, c := range t.Columns {
		prefix := ""
		if t.HasForeignKeyColumn(c.Name) {
			prefix = "- "
		}
		line := fmt.Sprintf("%s%s: %s", prefix, c.Name, c.Type)
		if c.ChoiceGroup > 0 {
			line += fmt.Sprintf(" /*choice=%d*/", c.ChoiceGroup)
		}
		if _, err := fmt.Fprintln(f.writer, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(f.writer, "}")
	return err
}

func (f *PlantUMLFormatter) writeRelationships(g *depgraph.Graph, rels schema.Relationships) error {
	keys := make([]string, 0, len(rels))
	for k := range rels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	find := func(parent, target string) (schema.Cardinality, bool) {
		for _, k := range keys {
			if keyParent(k) != parent {
				continue
			}
			for _, rel := range rels[k] {
				if rel.Table == target {
					return rel.Cardinality, true
				}
			}
		}
		return schema.Cardinality{}, false
	}

	for _, node := range g.Nodes() {
		if strings.TrimSpace(node) == "" {
			continue
		}
		for _, p := range g.Predecessors(node) {
			if strings.TrimSpace(p) == "" {
				continue
			}
			if card, ok := find(p, node); ok {
				if err := f.writeEdge(p, node, card); err != nil {
					return err
				}
				continue
			}
			// Inverse lookup covers relationships whose foreign key was
			// flipped to the referenced table by a many cardinality.
			if card, ok := find(node, p); ok {
				if err := f.writeEdge(node, p, card); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(f.writer, "%s ||--o{ %s\n", p, node); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(f.writer, ""); err != nil {
			return err
		}
	}
	return nil
}

func (f *PlantUMLFormatter) writeEdge(left, right string, card schema.Cardinality) error {
	_, err := fmt.Fprintf(f.writer, "%s %s--%s %s\n",
		left, umlEnd(card.Min, false), umlEnd(card.Max, card.Unbounded), right)
	return err
}

// umlEnd translates one side of a cardinality to PlantUML notation.
func umlEnd(v int, unbounded bool) string {
	switch {
	case unbounded:
		return "o{"
	case v == 0:
		return "o"
	case v > 1:
		return "|{"
	default:
		return "||"
	}
}

func keyParent(key string) string {
	if i := strings.IndexByte(key, ';'); i >= 0 {
		return key[:i]
	}
	return key
}

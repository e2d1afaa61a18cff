// Package formatter renders the synthesized relational model: SQL Server DDL
// scripts ordered for safe execution, and a PlantUML entity-relationship
// diagram.
package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/nmoreno/xsd2sql/internal/schema"
)

// ColumnDefinition renders one column clause. Choice-group members carry a
// trailing marker comment so consumers can see which columns are mutually
// exclusive.
func ColumnDefinition(c schema.Column) string {
	nullability := "NOT NULL"
	if c.Nullable {
		nullability = "NULL"
	}
	def := fmt.Sprintf("%s %s %s", c.Name, c.Type, nullability)
	if c.ChoiceGroup > 0 {
		def += fmt.Sprintf(" /*choice=%d*/", c.ChoiceGroup)
	}
	return def
}

// ConstraintDefinition renders one foreign key constraint clause.
func ConstraintDefinition(fk schema.ForeignKey) string {
	return fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s(%s)",
		fk.Name, fk.Column, fk.RefTable, fk.RefColumn)
}

// CreateTableStatement renders the CREATE TABLE statement for t: primary key
// first, plain columns next, foreign key constraints last. That ordering is
// required for the statement to be syntactically valid.
func CreateTableStatement(t *schema.Table) string {
	clauses := make([]string, 0, 1+len(t.Columns)+len(t.ForeignKeys))
	clauses = append(clauses, fmt.Sprintf("%s bigint PRIMARY KEY NOT NULL", t.PrimaryKey))
	for _, c := range t.Columns {
		clauses = append(clauses, ColumnDefinition(c))
	}
	for _, fk := range t.ForeignKeys {
		clauses = append(clauses, ConstraintDefinition(fk))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s);", t.Name, strings.Join(clauses, ", "))
}

// DropTableStatement renders a drop guarded by an existence check, so the
// script is runnable against a database that never held the table.
func DropTableStatement(name string) string {
	return fmt.Sprintf(
		"IF EXISTS (SELECT * FROM INFORMATION_SCHEMA.TABLES WHERE TABLE_NAME = '%s') DROP TABLE %s;",
		name, name)
}

// CreateStatements renders CREATE TABLE statements following order (the safe
// creation order). Order entries without a registered table are skipped.
func CreateStatements(s *schema.Schema, order []string) []string {
	var out []string
	for _, name := range order {
		if t := s.Table(name); t != nil {
			out = append(out, CreateTableStatement(t))
		}
	}
	return out
}

// DropStatements renders guarded DROP TABLE statements following order (the
// safe deletion order).
func DropStatements(s *schema.Schema, order []string) []string {
	var out []string
	for _, name := range order {
		if s.Table(name) != nil {
			out = append(out, DropTableStatement(name))
		}
	}
	return out
}

// SQLFormatter writes the full DDL script to a writer.
type SQLFormatter struct {
	writer io.Writer
}

// NewSQLFormatter creates a new SQL script formatter.
func NewSQLFormatter(w io.Writer) *SQLFormatter {
	return &SQLFormatter{writer: w}
}

// Format writes the drop statements, then the create statements, each inside
// a banner comment block.
func (f *SQLFormatter) Format(dropStatements, createStatements []string) error {
	if _, err := fmt.Fprintln(f.writer, "--BEGIN DROP TABLE Statements"); err != nil {
		return err
	}
	for _, stmt := range dropStatements {
		if _, err := fmt.Fprintln(f.writer, stmt); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(f.writer, "--END DROP TABLE Statements"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(f.writer, ""); err != nil {
		return err
	}

	if _, err := fmt.Fprintln(f.writer, "--BEGIN CREATE TABLE Statements"); err != nil {
		return err
	}
	for _, stmt := range createStatements {
		if _, err := fmt.Fprintln(f.writer, stmt); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintln(f.writer, "--END CREATE TABLE Statements"); err != nil {
		return err
	}
	return nil
}

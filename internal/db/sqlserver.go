// Package db executes generated DDL scripts against SQL Server.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
)

// Client manages the connection to SQL Server.
type Client struct {
	db *sql.DB
}

// NewClient creates a new SQL Server client from a sqlserver:// connection
// string and verifies the connection.
func NewClient(ctx context.Context, connString string) (*Client, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Client{db: db}, nil
}

// Close closes the database connection.
func (c *Client) Close() error {
	return c.db.Close()
}

// ExecuteStatements runs the statements in order, stopping at the first
// failure. Blank statements are skipped.
func (c *Client) ExecuteStatements(ctx context.Context, statements []string) error {
	for _, stmt := range statements {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

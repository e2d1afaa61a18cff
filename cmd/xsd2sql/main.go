package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/nmoreno/xsd2sql"
)

var (
	failOnBadType bool
	asIs          bool
	typesFile     string
	outputFile    string
	diagramFile   string

	dbName     string
	dbUser     string
	dbPassword string
	dbHost     string
	dbPort     int
)

var rootCmd = &cobra.Command{
	Use:   "xsd2sql FILE [FILE...]",
	Short: "Create a database schema from an XSD document",
	Long: `xsd2sql translates XSD schema documents into a SQL Server database schema:
dependency-ordered DROP and CREATE TABLE statements plus a PlantUML
entity-relationship diagram. If no database name is given, the SQL and the
diagram are written to stdout; otherwise the statements are executed against
the database.`,
	Args: cobra.MinimumNArgs(1),
	RunE: run,
}

func init() {
	rootCmd.Flags().BoolVarP(&failOnBadType, "fail", "f", false, "Fail on finding a bad XS type")
	rootCmd.Flags().BoolVarP(&asIs, "as-is", "a", false, "Don't normalize element names")
	rootCmd.Flags().StringVar(&typesFile, "types-file", "", "YAML file with extra type mappings")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file for the SQL script (default: stdout)")
	rootCmd.Flags().StringVar(&diagramFile, "diagram", "", "Output file for the PlantUML diagram (default: stdout)")

	rootCmd.Flags().StringVarP(&dbName, "database", "d", "", "DB name; when set, statements are executed instead of printed")
	rootCmd.Flags().StringVarP(&dbUser, "user", "u", "", "DB username")
	rootCmd.Flags().StringVarP(&dbPassword, "password", "p", "", "DB password")
	rootCmd.Flags().StringVarP(&dbHost, "host", "n", "localhost", "DB host")
	rootCmd.Flags().IntVarP(&dbPort, "port", "P", 0, "DB port")
}

func run(cmd *cobra.Command, args []string) error {
	opts := &xsd2sql.Options{
		Strict: failOnBadType,
		AsIs:   asIs,
	}
	if typesFile != "" {
		userTypes, err := xsd2sql.LoadUserTypes(typesFile)
		if err != nil {
			return err
		}
		opts.UserTypes = userTypes
	}

	for _, path := range args {
		result, err := xsd2sql.GenerateFile(path, opts)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		for _, diag := range result.Diagnostics {
			fmt.Fprintf(os.Stderr, "warning: %s\n", diag)
		}

		if dbName != "" {
			if err := xsd2sql.Execute(context.Background(), connString(), result); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			fmt.Fprintf(os.Stderr, "schema for %s executed on %s\n", path, dbHost)
			continue
		}

		if err := writeOutputs(result); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
	}
	return nil
}

func writeOutputs(result *xsd2sql.Result) error {
	sqlWriter := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		sqlWriter = f
	}
	if err := result.WriteSQL(sqlWriter); err != nil {
		return err
	}

	diagramWriter := os.Stdout
	if diagramFile != "" {
		f, err := os.Create(diagramFile)
		if err != nil {
			return fmt.Errorf("failed to create diagram file: %w", err)
		}
		defer func() { _ = f.Close() }()
		diagramWriter = f
	}
	if diagramFile == "" {
		if _, err := fmt.Fprintln(diagramWriter, "\n--BEGIN PlantUml Statements"); err != nil {
			return err
		}
	}
	if err := result.WriteDiagram(diagramWriter); err != nil {
		return err
	}
	if diagramFile == "" {
		if _, err := fmt.Fprintln(diagramWriter, "--END PlantUml Statements"); err != nil {
			return err
		}
	}
	return nil
}

// connString builds the sqlserver:// connection URL from the flag values.
func connString() string {
	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     dbHost,
		RawQuery: url.Values{"database": {dbName}}.Encode(),
	}
	if dbPort != 0 {
		u.Host = dbHost + ":" + strconv.Itoa(dbPort)
	}
	if dbUser != "" {
		u.User = url.UserPassword(dbUser, dbPassword)
	}
	return u.String()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/koba/schemaforge/internal/database"
	"github.com/koba/schemaforge/internal/diff"
	"github.com/koba/schemaforge/internal/export"
	"github.com/koba/schemaforge/internal/generator"
	"github.com/koba/schemaforge/internal/parser"
	"github.com/koba/schemaforge/internal/schema"
	"github.com/koba/schemaforge/internal/sqlfmt"
	"github.com/koba/schemaforge/internal/store"
	"github.com/koba/schemaforge/internal/validate"
)

var (
	dialectName string
	label       string
	format      string
	configPath  string
	storePath   string
	tag         string
	description string
	minify      bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "schemaforge",
	Short: "Schema compiler and migration tool",
	Long:  `Parse SQL DDL into a canonical schema, diff schema snapshots, and generate dialect-correct migrations.`,
}

var parseCmd = &cobra.Command{
	Use:   "parse <file.sql>",
	Short: "Parse SQL DDL into a canonical schema",
	Long:  `Parse a SQL DDL file, validate the result, and print the schema as JSON.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a schema",
	Long:  `Run the structural and referential integrity checks over a schema file (.sql or .json).`,
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var diffCmd = &cobra.Command{
	Use:   "diff <old> <new>",
	Short: "Compare two schema snapshots",
	Long:  `Compute the structural diff between two schema files (.sql or .json) and display it.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runDiff,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate <old> <new>",
	Short: "Generate migration SQL",
	Long:  `Generate forward and reverse DDL that migrates the old schema to the new one.`,
	Args:  cobra.ExactArgs(2),
	RunE:  runMigrate,
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a schema from a live database",
	Long:  `Introspect a running MySQL or PostgreSQL database and print its schema as JSON.`,
	Args:  cobra.NoArgs,
	RunE:  runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export a schema to DDL, text, or markdown",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var fmtCmd = &cobra.Command{
	Use:   "fmt <file.sql>",
	Short: "Format or minify SQL DDL",
	Args:  cobra.ExactArgs(1),
	RunE:  runFmt,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Manage saved schema versions",
}

var versionSaveCmd = &cobra.Command{
	Use:   "save <file>",
	Short: "Save a schema snapshot to the version store",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionSave,
}

var versionListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved schema versions",
	Args:  cobra.NoArgs,
	RunE:  runVersionList,
}

var versionShowCmd = &cobra.Command{
	Use:   "show <id|tag>",
	Short: "Print a saved schema version as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runVersionShow,
}

func init() {
	migrateCmd.Flags().StringVar(&dialectName, "dialect", "postgres", "Target dialect (postgres or mysql)")
	migrateCmd.Flags().StringVar(&label, "label", "migration", "Migration label for the generated header")

	importCmd.Flags().StringVar(&configPath, "config", "", "Path to a .schemaforge.yaml config file (default: environment variables)")

	exportCmd.Flags().StringVar(&format, "format", "ddl", "Output format: ddl, text, or markdown")
	exportCmd.Flags().StringVar(&dialectName, "dialect", "postgres", "Target dialect for DDL output")

	fmtCmd.Flags().BoolVar(&minify, "minify", false, "Minify instead of pretty-printing")

	versionCmd.PersistentFlags().StringVar(&storePath, "store", ".schemaforge/versions.db", "Path to the version store")
	versionSaveCmd.Flags().StringVar(&tag, "tag", "", "Tag for the saved version")
	versionSaveCmd.Flags().StringVar(&description, "description", "", "Description for the saved version")

	versionCmd.AddCommand(versionSaveCmd)
	versionCmd.AddCommand(versionListCmd)
	versionCmd.AddCommand(versionShowCmd)

	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(fmtCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadSchema reads a schema from a .json snapshot or a .sql DDL file.
func loadSchema(path string) (*schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if strings.HasSuffix(strings.ToLower(path), ".json") {
		var s schema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", path, err)
		}
		return &s, nil
	}

	s, warnings, err := parser.Parse(string(data))
	printWarnings(warnings)
	if err != nil {
		return nil, formatParseError(path, err)
	}
	return s, nil
}

func formatParseError(path string, err error) error {
	var pe *parser.ParseError
	if errors.As(err, &pe) {
		fmt.Fprintf(os.Stderr, "%s:\n", path)
		for _, p := range pe.Problems {
			fmt.Fprintf(os.Stderr, "  error: %s\n", p)
		}
		return fmt.Errorf("%d problem(s) in %s", len(pe.Problems), path)
	}
	return err
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}

func runParse(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	res := validate.Validate(s)
	for _, e := range res.Errors {
		fmt.Printf("error: %s\n", e)
	}
	for _, w := range res.Warnings {
		fmt.Printf("warning: %s\n", w)
	}
	if !res.OK() {
		return fmt.Errorf("schema has %d error(s)", len(res.Errors))
	}

	fmt.Printf("Schema is valid: %d table(s), %d warning(s)\n", len(s.Tables), len(res.Warnings))
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	oldSchema, err := loadSchema(args[0])
	if err != nil {
		return err
	}
	newSchema, err := loadSchema(args[1])
	if err != nil {
		return err
	}

	d := diff.Compare(oldSchema, newSchema)
	displayDiff(d)
	return nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	oldSchema, err := loadSchema(args[0])
	if err != nil {
		return err
	}
	newSchema, err := loadSchema(args[1])
	if err != nil {
		return err
	}

	dialect, err := generator.ParseDialect(dialectName)
	if err != nil {
		return err
	}

	m := generator.Generate(diff.Compare(oldSchema, newSchema), dialect, label)
	printWarnings(m.Warnings)

	fmt.Println("-- +up")
	for _, stmt := range m.Up {
		fmt.Println(stmt)
	}
	fmt.Println()
	fmt.Println("-- +down")
	for _, stmt := range m.Down {
		fmt.Println(stmt)
	}
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var config database.Config
	var err error
	if configPath != "" {
		config, err = database.LoadConfigFile(configPath)
	} else {
		config, err = database.LoadConfigFromEnv()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	s, err := database.Introspect(config)
	if err != nil {
		return err
	}

	res := validate.Validate(s)
	printWarnings(res.Warnings)

	out, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	switch format {
	case "ddl":
		dialect, err := generator.ParseDialect(dialectName)
		if err != nil {
			return err
		}
		fmt.Print(export.DDL(s, dialect))
		return nil
	case "text":
		return export.Text(os.Stdout, s)
	case "markdown", "md":
		return export.Markdown(os.Stdout, s)
	default:
		return fmt.Errorf("unsupported format %q (expected ddl, text, or markdown)", format)
	}
}

func runFmt(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	if minify {
		fmt.Println(sqlfmt.Minify(string(data)))
	} else {
		fmt.Println(sqlfmt.Format(string(data)))
	}
	return nil
}

func runVersionSave(cmd *cobra.Command, args []string) error {
	s, err := loadSchema(args[0])
	if err != nil {
		return err
	}

	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	id, err := st.Save(s, tag, description)
	if err != nil {
		return err
	}
	fmt.Printf("Saved version %d\n", id)
	return nil
}

func runVersionList(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	versions, err := st.List()
	if err != nil {
		return err
	}
	displayVersions(versions)
	return nil
}

func runVersionShow(cmd *cobra.Command, args []string) error {
	st, err := store.Open(storePath)
	if err != nil {
		return err
	}
	defer st.Close()

	var v *store.Version
	if id, err := strconv.ParseInt(args[0], 10, 64); err == nil {
		v, err = st.Load(id)
		if err != nil {
			return err
		}
	} else {
		v, err = st.LoadTag(args[0])
		if err != nil {
			return err
		}
	}

	out, err := json.MarshalIndent(v.Schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode schema: %w", err)
	}
	fmt.Println(string(out))
	return nil
}

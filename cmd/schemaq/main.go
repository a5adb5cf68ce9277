package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tordrt/schemaq"
	"github.com/tordrt/schemaq/internal/query"
)

var (
	cfgFile    string
	dbURL      string
	mysqlURL   string
	sqlitePath string
	schemaName string
	tables     string
	exclude    string
	relCSV     []string
	relXML     []string
	where      []string
	showRoots  bool
	showPlan   bool
	outputFile string
	outputDir  string
	format     string
	formats    []string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "schemaq",
	Short: "Resolve table relationships and generate SQL queries",
	Long: `Schemaq extracts database schemas from PostgreSQL, MySQL, or SQLite,
merges relationship declarations from the schema's foreign keys and from CSV
or XML files, and uses the resolved relationship graph to plan joins,
generate parameterized SELECT statements, and recommend missing indexes.`,
	RunE: run,
}

func init() {
	rootCmd.Flags().StringVar(&cfgFile, "config", "", "Config file with flag defaults (YAML)")
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string")
	rootCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file path")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL)")
	rootCmd.Flags().StringVarP(&tables, "tables", "t", "", "Specific tables (comma-separated, optional)")
	rootCmd.Flags().StringVar(&exclude, "exclude", "", "Tables to exclude (comma-separated)")
	rootCmd.Flags().StringSliceVar(&relCSV, "relationships-csv", nil, "CSV relationship declaration file (repeatable)")
	rootCmd.Flags().StringSliceVar(&relXML, "relationships-xml", nil, "XML relationship declaration file (repeatable)")
	rootCmd.Flags().StringArrayVarP(&where, "where", "w", nil, "Filter: table:col1,col2 for placeholders or table.col=value for literals (repeatable)")
	rootCmd.Flags().BoolVar(&showRoots, "roots", false, "Print root tables instead of generating output")
	rootCmd.Flags().BoolVar(&showPlan, "plan", false, "Print the join plan instead of SQL")
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")
	rootCmd.Flags().StringVarP(&outputDir, "output-dir", "d", "", "Output directory for multi-format schema export")
	rootCmd.Flags().StringVarP(&format, "format", "f", "yaml", "Schema export format: yaml, json, xml, or text")
	rootCmd.Flags().StringSliceVar(&formats, "formats", nil, "Formats for multi-format export (default: yaml)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose logging")
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	if err := loadConfig(cmd); err != nil {
		return err
	}

	log, err := buildLogger()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	databaseURL, err := resolveDatabaseURL()
	if err != nil {
		return err
	}

	s, err := schemaq.ExtractSchema(ctx, databaseURL, &schemaq.Options{
		Tables:        parseTableList(tables),
		ExcludeTables: parseTableList(exclude),
		SchemaName:    schemaName,
	})
	if err != nil {
		return fmt.Errorf("failed to extract schema: %w", err)
	}

	bridge := schemaq.NewBridge(s, schemaq.WithLogger(log))
	if err := bridge.UseSchemaRelationships(); err != nil {
		return fmt.Errorf("failed to ingest schema relationships: %w", err)
	}
	for _, path := range relCSV {
		src, err := schemaq.RelationshipsFromCSV(path)
		if err != nil {
			return err
		}
		if err := bridge.AddSource(src); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
	}
	for _, path := range relXML {
		src, err := schemaq.RelationshipsFromXML(path)
		if err != nil {
			return err
		}
		if err := bridge.AddSource(src); err != nil {
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
	}
	if err := bridge.Resolve(); err != nil {
		return fmt.Errorf("failed to resolve relationships: %w", err)
	}

	if outputDir != "" && outputFile != "" {
		return fmt.Errorf("cannot use both --output-dir and --output flags")
	}

	// Multi-format schema export
	if outputDir != "" {
		return schemaq.ExportSchema(s, &schemaq.OutputOptions{OutputDir: outputDir, Formats: formats})
	}

	writer := os.Stdout
	if outputFile != "" {
		f, err := os.Create(outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to close output file: %v\n", err)
			}
		}()
		writer = f
	}

	switch {
	case showRoots:
		roots, err := bridge.RootTables()
		if err != nil {
			return err
		}
		for _, name := range roots {
			fmt.Fprintln(writer, name)
		}
		return nil

	case showPlan:
		spec, err := parseFilterSpec(where)
		if err != nil {
			return err
		}
		return bridge.RenderPlan(writer, spec.Tables()...)

	case len(where) > 0:
		spec, err := parseFilterSpec(where)
		if err != nil {
			return err
		}
		result, err := bridge.Query(spec)
		if err != nil {
			return err
		}
		printResult(writer, result)
		return nil

	default:
		return schemaq.ExportSchema(s, &schemaq.OutputOptions{Writer: writer, Format: format})
	}
}

// loadConfig fills in flags the command line left unset from the config
// file, if one was given.
func loadConfig(cmd *cobra.Command) error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed || !viper.IsSet(f.Name) {
			return
		}
		err = f.Value.Set(viper.GetString(f.Name))
	})
	return err
}

func buildLogger() (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	return cfg.Build()
}

// resolveDatabaseURL validates that exactly one database flag is set and
// maps it onto a connection URL.
func resolveDatabaseURL() (string, error) {
	dbCount := 0
	for _, v := range []string{dbURL, mysqlURL, sqlitePath} {
		if v != "" {
			dbCount++
		}
	}
	if dbCount == 0 {
		return "", fmt.Errorf("one of --db-url, --mysql-url, or --sqlite must be specified")
	}
	if dbCount > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case dbURL != "":
		return dbURL, nil
	case mysqlURL != "":
		if !strings.HasPrefix(mysqlURL, "mysql://") {
			return "mysql://" + mysqlURL, nil
		}
		return mysqlURL, nil
	default:
		return "sqlite://" + sqlitePath, nil
	}
}

// parseTableList splits a comma-separated table list, trimming whitespace.
func parseTableList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// parseFilterSpec converts --where entries into a filter spec. An entry is
// either table:col1,col2 (placeholder form) or table.col=value (literal
// form); the two forms cannot be mixed.
func parseFilterSpec(entries []string) (query.FilterSpec, error) {
	spec := schemaq.Filter()
	for _, e := range entries {
		if i := strings.Index(e, "="); i != -1 {
			spec = spec.Value(e[:i], e[i+1:])
			continue
		}
		table, cols, ok := strings.Cut(e, ":")
		if !ok {
			return spec, fmt.Errorf("invalid filter %q: want table:col1,col2 or table.col=value", e)
		}
		spec = spec.Params(table, parseTableList(cols)...)
	}
	return spec, nil
}

func printResult(w *os.File, result *schemaq.QueryResult) {
	fmt.Fprintln(w, result.Query)

	if len(result.Parameters) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "-- parameters:")
		for i, p := range result.Parameters {
			if p.Value != nil {
				fmt.Fprintf(w, "--   %d: %s = %v\n", i+1, p.Column, p.Value)
			} else {
				fmt.Fprintf(w, "--   %d: %s\n", i+1, p.Column)
			}
		}
	}

	if len(result.IndexRecommendations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "-- recommended indexes:")
		for _, rec := range result.IndexRecommendations {
			fmt.Fprintf(w, "--   %s (%s)\n", rec.Statement, rec.Reason)
		}
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

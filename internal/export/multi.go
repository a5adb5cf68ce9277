package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tordrt/schemaq/internal/schema"
)

// MultiExporter writes a schema to a directory, one file per requested
// format, plus a plain-text overview of tables and their parents.
type MultiExporter struct {
	OutputDir string
	Formats   []string
	BaseName  string // file stem, "schema" when empty
}

// NewMultiExporter creates a new multi-format exporter
func NewMultiExporter(outputDir string, formats []string) *MultiExporter {
	return &MultiExporter{
		OutputDir: outputDir,
		Formats:   formats,
	}
}

// Export writes one schema file per format and the overview file.
func (m *MultiExporter) Export(s *schema.Schema) error {
	if err := os.MkdirAll(m.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	base := m.BaseName
	if base == "" {
		base = "schema"
	}

	for _, format := range m.Formats {
		ser, err := ForFormat(format)
		if err != nil {
			return err
		}
		if err := m.writeFile(filepath.Join(m.OutputDir, base+extension(format)), s, ser); err != nil {
			return fmt.Errorf("failed to export %s: %w", format, err)
		}
	}

	if err := m.writeOverview(s); err != nil {
		return fmt.Errorf("failed to write overview: %w", err)
	}

	return nil
}

func (m *MultiExporter) writeFile(path string, s *schema.Schema, ser Serializer) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()
	return ser.Serialize(s, file)
}

// writeOverview lists each table with its parents, alphabetically.
func (m *MultiExporter) writeOverview(s *schema.Schema) error {
	file, err := os.Create(filepath.Join(m.OutputDir, "_overview.txt"))
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	_, _ = fmt.Fprintln(file, "SCHEMA OVERVIEW")
	_, _ = fmt.Fprintln(file)

	sortedTables := make([]schema.Table, len(s.Tables))
	copy(sortedTables, s.Tables)
	sort.Slice(sortedTables, func(i, j int) bool {
		return sortedTables[i].Name < sortedTables[j].Name
	})

	for _, table := range sortedTables {
		_, _ = fmt.Fprintf(file, "%s", table.Name)

		var parents []string
		for _, rel := range s.Relationships {
			if rel.Child == table.Name {
				parents = append(parents, rel.Parent)
			}
		}
		if len(parents) > 0 {
			_, _ = fmt.Fprintf(file, " (references: %s)", strings.Join(parents, ", "))
		}
		_, _ = fmt.Fprintln(file)
	}

	return nil
}

func extension(format string) string {
	switch format {
	case "yaml", "yml":
		return ".yaml"
	case "json":
		return ".json"
	case "xml":
		return ".xml"
	default:
		return ".txt"
	}
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tordrt/schemaq/internal/schema"
)

// SQLiteClient manages the connection to SQLite
type SQLiteClient struct {
	db *sql.DB
}

// NewSQLiteClient creates a new SQLite client
func NewSQLiteClient(ctx context.Context, path string) (*SQLiteClient, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &SQLiteClient{db: db}, nil
}

// Close closes the database connection
func (c *SQLiteClient) Close() error {
	return c.db.Close()
}

// GetDB returns the underlying database connection
func (c *SQLiteClient) GetDB() *sql.DB {
	return c.db
}

// SQLiteExtractor extracts schema metadata from SQLite.
type SQLiteExtractor struct {
	client *SQLiteClient
}

// NewSQLiteExtractor creates a new SQLite schema extractor
func NewSQLiteExtractor(client *SQLiteClient) *SQLiteExtractor {
	return &SQLiteExtractor{
		client: client,
	}
}

// ExtractSchema extracts the complete schema for specified tables.
// If tables is empty, extracts all tables in the database.
func (e *SQLiteExtractor) ExtractSchema(ctx context.Context, tables []string) (*schema.Schema, error) {
	tableNames, err := e.getTableNames(ctx, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to get table names: %w", err)
	}

	out := &schema.Schema{}
	for _, tableName := range tableNames {
		table, err := e.extractTable(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract table %s: %w", tableName, err)
		}
		out.Tables = append(out.Tables, *table)

		rels, err := e.extractForeignKeys(ctx, tableName)
		if err != nil {
			return nil, fmt.Errorf("failed to extract foreign keys for %s: %w", tableName, err)
		}
		out.Relationships = append(out.Relationships, rels...)
	}

	return out, nil
}

// getTableNames returns the list of tables to extract
func (e *SQLiteExtractor) getTableNames(ctx context.Context, requestedTables []string) ([]string, error) {
	if len(requestedTables) > 0 {
		return requestedTables, nil
	}

	query := `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tableList []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, err
		}
		tableList = append(tableList, tableName)
	}

	return tableList, rows.Err()
}

// extractTable extracts all information for a single table. PRAGMA
// table_info supplies columns and the primary key in one pass.
func (e *SQLiteExtractor) extractTable(ctx context.Context, tableName string) (*schema.Table, error) {
	table := &schema.Table{Name: tableName}

	query := fmt.Sprintf("PRAGMA table_info(%s)", tableName)
	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to extract columns: %w", err)
	}
	defer rows.Close()

	// PRAGMA table_info orders pk columns by their pk sequence number, not
	// by column position.
	type pkCol struct {
		name  string
		order int
	}
	var pkCols []pkCol

	for rows.Next() {
		var cid int
		var name, colType string
		var notNull, pkOrder int
		var defaultValue sql.NullString

		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultValue, &pkOrder); err != nil {
			return nil, err
		}

		table.Columns = append(table.Columns, schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
			Ordinal:  cid + 1,
		})

		if pkOrder > 0 {
			pkCols = append(pkCols, pkCol{name: name, order: pkOrder})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for order := 1; order <= len(pkCols); order++ {
		for _, c := range pkCols {
			if c.order == order {
				table.PrimaryKey = append(table.PrimaryKey, c.name)
			}
		}
	}

	indexes, err := e.extractIndexes(ctx, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to extract indexes: %w", err)
	}
	table.Indexes = indexes

	return table, nil
}

// extractForeignKeys extracts foreign key constraints. PRAGMA
// foreign_key_list numbers each constraint with an id and its columns with a
// seq, so composite keys group on the id.
func (e *SQLiteExtractor) extractForeignKeys(ctx context.Context, tableName string) ([]schema.Relationship, error) {
	query := fmt.Sprintf("PRAGMA foreign_key_list(%s)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rels []schema.Relationship
	lastID := -1
	for rows.Next() {
		var id, seq int
		var parentTable, childCol, onUpdate, onDelete, match string
		var parentCol sql.NullString

		if err := rows.Scan(&id, &seq, &parentTable, &childCol, &parentCol, &onUpdate, &onDelete, &match); err != nil {
			return nil, err
		}

		if id != lastID {
			rels = append(rels, schema.Relationship{
				Child:  tableName,
				Parent: parentTable,
				Kind:   schema.ManyToOne,
			})
			lastID = id
		}
		last := &rels[len(rels)-1]
		last.Pairs = append(last.Pairs, schema.ColumnPair{Parent: parentCol.String, Child: childCol})
	}

	return rels, rows.Err()
}

// extractIndexes extracts index information
func (e *SQLiteExtractor) extractIndexes(ctx context.Context, tableName string) ([]schema.Index, error) {
	query := fmt.Sprintf("PRAGMA index_list(%s)", tableName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	indexes := []schema.Index{}

	for rows.Next() {
		var seq int
		var name, origin string
		var unique, partial int

		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return nil, err
		}

		// Skip auto-generated primary key indexes
		if strings.HasPrefix(name, "sqlite_autoindex") {
			continue
		}

		columns, err := e.indexColumns(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(columns) == 0 {
			continue
		}

		indexes = append(indexes, schema.Index{
			Name:     name,
			IsUnique: unique == 1,
			Columns:  columns,
		})
	}

	return indexes, rows.Err()
}

func (e *SQLiteExtractor) indexColumns(ctx context.Context, indexName string) ([]string, error) {
	query := fmt.Sprintf("PRAGMA index_info(%s)", indexName)

	rows, err := e.client.GetDB().QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString

		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return nil, err
		}

		if colName.Valid {
			columns = append(columns, colName.String)
		}
	}

	return columns, rows.Err()
}

package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/lib/pq"

	"github.com/koba/schemaforge/internal/schema"
)

// Postgres implements the Database interface for PostgreSQL.
type Postgres struct {
	config Config
	db     *sql.DB
}

// NewPostgres creates a new PostgreSQL connector.
func NewPostgres(config Config) *Postgres {
	return &Postgres{config: config}
}

// Connect establishes a connection to PostgreSQL.
func (p *Postgres) Connect() error {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		p.config.Host,
		p.config.Port,
		p.config.User,
		p.config.Password,
		p.config.Database,
	)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}

	p.db = db
	return nil
}

// Close closes the PostgreSQL connection.
func (p *Postgres) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// ListTables retrieves all table names in the public schema.
func (p *Postgres) ListTables() ([]string, error) {
	query := `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = 'public' AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`
	rows, err := p.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to get tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// IntrospectTable shapes one table's catalog metadata into a canonical
// table value.
func (p *Postgres) IntrospectTable(name string) (*schema.Table, error) {
	table := &schema.Table{Name: name}

	columns, err := p.getColumns(name)
	if err != nil {
		return nil, err
	}
	table.Columns = columns

	if err := p.attachIndexes(table); err != nil {
		return nil, err
	}
	if err := p.attachForeignKeys(table); err != nil {
		return nil, err
	}

	return table, nil
}

func (p *Postgres) getColumns(tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			column_name,
			data_type,
			COALESCE(character_maximum_length, 0),
			COALESCE(numeric_precision, 0),
			COALESCE(numeric_scale, 0),
			is_nullable,
			column_default
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`
	rows, err := p.db.Query(query, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var name, rawType, nullable string
		var maxLen, precision, scale int
		var defaultValue sql.NullString

		if err := rows.Scan(&name, &rawType, &maxLen, &precision, &scale, &nullable, &defaultValue); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		pt := schema.ParseColumnType(rawType)
		col := schema.Column{
			Name:     name,
			Type:     pt.Type,
			Nullable: nullable == "YES",
		}
		if pt.Type.RequiresLength() {
			col.Length = maxLen
		}
		if pt.Type.HasPrecision() {
			col.Precision = precision
			col.Scale = scale
		}

		if defaultValue.Valid {
			raw := defaultValue.String
			// Serial columns surface as nextval() defaults.
			if strings.Contains(strings.ToLower(raw), "nextval") {
				col.AutoIncrement = true
			} else {
				// Strip the ::type cast Postgres appends to literals.
				if cast := strings.Index(raw, "::"); cast > 0 {
					raw = raw[:cast]
				}
				col.Default = &schema.Default{
					Value:      raw,
					IsFunction: strings.Contains(raw, "("),
				}
			}
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// attachIndexes sets primary-key and unique flags on columns and records the
// remaining indexes on the table.
func (p *Postgres) attachIndexes(table *schema.Table) error {
	query := `
		SELECT
			i.relname AS index_name,
			a.attname AS column_name,
			ix.indisunique AS is_unique,
			ix.indisprimary AS is_primary,
			am.amname AS method
		FROM pg_class t
		JOIN pg_index ix ON t.oid = ix.indrelid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_am am ON am.oid = i.relam
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relname = $1 AND t.relkind = 'r'
		ORDER BY i.relname, a.attnum
	`
	rows, err := p.db.Query(query, table.Name)
	if err != nil {
		return fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	type pgIndex struct {
		index   schema.Index
		primary bool
	}
	var order []string
	indexMap := make(map[string]*pgIndex)

	for rows.Next() {
		var indexName, columnName, method string
		var isUnique, isPrimary bool

		if err := rows.Scan(&indexName, &columnName, &isUnique, &isPrimary, &method); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}

		if idx, exists := indexMap[indexName]; exists {
			idx.index.Columns = append(idx.index.Columns, columnName)
		} else {
			order = append(order, indexName)
			indexMap[indexName] = &pgIndex{
				index: schema.Index{
					Name:    indexName,
					Columns: []string{columnName},
					Unique:  isUnique,
					Method:  schema.ParseIndexMethod(method),
				},
				primary: isPrimary,
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range order {
		idx := indexMap[name]
		if idx.primary {
			for _, colName := range idx.index.Columns {
				if col := table.Column(colName); col != nil {
					col.PrimaryKey = true
					col.Nullable = false
				}
			}
			continue
		}
		// A single-column unique index is the column's own uniqueness.
		if idx.index.Unique && len(idx.index.Columns) == 1 {
			if col := table.Column(idx.index.Columns[0]); col != nil {
				col.Unique = true
				continue
			}
		}
		table.Indexes = append(table.Indexes, idx.index)
	}

	return nil
}

func (p *Postgres) attachForeignKeys(table *schema.Table) error {
	query := `
		SELECT
			kcu.column_name,
			ccu.table_name AS referenced_table,
			ccu.column_name AS referenced_column,
			rc.delete_rule,
			rc.update_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
		JOIN information_schema.constraint_column_usage ccu
			ON ccu.constraint_name = tc.constraint_name
			AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
			ON rc.constraint_name = tc.constraint_name
		WHERE tc.constraint_type = 'FOREIGN KEY'
			AND tc.table_schema = 'public'
			AND tc.table_name = $1
	`
	rows, err := p.db.Query(query, table.Name)
	if err != nil {
		return fmt.Errorf("failed to get foreign keys: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var columnName, refTable, refColumn, deleteRule, updateRule string
		if err := rows.Scan(&columnName, &refTable, &refColumn, &deleteRule, &updateRule); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}

		if col := table.Column(columnName); col != nil {
			col.Reference = &schema.Reference{
				Table:    refTable,
				Column:   refColumn,
				OnDelete: schema.ParseCascadeAction(deleteRule),
				OnUpdate: schema.ParseCascadeAction(updateRule),
			}
		}
	}

	return rows.Err()
}

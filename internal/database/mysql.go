package database

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"

	"github.com/koba/schemaforge/internal/schema"
)

// MySQL implements the Database interface for MySQL.
type MySQL struct {
	config Config
	db     *sql.DB
}

// NewMySQL creates a new MySQL connector.
func NewMySQL(config Config) *MySQL {
	return &MySQL{config: config}
}

// Connect establishes a connection to MySQL.
func (m *MySQL) Connect() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		m.config.User,
		m.config.Password,
		m.config.Host,
		m.config.Port,
		m.config.Database,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open MySQL connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping MySQL: %w", err)
	}

	m.db = db
	return nil
}

// Close closes the MySQL connection.
func (m *MySQL) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// ListTables retrieves all table names in the database.
func (m *MySQL) ListTables() ([]string, error) {
	query := "SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE' ORDER BY TABLE_NAME"
	rows, err := m.db.Query(query, m.config.Database)
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
func (m *MySQL) IntrospectTable(name string) (*schema.Table, error) {
	table := &schema.Table{Name: name}

	columns, err := m.getColumns(name)
	if err != nil {
		return nil, err
	}
	table.Columns = columns

	if err := m.attachIndexes(table); err != nil {
		return nil, err
	}
	if err := m.attachForeignKeys(table); err != nil {
		return nil, err
	}

	return table, nil
}

func (m *MySQL) getColumns(tableName string) ([]schema.Column, error) {
	query := `
		SELECT
			COLUMN_NAME,
			COLUMN_TYPE,
			IS_NULLABLE,
			COLUMN_DEFAULT,
			EXTRA,
			COLUMN_KEY,
			COLUMN_COMMENT
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
	rows, err := m.db.Query(query, m.config.Database, tableName)
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var name, rawType, nullable, extra, key, comment string
		var defaultValue sql.NullString

		if err := rows.Scan(&name, &rawType, &nullable, &defaultValue, &extra, &key, &comment); err != nil {
			return nil, fmt.Errorf("failed to scan column: %w", err)
		}

		pt := schema.ParseColumnType(rawType)
		col := schema.Column{
			Name:          name,
			Type:          pt.Type,
			Length:        pt.Length,
			Precision:     pt.Precision,
			Scale:         pt.Scale,
			Nullable:      nullable == "YES",
			PrimaryKey:    key == "PRI",
			Unique:        key == "UNI",
			AutoIncrement: strings.Contains(strings.ToLower(extra), "auto_increment"),
			Comment:       comment,
		}
		if defaultValue.Valid {
			raw := defaultValue.String
			isFunc := strings.Contains(raw, "(") || strings.EqualFold(raw, "CURRENT_TIMESTAMP")
			if !isFunc && col.Type.Family() == schema.FamilyString {
				raw = "'" + strings.ReplaceAll(raw, "'", "''") + "'"
			}
			col.Default = &schema.Default{Value: raw, IsFunction: isFunc}
		}

		columns = append(columns, col)
	}

	return columns, rows.Err()
}

// attachIndexes records secondary indexes on the table; the PRIMARY index
// and single-column unique indexes are already expressed as column flags.
func (m *MySQL) attachIndexes(table *schema.Table) error {
	query := `
		SELECT
			INDEX_NAME,
			COLUMN_NAME,
			NON_UNIQUE,
			INDEX_TYPE
		FROM information_schema.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`
	rows, err := m.db.Query(query, m.config.Database, table.Name)
	if err != nil {
		return fmt.Errorf("failed to get indexes: %w", err)
	}
	defer rows.Close()

	var order []string
	indexMap := make(map[string]*schema.Index)

	for rows.Next() {
		var indexName, columnName, indexType string
		var nonUnique int

		if err := rows.Scan(&indexName, &columnName, &nonUnique, &indexType); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		if indexName == "PRIMARY" {
			continue
		}

		if idx, exists := indexMap[indexName]; exists {
			idx.Columns = append(idx.Columns, columnName)
		} else {
			order = append(order, indexName)
			indexMap[indexName] = &schema.Index{
				Name:    indexName,
				Columns: []string{columnName},
				Unique:  nonUnique == 0,
				Method:  schema.ParseIndexMethod(indexType),
			}
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, name := range order {
		idx := indexMap[name]
		if idx.Unique && len(idx.Columns) == 1 {
			if col := table.Column(idx.Columns[0]); col != nil && col.Unique {
				continue
			}
		}
		table.Indexes = append(table.Indexes, *idx)
	}

	return nil
}

func (m *MySQL) attachForeignKeys(table *schema.Table) error {
	query := `
		SELECT
			kcu.COLUMN_NAME,
			kcu.REFERENCED_TABLE_NAME,
			kcu.REFERENCED_COLUMN_NAME,
			rc.DELETE_RULE,
			rc.UPDATE_RULE
		FROM information_schema.KEY_COLUMN_USAGE kcu
		JOIN information_schema.REFERENTIAL_CONSTRAINTS rc
			ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
			AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ?
			AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
	`
	rows, err := m.db.Query(query, m.config.Database, table.Name)
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

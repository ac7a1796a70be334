// Package database introspects live MySQL and PostgreSQL databases and
// shapes their catalog metadata into canonical schema values. The compiler
// itself never touches a connection; its job begins once this package has
// produced a Schema.
package database

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/koba/schemaforge/internal/schema"
)

// Config holds database connection configuration.
type Config struct {
	Type     string `yaml:"type"` // "mysql" or "postgres"
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Database string `yaml:"database"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// Database is a live connection that can enumerate and introspect tables.
type Database interface {
	Connect() error
	Close() error
	ListTables() ([]string, error)
	IntrospectTable(name string) (*schema.Table, error)
}

// New creates a connector for the configured engine.
func New(config Config) (Database, error) {
	switch config.Type {
	case "mysql", "MySQL":
		return NewMySQL(config), nil
	case "postgres", "Postgres", "PostgreSQL":
		return NewPostgres(config), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// Introspect connects, reads every table, and assembles a canonical schema
// named after the database.
func Introspect(config Config) (*schema.Schema, error) {
	db, err := New(config)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	names, err := db.ListTables()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	s := &schema.Schema{Name: config.Database}
	for _, name := range names {
		table, err := db.IntrospectTable(name)
		if err != nil {
			return nil, fmt.Errorf("failed to introspect table %s: %w", name, err)
		}
		s.Tables = append(s.Tables, *table)
	}
	return s, nil
}

// LoadConfigFromEnv loads database configuration from environment variables.
func LoadConfigFromEnv() (Config, error) {
	dbType := os.Getenv("DB_TYPE")
	if dbType == "" {
		return Config{}, fmt.Errorf("DB_TYPE environment variable is required")
	}

	database := os.Getenv("DB_NAME")
	if database == "" {
		return Config{}, fmt.Errorf("DB_NAME environment variable is required")
	}

	config := Config{
		Type:     dbType,
		Host:     os.Getenv("DB_HOST"),
		Port:     os.Getenv("DB_PORT"),
		Database: database,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
	}
	config.applyDefaults()
	return config, nil
}

// LoadConfigFile reads a YAML config file. Environment variables win over
// file values for credentials.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var wrapper struct {
		Database Config `yaml:"database"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	config := wrapper.Database
	if v := os.Getenv("DB_USER"); v != "" {
		config.User = v
	}
	if v := os.Getenv("DB_PASSWORD"); v != "" {
		config.Password = v
	}
	config.applyDefaults()
	return config, nil
}

func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == "" {
		switch c.Type {
		case "mysql", "MySQL":
			c.Port = "3306"
		case "postgres", "Postgres", "PostgreSQL":
			c.Port = "5432"
		}
	}
}

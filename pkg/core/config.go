package core

// DatasourceConfig holds the connection settings of one named datasource.
type DatasourceConfig struct {
	Type string `koanf:"type"` // sqlite, duckdb, postgres

	// File-based databases (SQLite, DuckDB)
	Database string `koanf:"database"` // file path, ":memory:" or database name

	// Network databases
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Schema   string `koanf:"schema"`

	// Additional driver-specific options
	Options map[string]string `koanf:"options"`

	// Params holds adapter-specific configuration (e.g., DuckDB settings)
	Params map[string]any `koanf:"params"`
}

// AdapterConfig converts the datasource settings into adapter connection settings.
func (d DatasourceConfig) AdapterConfig() AdapterConfig {
	return AdapterConfig{
		Type:     d.Type,
		Path:     d.Database,
		Database: d.Database,
		Host:     d.Host,
		Port:     d.Port,
		Username: d.User,
		Password: d.Password,
		Schema:   d.Schema,
		Options:  d.Options,
		Params:   d.Params,
	}
}

// PersistenceUnitConfig declares a persistence unit.
type PersistenceUnitConfig struct {
	Name         string         `koanf:"name"`
	Datasource   string         `koanf:"datasource"`
	Discover     bool           `koanf:"discover"`
	Entities     []EntityConfig `koanf:"entities"`
	NamedQueries []NamedQuery   `koanf:"named_queries"`
}

// EntityConfig maps an entity name onto a table.
type EntityConfig struct {
	Name      string `koanf:"name"`
	Table     string `koanf:"table"`
	ClassName string `koanf:"class_name"`
}

// Package config loads the queryconsole configuration.
//
// Values are layered: built-in defaults, then queryconsole.yaml, then
// QUERYCONSOLE_ environment variables, then command-line flags that were
// explicitly set.
package config

import (
	"sort"

	"github.com/leapstack-labs/queryconsole/internal/devservice"
	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// Default configuration values.
const (
	DefaultStateFile = ".queryconsole/state.db"
	DefaultPort      = 8765
	DefaultPageSize  = core.DefaultPageSize
	EnvPrefix        = "QUERYCONSOLE_"
)

// ConfigFileNames are looked up, in order, when no --config is given.
var ConfigFileNames = []string{"queryconsole.yaml", "queryconsole.yml"}

// Config holds all CLI configuration options.
type Config struct {
	DevMode          bool                             `koanf:"dev_mode"`
	StatePath        string                           `koanf:"state_path"`
	Verbose          bool                             `koanf:"verbose"`
	Console          ConsoleConfig                    `koanf:"console"`
	UI               UIConfig                         `koanf:"ui"`
	Datasources      map[string]core.DatasourceConfig `koanf:"datasources"`
	PersistenceUnits []core.PersistenceUnitConfig     `koanf:"persistence_units"`

	// ProjectRoot anchors relative paths: the config file's directory, or
	// the working directory when there is none.
	ProjectRoot string `koanf:"-"`
	// ConfigFile is the file that was loaded, if any.
	ConfigFile  string `koanf:"-"`
}

// ConsoleConfig holds the query console settings.
type ConsoleConfig struct {
	PageSize      int    `koanf:"page_size"`
	AllowQueries  bool   `koanf:"allow_queries"`
	AllowedDBHost string `koanf:"allowed_db_host"`
}

// UIConfig holds configuration for the UI server.
type UIConfig struct {
	Port     int  `koanf:"port"`
	AutoOpen bool `koanf:"auto_open"`
	Watch    bool `koanf:"watch"`

	// SessionSecret signs the browser session cookie. Empty generates a
	// random secret per process.
	SessionSecret string `koanf:"session_secret"`
}

// defaults is the lowest configuration layer.
func defaults() map[string]any {
	return map[string]any{
		"dev_mode":                true,
		"state_path":              DefaultStateFile,
		"verbose":                 false,
		"console.page_size":       DefaultPageSize,
		"console.allow_queries":   false,
		"console.allowed_db_host": "",
		"ui.port":                 DefaultPort,
		"ui.auto_open":            true,
		"ui.watch":                true,
		"ui.session_secret":       "",
	}
}

// Units returns the configured persistence units. Without any, every
// datasource becomes a unit of the same name whose entities are discovered.
func (c *Config) Units() []core.PersistenceUnitConfig {
	if len(c.PersistenceUnits) > 0 {
		return c.PersistenceUnits
	}
	names := make([]string, 0, len(c.Datasources))
	for name := range c.Datasources {
		names = append(names, name)
	}
	sort.Strings(names)

	units := make([]core.PersistenceUnitConfig, 0, len(names))
	for _, name := range names {
		units = append(units, core.PersistenceUnitConfig{Name: name, Datasource: name, Discover: true})
	}
	return units
}

// Catalog returns the catalog declaration for the dev service.
func (c *Config) Catalog() devservice.CatalogConfig {
	return devservice.CatalogConfig{
		Datasources:      c.Datasources,
		PersistenceUnits: c.Units(),
	}
}

// Service returns the dev service settings. Store, metrics and logger are
// wired by the caller.
func (c *Config) Service() devservice.Config {
	return devservice.Config{
		DevMode:      c.DevMode,
		AllowQueries: c.Console.AllowQueries,
		AllowedHost:  c.Console.AllowedDBHost,
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/queryconsole/pkg/adapter"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const shopConfig = `dev_mode: true
console:
  page_size: 15
  allowed_db_host: db.internal
datasources:
  shop:
    type: sqlite
    database: data/shop.db
  warehouse:
    type: postgres
    host: ${QC_TEST_PG_HOST}
    database: warehouse
    user: reader
    password: ${QC_TEST_PG_PASSWORD}
persistence_units:
  - name: default
    datasource: shop
    entities:
      - name: Order
        table: orders
        class_name: com.shop.Order
    named_queries:
      - name: Order.big
        query: from Order o where o.total > 100
  - name: reporting
    datasource: warehouse
    discover: true
`

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "queryconsole.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("QC_TEST_USER", "alice")
	t.Setenv("QC_TEST_HOST", "db.example.com")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "no variables", input: "plain", want: "plain"},
		{name: "single variable", input: "${QC_TEST_USER}", want: "alice"},
		{name: "embedded", input: "user=${QC_TEST_USER}@${QC_TEST_HOST}", want: "user=alice@db.example.com"},
		{name: "unset variable", input: "${QC_TEST_UNSET_VARIABLE}", want: ""},
		{name: "dollar without braces", input: "$QC_TEST_USER", want: "$QC_TEST_USER"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnvVars(tt.input))
		})
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"QUERYCONSOLE_DEV_MODE", "dev_mode"},
		{"QUERYCONSOLE_STATE_PATH", "state_path"},
		{"QUERYCONSOLE_CONSOLE__PAGE_SIZE", "console.page_size"},
		{"QUERYCONSOLE_UI__SESSION_SECRET", "ui.session_secret"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, envKey(tt.in))
		})
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.True(t, cfg.DevMode)
	assert.Equal(t, DefaultPageSize, cfg.Console.PageSize)
	assert.False(t, cfg.Console.AllowQueries)
	assert.Equal(t, DefaultPort, cfg.UI.Port)
	assert.True(t, cfg.UI.AutoOpen)
	assert.True(t, cfg.UI.Watch)
	assert.Empty(t, cfg.ConfigFile)
	assert.Empty(t, cfg.Units())

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, DefaultStateFile), cfg.StatePath)
}

func TestLoadConfig_File(t *testing.T) {
	t.Setenv("QC_TEST_PG_HOST", "db.internal")
	t.Setenv("QC_TEST_PG_PASSWORD", "s3cret")

	dir := t.TempDir()
	path := writeConfig(t, dir, shopConfig)

	cfg, err := LoadConfig(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigFile)
	assert.Equal(t, dir, cfg.ProjectRoot)
	assert.Equal(t, 15, cfg.Console.PageSize)
	assert.Equal(t, "db.internal", cfg.Console.AllowedDBHost)

	shop := cfg.Datasources["shop"]
	assert.Equal(t, filepath.Join(dir, "data", "shop.db"), shop.Database, "file databases resolve against the config directory")

	warehouse := cfg.Datasources["warehouse"]
	assert.Equal(t, "db.internal", warehouse.Host)
	assert.Equal(t, "s3cret", warehouse.Password)
	assert.Equal(t, "warehouse", warehouse.Database, "network database names are not paths")

	require.Len(t, cfg.PersistenceUnits, 2)
	def := cfg.PersistenceUnits[0]
	assert.Equal(t, "default", def.Name)
	assert.Equal(t, []core.EntityConfig{{Name: "Order", Table: "orders", ClassName: "com.shop.Order"}}, def.Entities)
	assert.Equal(t, []core.NamedQuery{{Name: "Order.big", Query: "from Order o where o.total > 100"}}, def.NamedQueries)
	assert.True(t, cfg.PersistenceUnits[1].Discover)

	svc := cfg.Service()
	assert.True(t, svc.DevMode)
	assert.Equal(t, "db.internal", svc.AllowedHost)
}

func TestLoadConfig_SearchesUpward(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "console:\n  page_size: 7\n")
	nested := filepath.Join(dir, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0750))
	t.Chdir(nested)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	resolved, err := filepath.EvalSymlinks(path)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.ConfigFile)
	require.NoError(t, err)
	assert.Equal(t, resolved, got)
	assert.Equal(t, 7, cfg.Console.PageSize)
}

func TestLoadConfig_Precedence(t *testing.T) {
	newFlags := func() *pflag.FlagSet {
		flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
		flags.Int("page-size", 0, "")
		flags.Int("port", 0, "")
		flags.Bool("no-browser", false, "")
		flags.String("format", "table", "")
		return flags
	}

	tests := []struct {
		name      string
		env       map[string]string
		setFlags  map[string]string
		wantPage  int
		wantPort  int
		wantOpen  bool
		wantAllow bool
	}{
		{
			name:     "file only",
			wantPage: 15,
			wantPort: 9000,
			wantOpen: true,
		},
		{
			name:      "env overrides file",
			env:       map[string]string{"QUERYCONSOLE_CONSOLE__PAGE_SIZE": "20", "QUERYCONSOLE_CONSOLE__ALLOW_QUERIES": "true"},
			wantPage:  20,
			wantPort:  9000,
			wantOpen:  true,
			wantAllow: true,
		},
		{
			name:     "flag overrides env",
			env:      map[string]string{"QUERYCONSOLE_CONSOLE__PAGE_SIZE": "20"},
			setFlags: map[string]string{"page-size": "30", "port": "9100"},
			wantPage: 30,
			wantPort: 9100,
			wantOpen: true,
		},
		{
			name:     "no-browser turns auto open off",
			setFlags: map[string]string{"no-browser": "true"},
			wantPage: 15,
			wantPort: 9000,
			wantOpen: false,
		},
		{
			name:     "command options are not configuration",
			setFlags: map[string]string{"format": "json"},
			wantPage: 15,
			wantPort: 9000,
			wantOpen: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeConfig(t, t.TempDir(), "console:\n  page_size: 15\nui:\n  port: 9000\n")

			flags := newFlags()
			for name, v := range tt.setFlags {
				require.NoError(t, flags.Set(name, v))
			}

			cfg, err := LoadConfig(path, flags)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPage, cfg.Console.PageSize)
			assert.Equal(t, tt.wantPort, cfg.UI.Port)
			assert.Equal(t, tt.wantOpen, cfg.UI.AutoOpen)
			assert.Equal(t, tt.wantAllow, cfg.Console.AllowQueries)
		})
	}
}

func TestLoadConfig_StateFlagIsRelativeToWorkingDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "state_path: from_file.db\n")
	work := t.TempDir()
	t.Chdir(work)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("state", "", "")
	require.NoError(t, flags.Set("state", "mine.db"))

	cfg, err := LoadConfig(path, flags)
	require.NoError(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "mine.db"), cfg.StatePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `datasources:
  shop:
    type: mysql
persistence_units:
  - name: default
    datasource: missing
`)

	_, err := LoadConfig(path, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), `unknown adapter type "mysql"`)
	assert.Contains(t, err.Error(), `unknown datasource "missing"`)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error reading config file")
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Console: ConsoleConfig{PageSize: 12},
			UI:      UIConfig{Port: 8765},
			Datasources: map[string]core.DatasourceConfig{
				"shop": {Type: "sqlite", Database: ":memory:"},
			},
			PersistenceUnits: []core.PersistenceUnitConfig{
				{Name: "default", Datasource: "shop", Entities: []core.EntityConfig{{Name: "Order", Table: "orders"}}},
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr []string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "page size",
			mutate:  func(c *Config) { c.Console.PageSize = 0 },
			wantErr: []string{"console.page_size must be at least 1"},
		},
		{
			name:    "port",
			mutate:  func(c *Config) { c.UI.Port = 70000 },
			wantErr: []string{"ui.port"},
		},
		{
			name:    "missing type",
			mutate:  func(c *Config) { c.Datasources["shop"] = core.DatasourceConfig{} },
			wantErr: []string{"datasources.shop: type is required"},
		},
		{
			name:    "postgres without host",
			mutate:  func(c *Config) { c.Datasources["pg"] = core.DatasourceConfig{Type: "postgres"} },
			wantErr: []string{"host is required for postgres"},
		},
		{
			name: "duplicate unit",
			mutate: func(c *Config) {
				c.PersistenceUnits = append(c.PersistenceUnits, c.PersistenceUnits[0])
			},
			wantErr: []string{`duplicate name "default"`},
		},
		{
			name:    "unit without entities",
			mutate:  func(c *Config) { c.PersistenceUnits[0].Entities = nil },
			wantErr: []string{"declares no entities and discover is off"},
		},
		{
			name: "entity problems",
			mutate: func(c *Config) {
				c.PersistenceUnits[0].Entities = append(c.PersistenceUnits[0].Entities,
					core.EntityConfig{Name: "Order", Table: "orders2"},
					core.EntityConfig{Name: "Customer"},
				)
			},
			wantErr: []string{`duplicate entity "Order"`, "entities[2] needs name and table"},
		},
		{
			name: "named query without text",
			mutate: func(c *Config) {
				c.PersistenceUnits[0].NamedQueries = []core.NamedQuery{{Name: "all"}}
			},
			wantErr: []string{"named_queries[0] needs name and query"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			err := c.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestConfig_Validate_UnknownAdapterIsTyped(t *testing.T) {
	c := &Config{
		Console:     ConsoleConfig{PageSize: 12},
		Datasources: map[string]core.DatasourceConfig{"x": {Type: "oracle"}},
	}
	err := c.Validate()

	var unknown *adapter.UnknownAdapterError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "oracle", unknown.Type)
	assert.Contains(t, unknown.Available, "sqlite")
}

func TestConfig_Units(t *testing.T) {
	c := &Config{Datasources: map[string]core.DatasourceConfig{
		"b": {Type: "sqlite"},
		"a": {Type: "duckdb"},
	}}

	assert.Equal(t, []core.PersistenceUnitConfig{
		{Name: "a", Datasource: "a", Discover: true},
		{Name: "b", Datasource: "b", Discover: true},
	}, c.Units())

	c.PersistenceUnits = []core.PersistenceUnitConfig{{Name: "only", Datasource: "a"}}
	catalog := c.Catalog()
	assert.Equal(t, c.PersistenceUnits, catalog.PersistenceUnits)
	assert.Equal(t, c.Datasources, catalog.Datasources)
}

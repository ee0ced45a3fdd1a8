package devservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/leapstack-labs/queryconsole/pkg/adapter"
	"github.com/leapstack-labs/queryconsole/pkg/core"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	// Datasource adapters register themselves on import.
	_ "github.com/leapstack-labs/queryconsole/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/queryconsole/pkg/adapters/postgres"
	_ "github.com/leapstack-labs/queryconsole/pkg/adapters/sqlite"
)

// CatalogConfig declares the datasources and the persistence units bound to them.
type CatalogConfig struct {
	Datasources      map[string]core.DatasourceConfig
	PersistenceUnits []core.PersistenceUnitConfig
}

// Catalog is an immutable snapshot of the persistence units and their
// open datasource connections.
type Catalog struct {
	info  *core.DevInfo
	units map[string]*unitBinding
	conns map[string]core.Adapter

	// inflight counts executions still using the connections.
	inflight sync.WaitGroup
}

type unitBinding struct {
	datasource string
	adapter    core.Adapter
	location   core.Location
	connErr    error
	tables     map[string]string
}

// embeddedTypes are datasource types that never leave this machine.
var embeddedTypes = map[string]bool{"sqlite": true, "duckdb": true}

// BuildCatalog connects every referenced datasource and assembles the
// persistence units. A datasource that cannot be reached does not fail the
// build: its units are still listed and report the connection error on use.
func BuildCatalog(ctx context.Context, cfg CatalogConfig, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Catalog{
		info:  &core.DevInfo{PersistenceUnits: []core.PersistenceUnit{}},
		units: make(map[string]*unitBinding),
		conns: make(map[string]core.Adapter),
	}
	connErrs := make(map[string]error)

	for _, pu := range cfg.PersistenceUnits {
		if pu.Name == "" {
			_ = c.Close()
			return nil, fmt.Errorf("persistence unit without a name")
		}
		if _, dup := c.units[pu.Name]; dup {
			_ = c.Close()
			return nil, fmt.Errorf("duplicate persistence unit: %s", pu.Name)
		}
		dsCfg, ok := cfg.Datasources[pu.Datasource]
		if !ok {
			_ = c.Close()
			return nil, fmt.Errorf("persistence unit %s: unknown datasource %q", pu.Name, pu.Datasource)
		}

		if _, seen := c.conns[pu.Datasource]; !seen && connErrs[pu.Datasource] == nil {
			adp, err := connect(ctx, dsCfg, logger)
			if err != nil {
				logger.Warn("datasource unavailable",
					slog.String("datasource", pu.Datasource),
					slog.String("error", err.Error()))
				connErrs[pu.Datasource] = err
			} else {
				c.conns[pu.Datasource] = adp
			}
		}

		binding := &unitBinding{
			datasource: pu.Datasource,
			adapter:    c.conns[pu.Datasource],
			connErr:    connErrs[pu.Datasource],
			tables:     make(map[string]string),
		}
		if binding.adapter != nil {
			binding.location = binding.adapter.Location()
		} else {
			binding.location = configLocation(dsCfg)
		}

		unit, err := buildUnit(ctx, pu, binding, logger)
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		c.units[pu.Name] = binding
		c.info.PersistenceUnits = append(c.info.PersistenceUnits, *unit)
	}

	logger.Debug("catalog built",
		slog.Int("persistence_units", c.info.NumberOfPersistenceUnits()),
		slog.Int("entities", c.info.NumberOfEntities()))
	return c, nil
}

func connect(ctx context.Context, cfg core.DatasourceConfig, logger *slog.Logger) (core.Adapter, error) {
	adp, err := adapter.NewAdapter(cfg.AdapterConfig(), logger)
	if err != nil {
		return nil, err
	}
	if err := adp.Connect(ctx, cfg.AdapterConfig()); err != nil {
		_ = adp.Close()
		return nil, err
	}
	return adp, nil
}

func configLocation(cfg core.DatasourceConfig) core.Location {
	if embeddedTypes[cfg.Type] {
		return core.Location{Embedded: true}
	}
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}
	return core.Location{Host: host}
}

func buildUnit(ctx context.Context, cfg core.PersistenceUnitConfig, b *unitBinding, logger *slog.Logger) (*core.PersistenceUnit, error) {
	unit := &core.PersistenceUnit{
		Name:            cfg.Name,
		Datasource:      cfg.Datasource,
		ManagedEntities: []core.ManagedEntity{},
		NamedQueries:    []core.NamedQuery{},
	}

	add := func(e core.ManagedEntity) {
		unit.ManagedEntities = append(unit.ManagedEntities, e)
		b.tables[e.Name] = e.TableName
		if e.ClassName != "" {
			b.tables[e.ClassName] = e.TableName
		}
	}

	declared := make(map[string]bool)
	for _, ec := range cfg.Entities {
		if ec.Name == "" {
			return nil, fmt.Errorf("persistence unit %s: entity without a name", cfg.Name)
		}
		if _, dup := b.tables[ec.Name]; dup {
			return nil, fmt.Errorf("persistence unit %s: duplicate entity %s", cfg.Name, ec.Name)
		}
		table := ec.Table
		if table == "" {
			table = ec.Name
		}
		className := ec.ClassName
		if className == "" {
			className = ec.Name
		}
		add(core.ManagedEntity{Name: ec.Name, ClassName: className, TableName: table})
		declared[strings.ToLower(table)] = true
	}

	if cfg.Discover && b.adapter != nil {
		tables, err := b.adapter.ListTables(ctx)
		if err != nil {
			logger.Warn("table discovery failed",
				slog.String("persistence_unit", cfg.Name),
				slog.String("error", err.Error()))
		}
		for _, table := range tables {
			if declared[strings.ToLower(table)] {
				continue
			}
			name := EntityName(table)
			if _, dup := b.tables[name]; dup {
				continue
			}
			add(core.ManagedEntity{Name: name, ClassName: name, TableName: table})
		}
	}

	sort.SliceStable(unit.ManagedEntities, func(i, j int) bool {
		return unit.ManagedEntities[i].Name < unit.ManagedEntities[j].Name
	})

	unit.NamedQueries = append(unit.NamedQueries, cfg.NamedQueries...)
	return unit, nil
}

var titleCaser = cases.Title(language.Und)

// EntityName derives an entity name from a table name: order_items -> OrderItems.
func EntityName(table string) string {
	parts := strings.FieldsFunc(table, func(r rune) bool {
		return r == '_' || r == '-' || r == ' ' || r == '.'
	})
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(titleCaser.String(p))
	}
	return b.String()
}

// Info returns the persistence unit descriptions.
func (c *Catalog) Info() *core.DevInfo {
	if c == nil {
		return &core.DevInfo{PersistenceUnits: []core.PersistenceUnit{}}
	}
	return c.info
}

func (c *Catalog) unit(name string) (*unitBinding, bool) {
	if c == nil {
		return nil, false
	}
	b, ok := c.units[name]
	return b, ok
}

// Close closes every datasource connection.
func (c *Catalog) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	for name, adp := range c.conns {
		if err := adp.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close datasource %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

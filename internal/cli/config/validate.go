package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/queryconsole/pkg/adapter"
)

// Validate checks the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Console.PageSize < 1 {
		errs = append(errs, fmt.Errorf("console.page_size must be at least 1, got %d", c.Console.PageSize))
	}
	if c.UI.Port < 0 || c.UI.Port > 65535 {
		errs = append(errs, fmt.Errorf("ui.port must be between 0 and 65535, got %d", c.UI.Port))
	}

	for name, ds := range c.Datasources {
		switch {
		case ds.Type == "":
			errs = append(errs, fmt.Errorf("datasources.%s: type is required", name))
		case !adapter.IsRegistered(ds.Type):
			errs = append(errs, fmt.Errorf("datasources.%s: %w", name, &adapter.UnknownAdapterError{
				Type:      ds.Type,
				Available: adapter.ListAdapters(),
			}))
		}
		if ds.Type == "postgres" && ds.Host == "" {
			errs = append(errs, fmt.Errorf("datasources.%s: host is required for postgres", name))
		}
	}

	seen := make(map[string]bool)
	for i, pu := range c.PersistenceUnits {
		if pu.Name == "" {
			errs = append(errs, fmt.Errorf("persistence_units[%d]: name is required", i))
			continue
		}
		if seen[pu.Name] {
			errs = append(errs, fmt.Errorf("persistence_units[%d]: duplicate name %q", i, pu.Name))
		}
		seen[pu.Name] = true

		if _, ok := c.Datasources[pu.Datasource]; !ok {
			errs = append(errs, fmt.Errorf("persistence unit %q: unknown datasource %q", pu.Name, pu.Datasource))
		}
		if !pu.Discover && len(pu.Entities) == 0 {
			errs = append(errs, fmt.Errorf("persistence unit %q: declares no entities and discover is off", pu.Name))
		}

		entities := make(map[string]bool)
		for j, e := range pu.Entities {
			if e.Name == "" || e.Table == "" {
				errs = append(errs, fmt.Errorf("persistence unit %q: entities[%d] needs name and table", pu.Name, j))
				continue
			}
			if entities[e.Name] {
				errs = append(errs, fmt.Errorf("persistence unit %q: duplicate entity %q", pu.Name, e.Name))
			}
			entities[e.Name] = true
		}

		for j, q := range pu.NamedQueries {
			if q.Name == "" || q.Query == "" {
				errs = append(errs, fmt.Errorf("persistence unit %q: named_queries[%d] needs name and query", pu.Name, j))
			}
		}
	}

	return errors.Join(errs...)
}

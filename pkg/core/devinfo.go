package core

// DevInfo is the catalog returned by getInfo.
type DevInfo struct {
	PersistenceUnits []PersistenceUnit `json:"persistenceUnits"`
}

// PersistenceUnit is a named grouping of managed entities bound to one datasource.
type PersistenceUnit struct {
	Name            string          `json:"name"`
	Datasource      string          `json:"datasource,omitempty"`
	ManagedEntities []ManagedEntity `json:"managedEntities"`
	NamedQueries    []NamedQuery    `json:"namedQueries,omitempty"`
}

// ManagedEntity is a type known to the persistence layer.
type ManagedEntity struct {
	Name      string `json:"name"`
	ClassName string `json:"className,omitempty"`
	TableName string `json:"tableName,omitempty"`
}

// NamedQuery is a query registered under a name on a persistence unit.
type NamedQuery struct {
	Name  string `json:"name" koanf:"name"`
	Query string `json:"query" koanf:"query"`
}

// Unit returns the persistence unit with the given name.
func (d *DevInfo) Unit(name string) (*PersistenceUnit, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.PersistenceUnits {
		if d.PersistenceUnits[i].Name == name {
			return &d.PersistenceUnits[i], true
		}
	}
	return nil, false
}

// NumberOfPersistenceUnits counts the persistence units.
func (d *DevInfo) NumberOfPersistenceUnits() int {
	if d == nil {
		return 0
	}
	return len(d.PersistenceUnits)
}

// NumberOfEntities counts managed entities across all units.
func (d *DevInfo) NumberOfEntities() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, pu := range d.PersistenceUnits {
		n += len(pu.ManagedEntities)
	}
	return n
}

// NumberOfNamedQueries counts named queries across all units.
func (d *DevInfo) NumberOfNamedQueries() int {
	if d == nil {
		return 0
	}
	n := 0
	for _, pu := range d.PersistenceUnits {
		n += len(pu.NamedQueries)
	}
	return n
}

// Entity returns the managed entity with the given name.
func (pu *PersistenceUnit) Entity(name string) (*ManagedEntity, bool) {
	for i := range pu.ManagedEntities {
		if pu.ManagedEntities[i].Name == name {
			return &pu.ManagedEntities[i], true
		}
	}
	return nil, false
}

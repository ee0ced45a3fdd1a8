package console

import "github.com/leapstack-labs/queryconsole/pkg/core"

// UnitOption is one entry of the persistence unit selector.
type UnitOption struct {
	Name     string
	Selected bool
}

// EntityOption is one entry of the entity list.
type EntityOption struct {
	Index     int
	Name      string
	ClassName string
	TableName string
	Selected  bool
}

// Snapshot is the view of the panel at one instant. It is recomputed from
// state on every change and never shared with the panel.
type Snapshot struct {
	Loaded       bool
	CatalogError string

	Units    []UnitOption
	Unit     string
	Entities []EntityOption
	Entity   int

	NamedQueries []core.NamedQuery

	AllowQueries bool
	Query        string

	Page      int
	PageSize  int
	PageCount int
	Total     int64
	HasResult bool
	ShowPrev  bool
	ShowNext  bool

	Cols []string
	Rows [][]string

	Busy    bool
	Notices []Notice
}

// Snapshot renders the current state.
func (p *Panel) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Snapshot{
		Loaded:       p.loaded,
		CatalogError: p.catalogErr,
		Unit:         p.unit,
		Entity:       p.entity,
		AllowQueries: p.session.AllowQueries(),
		Query:        p.query,
		Page:         p.page,
		PageSize:     p.pageSize,
		PageCount:    1,
		Busy:         p.busy,
		Notices:      append([]Notice(nil), p.notices...),
	}

	for _, pu := range p.catalog.PersistenceUnits {
		s.Units = append(s.Units, UnitOption{Name: pu.Name, Selected: pu.Name == p.unit})
	}
	if pu, ok := p.catalog.Unit(p.unit); ok {
		for i, e := range pu.ManagedEntities {
			s.Entities = append(s.Entities, EntityOption{
				Index:     i,
				Name:      e.Name,
				ClassName: e.ClassName,
				TableName: e.TableName,
				Selected:  i == p.entity,
			})
		}
		s.NamedQueries = append(s.NamedQueries, pu.NamedQueries...)
	}

	if p.result != nil {
		s.HasResult = true
		s.Total = p.result.TotalNumberOfElements
		s.PageCount = p.result.PageCount(p.pageSize)
		s.Cols = append([]string(nil), p.result.Cols...)
		s.Rows = make([][]string, 0, len(p.result.Data))
		for _, rec := range p.result.Data {
			row := make([]string, len(s.Cols))
			for i, col := range s.Cols {
				row[i] = FormatCell(rec[col])
			}
			s.Rows = append(s.Rows, row)
		}
	}

	s.ShowPrev = s.Page > 1
	s.ShowNext = s.HasResult && s.Page != s.PageCount
	return s
}

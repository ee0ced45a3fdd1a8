package hql

import "fmt"

// CountSQL wraps the statement so it returns the total number of rows.
func (s *Statement) CountSQL() string {
	return "SELECT COUNT(*) FROM (" + s.SQL + ") AS qc_count"
}

// PageSQL restricts the statement to one page. Page numbers start at 1.
func (s *Statement) PageSQL(pageNumber, pageSize int) string {
	if pageNumber < 1 {
		pageNumber = 1
	}
	offset := (pageNumber - 1) * pageSize
	return fmt.Sprintf("%s LIMIT %d OFFSET %d", s.SQL, pageSize, offset)
}

package core

import (
	"bytes"
	"encoding/json"
	"sort"
)

// DefaultPageSize is the number of records the console requests per page.
const DefaultPageSize = 12

// QueryRequest is the parameter object of executeQuery.
type QueryRequest struct {
	PersistenceUnit string `json:"persistenceUnit"`
	Query           string `json:"query"`
	PageNumber      int    `json:"pageNumber"`
	PageSize        int    `json:"pageSize"`
}

// Record is one result row keyed by column name.
type Record map[string]any

// DataSet is one page of a query result, or an error.
// Cols is the authoritative column order; renderers never inspect records for it.
type DataSet struct {
	Data                  []Record
	TotalNumberOfElements int64
	Cols                  []string
	Error                 string
}

// ErrorDataSet returns a data set carrying only an error message.
func ErrorDataSet(msg string) *DataSet {
	return &DataSet{TotalNumberOfElements: -1, Error: msg}
}

// Failed reports whether the data set carries an error.
func (d *DataSet) Failed() bool {
	return d != nil && d.Error != ""
}

// PageCount returns the number of pages for the data set at the given page size.
func (d *DataSet) PageCount(pageSize int) int {
	if d == nil {
		return 1
	}
	return PageCount(d.TotalNumberOfElements, pageSize)
}

// PageCount returns ceil(total/pageSize), never less than 1.
func PageCount(total int64, pageSize int) int {
	if pageSize <= 0 || total <= int64(pageSize) {
		return 1
	}
	size := int64(pageSize)
	return int((total + size - 1) / size)
}

type dataSetWire struct {
	Data                  []Record `json:"data,omitempty"`
	TotalNumberOfElements int64    `json:"totalNumberOfElements"`
	Cols                  []string `json:"cols,omitempty"`
	Error                 string   `json:"error,omitempty"`
}

// MarshalJSON emits either {data, totalNumberOfElements, cols} or {totalNumberOfElements, error}.
func (d DataSet) MarshalJSON() ([]byte, error) {
	if d.Error != "" {
		return json.Marshal(dataSetWire{TotalNumberOfElements: d.TotalNumberOfElements, Error: d.Error})
	}
	data := d.Data
	if data == nil {
		data = []Record{}
	}
	cols := d.Cols
	if cols == nil {
		cols = []string{}
	}
	return json.Marshal(struct {
		Data                  []Record `json:"data"`
		TotalNumberOfElements int64    `json:"totalNumberOfElements"`
		Cols                  []string `json:"cols"`
	}{data, d.TotalNumberOfElements, cols})
}

// UnmarshalJSON decodes a data set. Responses from backends that omit cols
// get a column list resolved here, once, from the first record. Numbers
// decode as json.Number so integers beyond 2^53 keep every digit.
func (d *DataSet) UnmarshalJSON(b []byte) error {
	var w dataSetWire
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return err
	}
	d.Data = w.Data
	d.TotalNumberOfElements = w.TotalNumberOfElements
	d.Cols = w.Cols
	d.Error = w.Error
	if len(d.Cols) == 0 && len(d.Data) > 0 {
		d.Cols = make([]string, 0, len(d.Data[0]))
		for k := range d.Data[0] {
			d.Cols = append(d.Cols, k)
		}
		sort.Strings(d.Cols)
	}
	return nil
}

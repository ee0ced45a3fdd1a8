package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCount(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		pageSize int
		want     int
	}{
		{"empty", 0, 12, 1},
		{"one row", 1, 12, 1},
		{"exactly one page", 12, 12, 1},
		{"one over", 13, 12, 2},
		{"thirty rows", 30, 12, 3},
		{"exact multiple", 36, 12, 3},
		{"error total", -1, 12, 1},
		{"zero page size", 30, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PageCount(tt.total, tt.pageSize))
		})
	}
}

func TestDataSet_MarshalJSON(t *testing.T) {
	t.Run("success carries data and cols", func(t *testing.T) {
		ds := DataSet{
			Data:                  []Record{{"id": 1, "name": "a"}},
			TotalNumberOfElements: 1,
			Cols:                  []string{"id", "name"},
		}
		b, err := json.Marshal(ds)
		require.NoError(t, err)

		var m map[string]any
		require.NoError(t, json.Unmarshal(b, &m))
		assert.Contains(t, m, "data")
		assert.Contains(t, m, "cols")
		assert.NotContains(t, m, "error")
		assert.InDelta(t, 1, m["totalNumberOfElements"], 0)
	})

	t.Run("empty success still has data", func(t *testing.T) {
		b, err := json.Marshal(DataSet{})
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":[],"totalNumberOfElements":0,"cols":[]}`, string(b))
	})

	t.Run("error omits data", func(t *testing.T) {
		b, err := json.Marshal(ErrorDataSet("boom"))
		require.NoError(t, err)
		assert.JSONEq(t, `{"totalNumberOfElements":-1,"error":"boom"}`, string(b))
	})
}

func TestDataSet_UnmarshalJSON_ResolvesMissingCols(t *testing.T) {
	var ds DataSet
	err := json.Unmarshal([]byte(`{"data":[{"name":"x","id":1}],"totalNumberOfElements":1}`), &ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "name"}, ds.Cols)
	assert.False(t, ds.Failed())
}

func TestDataSet_UnmarshalJSON_KeepsExplicitCols(t *testing.T) {
	var ds DataSet
	err := json.Unmarshal([]byte(`{"data":[{"name":"x","id":1}],"totalNumberOfElements":1,"cols":["name","id"]}`), &ds)
	require.NoError(t, err)

	assert.Equal(t, []string{"name", "id"}, ds.Cols)
}

func TestDataSet_UnmarshalJSON_KeepsLargeIntegers(t *testing.T) {
	sent := DataSet{
		Data:                  []Record{{"id": int64(9007199254740993), "ratio": 0.5}},
		TotalNumberOfElements: 1,
		Cols:                  []string{"id", "ratio"},
	}
	b, err := json.Marshal(sent)
	require.NoError(t, err)

	var got DataSet
	require.NoError(t, json.Unmarshal(b, &got))
	require.Len(t, got.Data, 1)
	assert.Equal(t, json.Number("9007199254740993"), got.Data[0]["id"])
	assert.Equal(t, json.Number("0.5"), got.Data[0]["ratio"])
	assert.Equal(t, int64(1), got.TotalNumberOfElements)
}

func TestLocation_IsLocal(t *testing.T) {
	tests := []struct {
		name    string
		loc     Location
		allowed string
		want    bool
	}{
		{"embedded", Location{Embedded: true}, "", true},
		{"localhost", Location{Host: "localhost"}, "", true},
		{"ipv4 loopback", Location{Host: "127.0.0.1"}, "", true},
		{"ipv6 loopback", Location{Host: "::1"}, "", true},
		{"remote", Location{Host: "db.prod.internal"}, "", false},
		{"allowed host", Location{Host: "DB.dev.internal"}, "db.dev.internal", true},
		{"other host with allowance", Location{Host: "db.prod.internal"}, "db.dev.internal", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.loc.IsLocal(tt.allowed))
		})
	}
}

func TestDevInfo_Counts(t *testing.T) {
	info := &DevInfo{PersistenceUnits: []PersistenceUnit{
		{Name: "default", ManagedEntities: []ManagedEntity{{Name: "User"}, {Name: "Order"}}, NamedQueries: []NamedQuery{{Name: "Order.all", Query: "from Order"}}},
		{Name: "audit", ManagedEntities: []ManagedEntity{{Name: "Event"}}},
	}}

	assert.Equal(t, len(info.PersistenceUnits), info.NumberOfPersistenceUnits())
	assert.Equal(t, 3, info.NumberOfEntities())
	assert.Equal(t, 1, info.NumberOfNamedQueries())

	pu, ok := info.Unit("default")
	require.True(t, ok)
	e, ok := pu.Entity("Order")
	require.True(t, ok)
	assert.Equal(t, "Order", e.Name)

	_, ok = info.Unit("missing")
	assert.False(t, ok)

	var nilInfo *DevInfo
	assert.Equal(t, 0, nilInfo.NumberOfEntities())
	assert.Equal(t, 0, nilInfo.NumberOfPersistenceUnits())
}

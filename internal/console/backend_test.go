package console

import (
	"context"
	"testing"

	"github.com/leapstack-labs/queryconsole/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	ds *core.DataSet
}

func (s stubService) GetInfo(context.Context) (*core.DevInfo, error) {
	return &core.DevInfo{PersistenceUnits: []core.PersistenceUnit{{Name: "default"}}}, nil
}

func (s stubService) ExecuteQuery(context.Context, core.QueryRequest) *core.DataSet {
	return s.ds
}

func (s stubService) UpdateProperty(context.Context, string, string) error {
	return nil
}

func TestLocal(t *testing.T) {
	b := Local(stubService{ds: core.ErrorDataSet("boom")})

	info, err := b.GetInfo(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, info.NumberOfPersistenceUnits())

	ds, err := b.ExecuteQuery(context.Background(), core.QueryRequest{})
	require.NoError(t, err, "query failures stay inside the data set")
	assert.True(t, ds.Failed())
	assert.Equal(t, "boom", ds.Error)

	assert.NoError(t, b.UpdateProperty(context.Background(), "a", "b"))
}

package console

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// fakeBackend serves `total` synthetic rows for any query and records calls.
type fakeBackend struct {
	mu        sync.Mutex
	info      *core.DevInfo
	infoErr   error
	total     int64
	failing   map[string]string
	updateErr error
	updates   []core.Property
	requests  []core.QueryRequest

	// gate, when set, makes ExecuteQuery wait for a release per call.
	gate    chan chan struct{}
	callErr error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		info: &core.DevInfo{PersistenceUnits: []core.PersistenceUnit{
			{
				Name: "default",
				ManagedEntities: []core.ManagedEntity{
					{Name: "Order", ClassName: "com.shop.Order", TableName: "orders"},
					{Name: "Customer", ClassName: "com.shop.Customer", TableName: "customers"},
				},
				NamedQueries: []core.NamedQuery{{Name: "Order.big", Query: "from Order o where o.total > 200"}},
			},
			{
				Name:            "inventory",
				ManagedEntities: []core.ManagedEntity{{Name: "Item"}},
			},
			{Name: "empty"},
		}},
		total:   30,
		failing: map[string]string{},
	}
}

func (f *fakeBackend) GetInfo(context.Context) (*core.DevInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info, f.infoErr
}

func (f *fakeBackend) ExecuteQuery(ctx context.Context, req core.QueryRequest) (*core.DataSet, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	gate, callErr := f.gate, f.callErr
	msg, fail := f.failing[req.Query]
	total := f.total
	f.mu.Unlock()

	if gate != nil {
		release := make(chan struct{})
		gate <- release
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if callErr != nil {
		return nil, callErr
	}
	if fail {
		return core.ErrorDataSet(msg), nil
	}

	ds := &core.DataSet{TotalNumberOfElements: total, Cols: []string{"id", "name", "active"}, Data: []core.Record{}}
	for i := int64((req.PageNumber-1)*req.PageSize) + 1; i <= total && len(ds.Data) < req.PageSize; i++ {
		ds.Data = append(ds.Data, core.Record{"id": i, "name": fmt.Sprintf("%s #%d", req.Query, i), "active": i%2 == 0})
	}
	return ds, nil
}

func (f *fakeBackend) UpdateProperty(_ context.Context, name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, core.Property{Name: name, Value: value})
	return nil
}

func (f *fakeBackend) calls() []core.QueryRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]core.QueryRequest(nil), f.requests...)
}

func (f *fakeBackend) last() core.QueryRequest {
	calls := f.calls()
	if len(calls) == 0 {
		return core.QueryRequest{}
	}
	return calls[len(calls)-1]
}

var errUnreachable = errors.New("connection refused")

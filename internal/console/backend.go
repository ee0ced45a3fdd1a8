package console

import (
	"context"

	"github.com/leapstack-labs/queryconsole/pkg/core"
)

// Backend is the remote collaborator of the panel.
type Backend interface {
	GetInfo(ctx context.Context) (*core.DevInfo, error)
	// ExecuteQuery returns an error only when the call itself failed;
	// query failures arrive as error data sets.
	ExecuteQuery(ctx context.Context, req core.QueryRequest) (*core.DataSet, error)
	UpdateProperty(ctx context.Context, name, value string) error
}

// LocalService is an in-process backend whose query calls cannot fail in transport.
type LocalService interface {
	GetInfo(ctx context.Context) (*core.DevInfo, error)
	ExecuteQuery(ctx context.Context, req core.QueryRequest) *core.DataSet
	UpdateProperty(ctx context.Context, name, value string) error
}

// Local adapts an in-process service to Backend.
func Local(svc LocalService) Backend {
	return localBackend{svc}
}

type localBackend struct {
	svc LocalService
}

func (l localBackend) GetInfo(ctx context.Context) (*core.DevInfo, error) {
	return l.svc.GetInfo(ctx)
}

func (l localBackend) ExecuteQuery(ctx context.Context, req core.QueryRequest) (*core.DataSet, error) {
	return l.svc.ExecuteQuery(ctx, req), nil
}

func (l localBackend) UpdateProperty(ctx context.Context, name, value string) error {
	return l.svc.UpdateProperty(ctx, name, value)
}

package mocks

import (
	"context"

	"github.com/dukex/flowdeck/pkg/deploy"
	"github.com/dukex/flowdeck/pkg/execution"
	"github.com/stretchr/testify/mock"
)

// MockDeployer is a mock implementation of deploy.Deployer interface.
type MockDeployer struct {
	mock.Mock
}

func (m *MockDeployer) Deploy(ctx context.Context, bundle deploy.Bundle) (*deploy.Result, error) {
	args := m.Called(ctx, bundle)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*deploy.Result), args.Error(1)
}

// MockRunner is a mock implementation of execution.Runner interface.
type MockRunner struct {
	mock.Mock
}

func (m *MockRunner) Run(ctx context.Context, request execution.Request) (*execution.Outcome, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*execution.Outcome), args.Error(1)
}

var (
	_ deploy.Deployer  = (*MockDeployer)(nil)
	_ execution.Runner = (*MockRunner)(nil)
)

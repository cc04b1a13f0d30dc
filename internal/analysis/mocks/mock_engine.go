package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/analysis"
	"docflow/internal/model"
)

type MockEngine struct {
	mock.Mock
}

func (m *MockEngine) Analyze(ctx context.Context, req analysis.Request) (*model.DocumentAnalysis, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentAnalysis), args.Error(1)
}

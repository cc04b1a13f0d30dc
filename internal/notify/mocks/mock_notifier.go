package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docflow/internal/model"
	"docflow/internal/notify"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, doc model.Document, recipient, message string) (notify.Receipt, error) {
	args := m.Called(ctx, doc, recipient, message)
	return args.Get(0).(notify.Receipt), args.Error(1)
}

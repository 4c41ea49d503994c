package provider

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a testify double for Provider.
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Ask(ctx context.Context, question string) (Answer, error) {
	args := m.Called(ctx, question)
	return args.Get(0).(Answer), args.Error(1)
}

func (m *MockProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

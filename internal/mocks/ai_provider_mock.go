package mocks

import (
	"context"

	"writingway/internal/ai"

	"github.com/stretchr/testify/mock"
)

// MockProvider is a mock type for the Provider type
type MockProvider struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockProvider) Name() string {
	ret := _m.Called()

	var r0 string
	if rf, ok := ret.Get(0).(func() string); ok {
		r0 = rf()
	} else {
		r0 = ret.Get(0).(string)
	}

	return r0
}

// Generate provides a mock function with given fields: ctx, req
func (_m *MockProvider) Generate(ctx context.Context, req ai.Request) (ai.Response, error) {
	ret := _m.Called(ctx, req)

	var r0 ai.Response
	if rf, ok := ret.Get(0).(func(context.Context, ai.Request) ai.Response); ok {
		r0 = rf(ctx, req)
	} else {
		r0 = ret.Get(0).(ai.Response)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, ai.Request) error); ok {
		r1 = rf(ctx, req)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// GenerateStream provides a mock function with given fields: ctx, req, onChunk
func (_m *MockProvider) GenerateStream(ctx context.Context, req ai.Request, onChunk func(string) error) (ai.Response, error) {
	ret := _m.Called(ctx, req, onChunk)

	var r0 ai.Response
	if rf, ok := ret.Get(0).(func(context.Context, ai.Request, func(string) error) ai.Response); ok {
		r0 = rf(ctx, req, onChunk)
	} else {
		r0 = ret.Get(0).(ai.Response)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, ai.Request, func(string) error) error); ok {
		r1 = rf(ctx, req, onChunk)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockProvider creates a new instance of MockProvider. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
// The first argument is typically a *testing.T value.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}, name string) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	m.On("Name").Return(name).Maybe()

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

var _ ai.Provider = (*MockProvider)(nil)

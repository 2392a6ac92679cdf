// Package mocks provides test doubles for the provider package.
package mocks

import (
	"context"
	"encoding/json"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/places-collector/internal/model"
	"github.com/sells-group/places-collector/internal/provider"
)

// MockProvider is a mock type for the Provider interface.
type MockProvider struct {
	mock.Mock
}

// Name provides a mock function with given fields:
func (_m *MockProvider) Name() string {
	ret := _m.Called()
	if len(ret) == 0 {
		panic("no return value specified for Name")
	}
	return ret.String(0)
}

// Search provides a mock function with given fields: ctx, query, center, radiusM
func (_m *MockProvider) Search(ctx context.Context, query string, center provider.LatLng, radiusM int) ([]json.RawMessage, error) {
	ret := _m.Called(ctx, query, center, radiusM)
	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	if rf, ok := ret.Get(0).(func(context.Context, string, provider.LatLng, int) ([]json.RawMessage, error)); ok {
		return rf(ctx, query, center, radiusM)
	}
	var r0 []json.RawMessage
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]json.RawMessage)
	}
	return r0, ret.Error(1)
}

// Normalize provides a mock function with given fields: raw
func (_m *MockProvider) Normalize(raw json.RawMessage) (model.Record, error) {
	ret := _m.Called(raw)
	if len(ret) == 0 {
		panic("no return value specified for Normalize")
	}

	if rf, ok := ret.Get(0).(func(json.RawMessage) (model.Record, error)); ok {
		return rf(raw)
	}
	return ret.Get(0).(model.Record), ret.Error(1)
}

// NewMockProvider creates a MockProvider and registers expectation
// assertions on cleanup.
func NewMockProvider(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockProvider {
	m := &MockProvider{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ provider.Provider = (*MockProvider)(nil)

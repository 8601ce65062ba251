package mocks

import (
	"context"

	"archiveapi/internal/model"
	"archiveapi/internal/search"

	"github.com/stretchr/testify/mock"
)

type MockIndex struct {
	mock.Mock
}

func (m *MockIndex) EnsureSchema(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockIndex) Index(ctx context.Context, rec *model.ArchiveRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func (m *MockIndex) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Result), args.Error(1)
}

func (m *MockIndex) Stats(ctx context.Context, ownerID string) (*search.Stats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Stats), args.Error(1)
}

package mocks

import (
	"context"

	"archiveapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) (*model.ArchiveRecord, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArchiveRecord), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, rec *model.ArchiveRecord) error {
	args := m.Called(ctx, key, rec)
	return args.Error(0)
}

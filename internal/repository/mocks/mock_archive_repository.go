package mocks

import (
	"context"

	"archiveapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockArchiveRepository struct {
	mock.Mock
}

func (m *MockArchiveRepository) Insert(ctx context.Context, rec *model.ArchiveRecord) (*model.ArchiveRecord, error) {
	args := m.Called(ctx, rec)
	if f, ok := args.Get(0).(func(context.Context, *model.ArchiveRecord) *model.ArchiveRecord); ok {
		return f(ctx, rec), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArchiveRecord), args.Error(1)
}

func (m *MockArchiveRepository) FindOne(ctx context.Context, fileID, ownerID string) (*model.ArchiveRecord, error) {
	args := m.Called(ctx, fileID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArchiveRecord), args.Error(1)
}

type MockFailedIndexRepository struct {
	mock.Mock
}

func (m *MockFailedIndexRepository) Append(ctx context.Context, entry model.FailedIndexEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, u *model.User) (*model.User, error) {
	args := m.Called(ctx, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

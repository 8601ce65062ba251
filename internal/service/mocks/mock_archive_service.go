package mocks

import (
	"context"
	"io"

	"archiveapi/internal/model"
	"archiveapi/internal/search"
	"archiveapi/internal/service"

	"github.com/stretchr/testify/mock"
)

type MockArchiveService struct {
	mock.Mock
}

func (m *MockArchiveService) Archive(ctx context.Context, ownerID string, r io.Reader, originalFilename, contentType string, size int64, tags []string, policy string) (*model.ArchiveRecord, error) {
	args := m.Called(ctx, ownerID, r, originalFilename, contentType, size, tags, policy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArchiveRecord), args.Error(1)
}

func (m *MockArchiveService) StartMultipartUpload(ctx context.Context, ownerID, filename string) (string, error) {
	args := m.Called(ctx, ownerID, filename)
	return args.String(0), args.Error(1)
}

func (m *MockArchiveService) PresignUploadPart(ctx context.Context, ownerID, uploadID, filename string, partNumber int) (string, error) {
	args := m.Called(ctx, ownerID, uploadID, filename, partNumber)
	return args.String(0), args.Error(1)
}

func (m *MockArchiveService) CompleteMultipartUpload(ctx context.Context, ownerID string, in service.CompleteUploadInput) (*model.ArchiveRecord, error) {
	args := m.Called(ctx, ownerID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ArchiveRecord), args.Error(1)
}

func (m *MockArchiveService) AbortMultipartUpload(ctx context.Context, uploadID, filename string) {
	m.Called(ctx, uploadID, filename)
}

func (m *MockArchiveService) Get(ctx context.Context, fileID, ownerID string) (*service.RetrievedArchive, error) {
	args := m.Called(ctx, fileID, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.RetrievedArchive), args.Error(1)
}

func (m *MockArchiveService) Search(ctx context.Context, q search.Query) (*search.Result, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Result), args.Error(1)
}

func (m *MockArchiveService) Stats(ctx context.Context, ownerID string) (*search.Stats, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.Stats), args.Error(1)
}

type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (string, *model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).(*model.User), args.Error(2)
}

package mocks

import (
	"context"
	"io"

	"laporan/internal/upload"

	"github.com/stretchr/testify/mock"
)

type MockUploader struct {
	mock.Mock
}

func (m *MockUploader) Upload(ctx context.Context, r io.Reader, originalName, contentType string, size int64) (upload.Uploaded, error) {
	args := m.Called(ctx, r, originalName, contentType, size)
	return args.Get(0).(upload.Uploaded), args.Error(1)
}

func (m *MockUploader) Remove(ctx context.Context, storedName string) error {
	args := m.Called(ctx, storedName)
	return args.Error(0)
}

package mocks

import (
	"context"

	"laporan/internal/fetcher"

	"github.com/stretchr/testify/mock"
)

type MockImageFetcher struct {
	mock.Mock
}

func (m *MockImageFetcher) FetchVariant(ctx context.Context, sourceURL string, v fetcher.Variant) ([]byte, error) {
	args := m.Called(ctx, sourceURL, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

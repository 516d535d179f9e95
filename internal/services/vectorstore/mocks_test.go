package vectorstore

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
)

type MockVectorStorage struct {
	mock.Mock
}

func (m *MockVectorStorage) Collection(ctx context.Context, name string) (interfaces.VectorCollection, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(interfaces.VectorCollection), args.Error(1)
}

func (m *MockVectorStorage) DeleteCollection(ctx context.Context, name string) error {
	args := m.Called(ctx, name)
	return args.Error(0)
}

type MockVectorCollection struct {
	mock.Mock
	name string
}

func (m *MockVectorCollection) Name() string {
	return m.name
}

func (m *MockVectorCollection) Upsert(ctx context.Context, records []models.VectorRecord) error {
	args := m.Called(ctx, records)
	return args.Error(0)
}

func (m *MockVectorCollection) Query(ctx context.Context, text string, n int, where models.MetadataFilter) (*models.QueryResult, error) {
	args := m.Called(ctx, text, n, where)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.QueryResult), args.Error(1)
}

func (m *MockVectorCollection) Get(ctx context.Context, ids ...string) ([]models.VectorRecord, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.VectorRecord), args.Error(1)
}

func (m *MockVectorCollection) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

package tools

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/syllabus/internal/models"
	"github.com/ternarybob/syllabus/internal/services/vectorstore"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Search(ctx context.Context, query vectorstore.SearchQuery) *models.SearchResults {
	args := m.Called(ctx, query)
	return args.Get(0).(*models.SearchResults)
}

func (m *MockStore) GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, bool) {
	args := m.Called(ctx, courseTitle, lessonNumber)
	return args.String(0), args.Bool(1)
}

func (m *MockStore) ResolveCourseName(ctx context.Context, courseName string) (string, bool) {
	args := m.Called(ctx, courseName)
	return args.String(0), args.Bool(1)
}

func (m *MockStore) GetCourseMetadata(ctx context.Context, title string) (*models.CourseMetadata, bool, error) {
	args := m.Called(ctx, title)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*models.CourseMetadata), args.Bool(1), args.Error(2)
}

type MockTool struct {
	mock.Mock
	definition models.ToolDefinition
}

func (m *MockTool) Definition() models.ToolDefinition {
	return m.definition
}

func (m *MockTool) Execute(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
	called := m.Called(ctx, args)
	if called.Get(0) == nil {
		return nil, called.Error(1)
	}
	return called.Get(0).(*models.ToolResult), called.Error(1)
}

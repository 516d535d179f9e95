package chat

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
)

// scriptedCompletion answers Complete calls from a fixed script and records every request
type scriptedCompletion struct {
	mu        sync.Mutex
	responses []*interfaces.CompletionResponse
	errs      []error
	requests  []*interfaces.CompletionRequest
}

func (s *scriptedCompletion) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.requests)
	s.requests = append(s.requests, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	if i >= len(s.responses) {
		panic("unexpected completion round")
	}
	return s.responses[i], nil
}

func (s *scriptedCompletion) HealthCheck(ctx context.Context) error { return nil }
func (s *scriptedCompletion) Close() error                          { return nil }

func textResponse(text string) *interfaces.CompletionResponse {
	return &interfaces.CompletionResponse{
		StopReason: interfaces.StopReasonEndTurn,
		Content:    []interfaces.ContentBlock{interfaces.TextBlock(text)},
	}
}

func toolUseResponse(uses ...interfaces.ContentBlock) *interfaces.CompletionResponse {
	return &interfaces.CompletionResponse{StopReason: interfaces.StopReasonToolUse, Content: uses}
}

func toolUse(id, name string, input map[string]any) interfaces.ContentBlock {
	return interfaces.ContentBlock{Type: interfaces.BlockTypeToolUse, ToolUseID: id, ToolName: name, Input: input}
}

type MockRegistry struct {
	mock.Mock
}

func (m *MockRegistry) Definitions() []models.ToolDefinition {
	args := m.Called()
	defs, _ := args.Get(0).([]models.ToolDefinition)
	return defs
}

func (m *MockRegistry) Dispatch(ctx context.Context, name string, input map[string]any) (*models.ToolResult, error) {
	args := m.Called(ctx, name, input)
	result, _ := args.Get(0).(*models.ToolResult)
	return result, args.Error(1)
}

func (m *MockRegistry) ResetSources() {
	m.Called()
}

type MockStore struct {
	mock.Mock
}

func (m *MockStore) AddCourseMetadata(ctx context.Context, course *models.Course) error {
	return m.Called(ctx, course).Error(0)
}

func (m *MockStore) AddCourseContent(ctx context.Context, chunks []models.CourseChunk) error {
	return m.Called(ctx, chunks).Error(0)
}

func (m *MockStore) GetExistingCourseTitles(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	titles, _ := args.Get(0).([]string)
	return titles, args.Error(1)
}

func (m *MockStore) GetCourseCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) ClearAllData(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockSessions struct {
	mock.Mock
}

func (m *MockSessions) CreateSession() string {
	return m.Called().String(0)
}

func (m *MockSessions) AddExchange(sessionID, userMessage, assistantMessage string) {
	m.Called(sessionID, userMessage, assistantMessage)
}

func (m *MockSessions) GetConversationHistory(sessionID string) (string, bool) {
	args := m.Called(sessionID)
	return args.String(0), args.Bool(1)
}

func (m *MockSessions) ClearSession(sessionID string) {
	m.Called(sessionID)
}

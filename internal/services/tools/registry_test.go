package tools

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/models"
)

func newMockTool(name string) *MockTool {
	return &MockTool{definition: models.ToolDefinition{Name: name, Description: "Test tool"}}
}

func TestRegistry_RegisterAndDefinitions(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())

	require.NoError(t, registry.Register(newMockTool("b_tool")))
	require.NoError(t, registry.Register(newMockTool("a_tool")))

	defs := registry.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "b_tool", defs[0].Name)
	assert.Equal(t, "a_tool", defs[1].Name)

	tool, ok := registry.Get("a_tool")
	assert.True(t, ok)
	assert.NotNil(t, tool)
}

func TestRegistry_RegisterWithoutName(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())

	err := registry.Register(&MockTool{definition: models.ToolDefinition{Description: "No name"}})
	assert.ErrorIs(t, err, ErrInvalidToolDefinition)
	assert.Empty(t, registry.Definitions())
}

func TestRegistry_RegisterDuplicate(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())
	require.NoError(t, registry.Register(newMockTool("test_tool")))

	err := registry.Register(newMockTool("test_tool"))
	assert.ErrorIs(t, err, ErrDuplicateTool)
	assert.Len(t, registry.Definitions(), 1)
}

func TestRegistry_DispatchKnownTool(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())
	tool := newMockTool("test_tool")
	args := map[string]any{"param": "value"}
	tool.On("Execute", mock.Anything, args).Return(models.TextResult("Test result"), nil)
	require.NoError(t, registry.Register(tool))

	result, err := registry.Dispatch(context.Background(), "test_tool", args)
	require.NoError(t, err)
	assert.Equal(t, "Test result", result.Content)
	tool.AssertExpectations(t)
}

func TestRegistry_DispatchUnknownTool(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())

	result, err := registry.Dispatch(context.Background(), "nonexistent_tool", nil)
	require.NoError(t, err)
	assert.Equal(t, "Tool 'nonexistent_tool' not found", result.Content)
}

func TestRegistry_DispatchFailingTool(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())
	tool := newMockTool("broken")
	cause := errors.New("index corrupted")
	tool.On("Execute", mock.Anything, mock.Anything).Return(nil, cause)
	require.NoError(t, registry.Register(tool))

	_, err := registry.Dispatch(context.Background(), "broken", map[string]any{})
	assert.ErrorIs(t, err, ErrToolExecution)
	assert.ErrorIs(t, err, cause)
}

func TestRegistry_SourcesCollectAndReset(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())
	search := newMockTool("search")
	outline := newMockTool("outline")
	silent := newMockTool("silent")
	search.On("Execute", mock.Anything, mock.Anything).Return(&models.ToolResult{
		Content: "hits",
		Sources: []models.Source{{Text: "Course A - Lesson 1", URL: "http://a/1"}},
	}, nil)
	outline.On("Execute", mock.Anything, mock.Anything).Return(&models.ToolResult{
		Content: "outline",
		Sources: []models.Source{{Text: "Course B"}},
	}, nil)
	require.NoError(t, registry.Register(search))
	require.NoError(t, registry.Register(silent))
	require.NoError(t, registry.Register(outline))

	assert.Empty(t, registry.CollectSources())

	// Dispatch order does not matter, registration order does
	_, err := registry.Dispatch(context.Background(), "outline", nil)
	require.NoError(t, err)
	_, err = registry.Dispatch(context.Background(), "search", nil)
	require.NoError(t, err)

	assert.Equal(t, []models.Source{
		{Text: "Course A - Lesson 1", URL: "http://a/1"},
		{Text: "Course B"},
	}, registry.CollectSources())

	registry.ResetSources()
	assert.Empty(t, registry.CollectSources())

	// Reset is idempotent
	registry.ResetSources()
	assert.Empty(t, registry.CollectSources())
}

func TestRegistry_ConcurrentDispatch(t *testing.T) {
	registry := NewRegistry(arbor.NewLogger())
	tool := newMockTool("search")
	tool.On("Execute", mock.Anything, mock.Anything).Return(&models.ToolResult{
		Content: "hits", Sources: []models.Source{{Text: "A"}},
	}, nil)
	require.NoError(t, registry.Register(tool))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := registry.Dispatch(context.Background(), "search", nil)
			assert.NoError(t, err)
			assert.Equal(t, []models.Source{{Text: "A"}}, result.Sources)
			registry.CollectSources()
		}()
	}
	wg.Wait()

	assert.Equal(t, []models.Source{{Text: "A"}}, registry.CollectSources())
}

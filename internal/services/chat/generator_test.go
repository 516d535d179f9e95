package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
)

var testTools = []models.ToolDefinition{
	{Name: "search_course_content", InputSchema: models.ToolInputSchema{Type: "object"}},
	{Name: "get_course_outline", InputSchema: models.ToolInputSchema{Type: "object"}},
}

func newTestGenerator(completion interfaces.CompletionService) *Generator {
	return NewGenerator(completion, &GeneratorConfig{Model: "test-model", Temperature: 0, MaxTokens: 800}, arbor.NewLogger())
}

func TestSystemPrompt_Content(t *testing.T) {
	assert.Contains(t, SystemPrompt, "course materials and educational content")
	assert.Contains(t, SystemPrompt, "Course Outline Tool")
	assert.Contains(t, SystemPrompt, "Content Search Tool")
	assert.Contains(t, SystemPrompt, "Brief, Concise and focused")
}

func TestGenerator_DirectAnswer(t *testing.T) {
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{textResponse("This is a test response")}}
	g := newTestGenerator(completion)

	gen, err := g.Generate(context.Background(), &GenerateRequest{Query: "What is AI?"})
	require.NoError(t, err)

	assert.Equal(t, "This is a test response", gen.Answer)
	assert.Equal(t, 1, gen.Rounds)
	assert.Empty(t, gen.Sources)

	require.Len(t, completion.requests, 1)
	req := completion.requests[0]
	assert.Equal(t, "test-model", req.Model)
	assert.Equal(t, 0.0, req.Temperature)
	assert.Equal(t, 800, req.MaxTokens)
	assert.Equal(t, SystemPrompt, req.System)
	assert.Empty(t, req.Tools)
	assert.Equal(t, interfaces.ToolChoiceNone, req.ToolChoice)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, interfaces.RoleUser, req.Messages[0].Role)
	assert.Equal(t, "What is AI?", req.Messages[0].Content[0].Text)
}

func TestGenerator_HistoryInSystemPrompt(t *testing.T) {
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{textResponse("Response with history")}}
	g := newTestGenerator(completion)

	_, err := g.Generate(context.Background(), &GenerateRequest{
		Query:   "Follow up question",
		History: "User: hi\nAssistant: hello",
	})
	require.NoError(t, err)

	assert.Equal(t, SystemPrompt+"\n\nPrevious conversation:\nUser: hi\nAssistant: hello", completion.requests[0].System)
}

func TestGenerator_ToolsOfferedWithAutoChoice(t *testing.T) {
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{textResponse("Response using tools")}}
	g := newTestGenerator(completion)
	registry := &MockRegistry{}

	gen, err := g.Generate(context.Background(), &GenerateRequest{Query: "q", Tools: testTools, Dispatcher: registry})
	require.NoError(t, err)

	assert.Equal(t, "Response using tools", gen.Answer)
	assert.Equal(t, testTools, completion.requests[0].Tools)
	assert.Equal(t, interfaces.ToolChoiceAuto, completion.requests[0].ToolChoice)
	registry.AssertNotCalled(t, "Dispatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerator_ToolRound(t *testing.T) {
	input := map[string]any{"query": "test search"}
	round1 := toolUseResponse(toolUse("tool_123", "search_course_content", input))
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{round1, textResponse("Final response after tool use")}}
	g := newTestGenerator(completion)

	source := models.Source{Text: "Course A - Lesson 1", URL: "https://example.com/a/1"}
	registry := &MockRegistry{}
	registry.On("Dispatch", mock.Anything, "search_course_content", input).
		Return(&models.ToolResult{Content: "Tool execution result", Sources: []models.Source{source}}, nil).Once()

	gen, err := g.Generate(context.Background(), &GenerateRequest{Query: "q", Tools: testTools, Dispatcher: registry})
	require.NoError(t, err)
	registry.AssertExpectations(t)

	assert.Equal(t, "Final response after tool use", gen.Answer)
	assert.Equal(t, 2, gen.Rounds)
	assert.Equal(t, []models.Source{source}, gen.Sources)
	require.Len(t, gen.ToolCalls, 1)
	assert.Equal(t, "tool_123", gen.ToolCalls[0].ID)

	require.Len(t, completion.requests, 2)
	final := completion.requests[1]
	assert.Empty(t, final.Tools)
	assert.Equal(t, interfaces.ToolChoiceNone, final.ToolChoice)
	assert.Equal(t, SystemPrompt, final.System)
	require.Len(t, final.Messages, 3)
	assert.Equal(t, interfaces.RoleAssistant, final.Messages[1].Role)
	assert.Equal(t, round1.Content, final.Messages[1].Content)
	assert.Equal(t, interfaces.RoleUser, final.Messages[2].Role)
	assert.Equal(t, []interfaces.ContentBlock{
		interfaces.ToolResultBlock("tool_123", "Tool execution result", false),
	}, final.Messages[2].Content)
}

func TestGenerator_MultipleToolsInOrder(t *testing.T) {
	round1 := toolUseResponse(
		toolUse("tool_1", "tool_one", map[string]any{"param": "value1"}),
		toolUse("tool_2", "tool_two", map[string]any{"param": "value2"}),
	)
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{round1, textResponse("Combined results response")}}
	g := newTestGenerator(completion)

	registry := &MockRegistry{}
	registry.On("Dispatch", mock.Anything, "tool_one", map[string]any{"param": "value1"}).
		Return(models.TextResult("Result 1"), nil).Once()
	registry.On("Dispatch", mock.Anything, "tool_two", map[string]any{"param": "value2"}).
		Return(models.ErrorResult("Result 2"), nil).Once()

	gen, err := g.Generate(context.Background(), &GenerateRequest{Query: "q", Tools: testTools, Dispatcher: registry})
	require.NoError(t, err)
	registry.AssertExpectations(t)

	assert.Equal(t, "Combined results response", gen.Answer)
	results := completion.requests[1].Messages[2].Content
	assert.Equal(t, []interfaces.ContentBlock{
		interfaces.ToolResultBlock("tool_1", "Result 1", false),
		interfaces.ToolResultBlock("tool_2", "Result 2", true),
	}, results)
}

func TestGenerator_ToolUseWithoutDispatcher(t *testing.T) {
	round1 := toolUseResponse(
		interfaces.TextBlock("Tool use ignored"),
		toolUse("tool_1", "search_course_content", map[string]any{"query": "x"}),
	)
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{round1}}
	g := newTestGenerator(completion)

	gen, err := g.Generate(context.Background(), &GenerateRequest{Query: "q", Tools: testTools})
	require.NoError(t, err)

	assert.Equal(t, "Tool use ignored", gen.Answer)
	assert.Equal(t, 1, gen.Rounds)
	assert.Len(t, completion.requests, 1)
}

func TestGenerator_DispatchErrorAborts(t *testing.T) {
	errBroken := errors.New("tool is broken")
	round1 := toolUseResponse(toolUse("tool_1", "search_course_content", map[string]any{"query": "x"}))
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{round1}}
	g := newTestGenerator(completion)

	registry := &MockRegistry{}
	registry.On("Dispatch", mock.Anything, "search_course_content", mock.Anything).Return(nil, errBroken)

	_, err := g.Generate(context.Background(), &GenerateRequest{Query: "q", Tools: testTools, Dispatcher: registry})
	assert.ErrorIs(t, err, errBroken)
	assert.Len(t, completion.requests, 1)
}

func TestGenerator_CompletionErrors(t *testing.T) {
	errOutage := errors.New("service unavailable")

	t.Run("first round", func(t *testing.T) {
		completion := &scriptedCompletion{errs: []error{errOutage}}
		_, err := newTestGenerator(completion).Generate(context.Background(), &GenerateRequest{Query: "q"})
		assert.ErrorIs(t, err, errOutage)
	})

	t.Run("second round", func(t *testing.T) {
		round1 := toolUseResponse(toolUse("tool_1", "search_course_content", map[string]any{"query": "x"}))
		completion := &scriptedCompletion{
			responses: []*interfaces.CompletionResponse{round1},
			errs:      []error{nil, errOutage},
		}
		registry := &MockRegistry{}
		registry.On("Dispatch", mock.Anything, mock.Anything, mock.Anything).Return(models.TextResult("r"), nil)

		_, err := newTestGenerator(completion).Generate(context.Background(), &GenerateRequest{Query: "q", Tools: testTools, Dispatcher: registry})
		assert.ErrorIs(t, err, errOutage)
	})
}

func TestGenerator_Events(t *testing.T) {
	round1 := toolUseResponse(toolUse("tool_1", "get_course_outline", map[string]any{"course_name": "MCP"}))
	completion := &scriptedCompletion{responses: []*interfaces.CompletionResponse{round1, textResponse("done")}}
	registry := &MockRegistry{}
	registry.On("Dispatch", mock.Anything, "get_course_outline", mock.Anything).Return(models.TextResult("Course: MCP"), nil)

	var types []string
	_, err := newTestGenerator(completion).Generate(context.Background(), &GenerateRequest{
		Query:      "q",
		Tools:      testTools,
		Dispatcher: registry,
		OnEvent: func(e *StreamEvent) {
			assert.NotEmpty(t, e.Timestamp)
			types = append(types, e.Type)
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{EventToolCall, EventToolResult, EventAnswer}, types)
}

func TestGenerator_NoCompletionService(t *testing.T) {
	g := NewGenerator(nil, nil, arbor.NewLogger())

	_, err := g.Generate(context.Background(), &GenerateRequest{Query: "q"})
	assert.ErrorIs(t, err, ErrCompletionUnavailable)
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/models"
)

type stubDispatcher struct {
	result  *models.ToolResult
	err     error
	gotName string
	gotArgs map[string]any
}

func (s *stubDispatcher) Definitions() []models.ToolDefinition {
	return []models.ToolDefinition{{
		Name:        "get_course_outline",
		Description: "Get a course outline",
		InputSchema: models.ToolInputSchema{
			Properties: map[string]any{"course_name": map[string]any{"type": "string"}},
			Required:   []string{"course_name"},
		},
	}}
}

func (s *stubDispatcher) Dispatch(ctx context.Context, name string, args map[string]any) (*models.ToolResult, error) {
	s.gotName = name
	s.gotArgs = args
	return s.result, s.err
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = "get_course_outline"
	req.Params.Arguments = args
	return req
}

func textOf(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestToMCPTool(t *testing.T) {
	stub := &stubDispatcher{}
	tool, err := toMCPTool(stub.Definitions()[0])
	require.NoError(t, err)

	assert.Equal(t, "get_course_outline", tool.Name)
	assert.Equal(t, "Get a course outline", tool.Description)

	var schema map[string]any
	require.NoError(t, json.Unmarshal(tool.RawInputSchema, &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"course_name"}, schema["required"])
}

func TestHandleTool_Text(t *testing.T) {
	stub := &stubDispatcher{result: &models.ToolResult{
		Content: "Course: MCP\nLessons (1 total):\n1. Intro",
		Sources: []models.Source{{Text: "MCP", URL: "https://example.com/mcp"}},
	}}

	result, err := handleTool(stub, "get_course_outline", arbor.NewLogger())(context.Background(), callRequest(map[string]any{"course_name": "MCP"}))
	require.NoError(t, err)

	assert.False(t, result.IsError)
	assert.Equal(t, "Course: MCP\nLessons (1 total):\n1. Intro\n\nSources:\n- [MCP](https://example.com/mcp)", textOf(t, result))
	assert.Equal(t, "get_course_outline", stub.gotName)
	assert.Equal(t, map[string]any{"course_name": "MCP"}, stub.gotArgs)
}

func TestHandleTool_SoftError(t *testing.T) {
	stub := &stubDispatcher{result: models.ErrorResult("invalid arguments")}

	result, err := handleTool(stub, "get_course_outline", arbor.NewLogger())(context.Background(), callRequest(nil))
	require.NoError(t, err)

	assert.True(t, result.IsError)
	assert.Equal(t, "invalid arguments", textOf(t, result))
	assert.NotNil(t, stub.gotArgs)
}

func TestHandleTool_HardError(t *testing.T) {
	errBroken := errors.New("broken")
	stub := &stubDispatcher{err: errBroken}

	_, err := handleTool(stub, "get_course_outline", arbor.NewLogger())(context.Background(), callRequest(map[string]any{}))
	assert.ErrorIs(t, err, errBroken)
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
)

// registerTools exposes every registry tool as an MCP tool with the same name and schema
func registerTools(mcpServer *server.MCPServer, dispatcher interfaces.ToolDispatcher, logger arbor.ILogger) error {
	for _, def := range dispatcher.Definitions() {
		tool, err := toMCPTool(def)
		if err != nil {
			return err
		}
		mcpServer.AddTool(tool, handleTool(dispatcher, def.Name, logger))
	}
	return nil
}

func toMCPTool(def models.ToolDefinition) (mcp.Tool, error) {
	schema := def.InputSchema
	if schema.Type == "" {
		schema.Type = "object"
	}
	raw, err := json.Marshal(schema)
	if err != nil {
		return mcp.Tool{}, fmt.Errorf("failed to encode schema of %s: %w", def.Name, err)
	}
	return mcp.NewToolWithRawSchema(def.Name, def.Description, raw), nil
}

// handleTool dispatches an MCP call through the registry. Soft failures come
// back as error results; a broken tool fails the call.
func handleTool(dispatcher interfaces.ToolDispatcher, name string, logger arbor.ILogger) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		if args == nil {
			args = map[string]any{}
		}

		result, err := dispatcher.Dispatch(ctx, name, args)
		if err != nil {
			logger.Error().Err(err).Str("tool", name).Msg("Tool execution failed")
			return nil, err
		}
		if result.IsError {
			return mcp.NewToolResultError(result.Content), nil
		}
		return mcp.NewToolResultText(formatResult(result)), nil
	}
}

// formatResult appends the result's sources as a markdown list
func formatResult(result *models.ToolResult) string {
	if len(result.Sources) == 0 {
		return result.Content
	}

	var sb strings.Builder
	sb.WriteString(result.Content)
	sb.WriteString("\n\nSources:")
	for _, source := range result.Sources {
		if source.URL != "" {
			fmt.Fprintf(&sb, "\n- [%s](%s)", source.Text, source.URL)
		} else {
			fmt.Fprintf(&sb, "\n- %s", source.Text)
		}
	}
	return sb.String()
}

package models

// ToolDefinition is the machine-readable schema of a tool as consumed by the
// completion service.
type ToolDefinition struct {
	Name        string          `json:"name" validate:"required"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"input_schema"`
}

// ToolInputSchema is a JSON-schema object describing tool arguments.
type ToolInputSchema struct {
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties"`
	Required   []string       `json:"required,omitempty"`
}

// ToolResult is what one tool execution produced for one request: the text
// handed back to the model and the sources to show next to the answer.
type ToolResult struct {
	Content string   `json:"content"`
	Sources []Source `json:"sources,omitempty"`
	IsError bool     `json:"is_error,omitempty"`
}

// TextResult wraps plain text as a ToolResult with no sources.
func TextResult(content string) *ToolResult {
	return &ToolResult{Content: content}
}

// ErrorResult wraps a soft failure message as a ToolResult.
func ErrorResult(content string) *ToolResult {
	return &ToolResult{Content: content, IsError: true}
}

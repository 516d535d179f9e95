package interfaces

import (
	"context"
	"strings"

	"github.com/ternarybob/syllabus/internal/models"
)

// Role identifies the author of a completion message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockType identifies the kind of a content block.
type BlockType string

const (
	BlockTypeText       BlockType = "text"
	BlockTypeToolUse    BlockType = "tool_use"
	BlockTypeToolResult BlockType = "tool_result"
)

// StopReason is the completion service's reason for ending a response.
type StopReason string

const (
	StopReasonEndTurn   StopReason = "end_turn"
	StopReasonToolUse   StopReason = "tool_use"
	StopReasonMaxTokens StopReason = "max_tokens"
)

// ToolChoice controls whether the model may call tools.
type ToolChoice string

const (
	ToolChoiceNone ToolChoice = ""
	ToolChoiceAuto ToolChoice = "auto"
)

// ContentBlock is one element of a message's content list.
//
// Text blocks use Text. Tool-use blocks use ToolUseID, ToolName and Input.
// Tool-result blocks use ToolUseID, Text (the tool output) and IsError.
type ContentBlock struct {
	Type      BlockType      `json:"type"`
	Text      string         `json:"text,omitempty"`
	ToolUseID string         `json:"tool_use_id,omitempty"`
	ToolName  string         `json:"name,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`
}

// TextBlock builds a text block.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: BlockTypeText, Text: text}
}

// ToolResultBlock builds a tool-result block answering the given tool-use id.
func ToolResultBlock(toolUseID, content string, isError bool) ContentBlock {
	return ContentBlock{Type: BlockTypeToolResult, ToolUseID: toolUseID, Text: content, IsError: isError}
}

// CompletionMessage is one turn of the conversation sent to the model.
type CompletionMessage struct {
	Role    Role           `json:"role"`
	Content []ContentBlock `json:"content"`
}

// CompletionRequest carries everything needed for one completion round.
type CompletionRequest struct {
	Model       string                  `json:"model"`
	System      string                  `json:"system"`
	Temperature float64                 `json:"temperature"`
	MaxTokens   int                     `json:"max_tokens"`
	Messages    []CompletionMessage     `json:"messages"`
	Tools       []models.ToolDefinition `json:"tools,omitempty"`
	ToolChoice  ToolChoice              `json:"tool_choice,omitempty"`
}

// CompletionResponse is the model's answer to one round.
type CompletionResponse struct {
	StopReason StopReason     `json:"stop_reason"`
	Content    []ContentBlock `json:"content"`
}

// Text concatenates every text block of the response.
func (r *CompletionResponse) Text() string {
	var sb strings.Builder
	for _, block := range r.Content {
		if block.Type == BlockTypeText {
			sb.WriteString(block.Text)
		}
	}
	return sb.String()
}

// ToolUses returns the tool-use blocks in the order they appeared.
func (r *CompletionResponse) ToolUses() []ContentBlock {
	var uses []ContentBlock
	for _, block := range r.Content {
		if block.Type == BlockTypeToolUse {
			uses = append(uses, block)
		}
	}
	return uses
}

// CompletionService is the boundary to the LLM completion API.
type CompletionService interface {
	// Complete issues a single completion request. It blocks until the
	// service answers or ctx is done.
	Complete(ctx context.Context, req *CompletionRequest) (*CompletionResponse, error)

	// HealthCheck verifies the service is reachable and authenticated.
	HealthCheck(ctx context.Context) error

	// Close releases resources held by the client.
	Close() error
}

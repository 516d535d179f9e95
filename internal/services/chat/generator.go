package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
)

// Stream event types emitted while a question is being answered
const (
	EventToolCall   = "tool_call"
	EventToolResult = "tool_result"
	EventAnswer     = "answer"
)

// ErrCompletionUnavailable is returned when no completion service is configured
var ErrCompletionUnavailable = errors.New("completion service is not configured")

// generationState tracks the position in the two-round tool-use protocol
type generationState int

const (
	stateAwaitingFirstResponse generationState = iota
	stateExecutingTools
	stateAwaitingFinalResponse
	stateDone
)

func (s generationState) String() string {
	switch s {
	case stateAwaitingFirstResponse:
		return "awaiting_first_response"
	case stateExecutingTools:
		return "executing_tools"
	case stateAwaitingFinalResponse:
		return "awaiting_final_response"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// GeneratorConfig holds the base parameters sent with every completion round
type GeneratorConfig struct {
	Model       string
	Temperature float64
	MaxTokens   int
}

// DefaultGeneratorConfig returns the parameters used when none are configured
func DefaultGeneratorConfig() *GeneratorConfig {
	return &GeneratorConfig{
		Model:       "claude-sonnet-4-20250514",
		Temperature: 0,
		MaxTokens:   800,
	}
}

// StreamEvent is an intermediate step reported to OnEvent callbacks
type StreamEvent struct {
	Type      string          `json:"type"`
	Content   string          `json:"content,omitempty"`
	Tool      string          `json:"tool,omitempty"`
	Input     map[string]any  `json:"input,omitempty"`
	Sources   []models.Source `json:"sources,omitempty"`
	Timestamp string          `json:"timestamp"`
}

// GenerateRequest is one question to answer
type GenerateRequest struct {
	Query      string
	History    string
	Tools      []models.ToolDefinition
	Dispatcher interfaces.ToolDispatcher
	OnEvent    func(*StreamEvent)
}

// ToolCall records one tool executed during a generation
type ToolCall struct {
	ID      string         `json:"id"`
	Name    string         `json:"name"`
	Input   map[string]any `json:"input"`
	Result  string         `json:"result"`
	IsError bool           `json:"is_error,omitempty"`
}

// Generation is the outcome of answering one question
type Generation struct {
	Answer    string
	Sources   []models.Source
	ToolCalls []ToolCall
	Rounds    int
}

// Generator runs the bounded two-round tool-use protocol against a
// completion service: one round that may request tools, at most one round
// after tool results, never more.
type Generator struct {
	completion interfaces.CompletionService
	config     *GeneratorConfig
	logger     arbor.ILogger
}

// NewGenerator creates a generator
func NewGenerator(completion interfaces.CompletionService, config *GeneratorConfig, logger arbor.ILogger) *Generator {
	if config == nil {
		config = DefaultGeneratorConfig()
	}
	return &Generator{
		completion: completion,
		config:     config,
		logger:     logger,
	}
}

// Generate answers req.Query. A dispatch error aborts the generation.
func (g *Generator) Generate(ctx context.Context, req *GenerateRequest) (*Generation, error) {
	if g.completion == nil {
		return nil, ErrCompletionUnavailable
	}

	startTime := time.Now()
	system := buildSystemPrompt(req.History)
	messages := []interfaces.CompletionMessage{
		{Role: interfaces.RoleUser, Content: []interfaces.ContentBlock{interfaces.TextBlock(req.Query)}},
	}
	gen := &Generation{Sources: []models.Source{}}

	var (
		state    = stateAwaitingFirstResponse
		response *interfaces.CompletionResponse
	)

	for state != stateDone {
		g.logger.Debug().Str("state", state.String()).Int("messages", len(messages)).Msg("Generation step")

		switch state {
		case stateAwaitingFirstResponse:
			first := g.baseRequest(system, messages)
			if len(req.Tools) > 0 {
				first.Tools = req.Tools
				first.ToolChoice = interfaces.ToolChoiceAuto
			}

			resp, err := g.completion.Complete(ctx, first)
			if err != nil {
				return nil, fmt.Errorf("completion round 1 failed: %w", err)
			}
			gen.Rounds++
			response = resp

			if resp.StopReason == interfaces.StopReasonToolUse && req.Dispatcher != nil && len(resp.ToolUses()) > 0 {
				state = stateExecutingTools
			} else {
				gen.Answer = resp.Text()
				state = stateDone
			}

		case stateExecutingTools:
			results, err := g.executeTools(ctx, req, response.ToolUses(), gen)
			if err != nil {
				return nil, err
			}
			messages = append(messages,
				interfaces.CompletionMessage{Role: interfaces.RoleAssistant, Content: response.Content},
				interfaces.CompletionMessage{Role: interfaces.RoleUser, Content: results},
			)
			state = stateAwaitingFinalResponse

		case stateAwaitingFinalResponse:
			resp, err := g.completion.Complete(ctx, g.baseRequest(system, messages))
			if err != nil {
				return nil, fmt.Errorf("completion round 2 failed: %w", err)
			}
			gen.Rounds++
			gen.Answer = resp.Text()
			state = stateDone
		}
	}

	emit(req.OnEvent, &StreamEvent{Type: EventAnswer, Content: gen.Answer, Sources: gen.Sources})

	g.logger.Debug().
		Int("rounds", gen.Rounds).
		Int("tool_calls", len(gen.ToolCalls)).
		Int("sources", len(gen.Sources)).
		Dur("duration", time.Since(startTime)).
		Msg("Generation complete")

	return gen, nil
}

func (g *Generator) baseRequest(system string, messages []interfaces.CompletionMessage) *interfaces.CompletionRequest {
	return &interfaces.CompletionRequest{
		Model:       g.config.Model,
		System:      system,
		Temperature: g.config.Temperature,
		MaxTokens:   g.config.MaxTokens,
		Messages:    messages,
	}
}

// executeTools dispatches every tool-use block in order and returns the
// matching tool-result blocks in the same order
func (g *Generator) executeTools(ctx context.Context, req *GenerateRequest, uses []interfaces.ContentBlock, gen *Generation) ([]interfaces.ContentBlock, error) {
	results := make([]interfaces.ContentBlock, 0, len(uses))
	for _, use := range uses {
		emit(req.OnEvent, &StreamEvent{Type: EventToolCall, Tool: use.ToolName, Input: use.Input})

		result, err := req.Dispatcher.Dispatch(ctx, use.ToolName, use.Input)
		if err != nil {
			g.logger.Error().Err(err).Str("tool", use.ToolName).Msg("Tool dispatch failed")
			return nil, err
		}
		if result == nil {
			result = models.TextResult("")
		}

		gen.Sources = append(gen.Sources, result.Sources...)
		gen.ToolCalls = append(gen.ToolCalls, ToolCall{
			ID:      use.ToolUseID,
			Name:    use.ToolName,
			Input:   use.Input,
			Result:  result.Content,
			IsError: result.IsError,
		})
		results = append(results, interfaces.ToolResultBlock(use.ToolUseID, result.Content, result.IsError))

		emit(req.OnEvent, &StreamEvent{Type: EventToolResult, Tool: use.ToolName, Content: result.Content, Sources: result.Sources})
	}
	return results, nil
}

func emit(fn func(*StreamEvent), event *StreamEvent) {
	if fn == nil {
		return
	}
	event.Timestamp = time.Now().Format(time.RFC3339)
	fn(event)
}

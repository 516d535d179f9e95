package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/common"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
	"golang.org/x/time/rate"
)

// ClaudeService implements the CompletionService interface using the Anthropic
// Messages API, including tool definitions and tool-result turns.
type ClaudeService struct {
	config  *common.ClaudeConfig
	logger  arbor.ILogger
	client  anthropic.Client
	timeout time.Duration
	limiter *rate.Limiter
}

// NewClaudeService creates a new Claude completion service instance.
//
// Extra request options are appended after the API key, which lets tests
// point the client at a local server with option.WithBaseURL.
func NewClaudeService(claudeConfig *common.ClaudeConfig, logger arbor.ILogger, opts ...option.RequestOption) (*ClaudeService, error) {
	if claudeConfig.APIKey == "" {
		return nil, fmt.Errorf("Anthropic API key is required (set ANTHROPIC_API_KEY, SYLLABUS_CLAUDE_API_KEY, or claude.api_key in config)")
	}

	if claudeConfig.Model == "" {
		claudeConfig.Model = "claude-sonnet-4-20250514"
	}

	timeout := common.ParseDuration(claudeConfig.Timeout, 2*time.Minute)

	// Zero interval means no limit
	limit := rate.Inf
	if interval := common.ParseDuration(claudeConfig.RateLimit, 0); interval > 0 {
		limit = rate.Every(interval)
	}

	requestOptions := append([]option.RequestOption{option.WithAPIKey(claudeConfig.APIKey)}, opts...)
	client := anthropic.NewClient(requestOptions...)

	service := &ClaudeService{
		config:  claudeConfig,
		logger:  logger,
		client:  client,
		timeout: timeout,
		limiter: rate.NewLimiter(limit, 1),
	}

	logger.Debug().
		Str("model", claudeConfig.Model).
		Dur("timeout", timeout).
		Int("max_tokens", claudeConfig.MaxTokens).
		Msg("Claude completion service initialized successfully")

	return service, nil
}

// Complete sends one completion round to Claude.
func (s *ClaudeService) Complete(ctx context.Context, req *interfaces.CompletionRequest) (*interfaces.CompletionResponse, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, fmt.Errorf("messages cannot be empty for completion")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	params, err := s.buildParams(req)
	if err != nil {
		return nil, err
	}

	startTime := time.Now()
	resp, err := s.client.Messages.New(timeoutCtx, params)
	if err != nil {
		s.logger.Error().
			Err(err).
			Int("message_count", len(req.Messages)).
			Msg("Claude completion failed")
		return nil, fmt.Errorf("Claude API call failed: %w", err)
	}

	response, err := convertClaudeResponse(resp)
	if err != nil {
		return nil, err
	}

	s.logger.Debug().
		Int("message_count", len(req.Messages)).
		Int("tool_count", len(req.Tools)).
		Str("stop_reason", string(response.StopReason)).
		Dur("duration", time.Since(startTime)).
		Msg("Claude completion completed")

	return response, nil
}

// HealthCheck verifies the service with a minimal probe.
func (s *ClaudeService) HealthCheck(ctx context.Context) error {
	healthCheckCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	resp, err := s.Complete(healthCheckCtx, &interfaces.CompletionRequest{
		Model:     s.config.Model,
		MaxTokens: 16,
		Messages: []interfaces.CompletionMessage{
			{Role: interfaces.RoleUser, Content: []interfaces.ContentBlock{interfaces.TextBlock("ping")}},
		},
	})
	if err != nil {
		return fmt.Errorf("Claude health check failed: %w", err)
	}
	if resp.Text() == "" {
		return fmt.Errorf("Claude probe returned empty response")
	}
	return nil
}

// Close releases resources and performs cleanup operations.
func (s *ClaudeService) Close() error {
	s.logger.Debug().Msg("Closing Claude completion service")
	return nil
}

func (s *ClaudeService) buildParams(req *interfaces.CompletionRequest) (anthropic.MessageNewParams, error) {
	messages, err := convertMessagesToClaude(req.Messages)
	if err != nil {
		return anthropic.MessageNewParams{}, err
	}

	model := req.Model
	if model == "" {
		model = s.config.Model
	}
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.config.MaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(model),
		MaxTokens:   int64(maxTokens),
		Messages:    messages,
		Temperature: anthropic.Float(req.Temperature),
	}

	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	if len(req.Tools) > 0 {
		params.Tools = convertToolsToClaude(req.Tools)
		if req.ToolChoice == interfaces.ToolChoiceAuto {
			params.ToolChoice = anthropic.ToolChoiceUnionParam{
				OfAuto: &anthropic.ToolChoiceAutoParam{},
			}
		}
	}

	return params, nil
}

// convertMessagesToClaude maps completion messages onto Claude message params,
// preserving block order within each message.
func convertMessagesToClaude(messages []interfaces.CompletionMessage) ([]anthropic.MessageParam, error) {
	claudeMessages := make([]anthropic.MessageParam, 0, len(messages))
	for i, msg := range messages {
		blocks := make([]anthropic.ContentBlockParamUnion, 0, len(msg.Content))
		for _, block := range msg.Content {
			switch block.Type {
			case interfaces.BlockTypeText:
				blocks = append(blocks, anthropic.NewTextBlock(block.Text))
			case interfaces.BlockTypeToolUse:
				input := block.Input
				if input == nil {
					input = map[string]any{}
				}
				blocks = append(blocks, anthropic.NewToolUseBlock(block.ToolUseID, input, block.ToolName))
			case interfaces.BlockTypeToolResult:
				blocks = append(blocks, anthropic.NewToolResultBlock(block.ToolUseID, block.Text, block.IsError))
			default:
				return nil, fmt.Errorf("message %d: unsupported content block type %q", i, block.Type)
			}
		}
		if len(blocks) == 0 {
			return nil, fmt.Errorf("message %d has no content", i)
		}

		switch msg.Role {
		case interfaces.RoleAssistant:
			claudeMessages = append(claudeMessages, anthropic.NewAssistantMessage(blocks...))
		case interfaces.RoleUser:
			claudeMessages = append(claudeMessages, anthropic.NewUserMessage(blocks...))
		default:
			return nil, fmt.Errorf("message %d: unsupported role %q", i, msg.Role)
		}
	}
	return claudeMessages, nil
}

func convertToolsToClaude(definitions []models.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(definitions))
	for _, def := range definitions {
		tools = append(tools, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: def.InputSchema.Properties,
					Required:   def.InputSchema.Required,
				},
			},
		})
	}
	return tools
}

func convertClaudeResponse(resp *anthropic.Message) (*interfaces.CompletionResponse, error) {
	response := &interfaces.CompletionResponse{
		StopReason: interfaces.StopReason(resp.StopReason),
		Content:    make([]interfaces.ContentBlock, 0, len(resp.Content)),
	}

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			response.Content = append(response.Content, interfaces.TextBlock(block.Text))
		case "tool_use":
			input := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &input); err != nil {
					return nil, fmt.Errorf("failed to decode input of tool %s: %w", block.Name, err)
				}
			}
			response.Content = append(response.Content, interfaces.ContentBlock{
				Type:      interfaces.BlockTypeToolUse,
				ToolUseID: block.ID,
				ToolName:  block.Name,
				Input:     input,
			})
		}
	}

	return response, nil
}

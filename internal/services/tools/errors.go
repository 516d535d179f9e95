package tools

import "errors"

// Sentinel errors for registration and dispatch.
var (
	ErrInvalidToolDefinition = errors.New("invalid tool definition")
	ErrDuplicateTool         = errors.New("tool already registered")
	ErrToolExecution         = errors.New("tool execution failed")
)

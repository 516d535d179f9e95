package interfaces

import (
	"context"

	"github.com/ternarybob/syllabus/internal/models"
)

// Tool is a capability the model can call during a completion round.
type Tool interface {
	// Definition returns the tool's schema.
	Definition() models.ToolDefinition

	// Execute runs the tool with the model-supplied arguments. Soft
	// failures (nothing found, bad arguments) are reported in the result;
	// a returned error means the tool itself is broken.
	Execute(ctx context.Context, args map[string]any) (*models.ToolResult, error)
}

// ToolDispatcher executes tools by name on behalf of the orchestrator.
type ToolDispatcher interface {
	Definitions() []models.ToolDefinition
	Dispatch(ctx context.Context, name string, args map[string]any) (*models.ToolResult, error)
}

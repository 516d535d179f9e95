package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
)

// Registry is a name-keyed directory of tools. It lists definitions in
// registration order, dispatches calls and remembers the sources each tool
// produced on its most recent call.
//
// Per-request sources travel in the returned ToolResult; the remembered
// sources serve callers that only want "whatever the last run found".
type Registry struct {
	mu          sync.RWMutex
	tools       map[string]interfaces.Tool
	order       []string
	lastSources map[string][]models.Source
	logger      arbor.ILogger
}

// NewRegistry creates an empty tool registry
func NewRegistry(logger arbor.ILogger) *Registry {
	return &Registry{
		tools:       make(map[string]interfaces.Tool),
		lastSources: make(map[string][]models.Source),
		logger:      logger,
	}
}

// Register adds a tool under its definition name
func (r *Registry) Register(tool interfaces.Tool) error {
	def := tool.Definition()
	if err := def.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidToolDefinition, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, def.Name)
	}
	r.tools[def.Name] = tool
	r.order = append(r.order, def.Name)

	r.logger.Debug().Str("tool", def.Name).Msg("Registered tool")
	return nil
}

// Get returns the tool registered under name
func (r *Registry) Get(name string) (interfaces.Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}

// Definitions returns every tool schema in registration order
func (r *Registry) Definitions() []models.ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]models.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Dispatch executes the named tool. An unknown name is a soft failure
// reported as text; a failing tool is a hard error wrapping ErrToolExecution.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (*models.ToolResult, error) {
	tool, ok := r.Get(name)
	if !ok {
		r.logger.Warn().Str("tool", name).Msg("Model requested unknown tool")
		return models.TextResult(fmt.Sprintf("Tool '%s' not found", name)), nil
	}

	result, err := tool.Execute(ctx, args)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrToolExecution, name, err)
	}
	if result == nil {
		result = models.TextResult("")
	}

	r.mu.Lock()
	r.lastSources[name] = append([]models.Source(nil), result.Sources...)
	r.mu.Unlock()

	return result, nil
}

// CollectSources concatenates every tool's last sources in registration order
func (r *Registry) CollectSources() []models.Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := []models.Source{}
	for _, name := range r.order {
		sources = append(sources, r.lastSources[name]...)
	}
	return sources
}

// ResetSources forgets every tool's last sources
func (r *Registry) ResetSources() {
	r.mu.Lock()
	defer r.mu.Unlock()
	clear(r.lastSources)
}

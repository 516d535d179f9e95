package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/models"
	"github.com/ternarybob/syllabus/internal/services/vectorstore"
)

// SearchToolName is the name the model uses to call the content search tool
const SearchToolName = "search_course_content"

// ContentSearcher is the part of the semantic store the search tool needs
type ContentSearcher interface {
	Search(ctx context.Context, query vectorstore.SearchQuery) *models.SearchResults
	GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, bool)
}

type searchArgs struct {
	Query        string `json:"query" validate:"required"`
	CourseName   string `json:"course_name,omitempty"`
	LessonNumber *int   `json:"lesson_number,omitempty" validate:"omitempty,gte=0"`
}

// SearchTool searches course content with optional course and lesson filters
type SearchTool struct {
	store  ContentSearcher
	logger arbor.ILogger
}

// NewSearchTool creates a content search tool over the given store
func NewSearchTool(store ContentSearcher, logger arbor.ILogger) *SearchTool {
	return &SearchTool{store: store, logger: logger}
}

// Definition returns the tool schema
func (t *SearchTool) Definition() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        SearchToolName,
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: models.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "What to search for in the course content",
				},
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": map[string]any{
					"type":        "integer",
					"description": "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

// Execute runs the search and formats hits for the model
func (t *SearchTool) Execute(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
	var params searchArgs
	if err := decodeArgs(args, &params); err != nil {
		return models.ErrorResult(err.Error()), nil
	}

	results := t.store.Search(ctx, vectorstore.SearchQuery{
		Query:        params.Query,
		CourseName:   params.CourseName,
		LessonNumber: params.LessonNumber,
	})

	if results.HasError() {
		return models.TextResult(results.Error), nil
	}

	if results.IsEmpty() {
		var filterInfo strings.Builder
		if params.CourseName != "" {
			fmt.Fprintf(&filterInfo, " in course '%s'", params.CourseName)
		}
		if params.LessonNumber != nil {
			fmt.Fprintf(&filterInfo, " in lesson %d", *params.LessonNumber)
		}
		return models.TextResult(fmt.Sprintf("No relevant content found%s.", filterInfo.String())), nil
	}

	result := t.formatResults(ctx, results)

	t.logger.Debug().
		Str("query", params.Query).
		Int("results", len(results.Documents)).
		Int("sources", len(result.Sources)).
		Msg("Course content search completed")

	return result, nil
}

// formatResults renders each hit under a "[course - Lesson n]" header and
// builds one source per hit.
func (t *SearchTool) formatResults(ctx context.Context, results *models.SearchResults) *models.ToolResult {
	blocks := make([]string, 0, len(results.Documents))
	sources := make([]models.Source, 0, len(results.Documents))

	for i, doc := range results.Documents {
		var metadata map[string]any
		if i < len(results.Metadata) {
			metadata = results.Metadata[i]
		}

		courseTitle, _ := metadata[vectorstore.FieldCourseTitle].(string)
		if courseTitle == "" {
			courseTitle = "unknown"
		}
		lessonNumber, hasLesson := intValue(metadata[vectorstore.FieldLessonNumber])

		label := courseTitle
		if hasLesson {
			label = fmt.Sprintf("%s - Lesson %d", courseTitle, lessonNumber)
		}
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, doc))

		source := models.Source{Text: label}
		if hasLesson {
			if link, ok := t.store.GetLessonLink(ctx, courseTitle, lessonNumber); ok {
				source.URL = link
			}
		}
		sources = append(sources, source)
	}

	return &models.ToolResult{
		Content: strings.Join(blocks, "\n\n"),
		Sources: sources,
	}
}

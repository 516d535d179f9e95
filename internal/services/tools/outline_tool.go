package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/models"
)

// OutlineToolName is the name the model uses to call the course outline tool
const OutlineToolName = "get_course_outline"

// CourseCatalog is the part of the semantic store the outline tool needs
type CourseCatalog interface {
	ResolveCourseName(ctx context.Context, courseName string) (string, bool)
	GetCourseMetadata(ctx context.Context, title string) (*models.CourseMetadata, bool, error)
}

type outlineArgs struct {
	CourseName string `json:"course_name" validate:"required"`
}

// OutlineTool returns a course's title, link and numbered lesson list
type OutlineTool struct {
	catalog CourseCatalog
	logger  arbor.ILogger
}

// NewOutlineTool creates a course outline tool over the given catalog
func NewOutlineTool(catalog CourseCatalog, logger arbor.ILogger) *OutlineTool {
	return &OutlineTool{catalog: catalog, logger: logger}
}

// Definition returns the tool schema
func (t *OutlineTool) Definition() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        OutlineToolName,
		Description: "Get the complete outline of a course: title, course link and every lesson with its number and title",
		InputSchema: models.ToolInputSchema{
			Type: "object",
			Properties: map[string]any{
				"course_name": map[string]any{
					"type":        "string",
					"description": "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
			},
			Required: []string{"course_name"},
		},
	}
}

// Execute resolves the course and renders its outline
func (t *OutlineTool) Execute(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
	var params outlineArgs
	if err := decodeArgs(args, &params); err != nil {
		return models.ErrorResult(err.Error()), nil
	}

	title, ok := t.catalog.ResolveCourseName(ctx, params.CourseName)
	if !ok {
		return models.TextResult(fmt.Sprintf("No course found matching '%s'", params.CourseName)), nil
	}

	course, found, err := t.catalog.GetCourseMetadata(ctx, title)
	if err != nil {
		t.logger.Warn().Err(err).Str("course", title).Msg("Failed to load course outline")
		return models.ErrorResult(fmt.Sprintf("Outline error: %s", err.Error())), nil
	}
	if !found {
		return models.TextResult(fmt.Sprintf("Course metadata not found for '%s'", title)), nil
	}

	lessons := slices.Clone(course.Lessons)
	slices.SortStableFunc(lessons, func(a, b models.LessonMetadata) int {
		return a.LessonNumber - b.LessonNumber
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "Course: %s\n", course.Title)
	if course.CourseLink != "" {
		fmt.Fprintf(&sb, "Course Link: %s\n", course.CourseLink)
	}
	fmt.Fprintf(&sb, "Lessons (%d total):", len(lessons))
	for _, lesson := range lessons {
		fmt.Fprintf(&sb, "\n%d. %s", lesson.LessonNumber, lesson.LessonTitle)
	}

	return &models.ToolResult{
		Content: sb.String(),
		Sources: []models.Source{{Text: course.Title, URL: course.CourseLink}},
	}, nil
}

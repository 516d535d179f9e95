package interfaces

import (
	"context"

	"github.com/ternarybob/syllabus/internal/models"
)

// QueryService answers questions about the course corpus and owns the
// ingestion entry points used at startup and by the CLI.
type QueryService interface {
	// Query answers a question, optionally continuing an existing session.
	Query(ctx context.Context, question string, sessionID string) (string, []models.Source, error)

	// CourseAnalytics summarises the catalog.
	CourseAnalytics(ctx context.Context) (*models.CourseAnalytics, error)

	// AddCourseDocument ingests a single course file.
	AddCourseDocument(ctx context.Context, path string) (*models.Course, int, error)

	// AddCourseFolder ingests every supported file in dir, skipping courses
	// that are already present.
	AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (int, int, error)
}

// SessionService keeps short conversation histories keyed by session id.
type SessionService interface {
	CreateSession() string
	AddExchange(sessionID, userMessage, assistantMessage string)
	GetConversationHistory(sessionID string) (string, bool)
	ClearSession(sessionID string)
}

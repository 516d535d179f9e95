package vectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
)

const (
	// CatalogCollection holds one entry per course, keyed by title
	CatalogCollection = "course_catalog"
	// ContentCollection holds one entry per course chunk
	ContentCollection = "course_content"
)

// Metadata field names shared by the store and its filters
const (
	FieldTitle        = "title"
	FieldInstructor   = "instructor"
	FieldCourseLink   = "course_link"
	FieldLessonCount  = "lesson_count"
	FieldLessonsJSON  = "lessons_json"
	FieldCourseTitle  = "course_title"
	FieldLessonNumber = "lesson_number"
	FieldChunkIndex   = "chunk_index"
)

// SearchQuery is one content search. CourseName is a fuzzy course reference
// resolved against the catalog; LessonNumber restricts hits to one lesson.
type SearchQuery struct {
	Query        string
	CourseName   string
	LessonNumber *int
	Limit        int // 0 uses the store's max results
}

// Store is the semantic store over the catalog and content collections.
// It is safe for concurrent use; ClearAllData swaps collection handles under
// a write lock.
type Store struct {
	storage    interfaces.VectorStorage
	maxResults int
	logger     arbor.ILogger

	mu      sync.RWMutex
	catalog interfaces.VectorCollection
	content interfaces.VectorCollection
}

// NewStore opens (creating if needed) both collections
func NewStore(ctx context.Context, storage interfaces.VectorStorage, maxResults int, logger arbor.ILogger) (*Store, error) {
	if maxResults <= 0 {
		maxResults = 5
	}

	s := &Store{
		storage:    storage,
		maxResults: maxResults,
		logger:     logger,
	}
	if err := s.openCollections(ctx); err != nil {
		return nil, err
	}

	logger.Debug().Int("max_results", maxResults).Msg("Semantic store initialized")
	return s, nil
}

func (s *Store) openCollections(ctx context.Context) error {
	catalog, err := s.storage.Collection(ctx, CatalogCollection)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", CatalogCollection, err)
	}
	content, err := s.storage.Collection(ctx, ContentCollection)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", ContentCollection, err)
	}
	s.catalog = catalog
	s.content = content
	return nil
}

func (s *Store) collections() (interfaces.VectorCollection, interfaces.VectorCollection) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog, s.content
}

// MaxResults returns the configured number of content hits per search
func (s *Store) MaxResults() int {
	return s.maxResults
}

// Search runs one semantic search over course content. It never returns a Go
// error: resolution and storage failures are reported in SearchResults.Error.
func (s *Store) Search(ctx context.Context, query SearchQuery) *models.SearchResults {
	courseTitle := ""
	if query.CourseName != "" {
		title, ok := s.ResolveCourseName(ctx, query.CourseName)
		if !ok {
			return models.EmptySearchResults(fmt.Sprintf("No course found matching '%s'", query.CourseName))
		}
		courseTitle = title
	}

	limit := query.Limit
	if limit <= 0 {
		limit = s.maxResults
	}

	_, content := s.collections()
	result, err := content.Query(ctx, query.Query, limit, BuildFilter(courseTitle, query.LessonNumber))
	if err != nil {
		s.logger.Warn().Err(err).Str("query", query.Query).Msg("Content search failed")
		return models.EmptySearchResults(fmt.Sprintf("Search error: %s", err.Error()))
	}

	return models.NewSearchResults(result)
}

// ResolveCourseName maps a fuzzy course reference onto the closest catalog
// title. The nearest entry always wins; there is no distance cut-off.
func (s *Store) ResolveCourseName(ctx context.Context, courseName string) (string, bool) {
	catalog, _ := s.collections()
	result, err := catalog.Query(ctx, courseName, 1, nil)
	if err != nil {
		s.logger.Warn().Err(err).Str("course_name", courseName).Msg("Course name resolution failed")
		return "", false
	}
	if result.Len() == 0 {
		return "", false
	}

	title, ok := result.Metadatas[0][FieldTitle].(string)
	if !ok || title == "" {
		return "", false
	}

	s.logger.Debug().Str("course_name", courseName).Str("resolved", title).Msg("Resolved course name")
	return title, true
}

// BuildFilter composes the content filter for an optional course title and
// lesson number. It returns nil when neither is given.
func BuildFilter(courseTitle string, lessonNumber *int) models.MetadataFilter {
	switch {
	case courseTitle == "" && lessonNumber == nil:
		return nil
	case lessonNumber == nil:
		return models.Equals{Field: FieldCourseTitle, Value: courseTitle}
	case courseTitle == "":
		return models.Equals{Field: FieldLessonNumber, Value: *lessonNumber}
	default:
		return models.And{
			models.Equals{Field: FieldCourseTitle, Value: courseTitle},
			models.Equals{Field: FieldLessonNumber, Value: *lessonNumber},
		}
	}
}

// AddCourseMetadata writes the catalog entry for a course, replacing any
// entry with the same title.
func (s *Store) AddCourseMetadata(ctx context.Context, course *models.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("invalid course: %w", err)
	}

	lessons := make([]models.LessonMetadata, 0, len(course.Lessons))
	for _, lesson := range course.Lessons {
		lessons = append(lessons, models.LessonMetadata{
			LessonNumber: lesson.LessonNumber,
			LessonTitle:  lesson.Title,
			LessonLink:   lesson.LessonLink,
		})
	}
	lessonsJSON, err := json.Marshal(lessons)
	if err != nil {
		return fmt.Errorf("failed to serialize lessons of %s: %w", course.Title, err)
	}

	record := models.VectorRecord{
		ID:       course.Title,
		Document: course.Title,
		Metadata: map[string]any{
			FieldTitle:       course.Title,
			FieldInstructor:  course.Instructor,
			FieldCourseLink:  course.CourseLink,
			FieldLessonCount: len(course.Lessons),
			FieldLessonsJSON: string(lessonsJSON),
		},
	}

	catalog, _ := s.collections()
	if err := catalog.Upsert(ctx, []models.VectorRecord{record}); err != nil {
		return fmt.Errorf("failed to add course metadata for %s: %w", course.Title, err)
	}
	return nil
}

// AddCourseContent writes one content entry per chunk. An empty slice is a no-op.
func (s *Store) AddCourseContent(ctx context.Context, chunks []models.CourseChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	records := make([]models.VectorRecord, 0, len(chunks))
	for _, chunk := range chunks {
		if err := chunk.Validate(); err != nil {
			return fmt.Errorf("invalid chunk %d: %w", chunk.ChunkIndex, err)
		}
		metadata := map[string]any{
			FieldCourseTitle: chunk.CourseTitle,
			FieldChunkIndex:  chunk.ChunkIndex,
		}
		if chunk.LessonNumber != nil {
			metadata[FieldLessonNumber] = *chunk.LessonNumber
		}
		records = append(records, models.VectorRecord{
			ID:       chunk.ID(),
			Document: chunk.Content,
			Metadata: metadata,
		})
	}

	_, content := s.collections()
	if err := content.Upsert(ctx, records); err != nil {
		return fmt.Errorf("failed to add course content: %w", err)
	}
	return nil
}

// GetExistingCourseTitles returns every catalog title
func (s *Store) GetExistingCourseTitles(ctx context.Context) ([]string, error) {
	catalog, _ := s.collections()
	records, err := catalog.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}

	titles := make([]string, 0, len(records))
	for _, record := range records {
		titles = append(titles, record.ID)
	}
	return titles, nil
}

// GetCourseCount returns the number of catalog entries
func (s *Store) GetCourseCount(ctx context.Context) (int, error) {
	catalog, _ := s.collections()
	count, err := catalog.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count courses: %w", err)
	}
	return count, nil
}

// GetAllCoursesMetadata returns every catalog entry with its lessons expanded
func (s *Store) GetAllCoursesMetadata(ctx context.Context) ([]models.CourseMetadata, error) {
	catalog, _ := s.collections()
	records, err := catalog.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load course metadata: %w", err)
	}

	courses := make([]models.CourseMetadata, 0, len(records))
	for _, record := range records {
		metadata, err := courseMetadataFromRecord(record)
		if err != nil {
			s.logger.Warn().Err(err).Str("course", record.ID).Msg("Skipping unreadable catalog entry")
			continue
		}
		courses = append(courses, metadata)
	}
	return courses, nil
}

// GetCourseMetadata returns the catalog entry for an exact course title
func (s *Store) GetCourseMetadata(ctx context.Context, title string) (*models.CourseMetadata, bool, error) {
	catalog, _ := s.collections()
	records, err := catalog.Get(ctx, title)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load course %s: %w", title, err)
	}
	if len(records) == 0 {
		return nil, false, nil
	}

	metadata, err := courseMetadataFromRecord(records[0])
	if err != nil {
		return nil, false, err
	}
	return &metadata, true, nil
}

// GetLessonLink returns the link of one lesson, if the course has it on record
func (s *Store) GetLessonLink(ctx context.Context, courseTitle string, lessonNumber int) (string, bool) {
	metadata, ok, err := s.GetCourseMetadata(ctx, courseTitle)
	if err != nil {
		s.logger.Warn().Err(err).Str("course", courseTitle).Msg("Failed to look up lesson link")
		return "", false
	}
	if !ok {
		return "", false
	}

	for _, lesson := range metadata.Lessons {
		if lesson.LessonNumber == lessonNumber {
			return lesson.LessonLink, lesson.LessonLink != ""
		}
	}
	return "", false
}

// ClearAllData deletes and recreates both collections
func (s *Store) ClearAllData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, name := range []string{CatalogCollection, ContentCollection} {
		if err := s.storage.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to clear %s: %w", name, err)
		}
	}
	if err := s.openCollections(ctx); err != nil {
		return err
	}

	s.logger.Info().Msg("Cleared all course data")
	return nil
}

func courseMetadataFromRecord(record models.VectorRecord) (models.CourseMetadata, error) {
	metadata := models.CourseMetadata{
		Title:      stringValue(record.Metadata[FieldTitle]),
		Instructor: stringValue(record.Metadata[FieldInstructor]),
		CourseLink: stringValue(record.Metadata[FieldCourseLink]),
		Lessons:    []models.LessonMetadata{},
	}
	if metadata.Title == "" {
		metadata.Title = record.ID
	}

	if raw := stringValue(record.Metadata[FieldLessonsJSON]); raw != "" {
		if err := json.Unmarshal([]byte(raw), &metadata.Lessons); err != nil {
			return models.CourseMetadata{}, fmt.Errorf("failed to parse lessons of %s: %w", record.ID, err)
		}
	}

	if count, ok := intValue(record.Metadata[FieldLessonCount]); ok {
		metadata.LessonCount = count
	} else {
		metadata.LessonCount = len(metadata.Lessons)
	}
	return metadata, nil
}

func stringValue(v any) string {
	s, _ := v.(string)
	return s
}

func intValue(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	default:
		return 0, false
	}
}

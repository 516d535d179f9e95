package chat

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/interfaces"
	"github.com/ternarybob/syllabus/internal/models"
	"github.com/ternarybob/syllabus/internal/services/metrics"
	"github.com/ternarybob/syllabus/internal/services/workers"
)

// CourseStore is the part of the semantic store used for ingestion and analytics
type CourseStore interface {
	AddCourseMetadata(ctx context.Context, course *models.Course) error
	AddCourseContent(ctx context.Context, chunks []models.CourseChunk) error
	GetExistingCourseTitles(ctx context.Context) ([]string, error)
	GetCourseCount(ctx context.Context) (int, error)
	ClearAllData(ctx context.Context) error
}

// ToolRegistry dispatches tools and tracks the sources of the latest run
type ToolRegistry interface {
	interfaces.ToolDispatcher
	ResetSources()
}

// DocumentProcessor parses course files
type DocumentProcessor interface {
	Supports(path string) bool
	ProcessFile(ctx context.Context, path string) (*models.Course, []models.CourseChunk, error)
}

var _ interfaces.QueryService = (*QueryService)(nil)

// QueryService answers questions through the generator and ingests course files
type QueryService struct {
	store     CourseStore
	registry  ToolRegistry
	generator *Generator
	sessions  interfaces.SessionService
	processor DocumentProcessor
	metrics   *metrics.Metrics
	workers   int
	logger    arbor.ILogger
}

// NewQueryService wires the query pipeline. m may be nil.
func NewQueryService(
	store CourseStore,
	registry ToolRegistry,
	generator *Generator,
	sessions interfaces.SessionService,
	processor DocumentProcessor,
	m *metrics.Metrics,
	logger arbor.ILogger,
) *QueryService {
	return &QueryService{
		store:     store,
		registry:  registry,
		generator: generator,
		sessions:  sessions,
		processor: processor,
		metrics:   m,
		workers:   4,
		logger:    logger,
	}
}

// Query answers a question, continuing sessionID's conversation when given
func (s *QueryService) Query(ctx context.Context, question string, sessionID string) (string, []models.Source, error) {
	gen, err := s.Answer(ctx, question, sessionID, nil)
	if err != nil {
		return "", nil, err
	}
	return gen.Answer, gen.Sources, nil
}

// Answer is Query with the full generation and optional progress events
func (s *QueryService) Answer(ctx context.Context, question string, sessionID string, onEvent func(*StreamEvent)) (*Generation, error) {
	startTime := time.Now()
	defer s.registry.ResetSources()

	var history string
	if sessionID != "" {
		history, _ = s.sessions.GetConversationHistory(sessionID)
	}

	gen, err := s.generator.Generate(ctx, &GenerateRequest{
		Query:      QueryPrefix + question,
		History:    history,
		Tools:      s.registry.Definitions(),
		Dispatcher: s.registry,
		OnEvent:    onEvent,
	})
	if err != nil {
		s.metrics.ObserveQuery(metrics.StatusError, time.Since(startTime), 0)
		s.logger.Error().Err(err).Str("session_id", sessionID).Msg("Query failed")
		return nil, fmt.Errorf("failed to answer query: %w", err)
	}

	for _, call := range gen.ToolCalls {
		s.metrics.IncToolCall(call.Name)
	}
	s.metrics.ObserveQuery(metrics.StatusOK, time.Since(startTime), gen.Rounds)

	if sessionID != "" {
		s.sessions.AddExchange(sessionID, question, gen.Answer)
	}

	s.logger.Info().
		Str("session_id", sessionID).
		Int("rounds", gen.Rounds).
		Int("sources", len(gen.Sources)).
		Dur("duration", time.Since(startTime)).
		Msg("Query answered")

	return gen, nil
}

// CourseAnalytics returns the catalog size and titles
func (s *QueryService) CourseAnalytics(ctx context.Context) (*models.CourseAnalytics, error) {
	count, err := s.store.GetCourseCount(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count courses: %w", err)
	}
	titles, err := s.store.GetExistingCourseTitles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list courses: %w", err)
	}
	s.metrics.SetCourseCount(count)
	return &models.CourseAnalytics{TotalCourses: count, CourseTitles: titles}, nil
}

// AddCourseDocument ingests one course file and returns the course and its chunk count
func (s *QueryService) AddCourseDocument(ctx context.Context, path string) (*models.Course, int, error) {
	course, chunks, err := s.processor.ProcessFile(ctx, path)
	if err != nil {
		return nil, 0, err
	}
	if err := s.storeCourse(ctx, course, chunks); err != nil {
		return nil, 0, err
	}
	s.metrics.AddIngested(1, len(chunks))
	return course, len(chunks), nil
}

type parsedFile struct {
	path   string
	course *models.Course
	chunks []models.CourseChunk
}

// AddCourseFolder ingests every supported file in dir. Files are parsed in
// parallel and stored in directory order; courses whose title is already in
// the catalog are skipped. A missing dir is not an error.
func (s *QueryService) AddCourseFolder(ctx context.Context, dir string, clearExisting bool) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn().Str("dir", dir).Msg("Course folder does not exist")
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read course folder %s: %w", dir, err)
	}

	if clearExisting {
		s.logger.Info().Msg("Clearing existing course data")
		if err := s.store.ClearAllData(ctx); err != nil {
			return 0, 0, fmt.Errorf("failed to clear existing data: %w", err)
		}
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if s.processor.Supports(path) {
			paths = append(paths, path)
		}
	}

	parsed, err := s.parseFiles(ctx, paths)
	if err != nil {
		return 0, 0, err
	}

	titles, err := s.store.GetExistingCourseTitles(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to list existing courses: %w", err)
	}
	existing := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		existing[title] = struct{}{}
	}

	totalCourses, totalChunks := 0, 0
	for _, file := range parsed {
		if file.course == nil {
			continue
		}
		if _, ok := existing[file.course.Title]; ok {
			s.logger.Debug().Str("course", file.course.Title).Msg("Course already exists, skipping")
			continue
		}
		if err := s.storeCourse(ctx, file.course, file.chunks); err != nil {
			return totalCourses, totalChunks, fmt.Errorf("failed to store %s: %w", file.path, err)
		}
		existing[file.course.Title] = struct{}{}
		totalCourses++
		totalChunks += len(file.chunks)
	}

	s.metrics.AddIngested(totalCourses, totalChunks)
	if count, err := s.store.GetCourseCount(ctx); err == nil {
		s.metrics.SetCourseCount(count)
	}

	s.logger.Info().
		Str("dir", dir).
		Int("files", len(paths)).
		Int("courses", totalCourses).
		Int("chunks", totalChunks).
		Msg("Course folder ingested")

	return totalCourses, totalChunks, nil
}

// parseFiles parses paths on the worker pool. Files that fail to parse are
// logged and left with a nil course. Cancellation stops the pool and is
// returned as an error.
func (s *QueryService) parseFiles(ctx context.Context, paths []string) ([]parsedFile, error) {
	parsed := make([]parsedFile, len(paths))
	if len(paths) == 0 {
		return parsed, nil
	}

	pool := workers.NewPool(ctx, min(s.workers, len(paths)), s.logger)
	pool.Start()
	for i, path := range paths {
		parsed[i].path = path
		err := pool.Submit(func(ctx context.Context) error {
			course, chunks, err := s.processor.ProcessFile(ctx, path)
			if err != nil {
				return err
			}
			parsed[i].course = course
			parsed[i].chunks = chunks
			return nil
		})
		if err != nil {
			pool.Shutdown()
			return nil, fmt.Errorf("course folder ingestion interrupted: %w", err)
		}
	}
	if err := pool.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("Some course files could not be processed")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("course folder ingestion interrupted: %w", err)
	}
	return parsed, nil
}

func (s *QueryService) storeCourse(ctx context.Context, course *models.Course, chunks []models.CourseChunk) error {
	if err := s.store.AddCourseMetadata(ctx, course); err != nil {
		return fmt.Errorf("failed to add course metadata: %w", err)
	}
	if err := s.store.AddCourseContent(ctx, chunks); err != nil {
		return fmt.Errorf("failed to add course content: %w", err)
	}
	return nil
}

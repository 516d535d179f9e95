package documents

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/syllabus/internal/common"
	"github.com/ternarybob/syllabus/internal/models"
)

var (
	// ErrUnsupportedFile is returned for files whose extension is not ingested
	ErrUnsupportedFile = errors.New("unsupported course file")
	// ErrEmptyDocument is returned for documents with neither lessons nor text
	ErrEmptyDocument = errors.New("course document has no content")
)

var lessonMarker = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

// header prefixes, matched case-insensitively
const (
	prefixTitle      = "course title:"
	prefixLink       = "course link:"
	prefixInstructor = "course instructor:"
	prefixLessonLink = "lesson link:"
)

// Processor turns course files into a Course and its content chunks
type Processor struct {
	chunkSize    int
	chunkOverlap int
	extensions   []string
	logger       arbor.ILogger
}

// NewProcessor creates a processor from the retrieval and docs settings
func NewProcessor(retrieval *common.RetrievalConfig, docs *common.DocsConfig, logger arbor.ILogger) *Processor {
	extensions := make([]string, 0, len(docs.Extensions))
	for _, ext := range docs.Extensions {
		extensions = append(extensions, strings.ToLower(ext))
	}
	return &Processor{
		chunkSize:    retrieval.ChunkSize,
		chunkOverlap: retrieval.ChunkOverlap,
		extensions:   extensions,
		logger:       logger,
	}
}

// Supports reports whether path has an ingestible extension
func (p *Processor) Supports(path string) bool {
	return slices.Contains(p.extensions, strings.ToLower(filepath.Ext(path)))
}

// ProcessFile reads and parses a course file
func (p *Processor) ProcessFile(ctx context.Context, path string) (*models.Course, []models.CourseChunk, error) {
	if !p.Supports(path) {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	fallbackTitle := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	course, chunks, err := p.Parse(string(data), fallbackTitle)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	p.logger.Debug().
		Str("path", path).
		Str("course", course.Title).
		Int("lessons", len(course.Lessons)).
		Int("chunks", len(chunks)).
		Msg("Processed course file")

	return course, chunks, nil
}

type lessonBuffer struct {
	lesson models.Lesson
	lines  []string
}

// Parse reads a course document:
//
//	Course Title: <title>
//	Course Link: <url>
//	Course Instructor: <name>
//
//	Lesson 0: <title>
//	Lesson Link: <url>
//	<lesson text>
//
// A first line without the title prefix is taken as the title; fallbackTitle
// is used when the document has none at all.
func (p *Processor) Parse(text, fallbackTitle string) (*models.Course, []models.CourseChunk, error) {
	course := &models.Course{Lessons: []models.Lesson{}}

	var (
		preamble []string
		lessons  []*lessonBuffer
		current  *lessonBuffer
		header   = true
		first    = true
	)

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if header {
			lower := strings.ToLower(line)
			switch {
			case line == "":
				continue
			case strings.HasPrefix(lower, prefixTitle):
				course.Title = strings.TrimSpace(line[len(prefixTitle):])
				first = false
				continue
			case strings.HasPrefix(lower, prefixLink):
				course.CourseLink = strings.TrimSpace(line[len(prefixLink):])
				first = false
				continue
			case strings.HasPrefix(lower, prefixInstructor):
				course.Instructor = strings.TrimSpace(line[len(prefixInstructor):])
				first = false
				continue
			case first && !lessonMarker.MatchString(line):
				course.Title = line
				first = false
				continue
			}
			header = false
		}

		if m := lessonMarker.FindStringSubmatch(line); m != nil {
			number, err := strconv.Atoi(m[1])
			if err != nil {
				return nil, nil, fmt.Errorf("invalid lesson number %q: %w", m[1], err)
			}
			current = &lessonBuffer{lesson: models.Lesson{LessonNumber: number, Title: strings.TrimSpace(m[2])}}
			lessons = append(lessons, current)
			continue
		}

		if current != nil {
			lower := strings.ToLower(line)
			if len(current.lines) == 0 && current.lesson.LessonLink == "" && strings.HasPrefix(lower, prefixLessonLink) {
				current.lesson.LessonLink = strings.TrimSpace(line[len(prefixLessonLink):])
				continue
			}
			current.lines = append(current.lines, line)
			continue
		}
		preamble = append(preamble, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to scan document: %w", err)
	}

	if course.Title == "" {
		course.Title = fallbackTitle
	}
	if err := course.Validate(); err != nil {
		return nil, nil, err
	}

	var chunks []models.CourseChunk
	addChunk := func(lessonNumber *int, content string) {
		chunks = append(chunks, models.CourseChunk{
			CourseTitle:  course.Title,
			LessonNumber: lessonNumber,
			ChunkIndex:   len(chunks),
			Content:      content,
		})
	}

	for _, piece := range ChunkText(joinLines(preamble), p.chunkSize, p.chunkOverlap) {
		addChunk(nil, piece)
	}

	for _, lb := range lessons {
		course.Lessons = append(course.Lessons, lb.lesson)
		for i, piece := range ChunkText(joinLines(lb.lines), p.chunkSize, p.chunkOverlap) {
			if i == 0 {
				piece = fmt.Sprintf("Lesson %d content: %s", lb.lesson.LessonNumber, piece)
			}
			addChunk(models.IntPtr(lb.lesson.LessonNumber), piece)
		}
	}

	if len(chunks) == 0 && len(course.Lessons) == 0 {
		return nil, nil, ErrEmptyDocument
	}

	return course, chunks, nil
}

func joinLines(lines []string) string {
	return strings.TrimSpace(strings.Join(lines, " "))
}

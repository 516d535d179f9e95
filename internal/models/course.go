package models

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
)

// Course is a single course in the corpus. Title is the natural key and is
// used as the catalog entry id, so titles must be unique.
type Course struct {
	Title      string   `json:"title" validate:"required"`
	Instructor string   `json:"instructor,omitempty"`
	CourseLink string   `json:"course_link,omitempty"`
	Lessons    []Lesson `json:"lessons" validate:"dive"`
}

// Lesson is one numbered lesson within a course.
type Lesson struct {
	LessonNumber int    `json:"lesson_number" validate:"gte=0"`
	Title        string `json:"title"`
	LessonLink   string `json:"lesson_link,omitempty"`
}

// CourseChunk is the unit of retrieval: a bounded slice of course text.
// LessonNumber is nil for course-level text that precedes any lesson.
type CourseChunk struct {
	CourseTitle  string `json:"course_title" validate:"required"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index" validate:"gte=0"`
	Content      string `json:"content"`
}

var nonAlphanumeric = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// ID returns the derived content id "<title>_<chunk_index>", see NormalizeTitle.
func (c CourseChunk) ID() string {
	return fmt.Sprintf("%s_%d", NormalizeTitle(c.CourseTitle), c.ChunkIndex)
}

// NormalizeTitle makes a course title safe for use inside a storage id.
// Titles made of letter and number words separated by single spaces map to
// the words joined by underscores ("Test Course" -> "Test_Course"). Any other
// title has its separator runs collapsed and gets a "-<fnv64a>" suffix of the
// raw title, so distinct titles never share a prefix. Plain prefixes never
// contain '-', which keeps the two forms apart.
func NormalizeTitle(title string) string {
	normalized := strings.Trim(nonAlphanumeric.ReplaceAllString(title, "_"), "_")
	if normalized != "" && !strings.Contains(title, "_") && normalized == strings.ReplaceAll(title, " ", "_") {
		return normalized
	}

	h := fnv.New64a()
	h.Write([]byte(title))
	return fmt.Sprintf("%s-%016x", normalized, h.Sum64())
}

// LessonMetadata is the serialized lesson form held in the catalog blob.
type LessonMetadata struct {
	LessonNumber int    `json:"lesson_number"`
	LessonTitle  string `json:"lesson_title"`
	LessonLink   string `json:"lesson_link,omitempty"`
}

// CourseMetadata is a catalog entry with its lesson blob expanded.
type CourseMetadata struct {
	Title       string           `json:"title"`
	Instructor  string           `json:"instructor,omitempty"`
	CourseLink  string           `json:"course_link,omitempty"`
	LessonCount int              `json:"lesson_count"`
	Lessons     []LessonMetadata `json:"lessons"`
}

// CourseAnalytics summarises the catalog for the courses endpoint.
type CourseAnalytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// IntPtr is a small helper for optional lesson numbers.
func IntPtr(v int) *int {
	return &v
}

package models

import (
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared struct validator.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

// Validate validates a course and its lessons.
func (c *Course) Validate() error {
	return Validator().Struct(c)
}

// Validate validates a chunk.
func (c *CourseChunk) Validate() error {
	return Validator().Struct(c)
}

// Validate validates a tool definition.
func (d *ToolDefinition) Validate() error {
	return Validator().Struct(d)
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/syllabus/internal/app"
)

var coursesCmd = &cobra.Command{
	Use:   "courses",
	Short: "List the courses in the catalog",
	RunE:  runCourses,
}

var coursesOutline bool

func init() {
	coursesCmd.Flags().BoolVar(&coursesOutline, "lessons", false, "Print every course's lessons")
}

func runCourses(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application, err := app.New(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	out := cmd.OutOrStdout()
	if !coursesOutline {
		analytics, err := application.QueryService.CourseAnalytics(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%d courses\n", analytics.TotalCourses)
		for _, title := range analytics.CourseTitles {
			fmt.Fprintf(out, "  %s\n", title)
		}
		return nil
	}

	courses, err := application.Store.GetAllCoursesMetadata(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%d courses\n", len(courses))
	for _, course := range courses {
		fmt.Fprintf(out, "\n%s", course.Title)
		if course.Instructor != "" {
			fmt.Fprintf(out, " (%s)", course.Instructor)
		}
		fmt.Fprintln(out)
		for _, lesson := range course.Lessons {
			fmt.Fprintf(out, "  %d. %s\n", lesson.LessonNumber, lesson.LessonTitle)
		}
	}
	return nil
}

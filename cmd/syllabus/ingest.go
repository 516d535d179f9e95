package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ternarybob/syllabus/internal/app"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Ingest course documents",
	Long: `Ingests a course file or every supported file in a directory. Defaults to the
configured docs directory. Courses already in the catalog are skipped.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

var ingestClear bool

func init() {
	ingestCmd.Flags().BoolVar(&ingestClear, "clear", false, "Delete all course data before ingesting")
}

func runIngest(cmd *cobra.Command, args []string) error {
	path := config.Docs.Dir
	if len(args) == 1 {
		path = args[0]
	}

	ctx := cmd.Context()
	application, err := app.New(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	info, err := os.Stat(path)
	if err == nil && !info.IsDir() {
		if ingestClear {
			if err := application.Store.ClearAllData(ctx); err != nil {
				return err
			}
		}
		course, chunks, err := application.QueryService.AddCourseDocument(ctx, path)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Added course %q with %d chunks\n", course.Title, chunks)
		return nil
	}

	courses, chunks, err := application.QueryService.AddCourseFolder(ctx, path, ingestClear)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %d courses with %d chunks from %s\n", courses, chunks, path)
	return nil
}

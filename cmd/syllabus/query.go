package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ternarybob/syllabus/internal/app"
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Ask a question about the course materials",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

var querySources bool

func init() {
	queryCmd.Flags().BoolVar(&querySources, "sources", true, "Print the sources used for the answer")
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application, err := app.New(ctx, config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	answer, sources, err := application.QueryService.Query(ctx, args[0], "")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, answer)
	if querySources && len(sources) > 0 {
		fmt.Fprintln(out, "\nSources:")
		for _, source := range sources {
			if source.URL != "" {
				fmt.Fprintf(out, "  - %s (%s)\n", source.Text, source.URL)
			} else {
				fmt.Fprintf(out, "  - %s\n", source.Text)
			}
		}
	}
	return nil
}

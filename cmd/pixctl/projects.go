package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	// projects command flags
	projectsLimit int
	projectsJSON  bool
)

func init() {
	rootCmd.AddCommand(projectsCmd)

	projectsCmd.Flags().IntVar(&projectsLimit, "limit", 0, "Maximum number of projects to return (0 = no limit)")
	projectsCmd.Flags().BoolVar(&projectsJSON, "json", false, "Output results as JSON")
}

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List accessible projects",
	Long: `List the projects the configured account can access.

Examples:
  # List all projects
  pixctl projects

  # Limit the listing
  pixctl projects --limit 10

  # Output as JSON
  pixctl projects --json`,
	RunE: runProjects,
}

func runProjects(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	projects, err := s.Projects(ctx, projectsLimit)
	if err != nil {
		return err
	}

	if projectsJSON {
		return outputJSON(projects)
	}

	if len(projects) == 0 {
		fmt.Println("No projects found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\n", p.ID(), truncate(p.Identifier(), 40))
	}
	w.Flush()

	return nil
}

package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/gopix/pkg/models"
	"github.com/fyrsmithlabs/gopix/pkg/object"
)

var (
	// inbox command flags
	inboxLimit int
	inboxJSON  bool
)

func init() {
	rootCmd.AddCommand(inboxCmd)
	rootCmd.AddCommand(deleteMessageCmd)

	inboxCmd.Flags().IntVar(&inboxLimit, "limit", 0, "Maximum number of entries to return (0 = no limit)")
	inboxCmd.Flags().BoolVar(&inboxJSON, "json", false, "Output results as JSON")
}

var inboxCmd = &cobra.Command{
	Use:   "inbox <project>",
	Short: "List unread inbox entries for a project",
	Long: `List the unread share feed entries in a project's inbox.

The project can be named by its label or its id.

Examples:
  # List the inbox of a project by label
  pixctl inbox "Show Alpha"

  # Limit the listing
  pixctl inbox "Show Alpha" --limit 10

  # Output as JSON
  pixctl inbox "Show Alpha" --json`,
	Args: cobra.ExactArgs(1),
	RunE: runInbox,
}

var deleteMessageCmd = &cobra.Command{
	Use:   "delete-message <project> <entry-id>",
	Short: "Delete an inbox entry",
	Long: `Delete a share feed entry from a project's inbox.

Examples:
  # Delete one inbox entry
  pixctl delete-message "Show Alpha" fe_1042`,
	Args: cobra.ExactArgs(2),
	RunE: runDeleteMessage,
}

func runInbox(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	proj, err := loadProject(ctx, s, args[0])
	if err != nil {
		return err
	}

	entries, err := proj.Inbox(ctx, inboxLimit)
	if err != nil {
		return err
	}

	if inboxJSON {
		return outputJSON(entries)
	}

	if len(entries) == 0 {
		fmt.Println("Inbox is empty")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tFROM\tMESSAGE")
	for _, e := range entries {
		from := ""
		if entry, ok := object.As[*models.FeedEntry](e); ok {
			if sender, err := entry.Sender(); err == nil {
				from = sender.Identifier()
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID(), truncate(from, 24), truncate(entry.Message(), 60))
			continue
		}
		fmt.Fprintf(w, "%s\t\t%s\n", e.ID(), e.String())
	}
	w.Flush()

	return nil
}

func runDeleteMessage(cmd *cobra.Command, args []string) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	ctx := context.Background()
	defer func() { _ = s.Close(ctx) }()

	proj, err := loadProject(ctx, s, args[0])
	if err != nil {
		return err
	}

	entry, err := proj.LoadItem(ctx, args[1])
	if err != nil {
		return err
	}
	if err := proj.DeleteInboxItem(ctx, entry); err != nil {
		return err
	}

	fmt.Printf("Deleted %s\n", entry)
	return nil
}

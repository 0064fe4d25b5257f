package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(itemCmd)
	rootCmd.AddCommand(markReadCmd)
}

var itemCmd = &cobra.Command{
	Use:   "item <project> <item-id>",
	Short: "Show one item as JSON",
	Long: `Fetch a single item from a project and print it as JSON, fields in
server order.

Examples:
  # Dump an inbox entry
  pixctl item "Show Alpha" fe_1042

  # Pick fields with jq
  pixctl item "Show Alpha" fe_1042 | jq .flags`,
	Args: cobra.ExactArgs(2),
	RunE: runItem,
}

var markReadCmd = &cobra.Command{
	Use:   "mark-read <project> <item-id>",
	Short: "Mark an item as viewed",
	Long: `Mark a project item as viewed, clearing it from the unread inbox.

Examples:
  # Mark one inbox entry as read
  pixctl mark-read "Show Alpha" fe_1042`,
	Args: cobra.ExactArgs(2),
	RunE: runMarkRead,
}

func runItem(cmd *cobra.Command, args []string) error {
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

	item, err := proj.LoadItem(ctx, args[1])
	if err != nil {
		return err
	}

	return outputJSON(item)
}

func runMarkRead(cmd *cobra.Command, args []string) error {
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

	item, err := proj.LoadItem(ctx, args[1])
	if err != nil {
		return err
	}
	if err := proj.MarkAsRead(ctx, item); err != nil {
		return err
	}

	fmt.Printf("Marked %s as read\n", item)
	return nil
}

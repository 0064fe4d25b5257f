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
	// notes and media command flags
	notesJSON   bool
	mediaKind   string
	mediaOutput string
)

func init() {
	rootCmd.AddCommand(notesCmd)
	rootCmd.AddCommand(mediaCmd)

	notesCmd.Flags().BoolVar(&notesJSON, "json", false, "Output results as JSON")

	mediaCmd.Flags().StringVar(&mediaKind, "kind", "composite", "Media kind: original, markup, or composite")
	mediaCmd.Flags().StringVarP(&mediaOutput, "output", "o", "", "Write media to this file instead of stdout")
}

var notesCmd = &cobra.Command{
	Use:   "notes <project> <item-id>",
	Short: "List review notes on a clip or image",
	Long: `List the review notes attached to a clip or image.

Examples:
  # List notes on a clip
  pixctl notes "Show Alpha" clip_77

  # Output as JSON
  pixctl notes "Show Alpha" clip_77 --json`,
	Args: cobra.ExactArgs(2),
	RunE: runNotes,
}

var mediaCmd = &cobra.Command{
	Use:   "media <project> <note-id>",
	Short: "Download the media behind a note",
	Long: `Download a note's media: the original source, the markup drawn on it,
or the composite of both.

Examples:
  # Save the composite image of a note
  pixctl media "Show Alpha" note_12 -o note_12.png

  # Fetch the markup and pipe it on
  pixctl media "Show Alpha" note_12 --kind markup > markup.xml`,
	Args: cobra.ExactArgs(2),
	RunE: runMedia,
}

func runNotes(cmd *cobra.Command, args []string) error {
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
	attachment, ok := object.As[models.Notable](item)
	if !ok {
		return fmt.Errorf("%s does not carry notes", item)
	}

	notes, err := attachment.Notes(ctx)
	if err != nil {
		return err
	}

	if notesJSON {
		return outputJSON(notes)
	}

	if len(notes) == 0 {
		fmt.Println("No notes found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNOTE")
	for _, n := range notes {
		text, _ := n.FieldString("text")
		fmt.Fprintf(w, "%s\t%s\n", n.ID(), truncate(text, 70))
	}
	w.Flush()

	return nil
}

func runMedia(cmd *cobra.Command, args []string) error {
	kind := models.MediaKind(mediaKind)
	switch kind {
	case models.MediaOriginal, models.MediaMarkup, models.MediaComposite:
	default:
		return fmt.Errorf("invalid --kind %q: want original, markup, or composite", mediaKind)
	}

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
	note, ok := object.As[*models.Note](item)
	if !ok {
		return fmt.Errorf("%s is not a note", item)
	}

	data, err := note.Media(ctx, kind)
	if err != nil {
		return err
	}

	if mediaOutput == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(mediaOutput, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", mediaOutput, err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", len(data), mediaOutput)
	return nil
}

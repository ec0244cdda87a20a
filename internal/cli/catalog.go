package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/apresai/podcastr/internal/audio"
	"github.com/apresai/podcastr/internal/store"
)

var (
	flagListLimit  int
	flagListCursor string
	flagListAuthor string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List published podcasts, newest first",
	RunE:  runList,
}

var showCmd = &cobra.Command{
	Use:   "show <podcast-id>",
	Short: "Show a published podcast",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	listCmd.Flags().IntVarP(&flagListLimit, "limit", "n", 20, "Maximum number of podcasts")
	listCmd.Flags().StringVar(&flagListCursor, "cursor", "", "Cursor from a previous page")
	listCmd.Flags().StringVar(&flagListAuthor, "author", "", "Only podcasts by this user ID")
}

func runList(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		items []store.Podcast
		next  string
	)
	if flagListAuthor != "" {
		items, next, err = a.Store.ListAuthorPodcasts(ctx, flagListAuthor, flagListLimit, flagListCursor)
	} else {
		items, next, err = a.Store.ListPodcasts(ctx, flagListLimit, flagListCursor)
	}
	if err != nil {
		return err
	}

	printPodcasts(cmd.OutOrStdout(), items)
	if next != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "\nMore: --cursor %s\n", next)
	}
	return nil
}

func printPodcasts(out io.Writer, items []store.Podcast) {
	if len(items) == 0 {
		fmt.Fprintln(out, "No podcasts found.")
		return
	}
	fmt.Fprintf(out, "%-26s  %-32s  %-10s  %8s  %6s\n", "ID", "TITLE", "VOICE", "LENGTH", "VIEWS")
	for _, p := range items {
		fmt.Fprintf(out, "%-26s  %-32s  %-10s  %8s  %6d\n",
			p.ID, truncate(p.Title, 32), p.VoiceType, audio.FormatDuration(p.AudioDuration), p.Views)
	}
}

func runShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := setup(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	p, err := a.Store.GetPodcast(ctx, args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s\n\n%s\n\n", p.Title, p.Description)
	fmt.Fprintf(out, "  Author:   %s\n", p.Author)
	fmt.Fprintf(out, "  Voice:    %s\n", p.VoiceType)
	fmt.Fprintf(out, "  Length:   %s\n", audio.FormatDuration(p.AudioDuration))
	fmt.Fprintf(out, "  Views:    %d\n", p.Views)
	fmt.Fprintf(out, "  Audio:    %s\n", p.AudioURL)
	fmt.Fprintf(out, "  Image:    %s\n", p.ImageURL)
	fmt.Fprintf(out, "  Created:  %s\n", p.CreatedAt)
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/forPelevin/karaoke/internal/domain/timeline"
	"github.com/forPelevin/karaoke/internal/logging"
	"github.com/forPelevin/karaoke/internal/pipeline"
)

func newLayoutCommand(configPath *string) *cobra.Command {
	var maxChars, maxWords int

	cmd := &cobra.Command{
		Use:   "layout <words.json>",
		Short: "Print how a transcript splits into display lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings(*configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("max-chars") {
				settings.Text.MaxChars = max(maxChars, 1)
			}
			if cmd.Flags().Changed("max-words") {
				settings.Text.MaxWords = max(maxWords, 1)
			}
			logger, err := logging.New(logging.Options{
				Level:  settings.Logging.Level,
				Format: settings.Logging.Format,
				Writer: cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("logging: %w", err)
			}

			path, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}
			lines, rep, err := pipeline.Layout(context.Background(), path, *settings, logger)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderLines(lines))
			fmt.Fprintf(out, "%d words in %d lines (%d dropped, %d non-monotonic)\n",
				rep.Input-rep.Dropped, len(lines), rep.Dropped, len(rep.NonMonotonic))
			return nil
		},
	}
	cmd.Flags().IntVar(&maxChars, "max-chars", 0, "Override text.max_chars")
	cmd.Flags().IntVar(&maxWords, "max-words", 0, "Override text.max_words")
	return cmd
}

func renderLines(lines []timeline.Line) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Start", "End", "Words", "Text"})
	for i, ln := range lines {
		tw.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			fmt.Sprintf("%.2f", ln.Start()),
			fmt.Sprintf("%.2f", ln.End()),
			strconv.Itoa(len(ln.Words)),
			ln.Text(),
		})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand(os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "karaoke",
		Short:         "Render karaoke lyric videos from word-timed transcripts",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path (default $KARAOKE_CONFIG, ./karaoke.toml, ~/.config/karaoke/config.toml)")

	root.AddCommand(newRenderCommand(&configPath))
	root.AddCommand(newLayoutCommand(&configPath))
	root.AddCommand(newConfigCommand())
	return root
}

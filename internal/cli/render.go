package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/forPelevin/karaoke/internal/config"
	"github.com/forPelevin/karaoke/internal/logging"
	"github.com/forPelevin/karaoke/internal/pipeline"
)

func newRenderCommand(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render <words.json>",
		Short: "Render the karaoke video(s) for a word-timed transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, *configPath, args[0])
		},
	}

	f := cmd.Flags()
	f.String("instrumental", "", "Instrumental track for the final video")
	f.String("mix", "", "Full mix for the sync-check video (enables --sync-check)")
	f.String("out", "", "Output directory (overrides output.dir)")
	f.String("title", "", "Song title for the end card")
	f.String("artist", "", "Artist for the end card")
	f.String("mode", "", "Layout mode: paired or windowed")
	f.Int("workers", 0, "Frames rendered in parallel")
	f.Bool("sync-check", false, "Render the sync-check video over the full mix")
	f.Bool("final", true, "Render the final video over the instrumental")
	f.Bool("subtitles", true, "Write a karaoke.ass sidecar")

	// Hidden wall-clock guard (internal); 0 means no limit
	f.Duration("timeout", 0, "Abort the render after this long")
	_ = f.MarkHidden("timeout")
	return cmd
}

func runRender(cmd *cobra.Command, configPath, words string) error {
	settings, err := loadSettings(configPath)
	if err != nil {
		return err
	}
	if err := applyRenderFlags(cmd, settings); err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:  settings.Logging.Level,
		Format: settings.Logging.Format,
		Writer: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("logging: %w", err)
	}

	absWords, err := filepath.Abs(words)
	if err != nil {
		return err
	}
	instrumental, _ := cmd.Flags().GetString("instrumental")
	mix, _ := cmd.Flags().GetString("mix")

	cfg := pipeline.Config{
		Transcript:   absWords,
		Instrumental: instrumental,
		Mix:          mix,
		Settings:     *settings,
		Logger:       logger,
	}
	if logging.IsTerminal(cmd.ErrOrStderr()) {
		cfg.Progress = newProgressBars(cmd.ErrOrStderr())
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	dir, err := pipeline.Run(ctx, cfg)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("render timed out after %s: %w", timeout, err)
		}
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), dir)
	return nil
}

// withTimeout bounds ctx only when timeout is positive.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

func loadSettings(path string) (*config.Config, error) {
	settings, _, _, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return settings, nil
}

// applyRenderFlags overlays explicitly set flags onto the loaded settings.
func applyRenderFlags(cmd *cobra.Command, s *config.Config) error {
	f := cmd.Flags()
	if f.Changed("out") {
		v, _ := f.GetString("out")
		dir, err := config.ExpandPath(v)
		if err != nil {
			return fmt.Errorf("--out: %w", err)
		}
		s.Output.Dir = dir
	}
	if f.Changed("title") {
		s.Song.Title, _ = f.GetString("title")
		s.Song.Title = strings.TrimSpace(s.Song.Title)
	}
	if f.Changed("artist") {
		s.Song.Artist, _ = f.GetString("artist")
		s.Song.Artist = strings.TrimSpace(s.Song.Artist)
	}
	if f.Changed("mode") {
		v, _ := f.GetString("mode")
		s.Layout.Mode = strings.ToLower(strings.TrimSpace(v))
	}
	if f.Changed("workers") {
		s.Video.Workers, _ = f.GetInt("workers")
		if s.Video.Workers < 1 {
			s.Video.Workers = 1
		}
	}
	if mix, _ := f.GetString("mix"); mix != "" && !f.Changed("sync-check") {
		s.Output.SyncCheck = true
	}
	if f.Changed("sync-check") {
		s.Output.SyncCheck, _ = f.GetBool("sync-check")
	}
	if f.Changed("final") {
		s.Output.Final, _ = f.GetBool("final")
	}
	if f.Changed("subtitles") {
		s.Output.Subtitles, _ = f.GetBool("subtitles")
	}
	return nil
}

// newProgressBars returns a progress callback drawing one bar per output.
func newProgressBars(w io.Writer) func(kind string, done, total int) {
	var (
		bar  *progressbar.ProgressBar
		kind string
	)
	return func(k string, done, total int) {
		if bar == nil || k != kind {
			kind = k
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(w),
				progressbar.OptionSetDescription(strings.ReplaceAll(k, "_", "-")),
				progressbar.OptionShowCount(),
				progressbar.OptionSetItsString("frames"),
				progressbar.OptionShowIts(),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionOnCompletion(func() { fmt.Fprintln(w) }),
			)
		}
		_ = bar.Set(done)
	}
}

package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode"

	"github.com/dustin/go-humanize"

	"github.com/forPelevin/karaoke/internal/config"
	"github.com/forPelevin/karaoke/internal/domain/compose"
	"github.com/forPelevin/karaoke/internal/domain/layout"
	"github.com/forPelevin/karaoke/internal/domain/timeline"
	"github.com/forPelevin/karaoke/internal/logging"
	"github.com/forPelevin/karaoke/internal/ports"
	"github.com/forPelevin/karaoke/internal/ports/adapters/ffmpeg"
	"github.com/forPelevin/karaoke/internal/ports/adapters/transcript"
	"github.com/forPelevin/karaoke/internal/usecase"
)

const (
	SyncCheckFile = "karaoke_sync_check.mp4"
	FinalFile     = "karaoke_video.mp4"
	SubtitlesFile = "karaoke.ass"
	ManifestFile  = "manifest.json"
)

type Config struct {
	Transcript string
	// Instrumental is the audio under the final render.
	Instrumental string
	// Mix is the full song, used by the sync-check render.
	Mix string

	Settings config.Config
	Logger   *slog.Logger
	Progress func(kind string, done, total int)
}

func (c Config) Validate() error {
	if c.Transcript == "" {
		return errors.New("transcript is empty")
	}
	if _, err := os.Stat(c.Transcript); err != nil {
		return fmt.Errorf("stat transcript: %w", err)
	}
	if c.Settings.Output.Final && c.Instrumental == "" {
		return errors.New("instrumental audio is required for the final render")
	}
	if c.Settings.Output.SyncCheck && c.Mix == "" {
		return errors.New("full mix audio is required for the sync-check render")
	}
	return c.Settings.Validate()
}

// Run renders the requested outputs into a fresh run directory under
// Settings.Output.Dir and returns that directory.
func Run(ctx context.Context, cfg Config) (string, error) {
	log := cfg.Logger
	if log == nil {
		log = logging.NewNop()
	}
	s := cfg.Settings

	style, err := Style(s)
	if err != nil {
		return "", err
	}
	font, err := compose.LoadFont(s.Text.FontPath)
	if err != nil {
		return "", err
	}

	enc := ffmpeg.New(s.Encoder.FFmpeg, s.Encoder.FFprobe, ffmpeg.Options{
		Preset:       s.Encoder.Preset,
		CRF:          s.Encoder.CRF,
		AudioBitrate: s.Encoder.AudioBitrate,
		PixFmt:       s.Encoder.PixFmt,
	})
	uc := usecase.New(usecase.Deps{
		Transcript: transcript.New(),
		Prober:     enc,
		Encoder:    enc,
		Logger:     log,
	})

	// created by the usecase on first write
	runOutDir := buildRunOutDir(s.Output.Dir, songName(cfg), time.Now().UTC())
	log.Info("output run dir", logging.String("dir", runOutDir))

	var outputs []usecase.Output
	if s.Output.SyncCheck {
		outputs = append(outputs, usecase.Output{Kind: usecase.KindSyncCheck, Audio: cfg.Mix, File: SyncCheckFile})
	}
	if s.Output.Final {
		outputs = append(outputs, usecase.Output{Kind: usecase.KindFinal, Audio: cfg.Instrumental, File: FinalFile})
	}
	in := usecase.Input{
		Transcript: cfg.Transcript,
		OutDir:     runOutDir,
		Outputs:    outputs,
		FPS:        s.Video.FPS,
		Workers:    s.Video.Workers,
		MaxChars:   s.Text.MaxChars,
		MaxWords:   s.Text.MaxWords,
		Layout:     layoutOptions(s),
		Style:      style,
		Font:       font,
		Progress:   cfg.Progress,
	}
	if s.Output.Subtitles {
		in.Subtitles = SubtitlesFile
	}

	res, err := uc.Run(ctx, in)
	if err != nil {
		log.Error("render failed", logging.String("dir", runOutDir), logging.Error(err))
		return runOutDir, err
	}

	b, err := json.MarshalIndent(res.Manifest, "", "  ")
	if err != nil {
		return runOutDir, fmt.Errorf("marshal manifest: %w", err)
	}
	manifestPath := filepath.Join(runOutDir, ManifestFile)
	if err := os.WriteFile(manifestPath, b, 0o644); err != nil {
		return runOutDir, err
	}
	for _, o := range res.Manifest.Outputs {
		path := filepath.Join(runOutDir, filepath.FromSlash(o.File))
		size := "unknown"
		if info, err := os.Stat(path); err == nil {
			size = humanize.Bytes(uint64(info.Size()))
		}
		log.Info("video written", logging.String("file", path), logging.String("size", size), logging.Int("frames", o.Frames))
	}
	log.Info("manifest written", logging.String("path", manifestPath))
	return runOutDir, nil
}

// Layout loads and segments a transcript without rendering anything.
func Layout(ctx context.Context, path string, s config.Config, log *slog.Logger) ([]timeline.Line, timeline.Report, error) {
	uc := usecase.New(usecase.Deps{Transcript: transcript.New(), Logger: log})
	return uc.Prepare(ctx, path, s.Text.MaxChars, s.Text.MaxWords)
}

// Style converts render settings into the compositor's immutable style.
func Style(s config.Config) (compose.Style, error) {
	var p compose.Palette
	for _, c := range []struct {
		dst *color.RGBA
		src string
	}{
		{&p.Upcoming, s.Colors.Upcoming},
		{&p.Active, s.Colors.Active},
		{&p.Sung, s.Colors.Sung},
		{&p.Background, s.Colors.Background},
	} {
		v, err := config.ParseColor(c.src)
		if err != nil {
			return compose.Style{}, err
		}
		*c.dst = v
	}
	return compose.Style{
		Width:              s.Video.Width,
		Height:             s.Video.Height,
		FontSize:           s.Text.FontSize,
		LineSpacing:        s.Text.LineSpacing,
		CountdownThreshold: s.Countdown.Threshold,
		Palette:            p,
		Title:              s.Song.Title,
		Artist:             s.Song.Artist,
	}, nil
}

func layoutOptions(s config.Config) layout.Options {
	return layout.Options{
		Mode:          s.Layout.Mode,
		VisibleLines:  s.Layout.VisibleLines,
		PairGrace:     s.Layout.PairGrace,
		ActiveEpsilon: s.Layout.ActiveEpsilon,
	}
}

func songName(cfg Config) string {
	if t := cfg.Settings.Song.Title; t != "" {
		if a := cfg.Settings.Song.Artist; a != "" {
			return a + " " + t
		}
		return t
	}
	return strings.TrimSuffix(filepath.Base(cfg.Transcript), filepath.Ext(cfg.Transcript))
}

func buildRunOutDir(outRoot, name string, now time.Time) string {
	seed := name
	name = normalizePathSegment(name)
	if name == "" {
		name = "song"
	}
	ts := now.UTC().Format("20060102-150405Z")
	runSeed := fmt.Sprintf("%s|%d", seed, now.UTC().UnixNano())
	suffix := hash(runSeed)[:6]
	return filepath.Join(outRoot, fmt.Sprintf("%s-%s-%s", name, ts, suffix))
}

func normalizePathSegment(s string) string {
	var b strings.Builder
	prevDash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		default:
			if !prevDash {
				b.WriteByte('-')
				prevDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

func hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

// ensure adapters implement ports
var _ ports.AudioProber = (*ffmpeg.Adapter)(nil)
var _ ports.Encoder = (*ffmpeg.Adapter)(nil)
var _ ports.TranscriptSource = (*transcript.Adapter)(nil)

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/golang/freetype/truetype"
	"github.com/google/uuid"

	"github.com/forPelevin/karaoke/internal/domain/compose"
	"github.com/forPelevin/karaoke/internal/domain/layout"
	"github.com/forPelevin/karaoke/internal/domain/subtitles"
	"github.com/forPelevin/karaoke/internal/domain/timeline"
	"github.com/forPelevin/karaoke/internal/logging"
	"github.com/forPelevin/karaoke/internal/ports"
	"github.com/forPelevin/karaoke/internal/pump"
	"github.com/forPelevin/karaoke/internal/types"
)

type Deps struct {
	Transcript ports.TranscriptSource
	Prober     ports.AudioProber
	Encoder    ports.Encoder
	Logger     *slog.Logger
	// NewID names render sessions; defaults to a random UUID.
	NewID func() string
}

type Usecase struct{ d Deps }

func New(d Deps) Usecase {
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	if d.NewID == nil {
		d.NewID = uuid.NewString
	}
	return Usecase{d: d}
}

const (
	KindSyncCheck = "sync_check"
	KindFinal     = "final"
)

// Output is one video to render. Outputs share the timeline and layout and
// differ only in the audio muxed under the frames.
type Output struct {
	Kind  string
	Audio string
	// File is relative to Input.OutDir.
	File string
}

type Input struct {
	Transcript string
	OutDir     string
	Outputs    []Output

	FPS      int
	Workers  int
	MaxChars int
	MaxWords int
	Layout   layout.Options
	Style    compose.Style
	Font     *truetype.Font

	// Subtitles, when non-empty, is the sidecar file name written under OutDir.
	Subtitles string
	// Progress receives per-output frame progress.
	Progress func(kind string, done, total int)
}

// Session is the transient state of one output render.
type Session struct {
	ID          string
	Kind        string
	Width       int
	Height      int
	FPS         int
	Duration    float64
	TotalFrames int
	Audio       string
	Output      string
}

type Result struct {
	Manifest types.Manifest
	Lines    []timeline.Line
}

// Prepare loads and validates the transcript and segments it into lines.
// Nothing is probed or encoded.
func (u Usecase) Prepare(ctx context.Context, path string, maxChars, maxWords int) ([]timeline.Line, timeline.Report, error) {
	raw, err := u.d.Transcript.Load(ctx, path)
	if err != nil {
		return nil, timeline.Report{}, err
	}
	words, rep, err := timeline.Build(raw)
	if err != nil {
		return nil, rep, err
	}
	u.reportTimeline(rep)
	return layout.Segment(words, maxChars, maxWords), rep, nil
}

func (u Usecase) Run(ctx context.Context, in Input) (Result, error) {
	if len(in.Outputs) == 0 {
		return Result{}, errors.New("no outputs requested")
	}
	if in.Font == nil {
		return Result{}, errors.New("font is required")
	}

	lines, rep, err := u.Prepare(ctx, in.Transcript, in.MaxChars, in.MaxWords)
	if err != nil {
		return Result{}, err
	}
	sel, err := layout.New(lines, in.Layout)
	if err != nil {
		return Result{}, err
	}

	sessionID := u.d.NewID()
	log := u.d.Logger.With(logging.String("session_id", sessionID))
	log.Info("timeline ready",
		logging.Int("words", rep.Input-rep.Dropped),
		logging.Int("lines", len(lines)),
		logging.String("layout", sel.Name()),
	)

	m := types.Manifest{
		SessionID: sessionID,
		Title:     in.Style.Title,
		Artist:    in.Style.Artist,
		Timeline:  manifestTimeline(rep, len(lines), sel.Name()),
	}

	if in.Subtitles != "" {
		ass := subtitles.RenderKaraokeASS(lines, subtitles.Style{
			Width:    in.Style.Width,
			Height:   in.Style.Height,
			FontSize: in.Style.FontSize,
			Sung:     in.Style.Palette.Active,
			Upcoming: in.Style.Palette.Upcoming,
			Outline:  in.Style.Palette.Background,
		})
		if err := writeFile(filepath.Join(in.OutDir, in.Subtitles), []byte(ass)); err != nil {
			return Result{}, err
		}
		m.Subtitles = filepath.ToSlash(in.Subtitles)
	}

	for _, out := range in.Outputs {
		s := Session{
			ID:     sessionID,
			Kind:   out.Kind,
			Width:  in.Style.Width,
			Height: in.Style.Height,
			FPS:    in.FPS,
			Audio:  out.Audio,
			Output: filepath.Join(in.OutDir, out.File),
		}
		if err := u.render(ctx, &s, sel, in, log); err != nil {
			return Result{}, err
		}
		m.Outputs = append(m.Outputs, types.ManifestOutput{
			Kind:        out.Kind,
			File:        filepath.ToSlash(out.File),
			Audio:       out.Audio,
			DurationSec: s.Duration,
			Frames:      s.TotalFrames,
			FPS:         s.FPS,
		})
	}
	return Result{Manifest: m, Lines: lines}, nil
}

func (u Usecase) render(ctx context.Context, s *Session, sel layout.Selector, in Input, log *slog.Logger) error {
	dur, err := u.d.Prober.ProbeDuration(ctx, s.Audio)
	if err != nil {
		return err
	}
	s.Duration = dur
	s.TotalFrames = pump.TotalFrames(dur, s.FPS)

	if err := os.MkdirAll(filepath.Dir(s.Output), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	lock := flock.New(s.Output + ".lock")
	ok, err := lock.TryLock()
	if err != nil {
		return fmt.Errorf("lock %s: %w", s.Output, err)
	}
	if !ok {
		return fmt.Errorf("output %s is being rendered by another process", s.Output)
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lock.Path())
	}()

	sess, err := u.d.Encoder.StartEncoder(ctx, ports.EncodeSpec{
		Width:  s.Width,
		Height: s.Height,
		FPS:    s.FPS,
		Audio:  s.Audio,
		Output: s.Output,
	})
	if err != nil {
		return err
	}

	log = log.With(logging.String("output", s.Kind))
	log.Info("render started",
		logging.String("audio", s.Audio),
		logging.Float64("duration_sec", s.Duration),
		logging.Int("total_frames", s.TotalFrames),
		logging.Int("workers", max(in.Workers, 1)),
	)
	p := &pump.Pump{
		Selector:    sel,
		NewRenderer: func() pump.Renderer { return compose.New(in.Style, in.Font) },
		Width:       s.Width,
		Height:      s.Height,
		FPS:         s.FPS,
		Workers:     in.Workers,
		Logger:      logging.NewComponentLogger(log, "pump"),
	}
	if in.Progress != nil {
		kind := s.Kind
		p.Progress = func(done, total int) { in.Progress(kind, done, total) }
	}

	started := time.Now()
	if err := p.Run(ctx, sess, s.TotalFrames); err != nil {
		return fmt.Errorf("render %s: %w", s.Kind, err)
	}
	log.Info("render finished",
		logging.String("file", s.Output),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return nil
}

func (u Usecase) reportTimeline(rep timeline.Report) {
	if len(rep.NonMonotonic) > 0 {
		logging.WarnWithContext(u.d.Logger, "non-monotonic word timestamps", "timeline_non_monotonic",
			logging.Int("count", len(rep.NonMonotonic)),
			logging.Int("first_index", rep.NonMonotonic[0]),
			logging.String(logging.FieldErrorHint, "re-run alignment if highlighting looks wrong"),
			logging.String(logging.FieldImpact, "words are rendered with their timestamps as given"),
		)
	}
	if len(rep.Unknown) > 0 {
		u.d.Logger.Debug("unknown word source tags treated as primary", logging.Any("tags", rep.Unknown))
	}
	if rep.Dropped > 0 {
		u.d.Logger.Debug("dropped blank words", logging.Int("count", rep.Dropped))
	}
}

func manifestTimeline(rep timeline.Report, lines int, mode string) types.ManifestTimeline {
	sources := make(map[string]int, len(rep.Sources))
	words := 0
	for src, n := range rep.Sources {
		sources[src.String()] = n
		words += n
	}
	return types.ManifestTimeline{
		Words:        words,
		Lines:        lines,
		Dropped:      rep.Dropped,
		NonMonotonic: len(rep.NonMonotonic),
		Sources:      sources,
		Layout:       mode,
	}
}

func writeFile(path string, b []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

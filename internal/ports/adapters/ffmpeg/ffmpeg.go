package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"

	"github.com/forPelevin/karaoke/internal/ports"
	"github.com/forPelevin/karaoke/internal/types"
)

// Options are the encoder quality knobs; empty fields use the defaults below.
type Options struct {
	Preset       string
	CRF          int
	AudioBitrate string
	PixFmt       string
}

type Adapter struct {
	ffmpeg  string
	ffprobe string
	opts    Options
}

func New(ffmpegPath, ffprobePath string, opts Options) *Adapter {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if opts.Preset == "" {
		opts.Preset = "fast"
	}
	if opts.CRF <= 0 {
		opts.CRF = 18
	}
	if opts.AudioBitrate == "" {
		opts.AudioBitrate = "192k"
	}
	if opts.PixFmt == "" {
		opts.PixFmt = "yuv420p"
	}
	return &Adapter{ffmpeg: ffmpegPath, ffprobe: ffprobePath, opts: opts}
}

// ProbeDuration returns the container duration of path in seconds. Every
// failure, including a missing file, is an *types.AudioProbeError.
func (a *Adapter) ProbeDuration(ctx context.Context, path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, &types.AudioProbeError{Path: path, Err: err}
	}
	if info.IsDir() {
		return 0, &types.AudioProbeError{Path: path, Err: errors.New("is a directory")}
	}
	cmd := exec.CommandContext(ctx, a.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	b, err := cmd.CombinedOutput()
	if err != nil {
		return 0, &types.AudioProbeError{Path: path, Err: fmt.Errorf("ffprobe duration: %w\n%s", err, string(b))}
	}
	sec, err := parseDuration(string(b))
	if err != nil {
		return 0, &types.AudioProbeError{Path: path, Err: err}
	}
	return sec, nil
}

func parseDuration(out string) (float64, error) {
	s := strings.TrimSpace(out)
	sec, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse duration %q: %w", s, err)
	}
	if !(sec > 0) || sec > 1e9 {
		return 0, fmt.Errorf("duration %q is not a positive number of seconds", s)
	}
	return sec, nil
}

// StartEncoder launches ffmpeg reading rgb24 frames from stdin and muxing
// them with spec.Audio.
func (a *Adapter) StartEncoder(ctx context.Context, spec ports.EncodeSpec) (ports.EncodeSession, error) {
	cmd := exec.CommandContext(ctx, a.ffmpeg, a.encodeArgs(spec)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, &types.RenderEncodingError{Output: spec.Output, Err: fmt.Errorf("stdin pipe: %w", err)}
	}
	stderr := &tailBuffer{limit: 4096}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		return nil, &types.RenderEncodingError{Output: spec.Output, Err: fmt.Errorf("start ffmpeg: %w", err)}
	}
	return &session{cmd: cmd, stdin: stdin, stderr: stderr, output: spec.Output}, nil
}

func (a *Adapter) encodeArgs(spec ports.EncodeSpec) []string {
	return []string{
		"-y",
		"-f", "rawvideo",
		"-vcodec", "rawvideo",
		"-s", fmt.Sprintf("%dx%d", spec.Width, spec.Height),
		"-pix_fmt", "rgb24",
		"-r", strconv.Itoa(spec.FPS),
		"-i", "pipe:0",
		"-i", spec.Audio,
		"-c:v", "libx264",
		"-preset", a.opts.Preset,
		"-crf", strconv.Itoa(a.opts.CRF),
		"-pix_fmt", a.opts.PixFmt,
		"-c:a", "aac",
		"-b:a", a.opts.AudioBitrate,
		"-shortest",
		spec.Output,
	}
}

type session struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stderr *tailBuffer
	output string
	closed bool
}

func (s *session) Write(p []byte) (int, error) {
	n, err := s.stdin.Write(p)
	if err != nil {
		return n, &types.RenderEncodingError{Output: s.output, Err: fmt.Errorf("write frame: %w", err), Stderr: s.stderr.String()}
	}
	return n, nil
}

func (s *session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	closeErr := s.stdin.Close()
	if err := s.cmd.Wait(); err != nil {
		encErr := &types.RenderEncodingError{Output: s.output, Err: err, Stderr: s.stderr.String()}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			encErr.ExitCode = exitErr.ExitCode()
		}
		return encErr
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		return &types.RenderEncodingError{Output: s.output, Err: fmt.Errorf("close stdin: %w", closeErr)}
	}
	return nil
}

// tailBuffer keeps the last limit bytes written to it. exec copies stderr on
// its own goroutine, so reads and writes are locked.
type tailBuffer struct {
	mu    sync.Mutex
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(string(t.buf))
}

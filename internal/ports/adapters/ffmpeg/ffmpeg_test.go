package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/forPelevin/karaoke/internal/ports"
	"github.com/forPelevin/karaoke/internal/types"
)

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{in: "183.424000\n", want: 183.424},
		{in: "  2.5 ", want: 2.5},
		{in: "N/A", wantErr: true},
		{in: "", wantErr: true},
		{in: "0", wantErr: true},
		{in: "-4", wantErr: true},
		{in: "NaN", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseDuration(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("parseDuration(%q) = %v, %v", tt.in, got, err)
			}
		})
	}
}

func TestProbeDuration_MissingFile(t *testing.T) {
	a := New("", "", Options{})
	_, err := a.ProbeDuration(context.Background(), filepath.Join(t.TempDir(), "nope.wav"))
	var pe *types.AudioProbeError
	if !errors.As(err, &pe) {
		t.Fatalf("expected AudioProbeError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected wrapped not-exist error, got %v", err)
	}
}

func TestEncodeArgs(t *testing.T) {
	a := New("", "", Options{Preset: "veryfast", CRF: 20})
	args := a.encodeArgs(ports.EncodeSpec{Width: 1920, Height: 1080, FPS: 30, Audio: "no_vocals.wav", Output: "out.mp4"})
	joined := strings.Join(args, " ")
	for _, want := range []string{
		"-f rawvideo", "-s 1920x1080", "-pix_fmt rgb24", "-r 30", "-i pipe:0", "-i no_vocals.wav",
		"-preset veryfast", "-crf 20", "-pix_fmt yuv420p", "-b:a 192k", "-shortest",
	} {
		if !strings.Contains(joined, want) {
			t.Fatalf("args missing %q: %s", want, joined)
		}
	}
	if args[len(args)-1] != "out.mp4" {
		t.Fatalf("output must be last, got %q", args[len(args)-1])
	}
	if i := slices.Index(args, "pipe:0"); i < 0 || i > slices.Index(args, "no_vocals.wav") {
		t.Fatalf("video pipe must be the first input: %v", args)
	}
}

// fakeEncoder writes a shell script standing in for ffmpeg.
func fakeEncoder(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script encoder fake needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatalf("write fake encoder: %v", err)
	}
	return path
}

func TestSession_StreamsFramesInOrder(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "frames.raw")
	bin := fakeEncoder(t, `cat > "`+dump+`"`)
	s, err := New(bin, "", Options{}).StartEncoder(context.Background(), ports.EncodeSpec{Width: 2, Height: 1, FPS: 1, Audio: "a.wav", Output: "o.mp4"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	var want []byte
	for i := 0; i < 50; i++ {
		frame := bytes.Repeat([]byte{byte(i)}, 6)
		want = append(want, frame...)
		if _, err := s.Write(frame); err != nil {
			t.Fatalf("write %d: %v", i, err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	got, err := os.ReadFile(dump)
	if err != nil {
		t.Fatalf("read dump: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("encoder received %d bytes out of order or incomplete", len(got))
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second close should be a no-op: %v", err)
	}
}

func TestSession_NonZeroExit(t *testing.T) {
	bin := fakeEncoder(t, "cat > /dev/null\necho 'Conversion failed!' >&2\nexit 3")
	s, err := New(bin, "", Options{}).StartEncoder(context.Background(), ports.EncodeSpec{Width: 1, Height: 1, FPS: 1, Output: "o.mp4"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = s.Write([]byte{1, 2, 3})
	err = s.Close()
	var re *types.RenderEncodingError
	if !errors.As(err, &re) {
		t.Fatalf("expected RenderEncodingError, got %v", err)
	}
	if re.ExitCode != 3 || !strings.Contains(re.Stderr, "Conversion failed!") {
		t.Fatalf("unexpected error detail: code=%d stderr=%q", re.ExitCode, re.Stderr)
	}
}

func TestTailBuffer_KeepsTail(t *testing.T) {
	tb := &tailBuffer{limit: 4}
	_, _ = tb.Write([]byte("abc"))
	_, _ = tb.Write([]byte("defg"))
	if got := tb.String(); got != "defg" {
		t.Fatalf("tail = %q", got)
	}
}

package ports

import (
	"context"
	"io"

	"github.com/forPelevin/karaoke/internal/types"
)

// AudioProber reports the duration of an audio file in seconds.
type AudioProber interface {
	ProbeDuration(ctx context.Context, path string) (float64, error)
}

// EncodeSpec describes one encoder run: raw frames in, a muxed video out.
type EncodeSpec struct {
	Width  int
	Height int
	FPS    int
	Audio  string
	Output string
}

// EncodeSession accepts raw frames in order. Close ends the input stream and
// waits for the encoder to finish; it must be called even after a failed Write.
type EncodeSession interface {
	io.Writer
	Close() error
}

type Encoder interface {
	StartEncoder(ctx context.Context, spec EncodeSpec) (EncodeSession, error)
}

// TranscriptSource loads the word records produced by the upstream aligner.
type TranscriptSource interface {
	Load(ctx context.Context, path string) ([]types.RawWord, error)
}

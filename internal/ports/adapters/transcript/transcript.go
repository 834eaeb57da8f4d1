package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/forPelevin/karaoke/internal/types"
)

// Adapter reads word transcripts written by the alignment stage. Both a flat
// word list and a segments object are accepted, as JSON or YAML.
type Adapter struct{}

func New() *Adapter { return &Adapter{} }

func (a *Adapter) Load(ctx context.Context, path string) ([]types.RawWord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read transcript: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return Decode(b, yaml.Unmarshal)
	default:
		return Decode(b, json.Unmarshal)
	}
}

// Decode parses b with unmarshal, trying the flat list first and then the
// segments shape. Undecodable input is a *types.MalformedTimelineError.
func Decode(b []byte, unmarshal func([]byte, any) error) ([]types.RawWord, error) {
	trimmed := bytes.TrimSpace(b)
	if len(trimmed) == 0 {
		return nil, nil
	}

	var flat []types.RawWord
	listErr := unmarshal(trimmed, &flat)
	if listErr == nil {
		return flat, nil
	}

	var tr types.Transcript
	if err := unmarshal(trimmed, &tr); err != nil {
		return nil, &types.MalformedTimelineError{Index: -1, Reason: fmt.Sprintf("decode transcript: %v", listErr)}
	}
	var out []types.RawWord
	for _, s := range tr.Segments {
		out = append(out, s.Words...)
	}
	return out, nil
}

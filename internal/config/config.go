package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Environment variables consulted by Load.
const (
	EnvConfig  = "KARAOKE_CONFIG"
	EnvFFmpeg  = "KARAOKE_FFMPEG"
	EnvFFprobe = "KARAOKE_FFPROBE"
)

// Video contains output frame geometry and render parallelism.
type Video struct {
	Width   int `toml:"width"`
	Height  int `toml:"height"`
	FPS     int `toml:"fps"`
	Workers int `toml:"workers"`
}

// Text contains font and line segmentation settings.
type Text struct {
	// FontPath is a TrueType file. Empty selects the embedded Go Bold font.
	FontPath    string  `toml:"font_path"`
	FontSize    float64 `toml:"font_size"`
	LineSpacing int     `toml:"line_spacing"`
	MaxChars    int     `toml:"max_chars"`
	MaxWords    int     `toml:"max_words"`
}

// Layout selects the window strategy.
type Layout struct {
	Mode          string  `toml:"mode"`
	VisibleLines  int     `toml:"visible_lines"`
	PairGrace     float64 `toml:"pair_grace"`
	ActiveEpsilon float64 `toml:"active_epsilon"`
}

type Countdown struct {
	Threshold float64 `toml:"threshold"`
}

// Colors are "#RRGGBB" strings.
type Colors struct {
	Upcoming   string `toml:"upcoming"`
	Active     string `toml:"active"`
	Sung       string `toml:"sung"`
	Background string `toml:"background"`
}

type Song struct {
	Title  string `toml:"title"`
	Artist string `toml:"artist"`
}

// Encoder contains external tool locations and x264/aac settings.
type Encoder struct {
	FFmpeg       string `toml:"ffmpeg"`
	FFprobe      string `toml:"ffprobe"`
	Preset       string `toml:"preset"`
	CRF          int    `toml:"crf"`
	AudioBitrate string `toml:"audio_bitrate"`
	PixFmt       string `toml:"pix_fmt"`
}

// Output controls which artifacts a render produces and where.
type Output struct {
	Dir       string `toml:"dir"`
	SyncCheck bool   `toml:"sync_check"`
	Final     bool   `toml:"final"`
	Subtitles bool   `toml:"subtitles"`
}

type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config encapsulates all render settings.
type Config struct {
	Video     Video     `toml:"video"`
	Text      Text      `toml:"text"`
	Layout    Layout    `toml:"layout"`
	Countdown Countdown `toml:"countdown"`
	Colors    Colors    `toml:"colors"`
	Song      Song      `toml:"song"`
	Encoder   Encoder   `toml:"encoder"`
	Output    Output    `toml:"output"`
	Logging   Logging   `toml:"logging"`
}

// DefaultConfigPath returns the per-user configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/karaoke/config.toml")
}

// Load locates, parses, and validates a configuration file. A missing file is
// not an error; defaults are used and exists is false.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file).DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if strings.TrimSpace(path) == "" {
		path = strings.TrimSpace(os.Getenv(EnvConfig))
	}
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("karaoke.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	return defaultPath, false, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ExpandPath exposes the path expansion rules (leading ~, absolute) for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

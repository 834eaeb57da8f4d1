package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeEncoder()
	c.normalizeLayout()
	c.normalizeLogging()
	c.Song.Title = strings.TrimSpace(c.Song.Title)
	c.Song.Artist = strings.TrimSpace(c.Song.Artist)
	if c.Video.Workers <= 0 {
		c.Video.Workers = defaultWorkers
	}

	var err error
	if c.Text.FontPath, err = expandPath(strings.TrimSpace(c.Text.FontPath)); err != nil {
		return fmt.Errorf("text.font_path: %w", err)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = defaultOutputDir
	}
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	if v := strings.TrimSpace(os.Getenv(EnvFFmpeg)); v != "" {
		c.Encoder.FFmpeg = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFFprobe)); v != "" {
		c.Encoder.FFprobe = v
	}
	c.Encoder.FFmpeg = orDefault(c.Encoder.FFmpeg, defaultFFmpeg)
	c.Encoder.FFprobe = orDefault(c.Encoder.FFprobe, defaultFFprobe)
	c.Encoder.Preset = orDefault(c.Encoder.Preset, defaultPreset)
	c.Encoder.AudioBitrate = orDefault(c.Encoder.AudioBitrate, defaultAudioBitrate)
	c.Encoder.PixFmt = orDefault(c.Encoder.PixFmt, defaultPixFmt)
}

func (c *Config) normalizeLayout() {
	c.Layout.Mode = strings.ToLower(orDefault(c.Layout.Mode, defaultLayoutMode))
	for _, p := range []*string{&c.Colors.Upcoming, &c.Colors.Active, &c.Colors.Sung, &c.Colors.Background} {
		*p = strings.ToUpper(strings.TrimSpace(*p))
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Level = strings.ToLower(orDefault(c.Logging.Level, defaultLogLevel))
	c.Logging.Format = strings.ToLower(orDefault(c.Logging.Format, defaultLogFormat))
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}

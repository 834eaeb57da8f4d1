package config

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateVideo(); err != nil {
		return err
	}
	if err := c.validateText(); err != nil {
		return err
	}
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateColors(); err != nil {
		return err
	}
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if !c.Output.SyncCheck && !c.Output.Final {
		return errors.New("output: at least one of sync_check or final must be enabled")
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}

func (c *Config) validateVideo() error {
	if c.Video.Width <= 0 || c.Video.Height <= 0 {
		return fmt.Errorf("video: width and height must be positive, got %dx%d", c.Video.Width, c.Video.Height)
	}
	// yuv420p needs even dimensions
	if c.Video.Width%2 != 0 || c.Video.Height%2 != 0 {
		return fmt.Errorf("video: width and height must be even, got %dx%d", c.Video.Width, c.Video.Height)
	}
	if c.Video.FPS <= 0 {
		return errors.New("video.fps must be positive")
	}
	return nil
}

func (c *Config) validateText() error {
	if c.Text.FontSize <= 0 {
		return errors.New("text.font_size must be positive")
	}
	if c.Text.LineSpacing <= 0 {
		return errors.New("text.line_spacing must be positive")
	}
	if c.Text.MaxChars < 1 {
		return errors.New("text.max_chars must be at least 1")
	}
	if c.Text.MaxWords < 1 {
		return errors.New("text.max_words must be at least 1")
	}
	return nil
}

func (c *Config) validateLayout() error {
	switch c.Layout.Mode {
	case "paired", "windowed":
	default:
		return fmt.Errorf("layout.mode: unsupported value %q (want paired or windowed)", c.Layout.Mode)
	}
	if c.Layout.VisibleLines < 1 {
		return errors.New("layout.visible_lines must be at least 1")
	}
	if c.Layout.PairGrace < 0 || c.Layout.ActiveEpsilon < 0 {
		return errors.New("layout.pair_grace and layout.active_epsilon must not be negative")
	}
	if c.Countdown.Threshold < 0 {
		return errors.New("countdown.threshold must not be negative")
	}
	return nil
}

func (c *Config) validateColors() error {
	for name, v := range map[string]string{
		"upcoming":   c.Colors.Upcoming,
		"active":     c.Colors.Active,
		"sung":       c.Colors.Sung,
		"background": c.Colors.Background,
	} {
		if _, err := ParseColor(v); err != nil {
			return fmt.Errorf("colors.%s: %w", name, err)
		}
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if c.Encoder.CRF < 1 || c.Encoder.CRF > 51 {
		return fmt.Errorf("encoder.crf must be within 1..51, got %d", c.Encoder.CRF)
	}
	return nil
}

// ParseColor parses "#RRGGBB" (the leading # is optional) into an opaque color.
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) != 6 {
		return color.RGBA{}, fmt.Errorf("invalid color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}

package config

const (
	defaultWidth         = 1920
	defaultHeight        = 1080
	defaultFPS           = 30
	defaultWorkers       = 1
	defaultFontSize      = 72
	defaultLineSpacing   = 110
	defaultMaxChars      = 36
	defaultMaxWords      = 7
	defaultLayoutMode    = "paired"
	defaultVisibleLines  = 4
	defaultPairGrace     = 0.5
	defaultActiveEpsilon = 0.1
	defaultCountdown     = 0.3
	defaultUpcoming      = "#FFFFFF"
	defaultActive        = "#FFDC00"
	defaultSung          = "#505050"
	defaultBackground    = "#000000"
	defaultFFmpeg        = "ffmpeg"
	defaultFFprobe       = "ffprobe"
	defaultPreset        = "fast"
	defaultCRF           = 18
	defaultAudioBitrate  = "192k"
	defaultPixFmt        = "yuv420p"
	defaultOutputDir     = "out"
	defaultLogLevel      = "info"
	defaultLogFormat     = "console"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Video: Video{
			Width:   defaultWidth,
			Height:  defaultHeight,
			FPS:     defaultFPS,
			Workers: defaultWorkers,
		},
		Text: Text{
			FontSize:    defaultFontSize,
			LineSpacing: defaultLineSpacing,
			MaxChars:    defaultMaxChars,
			MaxWords:    defaultMaxWords,
		},
		Layout: Layout{
			Mode:          defaultLayoutMode,
			VisibleLines:  defaultVisibleLines,
			PairGrace:     defaultPairGrace,
			ActiveEpsilon: defaultActiveEpsilon,
		},
		Countdown: Countdown{Threshold: defaultCountdown},
		Colors: Colors{
			Upcoming:   defaultUpcoming,
			Active:     defaultActive,
			Sung:       defaultSung,
			Background: defaultBackground,
		},
		Encoder: Encoder{
			FFmpeg:       defaultFFmpeg,
			FFprobe:      defaultFFprobe,
			Preset:       defaultPreset,
			CRF:          defaultCRF,
			AudioBitrate: defaultAudioBitrate,
			PixFmt:       defaultPixFmt,
		},
		Output: Output{
			Dir:       defaultOutputDir,
			Final:     true,
			Subtitles: true,
		},
		Logging: Logging{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
		},
	}
}

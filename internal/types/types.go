package types

// Transcript is the whisper-style shape some aligners emit: words nested in
// segments. The flat word list is accepted as well (see RawWord).
type Transcript struct {
	Segments []Segment `json:"segments" yaml:"segments"`
}

type Segment struct {
	Start float64   `json:"start" yaml:"start"`
	End   float64   `json:"end" yaml:"end"`
	Text  string    `json:"text" yaml:"text"`
	Words []RawWord `json:"words,omitempty" yaml:"words,omitempty"`
}

// RawWord is one word record exactly as it arrives from the upstream
// transcription/alignment stage. Pointer fields distinguish "missing" from
// zero so the timeline builder can reject incomplete records.
type RawWord struct {
	Word       *string  `json:"word,omitempty" yaml:"word,omitempty"`
	Text       *string  `json:"text,omitempty" yaml:"text,omitempty"`
	Start      *float64 `json:"start" yaml:"start"`
	End        *float64 `json:"end" yaml:"end"`
	Conf       *float64 `json:"conf,omitempty" yaml:"conf,omitempty"`
	Confidence *float64 `json:"confidence,omitempty" yaml:"confidence,omitempty"`
	Source     string   `json:"source,omitempty" yaml:"source,omitempty"`
}

// Label returns the word text, preferring "text" over the legacy "word" key.
func (w RawWord) Label() (string, bool) {
	if w.Text != nil {
		return *w.Text, true
	}
	if w.Word != nil {
		return *w.Word, true
	}
	return "", false
}

// Score returns the confidence value, defaulting to 1 when absent.
func (w RawWord) Score() float64 {
	switch {
	case w.Confidence != nil:
		return *w.Confidence
	case w.Conf != nil:
		return *w.Conf
	default:
		return 1
	}
}

type Manifest struct {
	SessionID string           `json:"session_id"`
	Title     string           `json:"title,omitempty"`
	Artist    string           `json:"artist,omitempty"`
	Timeline  ManifestTimeline `json:"timeline"`
	Outputs   []ManifestOutput `json:"outputs"`
	Subtitles string           `json:"subtitles,omitempty"`
}

type ManifestTimeline struct {
	Words        int            `json:"words"`
	Lines        int            `json:"lines"`
	Dropped      int            `json:"dropped"`
	NonMonotonic int            `json:"non_monotonic"`
	Sources      map[string]int `json:"sources"`
	Layout       string         `json:"layout"`
}

type ManifestOutput struct {
	Kind        string  `json:"kind"`
	File        string  `json:"file"`
	Audio       string  `json:"audio"`
	DurationSec float64 `json:"duration_sec"`
	Frames      int     `json:"frames"`
	FPS         int     `json:"fps"`
}

package types

import "fmt"

// MalformedTimelineError reports a transcript that cannot be rendered at all.
// Index is the offending record position, or -1 when the whole input is at fault.
type MalformedTimelineError struct {
	Index  int
	Reason string
}

func (e *MalformedTimelineError) Error() string {
	if e.Index < 0 {
		return "malformed timeline: " + e.Reason
	}
	return fmt.Sprintf("malformed timeline: word %d: %s", e.Index, e.Reason)
}

// AudioProbeError reports an audio source whose duration could not be determined.
type AudioProbeError struct {
	Path string
	Err  error
}

func (e *AudioProbeError) Error() string {
	return fmt.Sprintf("probe audio %q: %v", e.Path, e.Err)
}

func (e *AudioProbeError) Unwrap() error { return e.Err }

// RenderEncodingError reports a failed encoder subprocess. Stderr carries the
// tail of the encoder's diagnostic output.
type RenderEncodingError struct {
	Output   string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *RenderEncodingError) Error() string {
	msg := fmt.Sprintf("encode %s: %v", e.Output, e.Err)
	if e.ExitCode > 0 {
		msg = fmt.Sprintf("encode %s: exit status %d", e.Output, e.ExitCode)
	}
	if e.Stderr != "" {
		msg += "\n" + e.Stderr
	}
	return msg
}

func (e *RenderEncodingError) Unwrap() error { return e.Err }

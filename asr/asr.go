// Package asr wraps the external speech-to-text and speaker-diarization
// services. Both are black boxes reached over HTTP; this package only owns
// the wire contract.
package asr

import (
	"context"

	"call-insights/transcript"
)

// Transcriber converts an audio file into a raw, speaker-less transcript.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error)
}

// Diarizer partitions an audio file into speaker turns. Available reports
// whether the runtime has a diarizer configured at all; callers fall back
// to heuristic role assignment when it does not.
type Diarizer interface {
	Available() bool
	Diarize(ctx context.Context, audioPath string, minSpeakers, maxSpeakers int) (*transcript.DiarizationResult, error)
}

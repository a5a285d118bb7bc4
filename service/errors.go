package service

import "errors"

var (
	// ErrAudioNotFound: no readable audio object at the recorded path or
	// the fallback location. Fatal to the call.
	ErrAudioNotFound = errors.New("audio not found")

	// ErrAlreadyProcessing: another pipeline run holds this call.
	ErrAlreadyProcessing = errors.New("call is already processing")

	// ErrCallNotProcessed: the transcript was requested before any
	// pipeline run reached this call.
	ErrCallNotProcessed = errors.New("call has not been processed")

	// ErrTranscriptMissing: the call looks processed but its artifact is
	// gone from storage.
	ErrTranscriptMissing = errors.New("transcript not found")

	// ErrUnsupportedFormat: upload with an extension outside .mp3/.wav.
	ErrUnsupportedFormat = errors.New("unsupported audio format")

	ErrCallNotFound     = errors.New("call not found")
	ErrAnalysisNotFound = errors.New("analysis not found")
)

package transcript

import (
	"math"
	"sort"
)

// DiarizationTurn is one speaker-attributed interval from the diarizer.
// Turns of one speaker do not overlap; turns of different speakers may.
type DiarizationTurn struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Speaker   string  `json:"speaker"`
	SpeakerID int     `json:"speaker_id"`
}

func (d DiarizationTurn) midpoint() float64 {
	return (d.Start + d.End) / 2
}

// DiarizationResult is the full diarizer output. It is consumed by
// MergeDiarization and never persisted on its own.
type DiarizationResult struct {
	Turns       []DiarizationTurn `json:"segments"`
	Speakers    []string          `json:"speakers"`
	NumSpeakers int               `json:"num_speakers"`
}

// MergeDiarization attributes every transcript segment to a speaker by
// segment midpoint: the first turn containing the midpoint wins; failing
// that, the turn with the nearest midpoint (earliest turn on ties). With no
// turns at all every segment gets the unknown-speaker sentinel. The output
// has exactly one segment per input segment.
//
// When diarization turns overlap, first-in-scan-order is the defined
// tie-break. A most-overlap policy would sometimes pick a different
// speaker; keep this in sync with the diarizer before changing it.
func MergeDiarization(t *Transcript, d *DiarizationResult) *Transcript {
	merged := make([]Segment, len(t.Segments))
	for i, seg := range t.Segments {
		merged[i] = seg.WithSpeaker(assignSpeaker(seg, d.Turns))
	}

	speakers := d.Speakers
	numSpeakers := d.NumSpeakers
	if len(d.Turns) == 0 && len(t.Segments) > 0 {
		speakers = []string{UnknownSpeaker}
		numSpeakers = 1
	}

	return &Transcript{
		Text:        t.Text,
		Segments:    merged,
		Speakers:    speakers,
		NumSpeakers: numSpeakers,
		Language:    t.Language,
	}
}

func assignSpeaker(seg Segment, turns []DiarizationTurn) (string, int) {
	if len(turns) == 0 {
		return UnknownSpeaker, UnknownSpeakerID
	}

	m := seg.midpoint()
	for _, turn := range turns {
		if turn.Start <= m && m <= turn.End {
			return turn.Speaker, turn.SpeakerID
		}
	}

	best := turns[0]
	bestDist := math.Abs(m - best.midpoint())
	for _, turn := range turns[1:] {
		if dist := math.Abs(m - turn.midpoint()); dist < bestDist {
			best = turn
			bestDist = dist
		}
	}
	return best.Speaker, best.SpeakerID
}

// SortedSpeakers returns the distinct speaker labels of the turns in sorted
// order, the form reported by the diarizer contract.
func SortedSpeakers(turns []DiarizationTurn) []string {
	set := make(map[string]bool)
	for _, turn := range turns {
		set[turn.Speaker] = true
	}
	out := make([]string, 0, len(set))
	for speaker := range set {
		out = append(out, speaker)
	}
	sort.Strings(out)
	return out
}

package transcript

import (
	"fmt"
	"strings"
)

// UnknownSpeaker labels segments that could not be attributed to any
// diarized speaker.
const UnknownSpeaker = "SPEAKER_UNKNOWN"

// UnknownSpeakerID is the speaker_id paired with UnknownSpeaker.
const UnknownSpeakerID = -1

// Segment is one time-indexed piece of transcribed speech. Times are
// seconds from the start of the recording.
type Segment struct {
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	Text      string  `json:"text"`
	Speaker   string  `json:"speaker_label,omitempty"`
	SpeakerID int     `json:"speaker_id"`
	Role      string  `json:"role,omitempty"`
}

// WithSpeaker returns a copy of the segment attributed to the given speaker.
func (s Segment) WithSpeaker(label string, id int) Segment {
	s.Speaker = label
	s.SpeakerID = id
	return s
}

// WithRole returns a copy of the segment carrying the given role.
func (s Segment) WithRole(role string) Segment {
	s.Role = role
	return s
}

func (s Segment) midpoint() float64 {
	return (s.Start + s.End) / 2
}

// Transcript is the persisted per-call artifact.
type Transcript struct {
	Text         string            `json:"text"`
	Segments     []Segment         `json:"segments"`
	Speakers     []string          `json:"speakers"`
	NumSpeakers  int               `json:"num_speakers"`
	SpeakerRoles map[string]string `json:"speaker_roles,omitempty"`
	Language     string            `json:"language,omitempty"`
}

// Duration is the end time of the last segment, zero for an empty transcript.
func (t *Transcript) Duration() float64 {
	if len(t.Segments) == 0 {
		return 0
	}
	return t.Segments[len(t.Segments)-1].End
}

// SpeakerOrder lists distinct speakers by first appearance in the segment
// sequence. Role fallback depends on this order, not on label sort order.
func (t *Transcript) SpeakerOrder() []string {
	seen := make(map[string]bool, len(t.Speakers))
	var order []string
	for _, seg := range t.Segments {
		if seg.Speaker == "" || seen[seg.Speaker] {
			continue
		}
		seen[seg.Speaker] = true
		order = append(order, seg.Speaker)
	}
	return order
}

// SpeakerSamples concatenates the first maxUtterances non-empty utterances
// of each speaker, for role classification prompts.
func (t *Transcript) SpeakerSamples(maxUtterances int) map[string]string {
	counts := make(map[string]int)
	samples := make(map[string]*strings.Builder)
	for _, seg := range t.Segments {
		text := strings.TrimSpace(seg.Text)
		if seg.Speaker == "" || text == "" {
			continue
		}
		if counts[seg.Speaker] >= maxUtterances {
			continue
		}
		counts[seg.Speaker]++
		b, ok := samples[seg.Speaker]
		if !ok {
			b = &strings.Builder{}
			samples[seg.Speaker] = b
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(text)
	}
	out := make(map[string]string, len(samples))
	for speaker, b := range samples {
		out[speaker] = b.String()
	}
	return out
}

// ApplyRoles returns a copy of the transcript with the role mapping applied
// to every segment. Speakers absent from the mapping get RoleUnknown-like
// handling via the provided fallback role.
func (t *Transcript) ApplyRoles(roles map[string]string, unknownRole string) *Transcript {
	segments := make([]Segment, len(t.Segments))
	for i, seg := range t.Segments {
		role, ok := roles[seg.Speaker]
		if !ok {
			role = unknownRole
		}
		segments[i] = seg.WithRole(role)
	}
	out := *t
	out.Segments = segments
	out.SpeakerRoles = roles
	return &out
}

// RenderRoleLines renders the transcript as ordered "[role] text" lines,
// the form fed to the analysis prompt.
func (t *Transcript) RenderRoleLines() string {
	var b strings.Builder
	for _, seg := range t.Segments {
		label := seg.Role
		if label == "" {
			label = seg.Speaker
		}
		if label == "" {
			label = "Speaker"
		}
		fmt.Fprintf(&b, "[%s] %s\n", label, strings.TrimSpace(seg.Text))
	}
	return strings.TrimRight(b.String(), "\n")
}

// SingleSpeaker builds the placeholder transcript used when diarization is
// disabled: the full text as one segment spanning the whole duration,
// attributed to one synthetic speaker.
func SingleSpeaker(text, language string, duration float64, speaker string) *Transcript {
	return &Transcript{
		Text: text,
		Segments: []Segment{
			{Start: 0, End: duration, Text: text, Speaker: speaker, SpeakerID: 0},
		},
		Speakers:    []string{speaker},
		NumSpeakers: 1,
		Language:    language,
	}
}

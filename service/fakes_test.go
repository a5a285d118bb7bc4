package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"call-insights/constant"
	"call-insights/entities"
	"call-insights/transcript"
)

// fakeRepo is an in-memory repository.Repository.
type fakeRepo struct {
	calls           map[uuid.UUID]*entities.Call
	analyses        map[uuid.UUID]*entities.Analysis
	analysisCalls   map[uuid.UUID][]uuid.UUID
	results         []*entities.AnalysisResult
	templates       []*entities.AnalysisTemplate
	progressHistory map[uuid.UUID][]int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		calls:           map[uuid.UUID]*entities.Call{},
		analyses:        map[uuid.UUID]*entities.Analysis{},
		analysisCalls:   map[uuid.UUID][]uuid.UUID{},
		progressHistory: map[uuid.UUID][]int{},
	}
}

func (f *fakeRepo) addCall(status constant.CallStatus, hasTranscript bool) *entities.Call {
	call := &entities.Call{
		ID:            uuid.New(),
		Filename:      fmt.Sprintf("call-%d.mp3", len(f.calls)+1),
		Status:        status,
		HasTranscript: hasTranscript,
	}
	call.StoragePath = "audio/" + call.Filename
	f.calls[call.ID] = call
	return call
}

func (f *fakeRepo) addAnalysis(query string, callIDs []uuid.UUID) *entities.Analysis {
	analysis := &entities.Analysis{
		ID:         uuid.New(),
		Name:       "test",
		QueryText:  query,
		Status:     constant.AnalysisStatusPending,
		TotalCalls: len(callIDs),
	}
	f.analyses[analysis.ID] = analysis
	f.analysisCalls[analysis.ID] = callIDs
	return analysis
}

func (f *fakeRepo) CreateCall(ctx context.Context, call *entities.Call) error {
	f.calls[call.ID] = call
	return nil
}

func (f *fakeRepo) FindCallByID(ctx context.Context, id uuid.UUID) (*entities.Call, error) {
	call, ok := f.calls[id]
	if !ok {
		return nil, fmt.Errorf("call %s not found", id)
	}
	return call, nil
}

func (f *fakeRepo) FindCallsByIDs(ctx context.Context, ids []uuid.UUID) ([]*entities.Call, error) {
	var out []*entities.Call
	for _, id := range ids {
		if call, ok := f.calls[id]; ok {
			out = append(out, call)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListCalls(ctx context.Context, status constant.CallStatus, search string) ([]*entities.Call, error) {
	var out []*entities.Call
	for _, call := range f.calls {
		if status != "" && call.Status != status {
			continue
		}
		out = append(out, call)
	}
	return out, nil
}

func (f *fakeRepo) UpdateCallStatus(ctx context.Context, id uuid.UUID, status constant.CallStatus) error {
	f.calls[id].Status = status
	return nil
}

func (f *fakeRepo) BeginCallProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	call := f.calls[id]
	if call.Status == constant.CallStatusProcessing {
		return false, nil
	}
	call.Status = constant.CallStatusProcessing
	return true, nil
}

func (f *fakeRepo) MarkCallTranscribed(ctx context.Context, id uuid.UUID, durationSec int, at time.Time) error {
	call := f.calls[id]
	call.HasTranscript = true
	call.DurationSec = &durationSec
	call.TranscriptUpdatedAt = &at
	return nil
}

func (f *fakeRepo) DeleteCall(ctx context.Context, id uuid.UUID) error {
	delete(f.calls, id)
	return nil
}

func (f *fakeRepo) CreateAnalysis(ctx context.Context, analysis *entities.Analysis, callIDs []uuid.UUID) error {
	f.analyses[analysis.ID] = analysis
	f.analysisCalls[analysis.ID] = callIDs
	return nil
}

func (f *fakeRepo) FindAnalysisByID(ctx context.Context, id uuid.UUID) (*entities.Analysis, error) {
	analysis, ok := f.analyses[id]
	if !ok {
		return nil, fmt.Errorf("analysis %s not found", id)
	}
	return analysis, nil
}

func (f *fakeRepo) ListAnalyses(ctx context.Context) ([]*entities.Analysis, error) {
	var out []*entities.Analysis
	for _, analysis := range f.analyses {
		out = append(out, analysis)
	}
	return out, nil
}

func (f *fakeRepo) FindAnalysisCallIDs(ctx context.Context, analysisID uuid.UUID) ([]uuid.UUID, error) {
	return f.analysisCalls[analysisID], nil
}

func (f *fakeRepo) UpdateAnalysisStatus(ctx context.Context, id uuid.UUID, status constant.AnalysisStatus) error {
	f.analyses[id].Status = status
	return nil
}

func (f *fakeRepo) UpdateAnalysisProgress(ctx context.Context, id uuid.UUID, progress int) error {
	f.analyses[id].Progress = progress
	f.progressHistory[id] = append(f.progressHistory[id], progress)
	return nil
}

func (f *fakeRepo) CreateAnalysisResult(ctx context.Context, result *entities.AnalysisResult) error {
	f.results = append(f.results, result)
	return nil
}

func (f *fakeRepo) ListAnalysisResults(ctx context.Context, analysisID uuid.UUID) ([]*entities.AnalysisResult, error) {
	var out []*entities.AnalysisResult
	for _, result := range f.results {
		if result.AnalysisID == analysisID {
			out = append(out, result)
		}
	}
	return out, nil
}

func (f *fakeRepo) CountProcessedCalls(ctx context.Context, analysisID uuid.UUID) (int, error) {
	seen := map[uuid.UUID]bool{}
	for _, result := range f.results {
		if result.AnalysisID == analysisID {
			seen[result.CallID] = true
		}
	}
	return len(seen), nil
}

func (f *fakeRepo) CountErrorCalls(ctx context.Context, analysisID uuid.UUID) (int, error) {
	count := 0
	for _, id := range f.analysisCalls[analysisID] {
		if call, ok := f.calls[id]; ok && call.Status == constant.CallStatusError {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepo) ListTemplates(ctx context.Context) ([]*entities.AnalysisTemplate, error) {
	return f.templates, nil
}

func (f *fakeRepo) CreateTemplate(ctx context.Context, template *entities.AnalysisTemplate) error {
	f.templates = append(f.templates, template)
	return nil
}

func (f *fakeRepo) CountSystemTemplates(ctx context.Context) (int, error) {
	count := 0
	for _, template := range f.templates {
		if template.IsSystem {
			count++
		}
	}
	return count, nil
}

// fakeStore is an in-memory storage.Store keeping transcripts as the
// exact bytes written, so byte-identity can be asserted.
type fakeStore struct {
	audio       map[string]bool
	transcripts map[uuid.UUID][]byte
	saveCount   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{audio: map[string]bool{}, transcripts: map[uuid.UUID][]byte{}}
}

func (f *fakeStore) AudioPathFor(filename string) string {
	return "audio/" + filename
}

func (f *fakeStore) PutAudio(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error) {
	objectPath := f.AudioPathFor(objectName)
	f.audio[objectPath] = true
	return objectPath, nil
}

func (f *fakeStore) AudioExists(ctx context.Context, objectPath string) (bool, error) {
	return f.audio[objectPath], nil
}

func (f *fakeStore) FetchAudio(ctx context.Context, objectPath, localPath string) error {
	if !f.audio[objectPath] {
		return fmt.Errorf("no object %s", objectPath)
	}
	return os.WriteFile(localPath, []byte("fake-audio"), 0o644)
}

func (f *fakeStore) RemoveAudio(ctx context.Context, objectPath string) error {
	delete(f.audio, objectPath)
	return nil
}

func (f *fakeStore) SaveTranscript(ctx context.Context, callID uuid.UUID, t *transcript.Transcript) error {
	buf, err := json.Marshal(t)
	if err != nil {
		return err
	}
	f.transcripts[callID] = buf
	f.saveCount++
	return nil
}

func (f *fakeStore) LoadTranscript(ctx context.Context, callID uuid.UUID) (*transcript.Transcript, error) {
	buf, ok := f.transcripts[callID]
	if !ok {
		return nil, fmt.Errorf("no transcript for %s", callID)
	}
	var t transcript.Transcript
	if err := json.Unmarshal(buf, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (f *fakeStore) RemoveTranscript(ctx context.Context, callID uuid.UUID) error {
	delete(f.transcripts, callID)
	return nil
}

// fakeTranscriber returns a scripted transcript, or fails for call paths
// listed in failFor.
type fakeTranscriber struct {
	result  *transcript.Transcript
	failFor map[string]bool
	calls   int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	f.calls++
	for name := range f.failFor {
		if name != "" && strings.Contains(audioPath, name) {
			return nil, fmt.Errorf("model crashed on %s", name)
		}
	}
	out := *f.result
	return &out, nil
}

type fakeDiarizer struct {
	available bool
	result    *transcript.DiarizationResult
	err       error
	calls     int
}

func (f *fakeDiarizer) Available() bool {
	return f.available
}

func (f *fakeDiarizer) Diarize(ctx context.Context, audioPath string, minSpeakers, maxSpeakers int) (*transcript.DiarizationResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeGenerator struct {
	response string
	err      error
	calls    int
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt string, jsonMode bool) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func defaultTranscript() *transcript.Transcript {
	return &transcript.Transcript{
		Text: "good afternoon how can I help hello how much is delivery",
		Segments: []transcript.Segment{
			{Start: 0, End: 3, Text: "good afternoon, how can I help"},
			{Start: 3, End: 6, Text: "hello, how much is delivery"},
		},
		Language: "en",
	}
}

func defaultDiarization() *transcript.DiarizationResult {
	return &transcript.DiarizationResult{
		Turns: []transcript.DiarizationTurn{
			{Start: 0, End: 3, Speaker: "SPEAKER_00", SpeakerID: 0},
			{Start: 3, End: 6, Speaker: "SPEAKER_01", SpeakerID: 1},
		},
		Speakers:    []string{"SPEAKER_00", "SPEAKER_01"},
		NumSpeakers: 2,
	}
}

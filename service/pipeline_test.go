package service

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"call-insights/config"
	"call-insights/constant"
	"call-insights/pkg/governor"
	"call-insights/roles"
)

func testPipelineConfig() config.Pipeline {
	return config.Pipeline{MaxConcurrentInference: 2, DiarizationEnabled: true}
}

func newTestPipeline(repo *fakeRepo, store *fakeStore, tr *fakeTranscriber, di *fakeDiarizer, gen *fakeGenerator, cfg config.Pipeline) *Pipeline {
	return NewPipeline(repo, store, tr, di, roles.NewResolver(gen), governor.New(cfg.MaxConcurrentInference), cfg)
}

func TestPipelineServesCachedTranscriptWithoutInference(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	tr := &fakeTranscriber{result: defaultTranscript()}
	di := &fakeDiarizer{available: true, result: defaultDiarization()}
	gen := &fakeGenerator{response: `{"speaker_roles":{"SPEAKER_00":"Employee","SPEAKER_01":"Customer"}}`}
	p := newTestPipeline(repo, store, tr, di, gen, testPipelineConfig())

	call := repo.addCall(constant.CallStatusNew, false)
	store.audio[call.StoragePath] = true

	first, err := p.Run(ctx, call, false)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if tr.calls != 1 || di.calls != 1 {
		t.Fatalf("first run inference calls: transcriber=%d diarizer=%d", tr.calls, di.calls)
	}
	artifact := append([]byte(nil), store.transcripts[call.ID]...)

	second, err := p.Run(ctx, call, false)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if tr.calls != 1 || di.calls != 1 || gen.calls != 1 {
		t.Errorf("second run must issue no inference calls: transcriber=%d diarizer=%d llm=%d", tr.calls, di.calls, gen.calls)
	}
	if !bytes.Equal(artifact, store.transcripts[call.ID]) {
		t.Error("persisted transcript changed on cached run")
	}
	if first.RenderRoleLines() != second.RenderRoleLines() {
		t.Error("cached transcript differs from computed one")
	}
}

func TestPipelineForceReexecutesEveryStage(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	tr := &fakeTranscriber{result: defaultTranscript()}
	di := &fakeDiarizer{available: true, result: defaultDiarization()}
	gen := &fakeGenerator{response: `{"speaker_roles":{"SPEAKER_00":"Employee","SPEAKER_01":"Customer"}}`}
	p := newTestPipeline(repo, store, tr, di, gen, testPipelineConfig())

	call := repo.addCall(constant.CallStatusNew, false)
	store.audio[call.StoragePath] = true

	if _, err := p.Run(ctx, call, false); err != nil {
		t.Fatal(err)
	}
	if _, err := p.Run(ctx, call, true); err != nil {
		t.Fatal(err)
	}
	if tr.calls != 2 || di.calls != 2 {
		t.Errorf("force must re-run inference: transcriber=%d diarizer=%d", tr.calls, di.calls)
	}
	if store.saveCount != 2 {
		t.Errorf("force must overwrite the artifact, saves=%d", store.saveCount)
	}
	if call.Status != constant.CallStatusProcessed {
		t.Errorf("status: %s", call.Status)
	}
}

func TestPipelineAudioNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	tr := &fakeTranscriber{result: defaultTranscript()}
	p := newTestPipeline(repo, store, tr, &fakeDiarizer{}, &fakeGenerator{}, testPipelineConfig())

	call := repo.addCall(constant.CallStatusNew, false)

	_, err := p.Run(ctx, call, false)
	if !errors.Is(err, ErrAudioNotFound) {
		t.Fatalf("expected ErrAudioNotFound, got %v", err)
	}
	if call.Status != constant.CallStatusError {
		t.Errorf("status after audio miss: %s", call.Status)
	}
	if tr.calls != 0 {
		t.Errorf("no inference expected, got %d calls", tr.calls)
	}
}

func TestPipelineRejectsConcurrentRun(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	p := newTestPipeline(repo, store, &fakeTranscriber{result: defaultTranscript()}, &fakeDiarizer{}, &fakeGenerator{}, testPipelineConfig())

	call := repo.addCall(constant.CallStatusProcessing, false)
	store.audio[call.StoragePath] = true

	_, err := p.Run(ctx, call, true)
	if !errors.Is(err, ErrAlreadyProcessing) {
		t.Fatalf("expected ErrAlreadyProcessing, got %v", err)
	}
	if call.Status != constant.CallStatusProcessing {
		t.Errorf("a rejected run must not touch the other run's status, got %s", call.Status)
	}
}

func TestPipelineDiarizationFailureFallsBack(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	gen := &fakeGenerator{response: `{"speaker_roles":{}}`}
	di := &fakeDiarizer{available: true, err: errors.New("cuda out of memory")}
	p := newTestPipeline(repo, store, &fakeTranscriber{result: defaultTranscript()}, di, gen, testPipelineConfig())

	call := repo.addCall(constant.CallStatusNew, false)
	store.audio[call.StoragePath] = true

	labeled, err := p.Run(ctx, call, false)
	if err != nil {
		t.Fatalf("diarization failure must not fail the call: %v", err)
	}
	if call.Status != constant.CallStatusProcessed {
		t.Errorf("status: %s", call.Status)
	}
	if gen.calls != 0 {
		t.Errorf("fallback path must not call the LLM, got %d calls", gen.calls)
	}
	for _, seg := range labeled.Segments {
		if seg.Role != constant.RoleEmployee {
			t.Errorf("all sentinel-speaker segments get the first fallback role, got %q", seg.Role)
		}
	}
}

func TestPipelineDiarizationDisabledProducesPlaceholder(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	cfg := testPipelineConfig()
	cfg.DiarizationEnabled = false
	gen := &fakeGenerator{}
	p := newTestPipeline(repo, store, &fakeTranscriber{result: defaultTranscript()}, &fakeDiarizer{available: true, result: defaultDiarization()}, gen, cfg)

	call := repo.addCall(constant.CallStatusNew, false)
	store.audio[call.StoragePath] = true

	labeled, err := p.Run(ctx, call, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(labeled.Segments) != 1 {
		t.Fatalf("expected one placeholder segment, got %d", len(labeled.Segments))
	}
	seg := labeled.Segments[0]
	if seg.Start != 0 || seg.End != 6 {
		t.Errorf("placeholder must span the whole duration: %v-%v", seg.Start, seg.End)
	}
	if seg.Role != constant.RoleEmployee {
		t.Errorf("synthetic speaker role: %q", seg.Role)
	}
	if gen.calls != 0 {
		t.Errorf("disabled diarization must not call the LLM, got %d", gen.calls)
	}
}

func TestPipelineAppliesLLMRoles(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := newFakeStore()
	gen := &fakeGenerator{response: `{"speaker_roles":{"SPEAKER_00":"Employee","SPEAKER_01":"Customer"}}`}
	p := newTestPipeline(repo, store, &fakeTranscriber{result: defaultTranscript()}, &fakeDiarizer{available: true, result: defaultDiarization()}, gen, testPipelineConfig())

	call := repo.addCall(constant.CallStatusNew, false)
	store.audio[call.StoragePath] = true

	labeled, err := p.Run(ctx, call, false)
	if err != nil {
		t.Fatal(err)
	}
	if labeled.SpeakerRoles["SPEAKER_01"] != constant.RoleCustomer {
		t.Errorf("speaker_roles: %v", labeled.SpeakerRoles)
	}
	if !call.HasTranscript || call.DurationSec == nil || *call.DurationSec != 6 {
		t.Errorf("call bookkeeping: has_transcript=%v duration=%v", call.HasTranscript, call.DurationSec)
	}
}

package service

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"call-insights/asr"
	"call-insights/config"
	"call-insights/constant"
	"call-insights/entities"
	"call-insights/pkg/governor"
	"call-insights/repository"
	"call-insights/roles"
	"call-insights/storage"
	"call-insights/transcript"
)

// Pipeline drives a single call through audio resolution, transcription,
// diarization, alignment, role resolution and transcript persistence.
//
// Call states: new -> processing -> processed|error, with processed and
// error re-enterable via force or retry. The processing transition is a
// conditional update, so two runs can never hold the same call.
type Pipeline struct {
	repo        repository.Repository
	store       storage.Store
	transcriber asr.Transcriber
	diarizer    asr.Diarizer
	resolver    *roles.Resolver
	gov         *governor.Governor
	cfg         config.Pipeline
}

func NewPipeline(
	repo repository.Repository,
	store storage.Store,
	transcriber asr.Transcriber,
	diarizer asr.Diarizer,
	resolver *roles.Resolver,
	gov *governor.Governor,
	cfg config.Pipeline,
) *Pipeline {
	return &Pipeline{
		repo:        repo,
		store:       store,
		transcriber: transcriber,
		diarizer:    diarizer,
		resolver:    resolver,
		gov:         gov,
		cfg:         cfg,
	}
}

// Run produces the role-labeled transcript for a call. Without force, a
// call that already has a readable transcript is served from storage and
// no inference runs at all; with force every stage re-executes and the
// stored artifact is overwritten.
func (p *Pipeline) Run(ctx context.Context, call *entities.Call, force bool) (result *transcript.Transcript, err error) {
	log := zerolog.Ctx(ctx).With().Str("call_id", call.ID.String()).Logger()

	if call.HasTranscript && !force {
		cached, loadErr := p.store.LoadTranscript(ctx, call.ID)
		if loadErr == nil {
			log.Debug().Msg("serving cached transcript")
			return cached, nil
		}
		log.Warn().Err(loadErr).Msg("cached transcript unreadable, re-running pipeline")
	}

	ok, err := p.repo.BeginCallProcessing(ctx, call.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyProcessing
	}

	// A crash mid-pipeline leaves the call visibly "processing"; any
	// returned error must not leave it stuck there.
	defer func() {
		if err != nil {
			if updateErr := p.repo.UpdateCallStatus(ctx, call.ID, constant.CallStatusError); updateErr != nil {
				log.Error().Err(updateErr).Msg("failed to persist error status")
			}
		}
	}()

	audioPath, err := p.resolveAudio(ctx, call)
	if err != nil {
		return nil, err
	}

	tempDir, err := os.MkdirTemp("", "call-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	localPath := filepath.Join(tempDir, call.Filename)
	log.Info().Str("object", audioPath).Msg("downloading audio")
	if err = p.store.FetchAudio(ctx, audioPath, localPath); err != nil {
		return nil, err
	}

	labeled, err := p.transcribeAndLabel(ctx, localPath)
	if err != nil {
		return nil, err
	}

	if err = p.store.SaveTranscript(ctx, call.ID, labeled); err != nil {
		return nil, err
	}
	duration := int(math.Round(labeled.Duration()))
	if err = p.repo.MarkCallTranscribed(ctx, call.ID, duration, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err = p.repo.UpdateCallStatus(ctx, call.ID, constant.CallStatusProcessed); err != nil {
		return nil, err
	}

	log.Info().Int("segments", len(labeled.Segments)).Int("speakers", labeled.NumSpeakers).Msg("call processed")
	return labeled, nil
}

// resolveAudio locates a readable audio object: the recorded storage path
// first, then the canonical audio location for the call's filename.
func (p *Pipeline) resolveAudio(ctx context.Context, call *entities.Call) (string, error) {
	exists, err := p.store.AudioExists(ctx, call.StoragePath)
	if err != nil {
		return "", err
	}
	if exists {
		return call.StoragePath, nil
	}

	fallback := p.store.AudioPathFor(call.Filename)
	exists, err = p.store.AudioExists(ctx, fallback)
	if err != nil {
		return "", err
	}
	if exists {
		zerolog.Ctx(ctx).Info().Str("object", fallback).Msg("audio found at fallback path")
		return fallback, nil
	}

	return "", fmt.Errorf("%w: tried %q and %q", ErrAudioNotFound, call.StoragePath, fallback)
}

// transcribeAndLabel runs the inference stages under a governor slot and
// applies the diarization fallback chain: disabled config, unavailable
// diarizer and diarizer failure all degrade to deterministic role
// assignment instead of failing the call.
func (p *Pipeline) transcribeAndLabel(ctx context.Context, audioPath string) (*transcript.Transcript, error) {
	if err := p.gov.Acquire(ctx); err != nil {
		return nil, err
	}
	defer p.gov.Release()

	raw, err := p.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	if !p.cfg.DiarizationEnabled {
		single := transcript.SingleSpeaker(raw.Text, raw.Language, raw.Duration(), "SPEAKER_00")
		return single.ApplyRoles(roles.FallbackRoles(single.SpeakerOrder()), constant.RoleUnknown), nil
	}

	if !p.diarizer.Available() {
		zerolog.Ctx(ctx).Warn().Msg("diarizer unavailable, using fallback role assignment")
		return p.labelWithoutDiarization(raw), nil
	}

	diarization, err := p.diarizer.Diarize(ctx, audioPath, p.cfg.MinSpeakers, p.cfg.MaxSpeakers)
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Msg("diarization failed, using fallback role assignment")
		return p.labelWithoutDiarization(raw), nil
	}

	merged := transcript.MergeDiarization(raw, diarization)
	return p.resolver.Resolve(ctx, merged), nil
}

// labelWithoutDiarization keeps the transcript segmentation but attributes
// everything to the unknown-speaker sentinel, then assigns roles by the
// deterministic fallback policy. No LLM call is made on this path.
func (p *Pipeline) labelWithoutDiarization(raw *transcript.Transcript) *transcript.Transcript {
	merged := transcript.MergeDiarization(raw, &transcript.DiarizationResult{})
	return merged.ApplyRoles(roles.FallbackRoles(merged.SpeakerOrder()), constant.RoleUnknown)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"call-insights/constant"
	"call-insights/entities"
	"call-insights/llm"
	"call-insights/repository"
)

// rawResponseKey holds the unparsed model output when the analysis
// response is not valid JSON, so no work is silently lost.
const rawResponseKey = "raw"

// AnalysisService runs a submitted analysis: every target call goes
// through the pipeline, then through one LLM query, with per-call failure
// isolation. The batch itself always runs to completion.
type AnalysisService struct {
	repo      repository.Repository
	pipeline  *Pipeline
	generator llm.Generator
}

func NewAnalysisService(repo repository.Repository, pipeline *Pipeline, generator llm.Generator) *AnalysisService {
	return &AnalysisService{repo: repo, pipeline: pipeline, generator: generator}
}

// Run processes the analysis with the given id. Calls are attempted in
// submission order; a call failure increments the error count and moves
// on. Progress and per-call status are committed after every call so
// polling reflects live state. The analysis finishes as completed no
// matter how many calls errored.
func (s *AnalysisService) Run(ctx context.Context, analysisID uuid.UUID, force bool) error {
	log := zerolog.Ctx(ctx).With().Str("analysis_id", analysisID.String()).Logger()

	analysis, err := s.repo.FindAnalysisByID(ctx, analysisID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrAnalysisNotFound, analysisID)
	}
	callIDs, err := s.repo.FindAnalysisCallIDs(ctx, analysisID)
	if err != nil {
		return err
	}

	if err := s.repo.UpdateAnalysisStatus(ctx, analysisID, constant.AnalysisStatusRunning); err != nil {
		return err
	}

	total := len(callIDs)
	errorCount := 0
	for k, callID := range callIDs {
		if err := s.processCall(ctx, analysis, callID, force); err != nil {
			log.Error().Err(err).Str("call_id", callID.String()).Msg("call failed within analysis")
			errorCount++
		}

		progress := int(math.Round(100 * float64(k+1) / float64(total)))
		if err := s.repo.UpdateAnalysisProgress(ctx, analysisID, progress); err != nil {
			log.Error().Err(err).Msg("failed to persist progress")
		}
	}

	if err := s.repo.UpdateAnalysisStatus(ctx, analysisID, constant.AnalysisStatusCompleted); err != nil {
		return err
	}

	log.Info().Int("total", total).Int("errors", errorCount).Msg("analysis completed")
	return nil
}

func (s *AnalysisService) processCall(ctx context.Context, analysis *entities.Analysis, callID uuid.UUID, force bool) error {
	call, err := s.repo.FindCallByID(ctx, callID)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCallNotFound, callID)
	}

	labeled, err := s.pipeline.Run(ctx, call, force)
	if err != nil {
		return err
	}

	parsed, summary, err := s.analyze(ctx, labeled.RenderRoleLines(), analysis.QueryText)
	if err != nil {
		// LLM transport failure is fatal to this call only.
		if updateErr := s.repo.UpdateCallStatus(ctx, callID, constant.CallStatusError); updateErr != nil {
			zerolog.Ctx(ctx).Error().Err(updateErr).Msg("failed to persist error status")
		}
		return err
	}

	result := &entities.AnalysisResult{
		AnalysisID: analysis.ID,
		CallID:     callID,
		Summary:    summary,
		JSONResult: string(parsed),
	}
	if err := s.repo.CreateAnalysisResult(ctx, result); err != nil {
		return err
	}

	return s.repo.UpdateCallStatus(ctx, callID, constant.CallStatusProcessed)
}

// analyze runs one LLM query over the rendered transcript. An unparsable
// response is a content-shape failure, not a pipeline failure: the raw
// output is kept under rawResponseKey and the call still succeeds.
func (s *AnalysisService) analyze(ctx context.Context, renderedTranscript, queryText string) (jsonResult []byte, summary string, err error) {
	if strings.TrimSpace(renderedTranscript) == "" {
		empty := map[string]any{"summary": "empty transcript", "findings": []any{}}
		buf, _ := json.Marshal(empty)
		return buf, "empty transcript", nil
	}

	raw, err := s.generator.Generate(ctx, buildAnalysisPrompt(renderedTranscript, queryText), true)
	if err != nil {
		return nil, "", fmt.Errorf("analysis query: %w", err)
	}

	var parsed map[string]any
	if jsonErr := json.Unmarshal([]byte(raw), &parsed); jsonErr != nil {
		zerolog.Ctx(ctx).Warn().Err(jsonErr).Msg("analysis response is not valid JSON, keeping raw output")
		parsed = map[string]any{
			"summary":      "failed to parse model response",
			rawResponseKey: raw,
		}
	}

	if s, ok := parsed["summary"].(string); ok {
		summary = s
	}
	buf, err := json.Marshal(parsed)
	if err != nil {
		return nil, "", err
	}
	return buf, summary, nil
}

func buildAnalysisPrompt(renderedTranscript, queryText string) string {
	var b strings.Builder
	b.WriteString("You are a call-center conversation analyst. ")
	b.WriteString("You are given the full transcript of a call and a research query from a marketer.\n\n")
	b.WriteString("Transcript (with speaker roles):\n")
	b.WriteString(renderedTranscript)
	b.WriteString("\n\nResearch query:\n")
	b.WriteString(queryText)
	b.WriteString("\n\nAnswer strictly as JSON. Example structure:\n")
	b.WriteString(`{"summary": "short digest of the call", "findings": [{"criterion": "...", "value": "...", "evidence": ["quote1", "quote2"]}]}`)
	return b.String()
}

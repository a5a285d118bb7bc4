package handler

import (
	"context"
	"encoding/json"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"call-insights/dto"
	"call-insights/repository"
	"call-insights/service"
)

type ServiceDependencies struct {
	AnalysisService *service.AnalysisService
	Pipeline        *service.Pipeline
	Repo            repository.Repository
}

// AnalysisJobHandler consumes one submitted analysis and runs it to
// completion; per-call failures are absorbed inside the service.
func AnalysisJobHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var job dto.AnalysisJobMessage
	if err := json.Unmarshal(msg.Body, &job); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal analysis job message")
		return err
	}

	zerolog.Ctx(ctx).Info().
		Str("analysis_id", job.AnalysisID.String()).
		Bool("force", job.ForceRetranscribe).
		Msg("received analysis job")

	return deps.AnalysisService.Run(ctx, job.AnalysisID, job.ForceRetranscribe)
}

// RetranscribeHandler consumes a forced single-call pipeline request.
func RetranscribeHandler(ctx context.Context, msg amqp.Delivery, deps ServiceDependencies) error {
	var req dto.RetranscribeMessage
	if err := json.Unmarshal(msg.Body, &req); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to unmarshal retranscribe message")
		return err
	}

	call, err := deps.Repo.FindCallByID(ctx, req.CallID)
	if err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Str("call_id", req.CallID.String()).Msg("retranscribe target not found")
		return err
	}

	_, err = deps.Pipeline.Run(ctx, call, true)
	return err
}

package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"call-insights/constant"
	"call-insights/dto"
	"call-insights/entities"
	"call-insights/service"
)

func (a *api) listAnalyses(c *gin.Context) {
	analyses, err := a.repo.ListAnalyses(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, analyses)
}

func (a *api) createAnalysis(c *gin.Context) {
	var req dto.CreateAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.CallIDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no calls selected"})
		return
	}

	ctx := c.Request.Context()
	calls, err := a.repo.FindCallsByIDs(ctx, req.CallIDs)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if len(calls) != len(req.CallIDs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "some calls do not exist"})
		return
	}

	analysis := &entities.Analysis{
		ID:         uuid.New(),
		Name:       req.Name,
		QueryText:  req.QueryText,
		Status:     constant.AnalysisStatusPending,
		Progress:   0,
		TotalCalls: len(req.CallIDs),
	}
	if err := a.repo.CreateAnalysis(ctx, analysis, req.CallIDs); err != nil {
		abortWithError(c, err)
		return
	}

	msg := dto.AnalysisJobMessage{AnalysisID: analysis.ID, ForceRetranscribe: req.ForceRetranscribe}
	if err := a.publisher.Publish(ctx, analysisQueue, msg); err != nil {
		zerolog.Ctx(ctx).Error().Err(err).Msg("failed to publish analysis job")
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, analysis)
}

func (a *api) getAnalysisStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	ctx := c.Request.Context()
	analysis, err := a.repo.FindAnalysisByID(ctx, id)
	if err != nil {
		abortWithError(c, service.ErrAnalysisNotFound)
		return
	}
	processed, err := a.repo.CountProcessedCalls(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	errorCount, err := a.repo.CountErrorCalls(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.AnalysisStatusResponse{
		ID:             analysis.ID,
		Status:         analysis.Status.String(),
		Progress:       analysis.Progress,
		TotalCalls:     analysis.TotalCalls,
		ProcessedCalls: processed,
		ErrorCount:     errorCount,
	})
}

func (a *api) getAnalysisResults(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	ctx := c.Request.Context()
	if _, err := a.repo.FindAnalysisByID(ctx, id); err != nil {
		abortWithError(c, service.ErrAnalysisNotFound)
		return
	}
	results, err := a.repo.ListAnalysisResults(ctx, id)
	if err != nil {
		abortWithError(c, err)
		return
	}

	ids := make([]uuid.UUID, 0, len(results))
	for _, result := range results {
		ids = append(ids, result.CallID)
	}
	filenames := map[uuid.UUID]string{}
	if len(ids) > 0 {
		calls, err := a.repo.FindCallsByIDs(ctx, ids)
		if err != nil {
			abortWithError(c, err)
			return
		}
		for _, call := range calls {
			filenames[call.ID] = call.Filename
		}
	}

	rows := make([]dto.AnalysisResultRow, 0, len(results))
	for _, result := range results {
		rows = append(rows, dto.AnalysisResultRow{
			ID:         result.ID,
			AnalysisID: result.AnalysisID,
			CallID:     result.CallID,
			Filename:   filenames[result.CallID],
			Summary:    result.Summary,
			JSONResult: result.JSONResult,
		})
	}
	c.JSON(http.StatusOK, rows)
}

func (a *api) getAnalysisDashboard(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid analysis id"})
		return
	}

	dashboard, err := a.dashboard.Build(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboard)
}

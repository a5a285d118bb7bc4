package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"call-insights/pkg/rabbitmq"
	"call-insights/repository"
	"call-insights/service"
)

type api struct {
	calls     *service.CallService
	dashboard *service.DashboardService
	repo      repository.Repository
	publisher rabbitmq.Publisher
}

func (a *api) registerRoutes(r *gin.Engine) {
	calls := r.Group("/calls")
	{
		calls.POST("/upload", a.uploadCalls)
		calls.GET("", a.listCalls)
		calls.GET("/:id/transcript", a.getTranscript)
		calls.POST("/:id/retranscribe", a.retranscribeCall)
		calls.DELETE("/:id", a.deleteCall)
	}

	analysis := r.Group("/analysis")
	{
		analysis.GET("", a.listAnalyses)
		analysis.POST("", a.createAnalysis)
		analysis.GET("/:id", a.getAnalysisStatus)
		analysis.GET("/:id/results", a.getAnalysisResults)
		analysis.GET("/:id/dashboard", a.getAnalysisDashboard)
	}

	templates := r.Group("/templates")
	{
		templates.GET("", a.listTemplates)
		templates.POST("", a.createTemplate)
	}
}

func httpStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrCallNotFound),
		errors.Is(err, service.ErrAnalysisNotFound),
		errors.Is(err, service.ErrTranscriptMissing):
		return http.StatusNotFound
	case errors.Is(err, service.ErrCallNotProcessed),
		errors.Is(err, service.ErrUnsupportedFormat):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAlreadyProcessing):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	c.JSON(httpStatus(err), gin.H{"error": err.Error()})
}

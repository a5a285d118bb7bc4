package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"call-insights/dto"
	"call-insights/entities"
)

func (a *api) listTemplates(c *gin.Context) {
	templates, err := a.repo.ListTemplates(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, templates)
}

func (a *api) createTemplate(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category := req.Category
	if category == "" {
		category = "general"
	}
	template := &entities.AnalysisTemplate{
		ID:          uuid.New(),
		Name:        req.Name,
		Description: req.Description,
		QueryText:   req.QueryText,
		Category:    category,
	}
	if err := a.repo.CreateTemplate(c.Request.Context(), template); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, template)
}

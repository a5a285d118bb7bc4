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

func (a *api) uploadCalls(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart form expected"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files provided"})
		return
	}

	created := make([]*entities.Call, 0, len(files))
	for _, fileHeader := range files {
		f, err := fileHeader.Open()
		if err != nil {
			abortWithError(c, err)
			return
		}
		call, err := a.calls.Upload(c.Request.Context(), fileHeader.Filename, f, fileHeader.Size)
		f.Close()
		if err != nil {
			abortWithError(c, err)
			return
		}
		created = append(created, call)
	}

	c.JSON(http.StatusCreated, created)
}

func (a *api) listCalls(c *gin.Context) {
	status := constant.CallStatus(c.Query("status"))
	search := c.Query("search")

	calls, err := a.calls.List(c.Request.Context(), status, search)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, calls)
}

func (a *api) getTranscript(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call id"})
		return
	}

	t, err := a.calls.GetTranscript(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (a *api) retranscribeCall(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call id"})
		return
	}

	call, err := a.calls.Get(c.Request.Context(), id)
	if err != nil {
		abortWithError(c, err)
		return
	}
	if call.Status == constant.CallStatusProcessing {
		abortWithError(c, service.ErrAlreadyProcessing)
		return
	}

	msg := dto.RetranscribeMessage{CallID: id}
	if err := a.publisher.Publish(c.Request.Context(), retranscribeQueue, msg); err != nil {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Msg("failed to publish retranscribe request")
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "queued", "call_id": id})
}

func (a *api) deleteCall(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid call id"})
		return
	}

	if err := a.calls.Delete(c.Request.Context(), id); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

package handler

import (
	"net/http"

	"github.com/RPwnage/EA-Software-sub002/internal/model"
	"github.com/RPwnage/EA-Software-sub002/internal/service"
	"github.com/gin-gonic/gin"
)

// HandlesHandler handles activity-handle endpoints.
type HandlesHandler struct {
	dir *service.Directory
}

// NewHandlesHandler creates a handles handler.
func NewHandlesHandler(dir *service.Directory) *HandlesHandler {
	return &HandlesHandler{dir: dir}
}

// SetActivity godoc
// POST /handles
func (h *HandlesHandler) SetActivity(c *gin.Context) {
	var req model.SetActivityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	if req.SessionRef.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionRef.name required"})
		return
	}
	resp, err := h.dir.SetActivity(callerFromHeaders(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// GetActivity godoc
// POST /handles/query
func (h *HandlesHandler) GetActivity(c *gin.Context) {
	var req model.ActivityQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "message": err.Error()})
		return
	}
	resp, err := h.dir.GetActivity(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arnavshah/position-helper-go/pkg/health"
	"github.com/arnavshah/position-helper-go/pkg/models"
	"github.com/arnavshah/position-helper-go/pkg/rules"
	"github.com/arnavshah/position-helper-go/pkg/scheduler"
)

type draftRequest struct {
	Date  string       `json:"date" binding:"required"`
	Draft models.Draft `json:"draft"`
	Mode  string       `json:"mode"`
}

// Suggest proposes assignments for the week being edited
func (h *Handler) Suggest(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.ValidateWeekDate(req.Date); err != nil {
		h.fail(c, err)
		return
	}
	mode := scheduler.FillEmptyOnly
	if req.Mode != "" {
		m, err := scheduler.ParseMode(req.Mode)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mode = m
	}

	data, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, scheduler.Suggest(data, req.Date, req.Draft, mode, h.Config.Suggest.Options()))
}

// Warnings returns the advisory messages for a draft
func (h *Handler) Warnings(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := models.ValidateWeekDate(req.Date); err != nil {
		h.fail(c, err)
		return
	}

	data, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"warnings": rules.ComputeWarnings(req.Date, req.Draft, data)})
}

// HealthReport scans the stored data for integrity problems
func (h *Handler) HealthReport(c *gin.Context) {
	data, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, health.Scan(data))
}

// FixHealth clears orphan references and returns the report of the repaired data
func (h *Handler) FixHealth(c *gin.Context) {
	data, ok := h.current(c)
	if !ok {
		return
	}

	before := health.Scan(data)
	if !before.Fixable() {
		c.JSON(http.StatusOK, gin.H{"fixed": 0, "report": before})
		return
	}

	fixed := health.FixOrphans(data)
	if err := h.State.Replace(c.Request.Context(), fixed); err != nil {
		h.fail(c, err)
		return
	}

	after := health.Scan(fixed)
	c.JSON(http.StatusOK, gin.H{
		"fixed":  len(before.Issues) - len(after.Issues),
		"report": after,
	})
}

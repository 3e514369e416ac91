package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/position-helper-go/pkg/database"
	"github.com/arnavshah/position-helper-go/pkg/dataio"
	"github.com/arnavshah/position-helper-go/pkg/models"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// decodeImport reads and validates an AppData payload. It writes the 400 response itself.
func (h *Handler) decodeImport(c *gin.Context) (*models.AppData, bool) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	}
	data, issues, err := h.validate.Decode(raw)
	if err != nil {
		if errors.Is(err, dataio.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "issues": issues})
			return nil, false
		}
		h.fail(c, err)
		return nil, false
	}
	return data, true
}

// ValidateImport checks an import payload without storing it
func (h *Handler) ValidateImport(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"valid": false, "error": err.Error()})
		return
	}

	data, issues, err := h.validate.Decode(raw)
	if err != nil {
		c.JSON(http.StatusOK, gin.H{
			"valid":  false,
			"error":  err.Error(),
			"issues": issues,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"stats": gin.H{
			"member_count": len(data.Members),
			"week_count":   len(data.Weeks),
		},
	})
}

// Import combines a payload with the stored data using the strategy query parameter
func (h *Handler) Import(c *gin.Context) {
	strategy, err := dataio.ParseStrategy(c.Query("strategy"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	incoming, ok := h.decodeImport(c)
	if !ok {
		return
	}
	current, ok := h.current(c)
	if !ok {
		return
	}

	merged := dataio.Merge(current, incoming, strategy)
	if err := h.State.Replace(c.Request.Context(), merged); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"strategy": strategy,
		"members":  len(merged.Members),
		"weeks":    len(merged.Weeks),
	})
}

// BatchImport upserts every member and week of the payload in one transaction
func (h *Handler) BatchImport(c *gin.Context) {
	data, ok := h.decodeImport(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.Store.BatchImport(ctx, data); err != nil {
		h.fail(c, err)
		return
	}
	if err := h.State.Refresh(ctx); err != nil {
		h.fail(c, err)
		return
	}

	if _, err := h.Store.RecordActivity(ctx, database.Activity{
		Type:  "batch_import",
		Title: "batch import",
		Meta:  map[string]interface{}{"members": len(data.Members), "weeks": len(data.Weeks)},
	}); err != nil {
		h.Log.Warn("could not record activity", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"members": len(data.Members),
		"weeks":   len(data.Weeks),
	})
}

func exportOptions(c *gin.Context) (dataio.ExportOptions, error) {
	var opts dataio.ExportOptions
	if err := c.ShouldBindQuery(&opts); err != nil {
		return opts, err
	}
	if _, ok := c.GetQuery("members"); !ok {
		if _, ok := c.GetQuery("weeks"); !ok {
			opts.IncludeMembers, opts.IncludeWeeks = true, true
		}
	}
	for _, d := range []string{opts.Start, opts.End} {
		if d == "" {
			continue
		}
		if err := models.ValidateWeekDate(d); err != nil {
			return opts, err
		}
	}
	return opts, nil
}

func attachment(c *gin.Context, ext string) {
	name := fmt.Sprintf("position-helper-%s.%s", models.FormatWeekDate(time.Now()), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
}

// ExportJSON downloads the selected sections as JSON
func (h *Handler) ExportJSON(c *gin.Context) {
	opts, err := exportOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	data, ok := h.current(c)
	if !ok {
		return
	}
	attachment(c, "json")
	c.JSON(http.StatusOK, dataio.FilterForExport(data, opts))
}

// ExportWorkbook downloads the schedule as an xlsx workbook
func (h *Handler) ExportWorkbook(c *gin.Context) {
	data, ok := h.current(c)
	if !ok {
		return
	}
	attachment(c, "xlsx")
	c.Header("Content-Type", xlsxContentType)
	c.Status(http.StatusOK)
	if err := dataio.WriteWorkbook(data, c.Writer); err != nil {
		h.Log.Error("could not write workbook", zap.Error(err))
		_ = c.Error(err)
	}
}

// MemberCalendar serves the iCalendar feed of one member
func (h *Handler) MemberCalendar(c *gin.Context) {
	data, ok := h.current(c)
	if !ok {
		return
	}
	ics, err := dataio.MemberCalendar(data, c.Param("name"))
	if errors.Is(err, models.ErrInvalidMember) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(ics))
}

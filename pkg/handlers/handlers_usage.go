package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/arnavshah/position-helper-go/pkg/database"
	"github.com/arnavshah/position-helper-go/pkg/history"
	"github.com/arnavshah/position-helper-go/pkg/models"
	"github.com/arnavshah/position-helper-go/pkg/scheduler"
	"github.com/arnavshah/position-helper-go/pkg/session"
)

// listenerTimeout bounds the work a state listener does outside the request
const listenerTimeout = 10 * time.Second

// Stats returns per-member workload up to an optional date
func (h *Handler) Stats(c *gin.Context) {
	date := c.Query("date")
	if date != "" {
		if err := models.ValidateWeekDate(date); err != nil {
			h.fail(c, err)
			return
		}
	}

	data, ok := h.current(c)
	if !ok {
		return
	}

	opts := h.Config.Suggest.Options()
	sum := history.Aggregate(data, date, history.Options{AbsenceWindow: opts.AbsenceWindow})

	loads := make(map[string]float64, len(sum.Members))
	for name, st := range sum.Members {
		loads[name] = float64(st.TotalAssignments)
	}

	c.JSON(http.StatusOK, gin.H{
		"members":        sum.Sorted(),
		"max_total":      sum.MaxTotal,
		"avg_role_load":  sum.AvgRoleLoad,
		"active_count":   sum.ActiveCount,
		"fairness_score": scheduler.FairnessScore(loads),
		"generations":    models.GenerationList(data.Members),
	})
}

// Activities returns the change feed, newest first
func (h *Handler) Activities(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	items, err := h.Store.ListActivities(c.Request.Context(), limit)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": items})
}

// activityFor describes a state change for the feed. Reloads are not recorded.
func activityFor(ev session.Event) (database.Activity, bool) {
	a := database.Activity{Type: string(ev.Type), Timestamp: ev.At.UTC()}
	switch ev.Type {
	case session.EventAssigned:
		member := ev.Member
		if member == "" || member == models.BlankValue {
			member = "-"
		}
		a.Title = fmt.Sprintf("%s assigned", ev.Date)
		if ev.Slot != nil {
			a.Description = fmt.Sprintf("%s: %s", ev.Slot.Label(), member)
			a.Meta = map[string]interface{}{"date": ev.Date, "slot": ev.Slot.Key(), "member": ev.Member}
		}
	case session.EventWeekSaved:
		a.Title = fmt.Sprintf("%s saved", ev.Date)
		a.Meta = map[string]interface{}{"date": ev.Date}
	case session.EventFinalized:
		a.Title = fmt.Sprintf("%s finalized", ev.Date)
		a.Meta = map[string]interface{}{"date": ev.Date}
	case session.EventMemberSaved:
		a.Title = fmt.Sprintf("%s saved", ev.Member)
		a.Meta = map[string]interface{}{"member": ev.Member}
	case session.EventMemberDeleted:
		a.Title = fmt.Sprintf("%s removed", ev.Member)
		a.Meta = map[string]interface{}{"member": ev.Member}
	case session.EventReplaced:
		a.Title = "data replaced"
	default:
		return a, false
	}
	return a, true
}

func (h *Handler) recordActivity(ev session.Event) {
	a, ok := activityFor(ev)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
	defer cancel()
	if _, err := h.Store.RecordActivity(ctx, a); err != nil {
		h.Log.Warn("could not record activity", zap.String("type", a.Type), zap.Error(err))
	}
}

func (h *Handler) announceFinalized(ev session.Event) {
	if ev.Type != session.EventFinalized || ev.Week == nil || !h.Notifier.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), listenerTimeout)
	defer cancel()
	if err := h.Notifier.WeekFinalized(ctx, ev.Date, *ev.Week); err != nil {
		h.Log.Warn("could not send finalize notification", zap.String("date", ev.Date), zap.Error(err))
	}
}

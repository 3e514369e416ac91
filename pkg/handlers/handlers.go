package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavshah/position-helper-go/pkg/auth"
	"github.com/arnavshah/position-helper-go/pkg/config"
	"github.com/arnavshah/position-helper-go/pkg/database"
	"github.com/arnavshah/position-helper-go/pkg/dataio"
	"github.com/arnavshah/position-helper-go/pkg/models"
	"github.com/arnavshah/position-helper-go/pkg/notify"
	"github.com/arnavshah/position-helper-go/pkg/session"
)

const requestIDKey = "request_id"

// Handler contains dependencies for the route handlers
type Handler struct {
	State    *session.State
	Store    *database.Store
	Auth     *auth.Manager
	Notifier *notify.Notifier
	Config   *config.Config
	Log      *zap.Logger

	validate *dataio.Validator
}

// New loads the current data and subscribes the activity feed and the finalize
// notification to state changes
func New(ctx context.Context, cfg *config.Config, store *database.Store, am *auth.Manager, n *notify.Notifier, log *zap.Logger) (*Handler, error) {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{
		State:    session.New(store),
		Store:    store,
		Auth:     am,
		Notifier: n,
		Config:   cfg,
		Log:      log,
		validate: dataio.NewValidator(),
	}
	if err := h.State.Refresh(ctx); err != nil {
		return nil, err
	}
	h.State.Subscribe(h.recordActivity)
	h.State.Subscribe(h.announceFinalized)
	return h, nil
}

// RegisterRoutes mounts every endpoint on r
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Position Helper API",
			"version": "1.0.0",
		})
	})
	r.GET("/healthz", h.Healthz)

	api := r.Group("/api")
	{
		api.POST("/login", h.Login)
		api.POST("/logout", h.Logout)
		api.GET("/check-auth", h.CheckAuth)

		api.GET("/data", h.GetData)
		api.POST("/suggest", h.Suggest)
		api.POST("/warnings", h.Warnings)
		api.GET("/health", h.HealthReport)
		api.GET("/stats", h.Stats)
		api.GET("/activities", h.Activities)
		api.POST("/validate", h.ValidateImport)
		api.GET("/export", h.ExportJSON)
		api.GET("/export.xlsx", h.ExportWorkbook)
		api.GET("/members/:name/calendar.ics", h.MemberCalendar)
	}

	admin := r.Group("/api")
	admin.Use(h.AuthMiddleware())
	{
		admin.PUT("/weeks/:date", h.SaveWeek)
		admin.PUT("/weeks/:date/slot", h.AssignSlot)
		admin.POST("/weeks/:date/finalize", h.FinalizeWeek)
		admin.PUT("/members", h.SaveMember)
		admin.DELETE("/members/:name", h.DeleteMember)
		admin.POST("/batch-import", h.BatchImport)
		admin.POST("/import", h.Import)
		admin.POST("/health/fix", h.FixHealth)
	}
}

// RequestID reads X-Request-ID or generates one and echoes it back
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader("X-Request-ID")
		if rid == "" || len(rid) > 64 {
			rid = uuid.New().String()
		}
		c.Set(requestIDKey, rid)
		c.Header("X-Request-ID", rid)
		c.Next()
	}
}

// Logger logs every request with zap
func Logger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.ByType(gin.ErrorTypePrivate).String()))
		}

		switch {
		case status >= 500:
			log.Error("request failed", fields...)
		case status >= 400:
			log.Warn("client error", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

// tokenFromRequest prefers the session cookie and falls back to a Bearer header
func tokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(auth.CookieName); err == nil && token != "" {
		return token
	}
	token := c.GetHeader("Authorization")
	if len(token) > 7 && token[:7] == "Bearer " {
		return token[7:]
	}
	return ""
}

// AuthMiddleware verifies the session token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFromRequest(c)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set("role", claims.Role)
		c.Next()
	}
}

// Login checks the shared admin password and sets the session cookie
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Auth.Login(req.Password)
	if errors.Is(err, auth.ErrInvalidPassword) {
		// slow down guessing
		time.Sleep(h.Config.Server.LoginDelay)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid password"})
		return
	}
	if err != nil {
		h.Log.Error("login failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	h.setSessionCookie(c, token, int(h.Auth.TTL().Seconds()))
	c.JSON(http.StatusOK, gin.H{"success": true, "access_token": token, "token_type": "bearer"})
}

// Logout clears the session cookie
func (h *Handler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(auth.CookieName, value, maxAge, "/", "", h.Config.Auth.CookieSecure, true)
}

// CheckAuth reports whether the request carries a valid session
func (h *Handler) CheckAuth(c *gin.Context) {
	token := tokenFromRequest(c)
	if token == "" {
		c.JSON(http.StatusOK, gin.H{"authenticated": false})
		return
	}
	_, err := h.Auth.VerifyToken(token)
	c.JSON(http.StatusOK, gin.H{"authenticated": err == nil})
}

// Healthz pings the database
func (h *Handler) Healthz(c *gin.Context) {
	c.Header("Cache-Control", "no-store")
	latency, err := h.Store.Ping(c.Request.Context())
	if err != nil {
		h.Log.Warn("database ping failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "error",
			"db":      "disconnected",
			"error":   err.Error(),
			"latency": latency.Milliseconds(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"db":      "connected",
		"latency": latency.Milliseconds(),
	})
}

// GetData returns the full snapshot
func (h *Handler) GetData(c *gin.Context) {
	data, ok := h.current(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, data)
}

// current reloads the shared state so writes from other instances are visible
func (h *Handler) current(c *gin.Context) (*models.AppData, bool) {
	if err := h.State.Refresh(c.Request.Context()); err != nil {
		h.fail(c, err)
		return nil, false
	}
	return h.State.Snapshot(), true
}

// fail maps an error to a status code and a JSON body
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidDate),
		errors.Is(err, models.ErrInvalidRole),
		errors.Is(err, models.ErrInvalidPart),
		errors.Is(err, models.ErrInvalidSlot),
		errors.Is(err, models.ErrInvalidMember),
		errors.Is(err, dataio.ErrInvalidPayload):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, database.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		h.Log.Error("request failed", zap.Error(err), zap.String("path", c.Request.URL.Path))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// SaveWeek stores a whole week
func (h *Handler) SaveWeek(c *gin.Context) {
	date, week, ok := h.bindWeek(c)
	if !ok {
		return
	}
	if err := h.State.SaveWeek(c.Request.Context(), date, week); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// FinalizeWeek stores the week as the confirmed schedule and announces it
func (h *Handler) FinalizeWeek(c *gin.Context) {
	date, week, ok := h.bindWeek(c)
	if !ok {
		return
	}
	if err := h.State.Finalize(c.Request.Context(), date, week); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "date": date})
}

func (h *Handler) bindWeek(c *gin.Context) (string, models.WeekData, bool) {
	date := c.Param("date")
	if err := models.ValidateWeekDate(date); err != nil {
		h.fail(c, err)
		return "", models.WeekData{}, false
	}

	var req struct {
		WeekData *models.WeekData `json:"weekData" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return "", models.WeekData{}, false
	}
	if issues := h.validate.Struct(req.WeekData); len(issues) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid week", "issues": issues})
		return "", models.WeekData{}, false
	}
	return date, *req.WeekData, true
}

// AssignSlot writes one member into one slot of a week
func (h *Handler) AssignSlot(c *gin.Context) {
	var req struct {
		Part   string `json:"part" binding:"required"`
		Role   string `json:"role" binding:"required"`
		Index  *int   `json:"index"`
		Member string `json:"member"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// roster checks need the latest members
	if _, ok := h.current(c); !ok {
		return
	}

	slot := models.SlotDescriptor{Part: models.Part(req.Part), Role: models.Role(req.Role), Index: req.Index}
	week, err := h.State.Assign(c.Request.Context(), c.Param("date"), slot, req.Member)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "week": week})
}

// SaveMember adds or updates a roster entry
func (h *Handler) SaveMember(c *gin.Context) {
	var req struct {
		Member *models.Member `json:"member" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	m, err := h.State.SaveMember(c.Request.Context(), *req.Member)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "member": m})
}

// DeleteMember removes a roster entry. Past weeks keep the name.
func (h *Handler) DeleteMember(c *gin.Context) {
	name := strings.TrimSpace(c.Param("name"))
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if err := h.State.DeleteMember(c.Request.Context(), name); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

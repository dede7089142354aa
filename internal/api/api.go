// Package api exposes run control over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-jobfilter-automation/internal/config"
	"go-jobfilter-automation/internal/orchestrator"
)

// Runner is the run control the API drives.
type Runner interface {
	Start(ctx context.Context) bool
	Stop()
	Status() orchestrator.Snapshot
}

// SettingsStore is the editable run settings. The next run picks up a save.
type SettingsStore interface {
	Load(ctx context.Context) (config.Settings, error)
	Save(ctx context.Context, st config.Settings) error
}

type handler struct {
	// runs outlive the request that started them
	baseCtx  context.Context
	runner   Runner
	settings SettingsStore
}

// NewRouter registers the control routes. Runs started over HTTP use
// baseCtx, not the request context. The settings routes exist only when
// store is not nil.
func NewRouter(baseCtx context.Context, runner Runner, store SettingsStore) *gin.Engine {
	h := &handler{baseCtx: baseCtx, runner: runner, settings: store}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/", h.health)
	runs := r.Group("/runs")
	{
		runs.POST("", h.start)
		runs.POST("/stop", h.stop)
		runs.GET("/status", h.status)
	}
	if store != nil {
		r.GET("/settings", h.getSettings)
		r.PUT("/settings", h.putSettings)
	}
	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "LinkedIn job filter API is running!",
		"status":  "healthy",
	})
}

func (h *handler) start(c *gin.Context) {
	if !h.runner.Start(h.baseCtx) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "run already in progress",
			"status": h.runner.Status(),
		})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"started": true,
		"status":  h.runner.Status(),
	})
}

func (h *handler) stop(c *gin.Context) {
	h.runner.Stop()
	c.JSON(http.StatusAccepted, gin.H{"stopping": true})
}

func (h *handler) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.runner.Status())
}

// settingsView hides the API key.
type settingsView struct {
	config.Settings
	HasClassifierAPIKey bool `json:"hasClassifierApiKey"`
}

func newSettingsView(st config.Settings) settingsView {
	v := settingsView{Settings: st, HasClassifierAPIKey: st.ClassifierAPIKey != ""}
	v.ClassifierAPIKey = ""
	return v
}

func (h *handler) getSettings(c *gin.Context) {
	st, err := h.settings.Load(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newSettingsView(st))
}

func (h *handler) putSettings(c *gin.Context) {
	var st config.Settings
	if err := c.ShouldBindJSON(&st); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if _, err := config.BuildRunConfig(st, config.DefaultLimits(), "YES"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.settings.Save(c.Request.Context(), st); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, newSettingsView(st))
}

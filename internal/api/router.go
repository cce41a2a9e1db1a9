// Package api exposes the safety checker over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Skufu/medsafe/internal/audit"
	"github.com/Skufu/medsafe/internal/engine"
	"github.com/Skufu/medsafe/internal/kb"
	"github.com/Skufu/medsafe/internal/report"
)

const (
	defaultSearchLimit = 20
	maxSearchLimit     = 200
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the HTTP layer. DB may be nil when no
// database is configured; Audit defaults to audit.Nop.
type Deps struct {
	KB        *kb.KnowledgeBase
	Evaluator *engine.Evaluator
	Audit     audit.Emitter
	DB        HealthChecker
	Logger    *logrus.Logger
	Now       func() time.Time
}

type handler struct {
	Deps
}

func NewRouter(d Deps) *gin.Engine {
	if d.Audit == nil {
		d.Audit = audit.Nop{}
	}
	if d.Logger == nil {
		d.Logger = logrus.StandardLogger()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handler{Deps: d}

	router := gin.New()
	router.Use(
		gin.Logger(),
		gin.Recovery(),
		requestID(),
		limitBodySize(1<<20), // 1MB max body
		cors.New(cors.Config{
			AllowOrigins: []string{"*"},
			AllowMethods: []string{"GET", "POST", "OPTIONS"},
			AllowHeaders: []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
			MaxAge:       12 * time.Hour,
		}),
	)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/readyz", h.ready)

	api := router.Group("/api")
	{
		api.GET("/conditions", h.conditions)
		api.GET("/drugs", h.searchDrugs)
		api.GET("/drugs/:id", h.getDrug)
		api.POST("/checks", h.check)
	}

	return router
}

func (h *handler) ready(c *gin.Context) {
	stats := h.KB.Stats()
	if h.DB == nil {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "disabled", "kb": stats})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.DB.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "degraded",
			"db":     fmt.Sprintf("unhealthy: %v", err),
			"kb":     stats,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "db": "ok", "kb": stats})
}

type conditionView struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

func (h *handler) conditions(c *gin.Context) {
	out := make([]conditionView, 0, len(engine.Conditions))
	for _, code := range engine.Conditions {
		out = append(out, conditionView{Code: code, Label: report.Humanize(code)})
	}
	c.JSON(http.StatusOK, gin.H{"conditions": out})
}

func (h *handler) searchDrugs(c *gin.Context) {
	limit := defaultSearchLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, maxSearchLimit)
	}

	drugs := h.KB.Search(c.Query("q"), limit)
	c.JSON(http.StatusOK, gin.H{"drugs": drugs, "count": len(drugs)})
}

func (h *handler) getDrug(c *gin.Context) {
	id := c.Param("id")
	drug, err := h.KB.LookupDrug(id)
	if err != nil {
		unknownDrug(c, id)
		return
	}

	foods := []kb.FoodInteraction{}
	for f := range h.KB.FoodInteractions(id) {
		foods = append(foods, f)
	}
	c.JSON(http.StatusOK, gin.H{
		"drug":             drug,
		"foodInteractions": foods,
		"foodNotes":        nonNil(h.KB.FoodNotes(id)),
		"classes":          nonNil(h.KB.Classes(id)),
	})
}

type checkPayload struct {
	QueryDrugID          string   `json:"queryDrugId"`
	Conditions           []string `json:"conditions"`
	CurrentMedicationIDs []string `json:"currentMedicationIds"`
}

type checkResponse struct {
	engine.CheckResult
	Lines   []string `json:"lines"`
	Message string   `json:"message"`
}

func (h *handler) check(c *gin.Context) {
	var payload checkPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	req, err := engine.NewCheckRequest(payload.QueryDrugID, payload.Conditions, payload.CurrentMedicationIDs)
	if err != nil {
		var verr *engine.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "details": []*engine.ValidationError{verr}})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	res, err := h.Evaluator.Evaluate(req)
	if errors.Is(err, kb.ErrUnknownDrug) {
		unknownDrug(c, req.QueryDrugID)
		return
	}
	if err != nil {
		h.Logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"error":      err,
		}).Error("Check failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "check failed"})
		return
	}

	rec := audit.NewRecord(res, h.KB, h.Now())
	if err := h.Audit.Emit(c.Request.Context(), rec); err != nil {
		h.Logger.WithFields(logrus.Fields{
			"request_id": c.GetString("request_id"),
			"query_drug": res.QueryDrug.ID,
			"error":      err,
		}).Warn("Failed to write audit record")
	}

	lines := make([]string, 0, len(res.Warnings))
	for _, w := range res.Warnings {
		lines = append(lines, report.Line(w, h.KB))
	}
	c.JSON(http.StatusOK, checkResponse{CheckResult: res, Lines: lines, Message: report.Message(res)})
}

func unknownDrug(c *gin.Context, id string) {
	c.JSON(http.StatusNotFound, gin.H{
		"error":   "unknown_drug",
		"message": "unknown medicine",
		"id":      id,
	})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
